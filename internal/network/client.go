package network

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmaslov/temporal-maze/internal/domain/grid"
	"github.com/dmaslov/temporal-maze/internal/platform/metrics"
	"github.com/dmaslov/temporal-maze/internal/sim"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Client represents an active WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// PlayerAction represents an incoming command from the frontend.
type PlayerAction struct {
	Type    string          `json:"type"`    // "MOVE", "CLONE", "RESET"
	Payload json.RawMessage `json:"payload"` // Action-specific data
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump pumps messages from the websocket connection to the simulation.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Error("Failed to parse PlayerAction from WebSocket. err: " + err.Error())
			metrics.Get().RecordWSError()
			continue
		}

		c.handlePlayerAction(action)
	}
}

// directions maps wire names to unit steps.
var directions = map[string]grid.Direction{
	"UP":    grid.Up,
	"DOWN":  grid.Down,
	"LEFT":  grid.Left,
	"RIGHT": grid.Right,
	"STAY":  grid.Stay,
}

func (c *Client) handlePlayerAction(action PlayerAction) {
	switch action.Type {
	case "MOVE":
		c.handleMove(action.Payload)
	case "CLONE":
		c.handleClone(action.Payload)
	case "RESET":
		c.hub.runner.Enqueue(sim.Command{Kind: sim.CommandReset})
		c.hub.logger.Event("PLAYER_ACTION_RESET", "PLAYER", "Session reset requested")
	default:
		c.hub.logger.Warn("Unknown PlayerAction type: " + action.Type)
	}
}

func (c *Client) handleMove(rawPayload []byte) {
	var parsed struct {
		Direction string `json:"direction"`
	}
	if err := json.Unmarshal(rawPayload, &parsed); err != nil {
		c.hub.logger.Warn("Failed to parse move payload: " + err.Error())
		return
	}

	d, ok := directions[parsed.Direction]
	if !ok {
		c.hub.logger.Warn("Unknown move direction: " + parsed.Direction)
		return
	}

	c.hub.runner.Enqueue(sim.Command{Kind: sim.CommandMove, Move: d})
}

func (c *Client) handleClone(rawPayload []byte) {
	var parsed struct {
		StepsBack int `json:"steps_back"`
	}
	if err := json.Unmarshal(rawPayload, &parsed); err != nil {
		c.hub.logger.Warn("Failed to parse clone payload: " + err.Error())
		return
	}

	c.hub.runner.Enqueue(sim.Command{Kind: sim.CommandClone, StepsBack: parsed.StepsBack})
	c.hub.logger.Event("PLAYER_ACTION_CLONE", "PLAYER", "Clone requested")
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
