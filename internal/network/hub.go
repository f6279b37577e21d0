// Package network exposes the running simulation over WebSocket and HTTP.
package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dmaslov/temporal-maze/internal/events"
	"github.com/dmaslov/temporal-maze/internal/platform/logger"
	"github.com/dmaslov/temporal-maze/internal/platform/metrics"
	"github.com/dmaslov/temporal-maze/internal/sim"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex

	runner *sim.Runner
	logger *logger.Logger
}

// NewHub initializes a new WebSocket Hub attached to a simulation runner.
func NewHub(runner *sim.Runner, log *logger.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		runner:     runner,
		logger:     log,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Get().RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.Get().RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					metrics.Get().RecordWSMessage(false)
				default:
					close(client.send)
					delete(h.clients, client)
					metrics.Get().RecordWSConnection(-1)
				}
			}
			h.mu.Unlock()
		}
	}
}

// wsMessage is the envelope every outbound frame uses so clients can route
// snapshots and events off one stream.
type wsMessage struct {
	Kind    string      `json:"kind"` // "event" or "snapshot"
	Payload interface{} `json:"payload"`
}

// BroadcastEvent serializes a GameEvent and sends it to all connected clients.
func (h *Hub) BroadcastEvent(event events.GameEvent) {
	payload, err := json.Marshal(wsMessage{Kind: "event", Payload: event})
	if err != nil {
		h.logger.Error("Failed to serialize GameEvent for WebSocket broadcast: " + err.Error())
		metrics.Get().RecordWSError()
		return
	}
	h.broadcast <- payload
}

// BroadcastSnapshot serializes a session snapshot and sends it to all clients.
func (h *Hub) BroadcastSnapshot(snap sim.Snapshot) {
	payload, err := json.Marshal(wsMessage{Kind: "snapshot", Payload: snap})
	if err != nil {
		h.logger.Error("Failed to serialize Snapshot for WebSocket broadcast: " + err.Error())
		metrics.Get().RecordWSError()
		return
	}
	h.broadcast <- payload
}

// StartEventPoller spawns a goroutine that polls the EventLog and pushes new
// events plus the current snapshot to the Hub. The hub runs independently
// from the simulation tick loop while picking up the same events.
func (h *Hub) StartEventPoller(ctx context.Context, eventLog *events.EventLog) {
	go func() {
		pollInterval := time.NewTicker(200 * time.Millisecond)
		defer pollInterval.Stop()

		lastProcessedEvent := 0

		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				allEvents := eventLog.Replay()
				newEventsCount := len(allEvents) - lastProcessedEvent

				if newEventsCount > 0 {
					newEvents := allEvents[lastProcessedEvent:]
					for _, event := range newEvents {
						h.BroadcastEvent(event)
					}
					lastProcessedEvent = len(allEvents)
					h.BroadcastSnapshot(h.runner.Snapshot())
				}
			}
		}
	}()
}
