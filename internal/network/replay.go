// Package network - replay.go
// Replay endpoint - JSON export of the session's event history.
//
// It allows observers and tooling to replay the immutable record of a run:
// every move, switch press, clone spawn and capture, in tick order.
package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dmaslov/temporal-maze/internal/events"
	"github.com/dmaslov/temporal-maze/internal/platform/logger"
	"github.com/dmaslov/temporal-maze/internal/sim"
)

// ReplayHandler provides the replay API.
type ReplayHandler struct {
	eventLog *events.EventLog
	runner   *sim.Runner
	logger   *logger.Logger
}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler(el *events.EventLog, runner *sim.Runner, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		eventLog: el,
		runner:   runner,
		logger:   log,
	}
}

// ReplayEvent is a sanitized event for public viewing.
type ReplayEvent struct {
	ID        string      `json:"id"`
	Timestamp string      `json:"timestamp"`
	Tick      int         `json:"tick"`
	Type      string      `json:"type"`
	ActorID   string      `json:"actor_id"`
	Payload   interface{} `json:"payload,omitempty"`
}

// ReplayResponse is the API response for a replay request.
type ReplayResponse struct {
	TotalEvents int           `json:"total_events"`
	FilteredBy  string        `json:"filtered_by,omitempty"`
	GeneratedAt string        `json:"generated_at"`
	Events      []ReplayEvent `json:"events"`
}

// HandleReplay returns the event history of the running session.
// GET /api/replay?since_tick=N&type=CLONE_CREATED
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Optional filters
	sinceTickStr := r.URL.Query().Get("since_tick")
	eventType := r.URL.Query().Get("type")

	sinceTick := 0
	filterDesc := ""
	if sinceTickStr != "" {
		sinceTick, _ = strconv.Atoi(sinceTickStr)
		filterDesc = "Tick " + sinceTickStr + "+"
	}

	allEvents := rh.eventLog.GetSinceTick(sinceTick)

	var replayEvents []ReplayEvent
	for _, e := range allEvents {
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		replayEvents = append(replayEvents, convertToReplayEvent(e))
	}

	response := ReplayResponse{
		TotalEvents: len(replayEvents),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      replayEvents,
	}

	rh.logger.Event("REPLAY", "OBSERVER", "Events:"+strconv.Itoa(len(replayEvents)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleEventDetail returns one event by ID.
// GET /api/event?event_id=XXX
func (rh *ReplayHandler) HandleEventDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		rh.jsonError(w, "Missing event_id", http.StatusBadRequest)
		return
	}

	for _, e := range rh.eventLog.Replay() {
		if e.ID == eventID {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(convertToReplayEvent(e))
			return
		}
	}

	rh.jsonError(w, "Event not found", http.StatusNotFound)
}

// HandleStats returns aggregate statistics for the session's history.
// GET /api/stats
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	allEvents := rh.eventLog.Replay()

	stats := map[string]int{
		"total_events":   len(allEvents),
		"ticks":          0,
		"clones_created": 0,
		"switch_presses": 0,
		"keys_collected": 0,
		"captures":       0,
	}

	for _, e := range allEvents {
		switch e.Type {
		case events.EventTypeTick:
			stats["ticks"]++
		case events.EventTypeCloneCreated:
			stats["clones_created"]++
		case events.EventTypeSwitchPressed:
			stats["switch_presses"]++
		case events.EventTypeKeyCollected:
			stats["keys_collected"]++
		case events.EventTypeCapture:
			stats["captures"]++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"stats":        stats,
	})
}

// HandleState returns the current session snapshot.
// GET /api/state
func (rh *ReplayHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rh.runner.Snapshot())
}

// RegisterRoutes sets up the replay API routes.
func (rh *ReplayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/replay", rh.HandleReplay)
	mux.HandleFunc("/api/event", rh.HandleEventDetail)
	mux.HandleFunc("/api/stats", rh.HandleStats)
	mux.HandleFunc("/api/state", rh.HandleState)
}

// convertToReplayEvent transforms an internal event to public format.
func convertToReplayEvent(e events.GameEvent) ReplayEvent {
	return ReplayEvent{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format(time.RFC3339Nano),
		Tick:      e.Tick,
		Type:      string(e.Type),
		ActorID:   e.ActorID,
		Payload:   e.Payload,
	}
}

// jsonError sends an error response.
func (rh *ReplayHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
