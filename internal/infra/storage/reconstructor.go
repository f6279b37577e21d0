// Package storage - reconstructor.go
// Rebuilds session summaries from the event log.
// This is the core of the event-sourced design: state = f(events).
package storage

import (
	"context"
	"fmt"
	"time"
)

// Reconstructor rebuilds session state from the event log. It is used to
// repopulate the sessions table after a crash and for post-run auditing.
type Reconstructor struct {
	eventRepo EventRepository
}

// NewReconstructor creates a new state reconstructor.
func NewReconstructor(eventRepo EventRepository) *Reconstructor {
	return &Reconstructor{eventRepo: eventRepo}
}

// RebuildSession reconstructs a session record from its events alone.
func (r *Reconstructor) RebuildSession(ctx context.Context, sessionID string) (*SessionRecord, error) {
	events, err := r.eventRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for session: %w", err)
	}
	if len(events) == 0 {
		return nil, nil
	}

	rec := &SessionRecord{
		SessionID: sessionID,
		Outcome:   "RUNNING",
		StartedAt: events[0].Timestamp,
	}

	for _, e := range events {
		r.applyEvent(rec, e)
	}
	rec.LastUpdated = events[len(events)-1].Timestamp

	return rec, nil
}

// Timeline is a simplified event view for the replay screen.
type Timeline struct {
	Tick      int    `json:"tick"`
	EventType string `json:"event_type"`
	ActorID   string `json:"actor_id"`
	Summary   string `json:"summary"`
	Timestamp string `json:"timestamp"`
}

// GenerateTimeline creates the human-readable run history from a tick onward.
func (r *Reconstructor) GenerateTimeline(ctx context.Context, sessionID string, sinceTick int) ([]Timeline, error) {
	events, err := r.eventRepo.GetSinceTick(ctx, sessionID, sinceTick)
	if err != nil {
		return nil, err
	}

	var timeline []Timeline
	for _, e := range events {
		if e.EventType == "TICK" {
			continue
		}
		timeline = append(timeline, Timeline{
			Tick:      e.Tick,
			EventType: e.EventType,
			ActorID:   e.ActorID,
			Summary:   r.summarizeEvent(e),
			Timestamp: e.Timestamp.Format(time.RFC3339),
		})
	}

	return timeline, nil
}

// applyEvent folds one event into the session record.
func (r *Reconstructor) applyEvent(rec *SessionRecord, event StoredEvent) {
	switch event.EventType {
	case "LEVEL_LOADED":
		if name, ok := event.Payload["level"].(string); ok {
			rec.LevelName = name
		}
	case "TICK":
		if event.Tick > rec.Ticks {
			rec.Ticks = event.Tick
		}
	case "CLONE_CREATED":
		rec.ClonesUsed++
	case "KEY_COLLECTED":
		rec.KeysCollected++
	case "CAPTURE":
		rec.Outcome = "CAPTURED"
	case "EXIT_REACHED":
		rec.Outcome = "COMPLETED"
	case "SESSION_RESET":
		rec.Outcome = "RUNNING"
		rec.Ticks = 0
		rec.ClonesUsed = 0
		rec.KeysCollected = 0
	}
}

// summarizeEvent creates a human-readable summary.
func (r *Reconstructor) summarizeEvent(event StoredEvent) string {
	switch event.EventType {
	case "CLONE_CREATED":
		return fmt.Sprintf("%s stepped back in time.", event.ActorID)
	case "CLONE_EXPIRED":
		return fmt.Sprintf("%s reached the end of its recorded path.", event.ActorID)
	case "SWITCH_PRESSED":
		return fmt.Sprintf("%s pressed a switch.", event.ActorID)
	case "SWITCH_RELEASED":
		return fmt.Sprintf("%s stepped off a switch.", event.ActorID)
	case "KEY_COLLECTED":
		return "A key was collected."
	case "DOOR_UNLOCKED":
		return "A locked door was opened."
	case "TELEPORTED":
		return fmt.Sprintf("%s was teleported.", event.ActorID)
	case "ANNOTATION_READ":
		if text, ok := event.Payload["text"].(string); ok {
			return "Terminal: " + text
		}
		return "A terminal was read."
	case "CAPTURE":
		return fmt.Sprintf("A guard captured %s.", event.ActorID)
	case "EXIT_REACHED":
		return "The maze was solved."
	case "SESSION_RESET":
		return "The run was restarted."
	default:
		return "Something happened in the maze."
	}
}
