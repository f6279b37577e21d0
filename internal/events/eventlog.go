// Package events provides the append-only event log for the simulation.
// Every observable thing that happens in a session (ticks, world overlay
// changes, clone lifecycle, captures) lands here as an immutable record.
package events

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// EventType defines the category of a simulation event.
type EventType string

const (
	EventTypeTick                EventType = "TICK"
	EventTypeLevelLoaded         EventType = "LEVEL_LOADED"
	EventTypeSessionReset        EventType = "SESSION_RESET"
	EventTypeSwitchPressed       EventType = "SWITCH_PRESSED"
	EventTypeSwitchReleased      EventType = "SWITCH_RELEASED"
	EventTypeKeyCollected        EventType = "KEY_COLLECTED"
	EventTypeDoorUnlocked        EventType = "DOOR_UNLOCKED"
	EventTypeTeleported          EventType = "TELEPORTED"
	EventTypeAnnotationRead      EventType = "ANNOTATION_READ"
	EventTypeCloneCreated        EventType = "CLONE_CREATED"
	EventTypeCloneExpired        EventType = "CLONE_EXPIRED"
	EventTypeCloneCreationFailed EventType = "CLONE_CREATION_FAILED"
	EventTypeCapture             EventType = "CAPTURE"
	EventTypeExitReached         EventType = "EXIT_REACHED"
)

// Well-known actor identifiers.
const (
	ActorPlayer = "PLAYER"
	ActorSystem = "SYSTEM"
)

// GameEvent represents an immutable record of something that happened in the
// simulation.
type GameEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"` // PLAYER, SYSTEM, CLONE_n, GUARD_n
	Tick      int         `json:"tick"`
	Payload   interface{} `json:"payload"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only log of simulation events, optionally
// written through to a persister.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	persister EventPersister
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return &EventLog{
		events:    make([]GameEvent, 0),
		persister: persister,
	}
}

// Append adds a new event to the log. Events are immutable once appended.
func (el *EventLog) Append(event GameEvent) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.events = append(el.events, event)

	if el.persister != nil {
		// Write through off the simulation path; the in-memory log stays
		// the source of truth for the running session.
		go func(e GameEvent) {
			_ = el.persister.Append(e)
		}(event)
	}
}

// GetByType returns all events of one category, oldest first.
func (el *EventLog) GetByType(t EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// GetSinceTick returns all events from the given tick onward.
func (el *EventLog) GetSinceTick(tick int) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Tick >= tick {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns the full history of events, oldest first.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.events
}

var eventSeq atomic.Int64

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return fmt.Sprintf("%s-%06d", time.Now().Format("20060102150405"), eventSeq.Add(1))
}
