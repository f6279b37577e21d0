// Package storage provides the persistence layer for the maze server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"time"
)

// StoredEvent mirrors the simulation event structure for persistence.
// The simulation packages should NOT import this; use interfaces instead.
type StoredEvent struct {
	ID        string                 `json:"id" db:"id"`
	SessionID string                 `json:"session_id" db:"session_id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	EventType string                 `json:"event_type" db:"event_type"`
	ActorID   string                 `json:"actor_id" db:"actor_id"`
	Tick      int                    `json:"tick" db:"tick"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
}

// EventRepository defines the interface for event persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event StoredEvent) error

	// GetBySessionID retrieves all events for a session (for replay).
	GetBySessionID(ctx context.Context, sessionID string) ([]StoredEvent, error)

	// GetByActorID retrieves all events performed by an actor.
	GetByActorID(ctx context.Context, sessionID, actorID string) ([]StoredEvent, error)

	// GetByEventType retrieves all events of a specific type.
	GetByEventType(ctx context.Context, sessionID, eventType string) ([]StoredEvent, error)

	// GetSinceTick retrieves all events from the given tick onward.
	GetSinceTick(ctx context.Context, sessionID string, tick int) ([]StoredEvent, error)
}

// SessionRecord is the quick-read row for a simulation session.
type SessionRecord struct {
	SessionID     string    `json:"session_id" db:"session_id"`
	LevelName     string    `json:"level_name" db:"level_name"`
	Outcome       string    `json:"outcome" db:"outcome"`
	Ticks         int       `json:"ticks" db:"ticks"`
	ClonesUsed    int       `json:"clones_used" db:"clones_used"`
	KeysCollected int       `json:"keys_collected" db:"keys_collected"`
	StartedAt     time.Time `json:"started_at" db:"started_at"`
	LastUpdated   time.Time `json:"last_updated" db:"last_updated"`
}

// SessionRepository defines the interface for session records.
type SessionRepository interface {
	// Upsert updates or inserts a session record.
	Upsert(ctx context.Context, record SessionRecord) error

	// GetBySessionID retrieves one session record.
	GetBySessionID(ctx context.Context, sessionID string) (*SessionRecord, error)

	// List retrieves all session records, newest first.
	List(ctx context.Context) ([]SessionRecord, error)
}
