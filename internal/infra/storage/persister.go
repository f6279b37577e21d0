package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmaslov/temporal-maze/internal/events"
	"github.com/dmaslov/temporal-maze/internal/platform/metrics"
)

// SessionPersister adapts an EventRepository to the events.EventPersister
// interface, stamping each event with the session it belongs to.
type SessionPersister struct {
	repo      EventRepository
	sessionID string
	timeout   time.Duration
}

// NewSessionPersister creates a persister bound to one session.
func NewSessionPersister(repo EventRepository, sessionID string) *SessionPersister {
	return &SessionPersister{
		repo:      repo,
		sessionID: sessionID,
		timeout:   5 * time.Second,
	}
}

// SessionID returns the session this persister writes under.
func (p *SessionPersister) SessionID() string {
	return p.sessionID
}

// Append converts and stores a simulation event.
func (p *SessionPersister) Append(event events.GameEvent) error {
	stored := StoredEvent{
		ID:        event.ID,
		SessionID: p.sessionID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		ActorID:   event.ActorID,
		Tick:      event.Tick,
		Payload:   toMap(event.Payload),
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	err := p.repo.Append(ctx, stored)
	metrics.Get().RecordEventWrite(time.Since(start), err)
	return err
}

// toMap normalizes a typed payload into the generic map the storage row holds.
func toMap(payload interface{}) map[string]interface{} {
	if payload == nil {
		return map[string]interface{}{}
	}
	if m, ok := payload.(map[string]interface{}); ok {
		return m
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]interface{}{}
	}
	return m
}
