package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event StoredEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, session_id, timestamp, event_type, actor_id, tick, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.SessionID, event.Timestamp, event.EventType, event.ActorID,
		event.Tick, string(payloadBytes),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]StoredEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var e StoredEvent
		var payloadStr string
		err := rows.Scan(
			&e.ID, &e.SessionID, &e.Timestamp, &e.EventType, &e.ActorID,
			&e.Tick, &payloadStr,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetBySessionID(ctx context.Context, sessionID string) ([]StoredEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor_id, tick, payload FROM events WHERE session_id = ? ORDER BY tick ASC, timestamp ASC`
	return r.getMany(ctx, query, sessionID)
}

func (r *SQLiteEventRepository) GetByActorID(ctx context.Context, sessionID, actorID string) ([]StoredEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor_id, tick, payload FROM events WHERE session_id = ? AND actor_id = ? ORDER BY tick ASC, timestamp ASC`
	return r.getMany(ctx, query, sessionID, actorID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, sessionID, eventType string) ([]StoredEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor_id, tick, payload FROM events WHERE session_id = ? AND event_type = ? ORDER BY tick ASC, timestamp ASC`
	return r.getMany(ctx, query, sessionID, eventType)
}

func (r *SQLiteEventRepository) GetSinceTick(ctx context.Context, sessionID string, tick int) ([]StoredEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, actor_id, tick, payload FROM events WHERE session_id = ? AND tick >= ? ORDER BY tick ASC, timestamp ASC`
	return r.getMany(ctx, query, sessionID, tick)
}

// ---------------------------------------------------------
// SQLiteSessionRepository
// ---------------------------------------------------------

type SQLiteSessionRepository struct {
	db *sql.DB
}

func NewSQLiteSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

func (r *SQLiteSessionRepository) Upsert(ctx context.Context, record SessionRecord) error {
	query := `
		INSERT INTO sessions (session_id, level_name, outcome, ticks, clones_used, keys_collected, started_at, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			level_name=excluded.level_name,
			outcome=excluded.outcome,
			ticks=excluded.ticks,
			clones_used=excluded.clones_used,
			keys_collected=excluded.keys_collected,
			last_updated=excluded.last_updated
	`
	_, err := r.db.ExecContext(ctx, query,
		record.SessionID, record.LevelName, record.Outcome, record.Ticks,
		record.ClonesUsed, record.KeysCollected, record.StartedAt, record.LastUpdated,
	)
	return err
}

func (r *SQLiteSessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*SessionRecord, error) {
	query := `SELECT session_id, level_name, outcome, ticks, clones_used, keys_collected, started_at, last_updated FROM sessions WHERE session_id = ?`
	var rec SessionRecord
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&rec.SessionID, &rec.LevelName, &rec.Outcome, &rec.Ticks,
		&rec.ClonesUsed, &rec.KeysCollected, &rec.StartedAt, &rec.LastUpdated,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *SQLiteSessionRepository) List(ctx context.Context) ([]SessionRecord, error) {
	query := `SELECT session_id, level_name, outcome, ticks, clones_used, keys_collected, started_at, last_updated FROM sessions ORDER BY started_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(&rec.SessionID, &rec.LevelName, &rec.Outcome, &rec.Ticks,
			&rec.ClonesUsed, &rec.KeysCollected, &rec.StartedAt, &rec.LastUpdated); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
