package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanguosha-online/sgs-server-go/internal/game/rules"
)

// journalSchema creates the event journal table. Events are append-only;
// (room_id, seq) gives each room a linear timeline.
const journalSchema = `
CREATE TABLE IF NOT EXISTS game_events (
    room_id    TEXT        NOT NULL,
    seq        BIGINT      NOT NULL,
    kind       TEXT        NOT NULL,
    payload    JSONB       NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (room_id, seq)
);
CREATE INDEX IF NOT EXISTS game_events_kind_idx ON game_events (room_id, kind);
`

// appendTimeout bounds a single journal insert so a slow database never
// stalls a running game for long; failed appends are the room's to log.
const appendTimeout = 3 * time.Second

// JournalRepository persists room event journals in PostgreSQL.
type JournalRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewJournalRepository builds the repository and ensures the schema exists.
func NewJournalRepository(ctx context.Context, db *DB, logger *zap.Logger) (*JournalRepository, error) {
	if _, err := db.Pool().Exec(ctx, journalSchema); err != nil {
		return nil, fmt.Errorf("ensure journal schema: %w", err)
	}
	return &JournalRepository{db: db, logger: logger}, nil
}

// ForRoom returns a journal bound to one room's timeline, resuming the
// sequence after any events already stored.
func (r *JournalRepository) ForRoom(ctx context.Context, roomID string) (*RoomJournal, error) {
	var next int64
	err := r.db.Pool().QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM game_events WHERE room_id = $1`,
		roomID,
	).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("journal seq for room %s: %w", roomID, err)
	}
	return &RoomJournal{repo: r, roomID: roomID, nextSeq: next}, nil
}

// Load returns a room's full journal in sequence order.
func (r *JournalRepository) Load(ctx context.Context, roomID string) ([]rules.Event, error) {
	rows, err := r.db.Pool().Query(ctx,
		`SELECT payload FROM game_events WHERE room_id = $1 ORDER BY seq`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("load journal for room %s: %w", roomID, err)
	}
	defer rows.Close()

	var events []rules.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		var ev rules.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decode journal event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// DeleteRoom drops a finished room's journal.
func (r *JournalRepository) DeleteRoom(ctx context.Context, roomID string) error {
	_, err := r.db.Pool().Exec(ctx,
		`DELETE FROM game_events WHERE room_id = $1`, roomID)
	if err != nil {
		return fmt.Errorf("delete journal for room %s: %w", roomID, err)
	}
	return nil
}

// RoomJournal appends one room's events. It is used from the room's writer
// goroutine only, so the sequence counter needs no lock.
type RoomJournal struct {
	repo    *JournalRepository
	roomID  string
	nextSeq int64
}

// Append stores one event at the next sequence position.
func (j *RoomJournal) Append(ev rules.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.Kind, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
	defer cancel()

	_, err = j.repo.db.Pool().Exec(ctx,
		`INSERT INTO game_events (room_id, seq, kind, payload) VALUES ($1, $2, $3, $4)`,
		j.roomID, j.nextSeq, string(ev.Kind), payload,
	)
	if err != nil {
		return fmt.Errorf("append event %s seq %d: %w", ev.Kind, j.nextSeq, err)
	}
	j.nextSeq++

	j.repo.logger.Debug("event journaled",
		zap.String("room_id", j.roomID),
		zap.String("kind", string(ev.Kind)),
		zap.Int64("seq", j.nextSeq-1))
	return nil
}
