package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/wodwiki/internal/driver"
	"github.com/roach88/wodwiki/internal/engine"
	"github.com/roach88/wodwiki/internal/ir"
)

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// Session is one recorded run of a script.
type Session struct {
	ID             string    `json:"id"`
	ScriptHash     string    `json:"script_hash"`
	Source         string    `json:"source"`
	IRVersion      string    `json:"ir_version"`
	RuntimeVersion string    `json:"runtime_version"`
	CreatedAt      time.Time `json:"created_at"`
	Cycles         int       `json:"cycles"`
}

// CreateSession starts a journal entry for source.
func (s *Store) CreateSession(ctx context.Context, source string) (Session, error) {
	sess := Session{
		ID:             s.ids.NewID(),
		ScriptHash:     ir.ScriptHash(source),
		Source:         source,
		IRVersion:      ir.IRVersion,
		RuntimeVersion: ir.RuntimeVersion,
	}
	created := s.timestamp()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, script_hash, source, ir_version, runtime_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.ScriptHash, sess.Source, sess.IRVersion, sess.RuntimeVersion, created)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}

	sess.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// RecordCycle stores the input batch of one cycle. Recording the same
// cycle twice keeps the first batch.
func (s *Store) RecordCycle(ctx context.Context, sessionID string, cycle int64, events []engine.Event) error {
	data, err := marshalEvents(events)
	if err != nil {
		return fmt.Errorf("record cycle %d: %w", cycle, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cycles (session_id, cycle, events)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id, cycle) DO NOTHING
	`, sessionID, cycle, data)
	if err != nil {
		return fmt.Errorf("record cycle %d: %w", cycle, err)
	}
	return nil
}

// Cycles returns a session's recorded batches in cycle order.
func (s *Store) Cycles(ctx context.Context, sessionID string) ([]driver.Batch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cycle, events
		FROM cycles
		WHERE session_id = ?
		ORDER BY cycle ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var out []driver.Batch
	for rows.Next() {
		var (
			b    driver.Batch
			data string
		)
		if err := rows.Scan(&b.Cycle, &data); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		if b.Events, err = unmarshalEvents(data); err != nil {
			return nil, fmt.Errorf("decode cycle %d: %w", b.Cycle, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}
	return out, nil
}

// Session returns one session by id.
func (s *Store) Session(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, sessionQuery+` WHERE s.id = ? GROUP BY s.id`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	return sess, nil
}

// Sessions lists every session, oldest first.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, sessionQuery+`
		GROUP BY s.id
		ORDER BY s.created_at ASC, s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("read session: %w", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

const sessionQuery = `
	SELECT s.id, s.script_hash, s.source, s.ir_version, s.runtime_version, s.created_at, COUNT(c.cycle)
	FROM sessions s
	LEFT JOIN cycles c ON c.session_id = s.id`

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var (
		sess    Session
		created string
	)
	if err := row.Scan(&sess.ID, &sess.ScriptHash, &sess.Source, &sess.IRVersion,
		&sess.RuntimeVersion, &created, &sess.Cycles); err != nil {
		return Session{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Session{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	sess.CreatedAt = t
	return sess, nil
}

// Recorder binds the journal to one session for driver.WithRecorder.
func (s *Store) Recorder(sessionID string) driver.Recorder {
	return sessionRecorder{store: s, session: sessionID}
}

type sessionRecorder struct {
	store   *Store
	session string
}

func (r sessionRecorder) RecordCycle(ctx context.Context, cycle int64, events []engine.Event) error {
	return r.store.RecordCycle(ctx, r.session, cycle, events)
}

// marshalEvents serializes a batch as canonical JSON so identical batches
// are stored byte-identically.
func marshalEvents(events []engine.Event) (string, error) {
	if events == nil {
		events = []engine.Event{}
	}
	data, err := ir.MarshalCanonical(events)
	if err != nil {
		return "", fmt.Errorf("marshal events: %w", err)
	}
	return string(data), nil
}

func unmarshalEvents(data string) ([]engine.Event, error) {
	var events []engine.Event
	if err := json.Unmarshal([]byte(data), &events); err != nil {
		return nil, fmt.Errorf("unmarshal events: %w", err)
	}
	return events, nil
}
