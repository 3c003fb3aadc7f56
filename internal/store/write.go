package store

import (
	"context"
	"fmt"

	"github.com/roach88/spine/internal/ops"
)

// Session groups the edits of one run of the engine.
type Session struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	StartedAt string `json:"started_at"`
}

// NewSession starts a session and returns its id.
func (s *Store) NewSession(ctx context.Context, label string) (string, error) {
	id := s.ids.Generate()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, label, started_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, label, formatTime(s.clock()))
	if err != nil {
		return "", fmt.Errorf("new session: %w", err)
	}
	return id, nil
}

// Record inserts an edit into a session. Returns the edit's seq and whether
// a new row was written.
//
// Uses ON CONFLICT DO NOTHING for idempotency: recording the same operation
// id and output twice in a session returns the existing seq with
// inserted=false.
//
// Note: The session must exist (foreign key constraint).
func (s *Store) Record(ctx context.Context, sessionID string, e ops.Entry) (seq int64, inserted bool, err error) {
	argsJSON, err := marshalArgs(e.Args)
	if err != nil {
		return 0, false, fmt.Errorf("record edit: %w", err)
	}
	at := e.At
	if at.IsZero() {
		at = s.clock()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("record edit: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO edits
		(session_id, operation_id, operation, source, output, args, before_hash, after_hash, summary, changes, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, operation_id, output) DO NOTHING
	`,
		sessionID,
		e.OperationID,
		e.Operation,
		e.Source,
		e.Output,
		argsJSON,
		e.Before,
		e.After,
		e.Summary,
		e.Changes,
		formatTime(at),
	)
	if err != nil {
		return 0, false, fmt.Errorf("record edit: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("record edit: rows affected: %w", err)
	}
	if rowsAffected > 0 {
		seq, err = result.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("record edit: last insert id: %w", err)
		}
		inserted = true
	} else {
		err = tx.QueryRowContext(ctx, `
			SELECT seq FROM edits
			WHERE session_id = ? AND operation_id = ? AND output = ?
		`, sessionID, e.OperationID, e.Output).Scan(&seq)
		if err != nil {
			return 0, false, fmt.Errorf("record edit: select existing: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("record edit: commit: %w", err)
	}
	return seq, inserted, nil
}

// SessionJournal records into one session. It satisfies ops.Journal.
type SessionJournal struct {
	store   *Store
	session string
}

// Journal starts a session and returns a journal bound to it.
func (s *Store) Journal(ctx context.Context, label string) (*SessionJournal, error) {
	id, err := s.NewSession(ctx, label)
	if err != nil {
		return nil, err
	}
	return &SessionJournal{store: s, session: id}, nil
}

// Session returns the id edits are recorded under.
func (j *SessionJournal) Session() string { return j.session }

// Record implements ops.Journal.
func (j *SessionJournal) Record(ctx context.Context, e ops.Entry) error {
	_, _, err := j.store.Record(ctx, j.session, e)
	return err
}

var _ ops.Journal = (*SessionJournal)(nil)
