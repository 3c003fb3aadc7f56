package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Edit is one journal row.
type Edit struct {
	Seq         int64          `json:"seq"`
	Session     string         `json:"session"`
	OperationID string         `json:"operation_id"`
	Operation   string         `json:"operation"`
	Source      string         `json:"source"`
	Output      string         `json:"output,omitempty"`
	Args        map[string]any `json:"args"`
	Before      string         `json:"before"`
	After       string         `json:"after"`
	Summary     string         `json:"summary"`
	Changes     int            `json:"changes"`
	At          time.Time      `json:"at"`
}

// Filter narrows History. Zero fields match everything.
type Filter struct {
	Source  string
	Session string
	// Limit keeps the newest edits. Zero means all of them.
	Limit int
}

const editColumns = `seq, session_id, operation_id, operation, source, output, args,
	before_hash, after_hash, summary, changes, recorded_at`

// History returns edits matching f, oldest first (ORDER BY seq ASC).
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) History(ctx context.Context, f Filter) ([]Edit, error) {
	var (
		where []string
		args  []any
	)
	if f.Source != "" {
		where = append(where, "source = ?")
		args = append(args, f.Source)
	}
	if f.Session != "" {
		where = append(where, "session_id = ?")
		args = append(args, f.Session)
	}
	query := "SELECT " + editColumns + " FROM edits"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if f.Limit > 0 {
		// Newest f.Limit rows, still returned oldest first.
		query = "SELECT * FROM (" + query + " ORDER BY seq DESC LIMIT ?) ORDER BY seq ASC"
		args = append(args, f.Limit)
	} else {
		query += " ORDER BY seq ASC"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	return scanEdits(rows)
}

// Lineage walks back from the document fingerprinted by hash: the edit that
// produced it, the edit that produced that edit's input, and so on. Edits
// are returned in the order they were applied.
//
// When several edits produced the same document, the latest one is
// followed. The walk stops at a fingerprint no edit produced, or at a
// fingerprint already visited.
func (s *Store) Lineage(ctx context.Context, hash string) ([]Edit, error) {
	var chain []Edit
	seen := map[string]bool{}
	for hash != "" && !seen[hash] {
		seen[hash] = true
		rows, err := s.db.QueryContext(ctx, "SELECT "+editColumns+`
			FROM edits WHERE after_hash = ? AND before_hash != after_hash
			ORDER BY seq DESC LIMIT 1`, hash)
		if err != nil {
			return nil, fmt.Errorf("query lineage: %w", err)
		}
		edits, err := scanEdits(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		if len(edits) == 0 {
			break
		}
		chain = append(chain, edits[0])
		hash = edits[0].Before
	}

	out := make([]Edit, len(chain))
	for i, e := range chain {
		out[len(chain)-1-i] = e
	}
	return out, nil
}

// Sessions lists sessions in the order they started.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, started_at FROM sessions
		ORDER BY started_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var ss Session
		if err := rows.Scan(&ss.ID, &ss.Label, &ss.StartedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, ss)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func scanEdits(rows *sql.Rows) ([]Edit, error) {
	edits := []Edit{}
	for rows.Next() {
		e, err := scanEdit(rows)
		if err != nil {
			return nil, err
		}
		edits = append(edits, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edits: %w", err)
	}
	return edits, nil
}

func scanEdit(rows *sql.Rows) (Edit, error) {
	var (
		e        Edit
		argsJSON string
		at       string
	)
	err := rows.Scan(&e.Seq, &e.Session, &e.OperationID, &e.Operation, &e.Source, &e.Output,
		&argsJSON, &e.Before, &e.After, &e.Summary, &e.Changes, &at)
	if err != nil {
		return Edit{}, fmt.Errorf("scan edit: %w", err)
	}
	if e.Args, err = unmarshalArgs(argsJSON); err != nil {
		return Edit{}, fmt.Errorf("edit %d: %w", e.Seq, err)
	}
	if e.At, err = parseTime(at); err != nil {
		return Edit{}, fmt.Errorf("edit %d: %w", e.Seq, err)
	}
	return e, nil
}
