// Package receipts provides the durable firing-receipt store.
//
// The rule store's executed/lastExecuted flags are the primary at-most-once
// record, but they live in rules.json, which is rewritten at cycle end. A
// crash after action execution and before that rewrite would re-run the
// action on restart. Receipts close most of that window: a receipt row is
// written immediately after the action executes, and the next cycle treats
// an existing receipt as "already fired", marking the rule without
// re-running its action.
package receipts

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ScopeOnce is the receipt scope for non-time rules, which fire at most
// once ever. Time rules use a calendar-day stamp as the scope instead.
const ScopeOnce = "once"

// Receipt records one rule firing.
type Receipt struct {
	ID            string    `json:"id"`
	Fingerprint   string    `json:"fingerprint"`
	Scope         string    `json:"scope"`
	Description   string    `json:"description"`
	ConditionKind string    `json:"condition_kind"`
	ActionKind    string    `json:"action_kind"`
	Artifact      string    `json:"artifact,omitempty"`
	CycleToken    string    `json:"cycle_token,omitempty"`
	FiredAt       time.Time `json:"fired_at"`
}

// Store is a SQLite-backed receipt log.
type Store struct {
	db *sql.DB
}

// Open creates or opens the receipt database at path.
//
// The database is configured with WAL mode for concurrent reads, NORMAL
// synchronous mode, a 5-second busy timeout, and a single writer
// connection. Idempotent: safe to call on an existing database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open receipts db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect receipts db: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY on the write path.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply receipts schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts a receipt. Returns inserted=false when a receipt for the
// same (fingerprint, scope) already exists; the existing row wins and the
// new one is discarded.
func (s *Store) Record(ctx context.Context, r Receipt) (inserted bool, err error) {
	if r.ID == "" {
		r.ID = uuid.Must(uuid.NewV7()).String()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO firings
			(id, fingerprint, scope, description, condition_kind, action_kind, artifact, cycle_token, fired_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Fingerprint, r.Scope, r.Description,
		r.ConditionKind, r.ActionKind, r.Artifact, r.CycleToken,
		r.FiredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("record receipt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record receipt: rows affected: %w", err)
	}
	return n > 0, nil
}

// Seen reports whether a receipt exists for the given rule fingerprint and
// scope.
func (s *Store) Seen(ctx context.Context, fingerprint, scope string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM firings WHERE fingerprint = ? AND scope = ? LIMIT 1`,
		fingerprint, scope,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query receipt: %w", err)
	}
	return true, nil
}

// List returns all receipts ordered by firing time, oldest first.
func (s *Store) List(ctx context.Context) ([]Receipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fingerprint, scope, description, condition_kind, action_kind, artifact, cycle_token, fired_at
		FROM firings ORDER BY fired_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var out []Receipt
	for rows.Next() {
		var r Receipt
		var firedAt string
		if err := rows.Scan(&r.ID, &r.Fingerprint, &r.Scope, &r.Description,
			&r.ConditionKind, &r.ActionKind, &r.Artifact, &r.CycleToken, &firedAt); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, firedAt); err == nil {
			r.FiredAt = t
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return out, nil
}
