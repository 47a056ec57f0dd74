// Package audit persists lifecycle and exec events to a local SQLite
// database so operator-facing history survives restarts.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"vivarium/internal/sandbox"
)

var _ sandbox.AuditRecorder = (*Store)(nil)

// Store records sandbox audit events.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the audit database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit directory %q: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set audit db journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set audit db busy timeout: %w", err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	at TEXT NOT NULL,
	event_type TEXT NOT NULL,
	container TEXT NOT NULL,
	success INTEGER NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT ''
)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize audit schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends one audit event.
func (s *Store) Record(ctx context.Context, ev sandbox.AuditEvent) error {
	success := 0
	if ev.Success {
		success = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (at, event_type, container, success, detail, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.At.UTC().Format(time.RFC3339Nano),
		ev.Type,
		ev.Container,
		success,
		ev.Detail,
		ev.Error,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]sandbox.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, event_type, container, success, detail, error
		 FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	out := make([]sandbox.AuditEvent, 0, limit)
	for rows.Next() {
		var ev sandbox.AuditEvent
		var at string
		var success int
		if err := rows.Scan(&at, &ev.Type, &ev.Container, &success, &ev.Detail, &ev.Error); err != nil {
			return nil, fmt.Errorf("scan audit event row: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parse audit event time %q: %w", at, err)
		}
		ev.At = parsed
		ev.Success = success != 0
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit event rows: %w", err)
	}
	return out, nil
}
