// Package history journals bookmark saves and account events in SQLite.
// It is an append-only audit trail: nothing is ever answered from it in
// place of a Readeck call.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed event journal.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Save is one recorded bookmark save.
type Save struct {
	BookmarkID string
	URL        string
	Title      string
	CreatedAt  time.Time
}

func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, logger: logger}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     TEXT NOT NULL,
		bookmark_id TEXT NOT NULL,
		url         TEXT NOT NULL,
		title       TEXT,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_saves_user ON saves(user_id, created_at);

	CREATE TABLE IF NOT EXISTS events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     TEXT NOT NULL,
		action      TEXT NOT NULL,
		detail      TEXT,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_events_time ON events(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordSave journals a successful bookmark submission.
func (s *Store) RecordSave(ctx context.Context, userID, bookmarkID, url, title string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saves (user_id, bookmark_id, url, title, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, bookmarkID, url, title, time.Now(),
	)
	return err
}

// RecentSaves returns the user's latest saves, newest first.
func (s *Store) RecentSaves(ctx context.Context, userID string, limit int) ([]Save, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT bookmark_id, url, title, created_at
		 FROM saves WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var saves []Save
	for rows.Next() {
		var sv Save
		var title sql.NullString
		if err := rows.Scan(&sv.BookmarkID, &sv.URL, &title, &sv.CreatedAt); err != nil {
			return nil, err
		}
		sv.Title = title.String
		saves = append(saves, sv)
	}
	return saves, rows.Err()
}

// RecordEvent journals an account-level event (registration, token set).
func (s *Store) RecordEvent(ctx context.Context, userID, action, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (user_id, action, detail, created_at) VALUES (?, ?, ?, ?)`,
		userID, action, detail, time.Now(),
	)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
