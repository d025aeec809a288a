package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"streamvault/src/features/resolving"
)

// SqliteHistory is a SQLite implementation of the resolution history store.
type SqliteHistory struct {
	db *sql.DB
}

// NewSqliteHistory creates the store and its schema.
func NewSqliteHistory(path string) (*SqliteHistory, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &SqliteHistory{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS resolutions (
			id TEXT PRIMARY KEY,
			track_id TEXT NOT NULL,
			url TEXT,
			strategy TEXT NOT NULL,
			outcome TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_resolutions_created_at ON resolutions(created_at);
		CREATE INDEX IF NOT EXISTS idx_resolutions_track_id ON resolutions(track_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Record inserts one resolution outcome.
func (s *SqliteHistory) Record(ctx context.Context, entry resolving.HistoryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resolutions (id, track_id, url, strategy, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.TrackID, entry.URL, entry.Strategy, entry.Outcome,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record resolution: %w", err)
	}
	return nil
}

// List returns the most recent resolution outcomes, newest first.
func (s *SqliteHistory) List(ctx context.Context, limit int) ([]resolving.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, track_id, url, strategy, outcome, created_at
		FROM resolutions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	var entries []resolving.HistoryEntry
	for rows.Next() {
		var entry resolving.HistoryEntry
		var createdAt string
		if err := rows.Scan(&entry.ID, &entry.TrackID, &entry.URL, &entry.Strategy, &entry.Outcome, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan resolution row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			entry.CreatedAt = t
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close releases the underlying database handle.
func (s *SqliteHistory) Close() error {
	return s.db.Close()
}
