// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

// Package snapshot persists the last successfully loaded window of each
// collection in a local SQLite file, so the app can render stale data
// immediately on startup while the live fetch is in flight.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a small key-value cache addressed by (table, filter key).
type Store struct {
	db *sql.DB
}

// Open creates or opens the snapshot database at path. Use ":memory:"
// for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	// Single writer keeps the busy handler out of the picture.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			table_name  TEXT NOT NULL,
			filter_key  TEXT NOT NULL,
			payload     TEXT NOT NULL,
			saved_at    TIMESTAMP NOT NULL,
			PRIMARY KEY (table_name, filter_key)
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores rows as the latest snapshot for (table, filterKey),
// replacing any previous one.
func (s *Store) Save(ctx context.Context, table, filterKey string, rows any) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode snapshot %s/%s: %w", table, filterKey, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots(table_name, filter_key, payload, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(table_name, filter_key) DO UPDATE SET
			payload = excluded.payload,
			saved_at = excluded.saved_at`,
		table, filterKey, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save snapshot %s/%s: %w", table, filterKey, err)
	}
	return nil
}

// Load decodes the latest snapshot for (table, filterKey) into dest.
// Returns ok=false when no snapshot exists.
func (s *Store) Load(ctx context.Context, table, filterKey string, dest any) (savedAt time.Time, ok bool, err error) {
	var payload string
	row := s.db.QueryRowContext(ctx,
		`SELECT payload, saved_at FROM snapshots WHERE table_name = ? AND filter_key = ?`,
		table, filterKey)
	if err := row.Scan(&payload, &savedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("load snapshot %s/%s: %w", table, filterKey, err)
	}
	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		return time.Time{}, false, fmt.Errorf("decode snapshot %s/%s: %w", table, filterKey, err)
	}
	return savedAt, true, nil
}

// Evict drops the snapshot for (table, filterKey) if present.
func (s *Store) Evict(ctx context.Context, table, filterKey string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE table_name = ? AND filter_key = ?`, table, filterKey)
	if err != nil {
		return fmt.Errorf("evict snapshot %s/%s: %w", table, filterKey, err)
	}
	return nil
}
