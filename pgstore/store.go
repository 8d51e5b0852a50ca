// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

// Package pgstore is the direct-Postgres collection client, for
// deployments that connect straight to the backing database instead of
// going through the hosted REST surface. It implements the same remote
// collection contract as package postgrest, plus a LISTEN/NOTIFY change
// feed.
package pgstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store owns the connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New connects to databaseURL and pings the pool.
func New(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Pool exposes the underlying pool for callers composing their own
// queries.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

// Bootstrap creates the application tables and the change-notification
// trigger if they do not exist. Idempotent; safe to run on every start.
func (s *Store) Bootstrap(ctx context.Context) error {
	migrations := []string{
		/*language=postgresql*/ `CREATE TABLE IF NOT EXISTS profiles (
			id          UUID PRIMARY KEY,
			name        TEXT NOT NULL,
			email       TEXT NOT NULL UNIQUE,
			role        TEXT NOT NULL DEFAULT 'employee',
			department  TEXT NOT NULL DEFAULT 'General',
			avatar_url  TEXT
		)`,

		/*language=postgresql*/ `CREATE TABLE IF NOT EXISTS employees (
			id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			profile_id   UUID NOT NULL UNIQUE REFERENCES profiles(id),
			designation  TEXT NOT NULL DEFAULT '',
			department   TEXT NOT NULL DEFAULT 'General',
			phone        TEXT NOT NULL DEFAULT '',
			joining_date DATE NOT NULL DEFAULT CURRENT_DATE,
			status       TEXT NOT NULL DEFAULT 'active'
		)`,

		// Attendance is addressed by its natural key; the unique pair is
		// what upserts conflict on, so repeated toggles never create
		// duplicate rows.
		/*language=postgresql*/ `CREATE TABLE IF NOT EXISTS attendance (
			profile_id UUID NOT NULL REFERENCES profiles(id),
			date       DATE NOT NULL,
			status     BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (profile_id, date)
		)`,

		/*language=postgresql*/ `CREATE TABLE IF NOT EXISTS tasks (
			id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'pending',
			priority    TEXT NOT NULL DEFAULT 'medium',
			assigned_to UUID REFERENCES profiles(id),
			due_date    DATE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		/*language=postgresql*/ `CREATE TABLE IF NOT EXISTS notices (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title      TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			type       TEXT NOT NULL DEFAULT 'announcement',
			author_id  UUID REFERENCES profiles(id),
			is_pinned  BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		/*language=postgresql*/ `CREATE TABLE IF NOT EXISTS leaves (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			profile_id UUID NOT NULL REFERENCES profiles(id),
			leave_type TEXT NOT NULL,
			start_date DATE NOT NULL,
			end_date   DATE NOT NULL,
			duration   INT NOT NULL DEFAULT 1,
			reason     TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL DEFAULT 'Pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		// Row changes fan out over one notification channel; the feed
		// filters by table client-side.
		/*language=postgresql*/ `CREATE OR REPLACE FUNCTION dexaz_notify_change() RETURNS trigger AS $$
		DECLARE
			payload JSON;
		BEGIN
			IF TG_OP = 'DELETE' THEN
				payload = json_build_object('table', TG_TABLE_NAME, 'type', TG_OP, 'record', row_to_json(OLD));
			ELSE
				payload = json_build_object('table', TG_TABLE_NAME, 'type', TG_OP, 'record', row_to_json(NEW));
			END IF;
			PERFORM pg_notify('dexaz_changes', payload::text);
			RETURN NULL;
		END;
		$$ LANGUAGE plpgsql`,
	}
	for _, table := range []string{"attendance", "tasks", "notices", "leaves"} {
		migrations = append(migrations, fmt.Sprintf(
			/*language=postgresql*/ `DO $$
			BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = '%[1]s_notify') THEN
					CREATE TRIGGER %[1]s_notify
					AFTER INSERT OR UPDATE OR DELETE ON %[1]s
					FOR EACH ROW EXECUTE FUNCTION dexaz_notify_change();
				END IF;
			END $$`, table))
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, migration := range migrations {
			if _, err := tx.Exec(ctx, migration); err != nil {
				return fmt.Errorf("bootstrap migration failed: %w", err)
			}
		}
		return nil
	})
}
