// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZIYADAHMAD17/dexaz-task-emp/recsync"
)

// notifyChannel is the pg_notify channel the bootstrap triggers publish to.
const notifyChannel = "dexaz_changes"

// changeEnvelope is the trigger payload shape.
type changeEnvelope struct {
	Table  string         `json:"table"`
	Type   string         `json:"type"`
	Record map[string]any `json:"record"`
}

type listenFeed[E any] struct {
	events    chan recsync.Event[E]
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func (f *listenFeed[E]) Events() <-chan recsync.Event[E] { return f.events }

// Close stops the listener and releases its connection. Safe to call
// more than once.
func (f *listenFeed[E]) Close() error {
	f.closeOnce.Do(f.cancel)
	<-f.done
	return nil
}

// ListenTable subscribes to row changes on one table via LISTEN/NOTIFY and
// exposes them as a typed change feed. The feed holds a dedicated pooled
// connection until closed. Malformed payloads are logged and dropped.
func ListenTable[E any](ctx context.Context, s *Store, table string, decode func(map[string]any) (E, error)) (recsync.Feed[E], error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", notifyChannel, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	f := &listenFeed[E]{
		events: make(chan recsync.Event[E], 16),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go f.run(runCtx, conn, table, decode, s.logger)
	return f, nil
}

func (f *listenFeed[E]) run(ctx context.Context, conn *pgxpool.Conn, table string, decode func(map[string]any) (E, error), logger *slog.Logger) {
	defer close(f.done)
	defer close(f.events)
	defer conn.Release()

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("change feed stopped", "table", table, "error", err)
			}
			return
		}
		var env changeEnvelope
		if err := json.Unmarshal([]byte(n.Payload), &env); err != nil {
			logger.Warn("dropping malformed change payload", "error", err)
			continue
		}
		if env.Table != table {
			continue
		}
		var typ recsync.EventType
		switch env.Type {
		case "INSERT":
			typ = recsync.EventInsert
		case "UPDATE":
			typ = recsync.EventUpdate
		case "DELETE":
			typ = recsync.EventDelete
		default:
			continue
		}
		rec, err := decode(env.Record)
		if err != nil {
			logger.Warn("dropping malformed change record", "table", table, "error", err)
			continue
		}
		select {
		case f.events <- recsync.Event[E]{Type: typ, Row: rec}:
		case <-ctx.Done():
			return
		}
	}
}
