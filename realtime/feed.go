// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package realtime

import (
	"log/slog"

	"github.com/ZIYADAHMAD17/dexaz-task-emp/recsync"
)

type typedFeed[E any] struct {
	sub    *Subscription
	events chan recsync.Event[E]
}

// Typed adapts a raw subscription into the record synchronization layer's
// feed contract, decoding each payload with the entity's boundary mapper.
// Rows that fail mapping are logged and dropped. Closing the returned
// feed closes the underlying subscription.
func Typed[E any](sub *Subscription, decode func(map[string]any) (E, error), logger *slog.Logger) recsync.Feed[E] {
	if logger == nil {
		logger = slog.Default()
	}
	f := &typedFeed[E]{
		sub:    sub,
		events: make(chan recsync.Event[E], 16),
	}
	go func() {
		defer close(f.events)
		for raw := range sub.Events() {
			row := raw.Record
			if raw.Type == string(recsync.EventDelete) && row == nil {
				row = raw.OldRecord
			}
			rec, err := decode(row)
			if err != nil {
				logger.Warn("dropping malformed feed row", "topic", sub.topic, "error", err)
				continue
			}
			f.events <- recsync.Event[E]{Type: recsync.EventType(raw.Type), Row: rec}
		}
	}()
	return f
}

func (f *typedFeed[E]) Events() <-chan recsync.Event[E] { return f.events }

func (f *typedFeed[E]) Close() error { return f.sub.Close() }
