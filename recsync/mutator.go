// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package recsync

import (
	"context"
	"fmt"
	"log/slog"
)

// Writer is the remote collection contract the mutator issues writes
// against. Upsert must be idempotent on the entity's natural key so that
// repeated toggles never create duplicate rows.
type Writer[K comparable, E any] interface {
	Insert(ctx context.Context, rec E) error
	Update(ctx context.Context, key K, fields map[string]any) error
	Upsert(ctx context.Context, recs []E) error
	Delete(ctx context.Context, key K) error
}

// Mutator applies a local change immediately, issues the remote write, and
// reverts the exact captured state on failure. Every mutation tracks its
// own previous state, so one mutation's failure never rolls back a sibling
// in-flight mutation's unrelated change. Nothing is retried automatically;
// a failed mutation requires explicit user re-action.
type Mutator[K comparable, E any] struct {
	cache  *Cache[K, E]
	writer Writer[K, E]
	notify Notifier
	logger *slog.Logger
}

// NewMutator wires a mutator to its cache and remote writer. notify may be
// nil; failures are then only logged.
func NewMutator[K comparable, E any](cache *Cache[K, E], writer Writer[K, E], notify Notifier, logger *slog.Logger) *Mutator[K, E] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mutator[K, E]{cache: cache, writer: writer, notify: notify, logger: logger}
}

// Create inserts rec optimistically and issues the remote insert.
func (m *Mutator[K, E]) Create(ctx context.Context, rec E) error {
	key := m.cache.keyOf(rec)
	prev, existed := m.cache.Put(rec)
	if err := m.writer.Insert(ctx, rec); err != nil {
		m.cache.Restore(key, prev, existed)
		return m.fail("create", err)
	}
	return nil
}

// Update merges a partial change into the cached row and issues the remote
// update carrying the same field values, so success needs no reconcile
// step. apply mutates the cached copy; fields is the wire form of the same
// change.
func (m *Mutator[K, E]) Update(ctx context.Context, key K, apply func(E) E, fields map[string]any) error {
	prev, ok := m.cache.Patch(key, apply)
	if !ok {
		return fmt.Errorf("update: no cached row for key %v", key)
	}
	if err := m.writer.Update(ctx, key, fields); err != nil {
		m.cache.Restore(key, prev, true)
		return m.fail("update", err)
	}
	return nil
}

// Delete removes the row optimistically and issues the remote delete.
func (m *Mutator[K, E]) Delete(ctx context.Context, key K) error {
	prev, existed := m.cache.Remove(key)
	if err := m.writer.Delete(ctx, key); err != nil {
		m.cache.Restore(key, prev, existed)
		return m.fail("delete", err)
	}
	return nil
}

// Toggle puts the complete next state of one row (creating it on first
// toggle) and upserts it remotely. The write carries the full new-state
// value, not a delta, so two toggles landing out of order on the remote
// cannot produce a lost update: last writer wins with its whole row.
func (m *Mutator[K, E]) Toggle(ctx context.Context, next E) error {
	key := m.cache.keyOf(next)
	prev, existed := m.cache.Put(next)
	if err := m.writer.Upsert(ctx, []E{next}); err != nil {
		m.cache.Restore(key, prev, existed)
		return m.fail("toggle", err)
	}
	return nil
}

// ToggleColumn bulk-toggles one boolean field across a group of keys. The
// new uniform value is the negation of "every row in the group is set"
// (an absent row counts as unset). The group is patched locally as one
// atomic set and written as one batched upsert; since the backing call is
// all-or-nothing, a failure rolls back the entire group.
//
// Calling ToggleColumn twice in a row is its own inverse when no write
// fails.
func (m *Mutator[K, E]) ToggleColumn(ctx context.Context, keys []K, isSet func(E) bool, build func(key K, value bool) E) error {
	if len(keys) == 0 {
		return nil
	}
	allSet := true
	for _, key := range keys {
		row, ok := m.cache.Get(key)
		if !ok || !isSet(row) {
			allSet = false
			break
		}
	}
	next := !allSet

	recs := make([]E, 0, len(keys))
	for _, key := range keys {
		recs = append(recs, build(key, next))
	}
	prevs := m.cache.PutAll(recs)
	if err := m.writer.Upsert(ctx, recs); err != nil {
		m.cache.RestoreAll(prevs)
		return m.fail("toggle-column", err)
	}
	return nil
}

// fail converts a write error into a MutationFailed carrying the backend's
// message verbatim, surfaced as a non-blocking notification.
func (m *Mutator[K, E]) fail(op string, err error) error {
	m.logger.Warn("mutation rolled back", "op", op, "error", err)
	m.notify.post(NotifyError, op+" failed", err.Error())
	return &MutationFailed{Op: op, Message: err.Error(), Err: err}
}
