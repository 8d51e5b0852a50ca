// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

// Package recsync implements the record synchronization layer shared by the
// attendance, task, notice and leave views: a window-scoped view model
// cache, an optimistic mutator with exact rollback, a change feed listener
// and pure aggregation helpers.
//
// The cache is a window into the remote store, never a full mirror. It is
// rebuilt wholesale when the filter window changes (e.g. month navigation)
// and patched incrementally by mutations and change feed events.
package recsync

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultLoadTimeout bounds an initial window load, mirroring the bounded
// profile-resolution fetch used on sign-in.
const DefaultLoadTimeout = 5 * time.Second

// Fetcher queries the remote collection for one filter window.
type Fetcher[E any] func(ctx context.Context, filter Filter) ([]E, error)

// Prev captures a row's state before a patch so a failed mutation can be
// reverted exactly, without a re-fetch.
type Prev[K comparable, E any] struct {
	Key     K
	Row     E
	Existed bool
}

// Cache holds the currently visible entity window keyed by natural key.
// Point lookups are O(1); All iterates in insertion order. All access is
// serialized behind one mutex, the library analogue of the UI thread the
// source pages relied on.
type Cache[K comparable, E any] struct {
	// LoadTimeout bounds each Load round trip. Zero means DefaultLoadTimeout.
	LoadTimeout time.Duration

	keyOf  func(E) K
	logger *slog.Logger

	mu     sync.Mutex
	rows   map[K]E
	order  []K
	gen    uint64
	window Filter
}

// NewCache creates an empty cache. keyOf extracts the natural key of a row
// (surrogate id, or (profileID, date) for attendance marks).
func NewCache[K comparable, E any](keyOf func(E) K, logger *slog.Logger) *Cache[K, E] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache[K, E]{
		keyOf:  keyOf,
		logger: logger,
		rows:   make(map[K]E),
	}
}

// Load replaces the whole window with the result of fetch under filter.
//
// Each call bumps the filter generation; if another Load starts before this
// one's response lands, the late response is discarded and ErrStaleLoad is
// returned — it must not be patched into a window the view has already
// navigated away from. On fetch failure the previous snapshot is preserved
// (never clear-then-fail) and a *FetchError is returned.
func (c *Cache[K, E]) Load(ctx context.Context, fetch Fetcher[E], filter Filter) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	timeout := c.LoadTimeout
	c.mu.Unlock()

	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rows, err := fetch(ctx, filter)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.logger.Debug("discarding stale window load", "window", filter.Key())
		return ErrStaleLoad
	}
	if err != nil {
		return &FetchError{Filter: filter, Err: err}
	}

	c.rows = make(map[K]E, len(rows))
	c.order = c.order[:0]
	for _, row := range rows {
		key := c.keyOf(row)
		if _, dup := c.rows[key]; !dup {
			c.order = append(c.order, key)
		}
		c.rows[key] = row
	}
	c.window = filter
	return nil
}

// Get returns the cached row for key.
func (c *Cache[K, E]) Get(key K) (E, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.rows[key]
	return row, ok
}

// Put inserts or overwrites the full row for its natural key, returning the
// previous state. Capture and overwrite happen under one lock acquisition
// so a change feed event cannot interleave between them.
func (c *Cache[K, E]) Put(row E) (prev E, existed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.putLocked(row)
}

func (c *Cache[K, E]) putLocked(row E) (prev E, existed bool) {
	key := c.keyOf(row)
	prev, existed = c.rows[key]
	if !existed {
		c.order = append(c.order, key)
	}
	c.rows[key] = row
	return prev, existed
}

// PutAll applies one atomic patch set covering every row, returning the
// previous states in order. Used by bulk column toggles.
func (c *Cache[K, E]) PutAll(rows []E) []Prev[K, E] {
	c.mu.Lock()
	defer c.mu.Unlock()
	prevs := make([]Prev[K, E], 0, len(rows))
	for _, row := range rows {
		prev, existed := c.putLocked(row)
		prevs = append(prevs, Prev[K, E]{Key: c.keyOf(row), Row: prev, Existed: existed})
	}
	return prevs
}

// Patch merges a partial update into an existing row and returns the prior
// state. It is a no-op (ok=false) when the key is absent; callers holding a
// complete record use Put instead.
func (c *Cache[K, E]) Patch(key K, apply func(E) E) (prev E, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok = c.rows[key]
	if !ok {
		return prev, false
	}
	c.rows[key] = apply(prev)
	return prev, true
}

// Remove deletes a row, returning its prior state for rollback.
func (c *Cache[K, E]) Remove(key K) (prev E, existed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, existed = c.rows[key]
	if !existed {
		return prev, false
	}
	delete(c.rows, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return prev, true
}

// Restore reverts one key to its captured state: the inverse of Put/Remove.
func (c *Cache[K, E]) Restore(key K, prev E, existed bool) {
	if existed {
		c.Put(prev)
		return
	}
	c.Remove(key)
}

// RestoreAll reverts a whole patch set, for all-or-nothing bulk rollback.
func (c *Cache[K, E]) RestoreAll(prevs []Prev[K, E]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range prevs {
		if p.Existed {
			c.putLocked(p.Row)
			continue
		}
		delete(c.rows, p.Key)
		for i, k := range c.order {
			if k == p.Key {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
}

// All returns the window's rows in insertion order (the fetch order of the
// last Load, with later Put keys appended).
func (c *Cache[K, E]) All() []E {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]E, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.rows[key])
	}
	return out
}

// Len returns the number of cached rows.
func (c *Cache[K, E]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}

// Window returns the filter the current snapshot was loaded under.
func (c *Cache[K, E]) Window() Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window
}
