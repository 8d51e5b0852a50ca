// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package recsync

import (
	"log/slog"
	"sync"
)

// EventType is the change kind delivered by a feed.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Event is one inbound change feed notification carrying the full new row
// payload.
type Event[E any] struct {
	Type EventType
	Row  E
}

// Feed is a push channel for one entity type. Close must cause Events to
// be closed; it is the subscriber's teardown obligation.
type Feed[E any] interface {
	Events() <-chan Event[E]
	Close() error
}

// Listener folds feed events into the cache for as long as the feed is
// open. Each event's full row unconditionally overwrites any
// optimistic-but-unconfirmed local value for that key: observed remote
// truth wins, local optimism is only a latency mask.
//
// Close releases the subscription and must be called exactly once per
// consuming view teardown; a listener left open keeps receiving events for
// the lifetime of the process. Close is idempotent so scoped cleanup
// (defer) cannot double-release.
type Listener[K comparable, E any] struct {
	cache   *Cache[K, E]
	feed    Feed[E]
	onEvent func(Event[E])
	logger  *slog.Logger

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// Listen subscribes the cache to feed and starts folding events. onEvent,
// if non-nil, runs after each fold (e.g. to toast "New Notice Posted").
func Listen[K comparable, E any](cache *Cache[K, E], feed Feed[E], onEvent func(Event[E]), logger *slog.Logger) *Listener[K, E] {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Listener[K, E]{
		cache:   cache,
		feed:    feed,
		onEvent: onEvent,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Listener[K, E]) run() {
	defer close(l.done)
	for ev := range l.feed.Events() {
		switch ev.Type {
		case EventDelete:
			l.cache.Remove(l.cache.keyOf(ev.Row))
		default:
			l.cache.Put(ev.Row)
		}
		if l.onEvent != nil {
			l.onEvent(ev)
		}
	}
	l.logger.Debug("change feed drained")
}

// Close releases the underlying feed and waits for the fold loop to exit.
func (l *Listener[K, E]) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.feed.Close()
		<-l.done
	})
	return l.closeErr
}
