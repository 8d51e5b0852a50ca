// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package recsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeWriter struct {
	mu        sync.Mutex
	insertErr error
	updateErr error
	upsertErr error
	deleteErr error

	upserts  [][]mark
	updates  []map[string]any
	deletes  []markKey
	onUpsert func(recs []mark) // optional hook, runs outside the lock
}

func (w *fakeWriter) Insert(ctx context.Context, rec mark) error { return w.insertErr }

func (w *fakeWriter) Update(ctx context.Context, key markKey, fields map[string]any) error {
	w.mu.Lock()
	w.updates = append(w.updates, fields)
	w.mu.Unlock()
	return w.updateErr
}

func (w *fakeWriter) Upsert(ctx context.Context, recs []mark) error {
	if w.onUpsert != nil {
		w.onUpsert(recs)
	}
	w.mu.Lock()
	w.upserts = append(w.upserts, recs)
	w.mu.Unlock()
	return w.upsertErr
}

func (w *fakeWriter) Delete(ctx context.Context, key markKey) error {
	w.mu.Lock()
	w.deletes = append(w.deletes, key)
	w.mu.Unlock()
	return w.deleteErr
}

func newMarkMutator(w *fakeWriter) (*Cache[markKey, mark], *Mutator[markKey, mark]) {
	c := NewCache[markKey, mark](markKeyOf, nil)
	return c, NewMutator(c, w, nil, nil)
}

func TestToggleUpsertsFullState(t *testing.T) {
	w := &fakeWriter{}
	c, m := newMarkMutator(w)

	next := mark{Profile: "p1", Day: 4, Present: true}
	if err := m.Toggle(context.Background(), next); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got, _ := c.Get(markKey{"p1", 4}); !got.Present {
		t.Fatal("optimistic value not applied")
	}
	if len(w.upserts) != 1 || len(w.upserts[0]) != 1 || w.upserts[0][0] != next {
		t.Fatalf("upsert should carry the full new state, got %+v", w.upserts)
	}
}

func TestToggleLastWriterWinsAcrossResponseOrdering(t *testing.T) {
	// Two rapid toggles on the same key: the first write's response lands
	// after the second write completes. Once both resolve, the cache must
	// hold the last toggle's target value.
	firstInFlight := make(chan struct{})
	releaseFirst := make(chan struct{})
	var once sync.Once
	w := &fakeWriter{}
	w.onUpsert = func(recs []mark) {
		var isFirst bool
		once.Do(func() { isFirst = true })
		if isFirst {
			close(firstInFlight)
			<-releaseFirst
		}
	}
	c, m := newMarkMutator(w)

	key := markKey{"p1", 7}
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- m.Toggle(context.Background(), mark{Profile: "p1", Day: 7, Present: true})
	}()
	<-firstInFlight

	// Second toggle issued and resolved while the first is still in flight.
	if err := m.Toggle(context.Background(), mark{Profile: "p1", Day: 7, Present: false}); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	close(releaseFirst)
	select {
	case err := <-firstDone:
		if err != nil {
			t.Fatalf("first toggle: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first toggle did not resolve")
	}

	if got, _ := c.Get(key); got.Present {
		t.Fatal("cache must reflect the last toggle's target value")
	}
}

func TestUpdateRollbackIsExact(t *testing.T) {
	w := &fakeWriter{updateErr: errors.New("row level security violation")}
	c, m := newMarkMutator(w)
	before := mark{Profile: "p1", Day: 1, Present: true}
	c.Put(before)

	err := m.Update(context.Background(), markKey{"p1", 1}, func(mk mark) mark {
		mk.Present = false
		return mk
	}, map[string]any{"status": false})

	var mf *MutationFailed
	if !errors.As(err, &mf) {
		t.Fatalf("expected *MutationFailed, got %v", err)
	}
	if mf.Message != "row level security violation" {
		t.Fatalf("backend message must be carried verbatim, got %q", mf.Message)
	}
	if got, _ := c.Get(markKey{"p1", 1}); got != before {
		t.Fatalf("rollback not exact: got %+v want %+v", got, before)
	}
}

func TestCreateFailureRemovesOptimisticRow(t *testing.T) {
	w := &fakeWriter{insertErr: errors.New("duplicate key")}
	c, m := newMarkMutator(w)

	err := m.Create(context.Background(), mark{Profile: "p2", Day: 1})
	if err == nil {
		t.Fatal("expected failure")
	}
	if _, ok := c.Get(markKey{"p2", 1}); ok {
		t.Fatal("failed create must remove the optimistic row")
	}
}

func TestDeleteFailureRestoresRow(t *testing.T) {
	w := &fakeWriter{deleteErr: errors.New("permission denied")}
	c, m := newMarkMutator(w)
	before := mark{Profile: "p1", Day: 9, Present: true}
	c.Put(before)

	if err := m.Delete(context.Background(), markKey{"p1", 9}); err == nil {
		t.Fatal("expected failure")
	}
	if got, ok := c.Get(markKey{"p1", 9}); !ok || got != before {
		t.Fatalf("failed delete must restore the row, got %+v ok=%v", got, ok)
	}
}

func TestSiblingMutationFailureDoesNotRollBackOtherKeys(t *testing.T) {
	c := NewCache[markKey, mark](markKeyOf, nil)
	c.Put(mark{Profile: "a", Day: 1, Present: false})
	c.Put(mark{Profile: "b", Day: 1, Present: false})

	okWriter := &fakeWriter{}
	badWriter := &fakeWriter{updateErr: errors.New("boom")}
	okMut := NewMutator[markKey, mark](c, okWriter, nil, nil)
	badMut := NewMutator[markKey, mark](c, badWriter, nil, nil)

	flip := func(mk mark) mark {
		mk.Present = true
		return mk
	}
	if err := okMut.Update(context.Background(), markKey{"a", 1}, flip, map[string]any{"status": true}); err != nil {
		t.Fatalf("update a: %v", err)
	}
	if err := badMut.Update(context.Background(), markKey{"b", 1}, flip, map[string]any{"status": true}); err == nil {
		t.Fatal("expected update b to fail")
	}

	if got, _ := c.Get(markKey{"a", 1}); !got.Present {
		t.Fatal("b's rollback clobbered a's successful change")
	}
	if got, _ := c.Get(markKey{"b", 1}); got.Present {
		t.Fatal("b's change not rolled back")
	}
}

func buildMark(day int) func(key markKey, value bool) mark {
	return func(key markKey, value bool) mark {
		return mark{Profile: key.Profile, Day: key.Day, Present: value}
	}
}

func TestToggleColumnNegatesAllTrue(t *testing.T) {
	w := &fakeWriter{}
	c, m := newMarkMutator(w)
	// Mixed column: one present, one absent row for the day.
	c.Put(mark{Profile: "a", Day: 5, Present: true})
	keys := []markKey{{"a", 5}, {"b", 5}}

	isSet := func(mk mark) bool { return mk.Present }
	if err := m.ToggleColumn(context.Background(), keys, isSet, buildMark(5)); err != nil {
		t.Fatalf("toggle column: %v", err)
	}
	for _, k := range keys {
		if got, _ := c.Get(k); !got.Present {
			t.Fatalf("row %v should be set after first column toggle", k)
		}
	}
	if len(w.upserts) != 1 || len(w.upserts[0]) != 2 {
		t.Fatalf("expected one batched upsert of the whole group, got %+v", w.upserts)
	}

	// Second call: now uniformly true, so the column flips to false.
	if err := m.ToggleColumn(context.Background(), keys, isSet, buildMark(5)); err != nil {
		t.Fatalf("second toggle column: %v", err)
	}
	for _, k := range keys {
		if got, _ := c.Get(k); got.Present {
			t.Fatalf("row %v should be unset after second column toggle", k)
		}
	}
}

func TestToggleColumnFailureRollsBackWholeGroup(t *testing.T) {
	w := &fakeWriter{upsertErr: errors.New("batch rejected")}
	c, m := newMarkMutator(w)
	c.Put(mark{Profile: "a", Day: 5, Present: true})
	keys := []markKey{{"a", 5}, {"b", 5}}

	err := m.ToggleColumn(context.Background(), keys, func(mk mark) bool { return mk.Present }, buildMark(5))
	if err == nil {
		t.Fatal("expected failure")
	}
	// The batched write is all-or-nothing: group rollback, not row-by-row.
	if got, ok := c.Get(markKey{"a", 5}); !ok || !got.Present {
		t.Fatalf("row a not restored: %+v ok=%v", got, ok)
	}
	if _, ok := c.Get(markKey{"b", 5}); ok {
		t.Fatal("row b was absent before the toggle and must be absent again")
	}
}

func TestToggleColumnEmptyGroupIsNoop(t *testing.T) {
	w := &fakeWriter{}
	_, m := newMarkMutator(w)
	if err := m.ToggleColumn(context.Background(), nil, func(mark) bool { return true }, buildMark(1)); err != nil {
		t.Fatalf("empty group: %v", err)
	}
	if len(w.upserts) != 0 {
		t.Fatal("empty group must not write")
	}
}

func TestMutationFailureNotifies(t *testing.T) {
	var got []Notification
	c := NewCache[markKey, mark](markKeyOf, nil)
	m := NewMutator[markKey, mark](c, &fakeWriter{insertErr: errors.New("nope")}, func(n Notification) {
		got = append(got, n)
	}, nil)

	_ = m.Create(context.Background(), mark{Profile: "x", Day: 1})
	if len(got) != 1 {
		t.Fatalf("expected one notification, got %d", len(got))
	}
	if got[0].Kind != NotifyError || got[0].Message != "nope" {
		t.Fatalf("unexpected notification %+v", got[0])
	}
}
