// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package postgrest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ZIYADAHMAD17/dexaz-task-emp/recsync"
)

// Codec describes how one entity type crosses the wire boundary.
type Codec[K comparable, E any] struct {
	// Decode maps a raw row to the typed record. Malformed rows are
	// rejected with an error, logged by the collection and skipped.
	Decode func(map[string]any) (E, error)
	// Encode maps the typed record to its wire row.
	Encode func(E) map[string]any
	// Select is the projection used on fetch, including embedded
	// references. Defaults to "*".
	Select string
	// IDColumn addresses a record for update/delete. Ignored when
	// KeyConds is set.
	IDColumn string
	// KeyConds addresses composite natural keys, e.g. (profile_id, date).
	KeyConds func(K) []recsync.Cond
	// OnConflict is the upsert conflict key, e.g. "profile_id,date".
	OnConflict string
}

// Collection adapts one backend table to the fetcher and writer contracts
// of the record synchronization layer.
type Collection[K comparable, E any] struct {
	client *Client
	table  string
	codec  Codec[K, E]
	logger *slog.Logger
}

// NewCollection wires a typed collection over table.
func NewCollection[K comparable, E any](client *Client, table string, codec Codec[K, E]) *Collection[K, E] {
	if codec.Select == "" {
		codec.Select = "*"
	}
	if codec.IDColumn == "" {
		codec.IDColumn = "id"
	}
	return &Collection[K, E]{client: client, table: table, codec: codec, logger: client.logger}
}

// Fetch queries one filter window and decodes its rows. Rows that fail
// boundary mapping are logged and dropped rather than propagated with
// missing fields.
func (c *Collection[K, E]) Fetch(ctx context.Context, filter recsync.Filter) ([]E, error) {
	rows, err := c.client.From(c.table).Select(c.codec.Select).Where(filter).Get(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]E, 0, len(rows))
	for _, row := range rows {
		rec, err := c.codec.Decode(row)
		if err != nil {
			c.logger.Warn("dropping malformed row", "table", c.table, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Count returns the number of rows matching the filter's predicates.
func (c *Collection[K, E]) Count(ctx context.Context, filter recsync.Filter) (int, error) {
	return c.client.From(c.table).Where(filter).Count(ctx)
}

func (c *Collection[K, E]) keyQuery(key K) *Query {
	q := c.client.From(c.table)
	if c.codec.KeyConds != nil {
		for _, cond := range c.codec.KeyConds(key) {
			q.conds = append(q.conds, cond)
		}
		return q
	}
	return q.Eq(c.codec.IDColumn, fmt.Sprint(key))
}

// Insert writes one new record.
func (c *Collection[K, E]) Insert(ctx context.Context, rec E) error {
	return c.client.From(c.table).Insert(ctx, []map[string]any{c.codec.Encode(rec)})
}

// Update patches the record addressed by key with fields.
func (c *Collection[K, E]) Update(ctx context.Context, key K, fields map[string]any) error {
	return c.keyQuery(key).Update(ctx, fields)
}

// Upsert writes the batch with merge semantics on the configured conflict
// key, one all-or-nothing request.
func (c *Collection[K, E]) Upsert(ctx context.Context, recs []E) error {
	rows := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, c.codec.Encode(rec))
	}
	return c.client.From(c.table).Upsert(ctx, rows, c.codec.OnConflict)
}

// Delete removes the record addressed by key.
func (c *Collection[K, E]) Delete(ctx context.Context, key K) error {
	return c.keyQuery(key).Delete(ctx)
}
