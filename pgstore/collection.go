// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package pgstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ZIYADAHMAD17/dexaz-task-emp/recsync"
)

// Codec describes how one entity type maps to its table. It mirrors the
// REST client's codec so both backends share the boundary mappers.
type Codec[K comparable, E any] struct {
	Decode func(map[string]any) (E, error)
	Encode func(E) map[string]any
	// SelectSQL is the projection query without a WHERE clause. Embedded
	// references are expressed as json_build_object columns so decoded
	// rows look identical to the REST dialect's. Defaults to
	// "SELECT * FROM <table>".
	SelectSQL string
	// IDColumn addresses a record for update/delete. Ignored when
	// KeyConds is set.
	IDColumn string
	// KeyConds addresses composite natural keys.
	KeyConds func(K) []recsync.Cond
	// ConflictColumns is the upsert conflict key, e.g.
	// ["profile_id", "date"].
	ConflictColumns []string
}

// Collection adapts one table to the fetcher and writer contracts of the
// record synchronization layer.
type Collection[K comparable, E any] struct {
	store  *Store
	table  string
	codec  Codec[K, E]
	logger *slog.Logger
}

// NewCollection wires a typed collection over table.
func NewCollection[K comparable, E any](store *Store, table string, codec Codec[K, E]) *Collection[K, E] {
	if codec.SelectSQL == "" {
		codec.SelectSQL = "SELECT * FROM " + table
	}
	if codec.IDColumn == "" {
		codec.IDColumn = "id"
	}
	return &Collection[K, E]{store: store, table: table, codec: codec, logger: store.logger}
}

var condOps = map[string]string{
	"eq":  "=",
	"neq": "<>",
	"gte": ">=",
	"lte": "<=",
}

// whereClause renders filter predicates as a parameterized WHERE clause,
// starting at placeholder $startAt+1.
func whereClause(conds []recsync.Cond, startAt int) (string, []any, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}
	var b strings.Builder
	args := make([]any, 0, len(conds))
	b.WriteString(" WHERE ")
	for i, c := range conds {
		op, ok := condOps[c.Op]
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter op %q", c.Op)
		}
		if i > 0 {
			b.WriteString(" AND ")
		}
		args = append(args, c.Value)
		fmt.Fprintf(&b, "%s %s $%d", c.Column, op, startAt+len(args))
	}
	return b.String(), args, nil
}

func selectSQL(base string, f recsync.Filter) (string, []any, error) {
	where, args, err := whereClause(f.Conds, 0)
	if err != nil {
		return "", nil, err
	}
	sql := base + where
	if f.OrderBy != "" {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		sql += fmt.Sprintf(" ORDER BY %s %s", f.OrderBy, dir)
	}
	if f.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	return sql, args, nil
}

// insertSQL renders a multi-row insert over the union of row columns,
// optionally upserting on the conflict key. Column order is sorted for a
// stable statement.
func insertSQL(table string, rows []map[string]any, conflict []string) (string, []any) {
	colSet := map[string]bool{}
	for _, row := range rows {
		for col := range row {
			colSet[col] = true
		}
	}
	cols := make([]string, 0, len(colSet))
	for col := range colSet {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", table, strings.Join(cols, ", "))
	args := make([]any, 0, len(rows)*len(cols))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, col := range cols {
			if j > 0 {
				b.WriteString(", ")
			}
			args = append(args, row[col])
			fmt.Fprintf(&b, "$%d", len(args))
		}
		b.WriteByte(')')
	}

	if len(conflict) > 0 {
		fmt.Fprintf(&b, " ON CONFLICT (%s) DO UPDATE SET ", strings.Join(conflict, ", "))
		keyCols := map[string]bool{}
		for _, c := range conflict {
			keyCols[c] = true
		}
		first := true
		for _, col := range cols {
			if keyCols[col] {
				continue
			}
			if !first {
				b.WriteString(", ")
			}
			first = false
			fmt.Fprintf(&b, "%s = EXCLUDED.%s", col, col)
		}
	}
	return b.String(), args
}

func updateSQL(table string, fields map[string]any, conds []recsync.Cond) (string, []any, error) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	var b strings.Builder
	fmt.Fprintf(&b, "UPDATE %s SET ", table)
	args := make([]any, 0, len(cols)+len(conds))
	for i, col := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		args = append(args, fields[col])
		fmt.Fprintf(&b, "%s = $%d", col, len(args))
	}
	where, whereArgs, err := whereClause(conds, len(args))
	if err != nil {
		return "", nil, err
	}
	return b.String() + where, append(args, whereArgs...), nil
}

// rowValue normalizes a database value to its wire-row shape so the shared
// boundary mappers see the same types as JSON decoding produces.
func rowValue(v any) any {
	switch t := v.(type) {
	case [16]byte:
		return uuid.UUID(t).String()
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format(time.RFC3339Nano)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}

func rowsToMaps(rows pgx.Rows) ([]map[string]any, error) {
	defer rows.Close()
	var out []map[string]any
	fields := rows.FieldDescriptions()
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = rowValue(values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (c *Collection[K, E]) keyConds(key K) []recsync.Cond {
	if c.codec.KeyConds != nil {
		return c.codec.KeyConds(key)
	}
	return []recsync.Cond{{Column: c.codec.IDColumn, Op: "eq", Value: fmt.Sprint(key)}}
}

// Fetch queries one filter window and decodes its rows, dropping rows
// that fail boundary mapping.
func (c *Collection[K, E]) Fetch(ctx context.Context, filter recsync.Filter) ([]E, error) {
	sql, args, err := selectSQL(c.codec.SelectSQL, filter)
	if err != nil {
		return nil, err
	}
	rows, err := c.store.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.table, err)
	}
	raw, err := rowsToMaps(rows)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", c.table, err)
	}
	out := make([]E, 0, len(raw))
	for _, row := range raw {
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
	where, args, err := whereClause(filter.Conds, 0)
	if err != nil {
		return 0, err
	}
	var n int
	err = c.store.pool.QueryRow(ctx, "SELECT count(*) FROM "+c.table+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.table, err)
	}
	return n, nil
}

// Insert writes one new record.
func (c *Collection[K, E]) Insert(ctx context.Context, rec E) error {
	sql, args := insertSQL(c.table, []map[string]any{c.codec.Encode(rec)}, nil)
	if _, err := c.store.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", c.table, err)
	}
	return nil
}

// Update patches the record addressed by key with fields.
func (c *Collection[K, E]) Update(ctx context.Context, key K, fields map[string]any) error {
	sql, args, err := updateSQL(c.table, fields, c.keyConds(key))
	if err != nil {
		return err
	}
	if _, err := c.store.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update %s: %w", c.table, err)
	}
	return nil
}

// Upsert writes the batch in one statement: the all-or-nothing request
// the bulk toggle's group rollback depends on.
func (c *Collection[K, E]) Upsert(ctx context.Context, recs []E) error {
	if len(recs) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, c.codec.Encode(rec))
	}
	sql, args := insertSQL(c.table, rows, c.codec.ConflictColumns)
	if _, err := c.store.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert into %s: %w", c.table, err)
	}
	return nil
}

// Delete removes the record addressed by key.
func (c *Collection[K, E]) Delete(ctx context.Context, key K) error {
	where, args, err := whereClause(c.keyConds(key), 0)
	if err != nil {
		return err
	}
	if _, err := c.store.pool.Exec(ctx, "DELETE FROM "+c.table+where, args...); err != nil {
		return fmt.Errorf("delete from %s: %w", c.table, err)
	}
	return nil
}
