// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ZIYADAHMAD17/dexaz-task-emp/recsync"
)

// Query builds and executes one operation against a table. Builder methods
// return the receiver for chaining; a Query is single-use.
type Query struct {
	client     *Client
	table      string
	sel        string
	conds      []recsync.Cond
	orderBy    string
	descending bool
	limit      int
}

// Select sets the projection, including embedded references such as
// "*, profiles:assigned_to(name)".
func (q *Query) Select(columns string) *Query {
	q.sel = columns
	return q
}

// Eq adds an equality predicate.
func (q *Query) Eq(column string, value any) *Query {
	q.conds = append(q.conds, recsync.Cond{Column: column, Op: "eq", Value: value})
	return q
}

// Neq adds an inequality predicate.
func (q *Query) Neq(column string, value any) *Query {
	q.conds = append(q.conds, recsync.Cond{Column: column, Op: "neq", Value: value})
	return q
}

// Where applies a whole filter window: predicates, order and limit.
func (q *Query) Where(f recsync.Filter) *Query {
	q.conds = append(q.conds, f.Conds...)
	if f.OrderBy != "" {
		q.orderBy = f.OrderBy
		q.descending = f.Descending
	}
	if f.Limit > 0 {
		q.limit = f.Limit
	}
	return q
}

// Order sets the result ordering.
func (q *Query) Order(column string, descending bool) *Query {
	q.orderBy = column
	q.descending = descending
	return q
}

// Limit caps the result size.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

func (q *Query) values(withSelect bool) url.Values {
	v := url.Values{}
	if withSelect && q.sel != "" {
		v.Set("select", q.sel)
	}
	for _, c := range q.conds {
		v.Add(c.Column, fmt.Sprintf("%s.%v", c.Op, c.Value))
	}
	if q.orderBy != "" {
		dir := "asc"
		if q.descending {
			dir = "desc"
		}
		v.Set("order", q.orderBy+"."+dir)
	}
	if q.limit > 0 {
		v.Set("limit", strconv.Itoa(q.limit))
	}
	return v
}

func (q *Query) url(values url.Values) string {
	u := q.client.baseURL + "/rest/v1/" + q.table
	if enc := values.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func (q *Query) do(ctx context.Context, method string, values url.Values, body any, prefer string) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", q.table, err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, q.url(values), reader)
	if err != nil {
		return nil, err
	}
	if err := q.client.authorize(ctx, req); err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
	resp, err := q.client.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

// Get runs the query and returns the raw rows in remote order.
func (q *Query) Get(ctx context.Context) ([]map[string]any, error) {
	resp, err := q.do(ctx, http.MethodGet, q.values(true), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var rows []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode %s rows: %w", q.table, err)
	}
	return rows, nil
}

// Count issues a head request with exact counting and returns the total
// row count matching the predicates.
func (q *Query) Count(ctx context.Context) (int, error) {
	resp, err := q.do(ctx, http.MethodHead, q.values(true), nil, "count=exact")
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	// Content-Range is "0-24/3573" or "*/0".
	cr := resp.Header.Get("Content-Range")
	idx := strings.LastIndexByte(cr, '/')
	if idx < 0 {
		return 0, fmt.Errorf("count %s: missing content range", q.table)
	}
	n, err := strconv.Atoi(cr[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("count %s: bad content range %q", q.table, cr)
	}
	return n, nil
}

// Insert writes new rows.
func (q *Query) Insert(ctx context.Context, rows []map[string]any) error {
	resp, err := q.do(ctx, http.MethodPost, q.values(false), rows, "return=minimal")
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Upsert writes rows with per-record idempotent merge semantics, using
// onConflict as the conflict key (e.g. "profile_id,date"). The whole batch
// is a single all-or-nothing request.
func (q *Query) Upsert(ctx context.Context, rows []map[string]any, onConflict string) error {
	values := q.values(false)
	if onConflict != "" {
		values.Set("on_conflict", onConflict)
	}
	resp, err := q.do(ctx, http.MethodPost, values, rows, "resolution=merge-duplicates,return=minimal")
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Update patches the rows matching the predicates with fields.
func (q *Query) Update(ctx context.Context, fields map[string]any) error {
	resp, err := q.do(ctx, http.MethodPatch, q.values(false), fields, "return=minimal")
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Delete removes the rows matching the predicates.
func (q *Query) Delete(ctx context.Context) error {
	resp, err := q.do(ctx, http.MethodDelete, q.values(false), nil, "return=minimal")
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
