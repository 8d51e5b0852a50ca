// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package recsync

import (
	"fmt"
	"strings"
)

// Cond is a single filter predicate against a remote column.
// Op is one of "eq", "neq", "gte", "lte".
type Cond struct {
	Column string
	Op     string
	Value  any
}

// Filter is an immutable descriptor of one query window. It is passed into
// Load rather than held as mutable page state, so every in-flight fetch can
// be matched against the window it was issued for.
type Filter struct {
	Conds      []Cond
	OrderBy    string
	Descending bool
	Limit      int
}

// Eq appends an equality predicate and returns the extended filter.
func (f Filter) Eq(column string, value any) Filter {
	f.Conds = append(f.Conds[:len(f.Conds):len(f.Conds)], Cond{Column: column, Op: "eq", Value: value})
	return f
}

// Neq appends an inequality predicate and returns the extended filter.
func (f Filter) Neq(column string, value any) Filter {
	f.Conds = append(f.Conds[:len(f.Conds):len(f.Conds)], Cond{Column: column, Op: "neq", Value: value})
	return f
}

// Between appends an inclusive range over column and returns the extended filter.
func (f Filter) Between(column string, lo, hi any) Filter {
	conds := f.Conds[:len(f.Conds):len(f.Conds)]
	conds = append(conds, Cond{Column: column, Op: "gte", Value: lo})
	conds = append(conds, Cond{Column: column, Op: "lte", Value: hi})
	f.Conds = conds
	return f
}

// Key returns a canonical string identity for the window, used for snapshot
// addressing and log correlation. Two filters with the same predicates,
// order and limit have the same key.
func (f Filter) Key() string {
	var b strings.Builder
	for i, c := range f.Conds {
		if i > 0 {
			b.WriteByte('&')
		}
		fmt.Fprintf(&b, "%s.%s=%v", c.Column, c.Op, c.Value)
	}
	if f.OrderBy != "" {
		dir := "asc"
		if f.Descending {
			dir = "desc"
		}
		fmt.Fprintf(&b, "|order=%s.%s", f.OrderBy, dir)
	}
	if f.Limit > 0 {
		fmt.Fprintf(&b, "|limit=%d", f.Limit)
	}
	return b.String()
}
