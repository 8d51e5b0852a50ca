// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package recsync

import (
	"sort"
	"unicode"
	"unicode/utf8"
)

// UnassignedLabel is used when a row's assignee reference is absent.
const UnassignedLabel = "Unassigned"

// topAssigneeLimit caps the workload chart at its five busiest assignees.
const topAssigneeLimit = 5

// StatusCount is one slice of the status distribution chart.
type StatusCount struct {
	Label string
	Count int
}

// AssigneeCount is one bar of the workload chart.
type AssigneeCount struct {
	Name  string
	Tasks int
}

// GroupByStatus derives the status distribution from a window of rows.
// Labels are the status values with their first letter capitalized, in
// first-occurrence order, not alphabetical. Pure: no fetch, no cache
// mutation, safe to call on every render.
func GroupByStatus[E any](rows []E, status func(E) string) []StatusCount {
	index := make(map[string]int)
	var out []StatusCount
	for _, row := range rows {
		label := capitalize(status(row))
		if i, seen := index[label]; seen {
			out[i].Count++
			continue
		}
		index[label] = len(out)
		out = append(out, StatusCount{Label: label, Count: 1})
	}
	return out
}

// TopAssignees derives the per-assignee task counts, descending by count
// and truncated to the top five, ties broken by first-occurrence order.
// An empty assignee name maps to UnassignedLabel.
func TopAssignees[E any](rows []E, assignee func(E) string) []AssigneeCount {
	index := make(map[string]int)
	var out []AssigneeCount
	for _, row := range rows {
		name := assignee(row)
		if name == "" {
			name = UnassignedLabel
		}
		if i, seen := index[name]; seen {
			out[i].Tasks++
			continue
		}
		index[name] = len(out)
		out = append(out, AssigneeCount{Name: name, Tasks: 1})
	}
	// Stable sort keeps insertion order among equal counts.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tasks > out[j].Tasks })
	if len(out) > topAssigneeLimit {
		out = out[:topAssigneeLimit]
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
