// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package recsync

import "testing"

type taskRow struct {
	Status   string
	Assignee string
}

func TestGroupByStatusInsertionOrder(t *testing.T) {
	rows := []taskRow{
		{Status: "completed"},
		{Status: "completed"},
		{Status: "pending"},
	}
	got := GroupByStatus(rows, func(r taskRow) string { return r.Status })

	want := []StatusCount{{Label: "Completed", Count: 2}, {Label: "Pending", Count: 1}}
	if len(got) != len(want) {
		t.Fatalf("got %d groups, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("group %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestGroupByStatusCapitalizesLabel(t *testing.T) {
	rows := []taskRow{{Status: "in_progress"}}
	got := GroupByStatus(rows, func(r taskRow) string { return r.Status })
	if got[0].Label != "In_progress" {
		t.Fatalf("label: got %q", got[0].Label)
	}
}

func TestTopAssigneesTruncatesToFive(t *testing.T) {
	var rows []taskRow
	// Six distinct assignees with one task each, one with three.
	for _, name := range []string{"ann", "bob", "cyd", "dan", "eve", "fay"} {
		rows = append(rows, taskRow{Assignee: name})
	}
	for i := 0; i < 3; i++ {
		rows = append(rows, taskRow{Assignee: "gus"})
	}

	got := TopAssignees(rows, func(r taskRow) string { return r.Assignee })
	if len(got) != 5 {
		t.Fatalf("expected exactly 5 entries, got %d", len(got))
	}
	if got[0].Name != "gus" || got[0].Tasks != 3 {
		t.Fatalf("busiest assignee first: got %+v", got[0])
	}
	// Ties broken by first occurrence.
	for i, want := range []string{"ann", "bob", "cyd", "dan"} {
		if got[i+1].Name != want {
			t.Fatalf("tie order at %d: got %s want %s", i+1, got[i+1].Name, want)
		}
	}
}

func TestTopAssigneesDefaultsUnassigned(t *testing.T) {
	rows := []taskRow{{Assignee: ""}, {Assignee: ""}, {Assignee: "ann"}}
	got := TopAssignees(rows, func(r taskRow) string { return r.Assignee })
	if got[0].Name != UnassignedLabel || got[0].Tasks != 2 {
		t.Fatalf("missing assignee reference must map to %q, got %+v", UnassignedLabel, got[0])
	}
}

func TestAggregatorsArePure(t *testing.T) {
	rows := []taskRow{{Status: "pending", Assignee: "ann"}}
	GroupByStatus(rows, func(r taskRow) string { return r.Status })
	TopAssignees(rows, func(r taskRow) string { return r.Assignee })
	if rows[0].Status != "pending" || rows[0].Assignee != "ann" {
		t.Fatal("aggregation must not mutate its input")
	}
}
