// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package hr

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTaskFromRowNormalizesWireStatus(t *testing.T) {
	id := uuid.New()
	row := Row{
		"id":       id.String(),
		"title":    "Ship the report",
		"status":   "in-progress",
		"priority": "high",
		"profiles": Row{"name": "Ann"},
	}
	task, err := TaskFromRow(row)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if task.Status != TaskInProgress {
		t.Fatalf("status: got %q", task.Status)
	}
	if task.AssigneeName != "Ann" {
		t.Fatalf("assignee: got %q", task.AssigneeName)
	}

	// Encoding translates back to the wire form.
	if got := task.Row()["status"]; got != "in-progress" {
		t.Fatalf("wire status: got %v", got)
	}
}

func TestTaskFromRowRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		row  Row
	}{
		{"missing id", Row{"title": "x"}},
		{"bad id", Row{"id": "not-a-uuid", "title": "x"}},
		{"missing title", Row{"id": uuid.NewString()}},
	}
	for _, tc := range cases {
		if _, err := TaskFromRow(tc.row); !errors.Is(err, ErrMalformedRow) {
			t.Fatalf("%s: expected ErrMalformedRow, got %v", tc.name, err)
		}
	}
}

func TestMarkRowUsesNaturalKeyColumns(t *testing.T) {
	pid := uuid.New()
	m := AttendanceMark{ProfileID: pid, Date: "2024-03-05", Present: true}
	row := m.Row()
	if row["profile_id"] != pid.String() || row["date"] != "2024-03-05" || row["status"] != true {
		t.Fatalf("unexpected row %v", row)
	}

	back, err := MarkFromRow(row)
	if err != nil {
		t.Fatalf("map back: %v", err)
	}
	if back != m {
		t.Fatalf("round trip: got %+v want %+v", back, m)
	}
	if back.Key() != (MarkKey{ProfileID: pid, Date: "2024-03-05"}) {
		t.Fatalf("key: got %+v", back.Key())
	}
}

func TestMarkFromRowAcceptsTimestampDates(t *testing.T) {
	m, err := MarkFromRow(Row{
		"profile_id": uuid.NewString(),
		"date":       "2024-03-05T00:00:00",
		"status":     true,
	})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if m.Date != "2024-03-05" {
		t.Fatalf("date not normalized: %q", m.Date)
	}
}

func TestLeaveDuration(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	cases := []struct {
		start, end time.Time
		want       int
	}{
		{day(1), day(3), 3},
		{day(5), day(5), 1},
		{day(9), day(2), 1}, // inverted range floors at one day
	}
	for i, tc := range cases {
		if got := LeaveDuration(tc.start, tc.end); got != tc.want {
			t.Fatalf("case %d: got %d want %d", i, got, tc.want)
		}
	}
}

func TestLeaveFromRowDerivesMissingDuration(t *testing.T) {
	row := Row{
		"id":         uuid.NewString(),
		"profile_id": uuid.NewString(),
		"leave_type": "Casual",
		"start_date": "2024-03-01",
		"end_date":   "2024-03-03",
		"status":     "Pending",
	}
	l, err := LeaveFromRow(row)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if l.DurationDays != 3 {
		t.Fatalf("duration: got %d", l.DurationDays)
	}
	if l.ProfileName != "Unknown" {
		t.Fatalf("missing embedded profile should read Unknown, got %q", l.ProfileName)
	}
}

func TestProfileFromRowFallsBackToEmailLocalPart(t *testing.T) {
	p, err := ProfileFromRow(Row{
		"id":    uuid.NewString(),
		"email": "jdoe@dexaz.io",
	})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if p.Name != "jdoe" || p.Department != "General" {
		t.Fatalf("fallback fields: %+v", p)
	}
}

func TestFallbackProfile(t *testing.T) {
	id := uuid.New()
	p := FallbackProfile(id, "jane.roe@dexaz.io")
	if p.Name != "jane.roe" || p.Role != RoleEmployee || p.Department != "General" {
		t.Fatalf("unexpected fallback %+v", p)
	}
	if p.Role.IsAdmin() {
		t.Fatal("fallback profile must not carry admin rights")
	}
}

func TestRoleIsAdmin(t *testing.T) {
	if !RoleAdmin.IsAdmin() || !RoleFounder.IsAdmin() {
		t.Fatal("admin and founder hold admin rights")
	}
	if RoleEmployee.IsAdmin() {
		t.Fatal("employee must not hold admin rights")
	}
}

func TestEmployeeFromRowEmbeddedProfile(t *testing.T) {
	pid := uuid.New()
	e, err := EmployeeFromRow(Row{
		"id":           uuid.NewString(),
		"designation":  "Engineer",
		"department":   "Platform",
		"joining_date": "2023-06-01",
		"status":       "active",
		"profiles":     Row{"id": pid.String(), "name": "Max", "email": "max@dexaz.io"},
	})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if e.ProfileID != pid || e.Name != "Max" || e.Email != "max@dexaz.io" {
		t.Fatalf("embedded profile not resolved: %+v", e)
	}
}
