// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package hr

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ZIYADAHMAD17/dexaz-task-emp/recsync"
)

// MonthWindow is the attendance filter for one calendar month: every mark
// whose date falls inside the month, ordered by date.
func MonthWindow(year int, month time.Month) recsync.Filter {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return recsync.Filter{OrderBy: "date"}.
		Between("date", first.Format(DateLayout), last.Format(DateLayout))
}

// Date formats one day of a month as a calendar-day string.
func Date(year int, month time.Month, day int) string {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SheetRow is one employee's line of the attendance grid.
type SheetRow struct {
	ProfileID uuid.UUID
	Name      string
	Days      map[int]bool // day of month -> present
}

// BuildSheet joins the profile directory against the month's marks. Every
// profile gets a row; a day with no mark shows as absent. Rows are sorted
// by name (ascending by default, the grid's sort toggle flips it).
func BuildSheet(profiles []Profile, marks []AttendanceMark, year int, month time.Month, nameAsc bool) []SheetRow {
	byProfile := make(map[uuid.UUID]map[int]bool, len(profiles))
	for _, m := range marks {
		t, err := time.Parse(DateLayout, m.Date)
		if err != nil || t.Year() != year || t.Month() != month {
			continue
		}
		days := byProfile[m.ProfileID]
		if days == nil {
			days = make(map[int]bool)
			byProfile[m.ProfileID] = days
		}
		days[t.Day()] = m.Present
	}

	rows := make([]SheetRow, 0, len(profiles))
	for _, p := range profiles {
		days := byProfile[p.ID]
		if days == nil {
			days = make(map[int]bool)
		}
		rows = append(rows, SheetRow{ProfileID: p.ID, Name: p.Name, Days: days})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if nameAsc {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].Name > rows[j].Name
	})
	return rows
}

// ColumnKeys returns the natural keys of one day's column across the
// visible profiles, the group a bulk toggle covers.
func ColumnKeys(profiles []Profile, year int, month time.Month, day int) []MarkKey {
	date := Date(year, month, day)
	keys := make([]MarkKey, 0, len(profiles))
	for _, p := range profiles {
		keys = append(keys, MarkKey{ProfileID: p.ID, Date: date})
	}
	return keys
}

// ColumnAllChecked reports whether every visible row is present on the
// given day; false for an empty sheet.
func ColumnAllChecked(rows []SheetRow, day int) bool {
	if len(rows) == 0 {
		return false
	}
	for _, r := range rows {
		if !r.Days[day] {
			return false
		}
	}
	return true
}
