// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package hrimport

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/ZIYADAHMAD17/dexaz-task-emp/hr"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// buildWorkbook writes rows (first row is the header) into an in-memory
// xlsx file.
func buildWorkbook(t *testing.T, rows [][]string) io.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, cells := range rows {
		for c, v := range cells {
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, name, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return &buf
}

func TestReadSheetHeaderNormalization(t *testing.T) {
	r := buildWorkbook(t, [][]string{
		{" E-Mail ", "Department"},
		{"ana@dexaz.com", "Sales"},
	})
	rows, err := ReadSheet(r)
	if err != nil {
		t.Fatalf("ReadSheet: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0]["email"] != "ana@dexaz.com" || rows[0]["department"] != "Sales" {
		t.Errorf("row = %v", rows[0])
	}
}

func TestImportEmployeesSkipsUnresolvable(t *testing.T) {
	ana := hr.Profile{ID: uuid.New(), Name: "Ana", Email: "ana@dexaz.com"}
	bo := hr.Profile{ID: uuid.New(), Name: "Bo", Email: "bo@dexaz.com"}
	profiles := []hr.Profile{ana, bo}

	r := buildWorkbook(t, [][]string{
		{"Email", "Designation"},
		{"ana@dexaz.com", "Engineer"},
		{"ghost@dexaz.com", "Manager"},
		{"bo@dexaz.com", ""},
	})

	var saved []hr.Employee
	save := func(_ context.Context, e hr.Employee) error {
		saved = append(saved, e)
		return nil
	}
	count, err := ImportEmployees(context.Background(), r, profiles, nil, save, testLogger())
	if err != nil {
		t.Fatalf("ImportEmployees: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if len(saved) != 2 {
		t.Fatalf("saved = %d rows", len(saved))
	}
	if saved[0].Designation != "Engineer" || saved[0].ProfileID != ana.ID {
		t.Errorf("first = %+v", saved[0])
	}
	if saved[1].Designation != DefaultDesignation || saved[1].Department != DefaultDepartment {
		t.Errorf("defaults not applied: %+v", saved[1])
	}
	if saved[1].JoiningDate.IsZero() {
		t.Error("joining date should default to today")
	}
}

func TestImportEmployeesSkipsAlreadyEnrolled(t *testing.T) {
	ana := hr.Profile{ID: uuid.New(), Name: "Ana", Email: "ana@dexaz.com"}
	existing := []hr.Employee{{ID: uuid.New(), ProfileID: ana.ID}}

	r := buildWorkbook(t, [][]string{
		{"Email"},
		{"ana@dexaz.com"},
		{"ANA@dexaz.com"},
	})
	count, err := ImportEmployees(context.Background(), r, []hr.Profile{ana}, existing,
		func(context.Context, hr.Employee) error { return nil }, testLogger())
	if err != nil {
		t.Fatalf("ImportEmployees: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestImportLeavesDerivesDuration(t *testing.T) {
	ana := hr.Profile{ID: uuid.New(), Name: "Ana", Email: "ana@dexaz.com"}

	r := buildWorkbook(t, [][]string{
		{"Email", "Leave Type", "Start Date", "End Date", "Reason"},
		{"ana@dexaz.com", "Sick", "2024-03-04", "2024-03-06", ""},
		{"ana@dexaz.com", "", "2024-03-10", "", "family visit"},
	})

	var saved []hr.LeaveRequest
	count, err := ImportLeaves(context.Background(), r, []hr.Profile{ana},
		func(_ context.Context, lr hr.LeaveRequest) error {
			saved = append(saved, lr)
			return nil
		}, testLogger())
	if err != nil {
		t.Fatalf("ImportLeaves: %v", err)
	}
	if count != 2 || len(saved) != 2 {
		t.Fatalf("count = %d saved = %d", count, len(saved))
	}
	if saved[0].DurationDays != 3 || saved[0].Status != hr.LeavePending || saved[0].Reason != ImportedReason {
		t.Errorf("first = %+v", saved[0])
	}
	if saved[1].DurationDays != 1 || saved[1].LeaveType != "Casual" || saved[1].Reason != "family visit" {
		t.Errorf("second = %+v", saved[1])
	}
}

func TestExportAttendanceCSV(t *testing.T) {
	rows := []hr.SheetRow{
		{Name: "Ana", Days: map[int]bool{1: true, 2: false}},
		{Name: "Bo", Days: map[int]bool{2: true}},
	}
	var buf bytes.Buffer
	if err := ExportAttendanceCSV(&buf, rows, 2024, time.February); err != nil {
		t.Fatalf("ExportAttendanceCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	// Leap February: header plus 29 day columns.
	if len(records) != 3 || len(records[0]) != 30 {
		t.Fatalf("shape = %dx%d", len(records), len(records[0]))
	}
	if records[1][0] != "Ana" || records[1][1] != "P" || records[1][2] != "A" {
		t.Errorf("ana row = %v", records[1][:3])
	}
	if records[2][1] != "A" || records[2][2] != "P" {
		t.Errorf("bo row = %v", records[2][:3])
	}
}

func TestExportAttendanceXLSXRoundTrip(t *testing.T) {
	rows := []hr.SheetRow{{Name: "Ana", Days: map[int]bool{1: true}}}
	var buf bytes.Buffer
	if err := ExportAttendanceXLSX(&buf, rows, 2024, time.March); err != nil {
		t.Fatalf("ExportAttendanceXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	if !strings.Contains(sheet, "March") {
		t.Errorf("sheet = %q", sheet)
	}
	got, err := f.GetCellValue(sheet, "B2")
	if err != nil || got != "P" {
		t.Errorf("B2 = %q err=%v", got, err)
	}
}

func TestReadSheetRejectsGarbage(t *testing.T) {
	_, err := ReadSheet(strings.NewReader("not a zip archive"))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
}

func TestEmployeeTemplateHasHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := EmployeeTemplate(&buf); err != nil {
		t.Fatalf("EmployeeTemplate: %v", err)
	}
	rows, err := ReadSheet(&buf)
	if err != nil {
		t.Fatalf("ReadSheet: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("template should have no data rows, got %d", len(rows))
	}
}
