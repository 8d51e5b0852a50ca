// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

// Package hrimport reads bulk employee and leave data from spreadsheets
// and renders attendance exports. Import is forgiving: rows that cannot
// be resolved are skipped, and the caller gets a count of what persisted.
package hrimport

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ValidationError reports a workbook that cannot be imported at all, as
// opposed to individual rows that are skipped.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid workbook: %s: %v", e.Reason, e.Err)
	}
	return "invalid workbook: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ReadSheet parses the first sheet of an xlsx workbook into one map per
// data row, keyed by the header row. Header keys are lowercased and
// trimmed so "Email", "email" and " E-Mail " all address the same cell.
func ReadSheet(r io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ValidationError{Reason: "not a readable workbook", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ValidationError{Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = normalizeHeader(h)
	}

	out := make([]map[string]string, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		row := make(map[string]string, len(headers))
		empty := true
		for i, cell := range cells {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				empty = false
			}
			row[headers[i]] = cell
		}
		if !empty {
			out = append(out, row)
		}
	}
	return out, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "-", "")
	h = strings.ReplaceAll(h, " ", "_")
	return h
}

// field returns the first non-empty value among the given keys.
func field(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := row[k]; v != "" {
			return v
		}
	}
	return ""
}

// EmployeeTemplate writes an empty import workbook with the expected
// header row, ready to hand to an admin.
func EmployeeTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"Email", "Designation", "Department", "Phone", "Joining Date"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}
