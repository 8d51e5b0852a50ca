// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package hrimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ZIYADAHMAD17/dexaz-task-emp/hr"
)

// attendanceHeader builds the grid header: Name, then one column per day
// of the month.
func attendanceHeader(year int, month time.Month) []string {
	days := hr.DaysIn(year, month)
	header := make([]string, 0, days+1)
	header = append(header, "Name")
	for d := 1; d <= days; d++ {
		header = append(header, strconv.Itoa(d))
	}
	return header
}

func presenceCell(present bool) string {
	if present {
		return "P"
	}
	return "A"
}

// ExportAttendanceCSV writes the month's attendance grid as CSV, one row
// per employee with P/A per day.
func ExportAttendanceCSV(w io.Writer, rows []hr.SheetRow, year int, month time.Month) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(attendanceHeader(year, month)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	days := hr.DaysIn(year, month)
	for _, row := range rows {
		record := make([]string, 0, days+1)
		record = append(record, row.Name)
		for d := 1; d <= days; d++ {
			record = append(record, presenceCell(row.Days[d]))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", row.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportAttendanceXLSX writes the same grid as a workbook, with the
// sheet named after the month.
func ExportAttendanceXLSX(w io.Writer, rows []hr.SheetRow, year int, month time.Month) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("%s %d", month.String(), year)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	writeRow := func(rowIdx int, cells []string) error {
		for i, v := range cells {
			name, err := excelize.CoordinatesToCellName(i+1, rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, name, v); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeRow(1, attendanceHeader(year, month)); err != nil {
		return err
	}
	days := hr.DaysIn(year, month)
	for i, row := range rows {
		record := make([]string, 0, days+1)
		record = append(record, row.Name)
		for d := 1; d <= days; d++ {
			record = append(record, presenceCell(row.Days[d]))
		}
		if err := writeRow(i+2, record); err != nil {
			return err
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
