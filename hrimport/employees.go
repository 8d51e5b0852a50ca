// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package hrimport

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ZIYADAHMAD17/dexaz-task-emp/hr"
)

// Default field values for imported employees. The source workbook is
// often a bare list of emails.
const (
	DefaultDesignation = "Staff"
	DefaultDepartment  = "General"
)

// ImportEmployees reads an employee workbook and persists one employee
// record per resolvable row. A row is skipped, not failed, when it has
// no email, the email matches no profile, or the profile already has an
// employee record. Returns the number of rows persisted.
func ImportEmployees(ctx context.Context, r io.Reader, profiles []hr.Profile, existing []hr.Employee, save func(context.Context, hr.Employee) error, logger *slog.Logger) (int, error) {
	rows, err := ReadSheet(r)
	if err != nil {
		return 0, err
	}

	byEmail := make(map[string]hr.Profile, len(profiles))
	for _, p := range profiles {
		byEmail[strings.ToLower(p.Email)] = p
	}
	enrolled := make(map[uuid.UUID]bool, len(existing))
	for _, e := range existing {
		enrolled[e.ProfileID] = true
	}

	count := 0
	for _, row := range rows {
		email := strings.ToLower(field(row, "email", "email_address", "mail"))
		if email == "" {
			continue
		}
		profile, ok := byEmail[email]
		if !ok {
			logger.Warn("import: no profile for email", "email", email)
			continue
		}
		if enrolled[profile.ID] {
			continue
		}

		emp := hr.Employee{
			ID:          uuid.New(),
			ProfileID:   profile.ID,
			Name:        profile.Name,
			Email:       profile.Email,
			Designation: field(row, "designation", "title", "position"),
			Department:  field(row, "department", "dept"),
			Phone:       field(row, "phone", "phone_number", "mobile"),
			JoiningDate: parseDay(field(row, "joining_date", "join_date", "start_date")),
			Status:      hr.EmployeeActive,
		}
		if emp.Designation == "" {
			emp.Designation = DefaultDesignation
		}
		if emp.Department == "" {
			emp.Department = DefaultDepartment
		}
		if emp.JoiningDate.IsZero() {
			emp.JoiningDate = today()
		}

		if err := save(ctx, emp); err != nil {
			logger.Warn("import: persist failed", "email", email, "error", err)
			continue
		}
		enrolled[profile.ID] = true
		count++
	}
	return count, nil
}

func parseDay(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{hr.DateLayout, "01-02-06", "1/2/06", "01/02/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
