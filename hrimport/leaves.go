// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package hrimport

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ZIYADAHMAD17/dexaz-task-emp/hr"
)

// ImportedReason marks leave requests that arrived via workbook rather
// than the request form.
const ImportedReason = "Imported request"

// ImportLeaves reads a leave workbook and persists one pending request
// per resolvable row. Rows without an email, an unknown email, or an
// unparsable start date are skipped. Duration is derived from the date
// range. Returns the number of rows persisted.
func ImportLeaves(ctx context.Context, r io.Reader, profiles []hr.Profile, save func(context.Context, hr.LeaveRequest) error, logger *slog.Logger) (int, error) {
	rows, err := ReadSheet(r)
	if err != nil {
		return 0, err
	}

	byEmail := make(map[string]hr.Profile, len(profiles))
	for _, p := range profiles {
		byEmail[strings.ToLower(p.Email)] = p
	}

	count := 0
	for _, row := range rows {
		email := strings.ToLower(field(row, "email", "email_address"))
		if email == "" {
			continue
		}
		profile, ok := byEmail[email]
		if !ok {
			logger.Warn("import: no profile for email", "email", email)
			continue
		}
		start := parseDay(field(row, "start_date", "from", "start"))
		if start.IsZero() {
			logger.Warn("import: unparsable start date", "email", email)
			continue
		}
		end := parseDay(field(row, "end_date", "to", "end"))
		if end.IsZero() {
			end = start
		}

		req := hr.LeaveRequest{
			ID:           uuid.New(),
			ProfileID:    profile.ID,
			ProfileName:  profile.Name,
			LeaveType:    field(row, "leave_type", "type"),
			StartDate:    start,
			EndDate:      end,
			DurationDays: hr.LeaveDuration(start, end),
			Reason:       field(row, "reason"),
			Status:       hr.LeavePending,
		}
		if req.LeaveType == "" {
			req.LeaveType = "Casual"
		}
		if req.Reason == "" {
			req.Reason = ImportedReason
		}

		if err := save(ctx, req); err != nil {
			logger.Warn("import: persist failed", "email", email, "error", err)
			continue
		}
		count++
	}
	return count, nil
}
