// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package hr

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrMalformedRow marks a backend row that failed boundary mapping. Such
// rows are rejected and logged by callers instead of flowing on with zero
// fields.
var ErrMalformedRow = errors.New("malformed backend row")

// Row is a raw backend row as decoded from JSON: string, float64, bool,
// nil, or nested Row for embedded references.
type Row = map[string]any

func rowString(row Row, key string) (string, bool) {
	v, ok := row[key].(string)
	return v, ok
}

func rowBool(row Row, key string) bool {
	v, _ := row[key].(bool)
	return v
}

func rowUUID(row Row, key string) (uuid.UUID, error) {
	s, ok := rowString(row, key)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: missing %s", ErrMalformedRow, key)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad %s: %v", ErrMalformedRow, key, err)
	}
	return id, nil
}

// rowTime parses timestamp and calendar-day columns; zero when absent.
func rowTime(row Row, key string) time.Time {
	s, ok := rowString(row, key)
	if !ok || s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// embedded returns a nested row from a resolved foreign reference, e.g.
// the "profiles" object joined onto a task.
func embedded(row Row, key string) Row {
	v, _ := row[key].(Row)
	return v
}

// ProfileFromRow maps a profiles row.
func ProfileFromRow(row Row) (Profile, error) {
	id, err := rowUUID(row, "id")
	if err != nil {
		return Profile{}, err
	}
	email, _ := rowString(row, "email")
	name, ok := rowString(row, "name")
	if !ok || name == "" {
		// Same derivation the sign-in fallback uses.
		name = FallbackProfile(id, email).Name
	}
	role, _ := rowString(row, "role")
	dept, _ := rowString(row, "department")
	if dept == "" {
		dept = "General"
	}
	avatar, _ := rowString(row, "avatar_url")
	return Profile{
		ID:         id,
		Name:       name,
		Email:      email,
		Role:       Role(role),
		Department: dept,
		AvatarURL:  avatar,
	}, nil
}

// TaskFromRow maps a tasks row, normalizing the wire status "in-progress"
// and resolving the embedded assignee name.
func TaskFromRow(row Row) (Task, error) {
	id, err := rowUUID(row, "id")
	if err != nil {
		return Task{}, err
	}
	title, ok := rowString(row, "title")
	if !ok {
		return Task{}, fmt.Errorf("%w: task %s has no title", ErrMalformedRow, id)
	}
	status, _ := rowString(row, "status")
	if status == "in-progress" {
		status = string(TaskInProgress)
	}
	desc, _ := rowString(row, "description")
	prio, _ := rowString(row, "priority")
	t := Task{
		ID:          id,
		Title:       title,
		Description: desc,
		Status:      TaskStatus(status),
		Priority:    TaskPriority(prio),
		DueDate:     rowTime(row, "due_date"),
		CreatedAt:   rowTime(row, "created_at"),
	}
	if s, ok := rowString(row, "assigned_to"); ok {
		if aid, err := uuid.Parse(s); err == nil {
			t.AssigneeID = aid
		}
	}
	if p := embedded(row, "profiles"); p != nil {
		t.AssigneeName, _ = rowString(p, "name")
	}
	return t, nil
}

// Row encodes the task for insert, translating the status back to its wire
// form. The remote write carries the same values the optimistic patch
// applied.
func (t Task) Row() Row {
	status := string(t.Status)
	if t.Status == TaskInProgress {
		status = "in-progress"
	}
	row := Row{
		"id":          t.ID.String(),
		"title":       t.Title,
		"description": t.Description,
		"status":      status,
		"priority":    string(t.Priority),
	}
	if t.AssigneeID != uuid.Nil {
		row["assigned_to"] = t.AssigneeID.String()
	}
	if !t.DueDate.IsZero() {
		row["due_date"] = t.DueDate.Format(DateLayout)
	} else {
		row["due_date"] = nil
	}
	return row
}

// NoticeFromRow maps a notices row with its embedded author profile.
func NoticeFromRow(row Row) (Notice, error) {
	id, err := rowUUID(row, "id")
	if err != nil {
		return Notice{}, err
	}
	title, ok := rowString(row, "title")
	if !ok {
		return Notice{}, fmt.Errorf("%w: notice %s has no title", ErrMalformedRow, id)
	}
	content, _ := rowString(row, "content")
	kind, _ := rowString(row, "type")
	n := Notice{
		ID:        id,
		Title:     title,
		Content:   content,
		Type:      NoticeType(kind),
		IsPinned:  rowBool(row, "is_pinned"),
		CreatedAt: rowTime(row, "created_at"),
	}
	if s, ok := rowString(row, "author_id"); ok {
		if aid, err := uuid.Parse(s); err == nil {
			n.AuthorID = aid
		}
	}
	n.AuthorName = "Admin"
	n.AuthorRole = RoleAdmin
	if p := embedded(row, "profiles"); p != nil {
		if name, ok := rowString(p, "name"); ok && name != "" {
			n.AuthorName = name
		}
		if role, ok := rowString(p, "role"); ok && role != "" {
			n.AuthorRole = Role(role)
		}
	}
	return n, nil
}

// Row encodes the notice for insert.
func (n Notice) Row() Row {
	return Row{
		"id":        n.ID.String(),
		"title":     n.Title,
		"content":   n.Content,
		"type":      string(n.Type),
		"author_id": n.AuthorID.String(),
		"is_pinned": n.IsPinned,
	}
}

// LeaveFromRow maps a leaves row. The duration column is re-derived from
// the date range when missing or inconsistent.
func LeaveFromRow(row Row) (LeaveRequest, error) {
	id, err := rowUUID(row, "id")
	if err != nil {
		return LeaveRequest{}, err
	}
	profileID, err := rowUUID(row, "profile_id")
	if err != nil {
		return LeaveRequest{}, err
	}
	leaveType, _ := rowString(row, "leave_type")
	reason, _ := rowString(row, "reason")
	status, _ := rowString(row, "status")
	l := LeaveRequest{
		ID:        id,
		ProfileID: profileID,
		LeaveType: leaveType,
		StartDate: rowTime(row, "start_date"),
		EndDate:   rowTime(row, "end_date"),
		Reason:    reason,
		Status:    LeaveStatus(status),
	}
	if d, ok := row["duration"].(float64); ok && d >= 1 {
		l.DurationDays = int(d)
	} else {
		l.DurationDays = LeaveDuration(l.StartDate, l.EndDate)
	}
	l.ProfileName = "Unknown"
	if p := embedded(row, "profiles"); p != nil {
		if name, ok := rowString(p, "name"); ok && name != "" {
			l.ProfileName = name
		}
	}
	return l, nil
}

// Row encodes the leave request for insert.
func (l LeaveRequest) Row() Row {
	return Row{
		"id":         l.ID.String(),
		"profile_id": l.ProfileID.String(),
		"leave_type": l.LeaveType,
		"start_date": l.StartDate.Format(DateLayout),
		"end_date":   l.EndDate.Format(DateLayout),
		"duration":   l.DurationDays,
		"reason":     l.Reason,
		"status":     string(l.Status),
	}
}

// EmployeeFromRow maps an employees row with its embedded profile.
func EmployeeFromRow(row Row) (Employee, error) {
	id, err := rowUUID(row, "id")
	if err != nil {
		return Employee{}, err
	}
	designation, _ := rowString(row, "designation")
	dept, _ := rowString(row, "department")
	phone, _ := rowString(row, "phone")
	status, _ := rowString(row, "status")
	if status == "" {
		status = string(EmployeeOffline)
	}
	e := Employee{
		ID:          id,
		Designation: designation,
		Department:  dept,
		Phone:       phone,
		JoiningDate: rowTime(row, "joining_date"),
		Status:      EmployeeStatus(status),
	}
	if s, ok := rowString(row, "profile_id"); ok {
		if pid, err := uuid.Parse(s); err == nil {
			e.ProfileID = pid
		}
	}
	if p := embedded(row, "profiles"); p != nil {
		e.Name, _ = rowString(p, "name")
		e.Email, _ = rowString(p, "email")
		if e.ProfileID == uuid.Nil {
			if pid, err := rowUUID(p, "id"); err == nil {
				e.ProfileID = pid
			}
		}
	}
	return e, nil
}

// Row encodes the employee for insert.
func (e Employee) Row() Row {
	return Row{
		"id":           e.ID.String(),
		"profile_id":   e.ProfileID.String(),
		"designation":  e.Designation,
		"department":   e.Department,
		"phone":        e.Phone,
		"joining_date": e.JoiningDate.Format(DateLayout),
		"status":       string(e.Status),
	}
}

// MarkFromRow maps an attendance row. The boolean column is named status
// on the wire.
func MarkFromRow(row Row) (AttendanceMark, error) {
	profileID, err := rowUUID(row, "profile_id")
	if err != nil {
		return AttendanceMark{}, err
	}
	date, ok := rowString(row, "date")
	if !ok {
		return AttendanceMark{}, fmt.Errorf("%w: attendance mark without date", ErrMalformedRow)
	}
	if t := rowTime(row, "date"); !t.IsZero() {
		date = t.Format(DateLayout)
	}
	return AttendanceMark{
		ProfileID: profileID,
		Date:      date,
		Present:   rowBool(row, "status"),
	}, nil
}

// Row encodes the mark for upsert on its (profile_id, date) conflict key.
func (m AttendanceMark) Row() Row {
	return Row{
		"profile_id": m.ProfileID.String(),
		"date":       m.Date,
		"status":     m.Present,
	}
}
