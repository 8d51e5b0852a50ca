// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

// Package hr defines the typed records for the employee-management domain
// and the boundary mapping between them and raw backend rows. Rows come
// off the wire as loosely shaped JSON objects; everything past this
// package works with strict types.
package hr

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role of an authenticated profile.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleFounder  Role = "founder"
)

// IsAdmin reports whether the role may manage notices, tasks and leave
// approvals. Founders hold admin rights.
func (r Role) IsAdmin() bool { return r == RoleAdmin || r == RoleFounder }

// Profile is the identity row backing every other entity's person
// references.
type Profile struct {
	ID         uuid.UUID
	Name       string
	Email      string
	Role       Role
	Department string
	AvatarURL  string
}

// TaskStatus uses in_progress internally; the wire form is "in-progress".
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskOverdue    TaskStatus = "overdue"
)

// TaskPriority of a task.
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// Task is a tracked work item. AssigneeID is uuid.Nil when unassigned;
// AssigneeName carries the embedded profile name resolved by the query.
type Task struct {
	ID           uuid.UUID
	Title        string
	Description  string
	Status       TaskStatus
	Priority     TaskPriority
	AssigneeID   uuid.UUID
	AssigneeName string
	DueDate      time.Time // zero when not set
	CreatedAt    time.Time
}

// NoticeType classifies a company notice.
type NoticeType string

const (
	NoticeAnnouncement NoticeType = "announcement"
	NoticeUrgent       NoticeType = "urgent"
	NoticeEvent        NoticeType = "event"
	NoticeInfo         NoticeType = "info"
)

// Notice is a company announcement. Content is immutable once posted;
// there is no edit path.
type Notice struct {
	ID         uuid.UUID
	Title      string
	Content    string
	Type       NoticeType
	AuthorID   uuid.UUID
	AuthorName string
	AuthorRole Role
	IsPinned   bool
	CreatedAt  time.Time
}

// LeaveStatus of a leave request. The backend stores these capitalized.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "Pending"
	LeaveApproved LeaveStatus = "Approved"
	LeaveRejected LeaveStatus = "Rejected"
)

// LeaveRequest is a request for time off. DurationDays is derived from the
// date range, never trusted from user input.
type LeaveRequest struct {
	ID           uuid.UUID
	ProfileID    uuid.UUID
	ProfileName  string
	LeaveType    string
	StartDate    time.Time
	EndDate      time.Time
	DurationDays int
	Reason       string
	Status       LeaveStatus
}

// LeaveDuration derives the inclusive day span of a leave, floored at one
// day so a same-day or inverted range still books a single day.
func LeaveDuration(start, end time.Time) int {
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// EmployeeStatus is the directory availability marker.
type EmployeeStatus string

const (
	EmployeeActive  EmployeeStatus = "active"
	EmployeeAway    EmployeeStatus = "away"
	EmployeeOffline EmployeeStatus = "offline"
)

// Employee is the directory record, one-to-one with a Profile. Employees
// are created and mutated by admins and never deleted.
type Employee struct {
	ID          uuid.UUID
	ProfileID   uuid.UUID
	Name        string
	Email       string
	Designation string
	Department  string
	Phone       string
	JoiningDate time.Time
	Status      EmployeeStatus
}

// DateLayout is the calendar-day wire format used by attendance and leave
// date columns.
const DateLayout = "2006-01-02"

// MarkKey is the natural key of an attendance mark. Upserts must conflict
// on (profile_id, date) so repeated toggles never create duplicate rows.
type MarkKey struct {
	ProfileID uuid.UUID
	Date      string // DateLayout
}

// AttendanceMark is one cell of the attendance grid. Toggling off sets
// Present=false; the row persists and is never hard-deleted.
type AttendanceMark struct {
	ProfileID uuid.UUID
	Date      string // DateLayout
	Present   bool
}

// Key returns the mark's natural key.
func (m AttendanceMark) Key() MarkKey { return MarkKey{ProfileID: m.ProfileID, Date: m.Date} }

// FallbackProfile is the locally derived identity used when the profile
/// row is missing or resolution exceeds its deadline: name from the email
// local-part, employee role, General department.
func FallbackProfile(id uuid.UUID, email string) Profile {
	name := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		name = email[:at]
	}
	return Profile{
		ID:         id,
		Name:       name,
		Email:      email,
		Role:       RoleEmployee,
		Department: "General",
	}
}
