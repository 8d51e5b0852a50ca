// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

package hr

import "github.com/ZIYADAHMAD17/dexaz-task-emp/recsync"

// Stats are the dashboard headline counters.
type Stats struct {
	TotalEmployees int
	ActiveTasks    int
	PendingLeaves  int
}

// TaskDistribution derives the status pie chart data from the task window.
func TaskDistribution(tasks []Task) []recsync.StatusCount {
	return recsync.GroupByStatus(tasks, func(t Task) string { return string(t.Status) })
}

// Workload derives the top-five assignee bar chart data from the task
// window.
func Workload(tasks []Task) []recsync.AssigneeCount {
	return recsync.TopAssignees(tasks, func(t Task) string { return t.AssigneeName })
}
