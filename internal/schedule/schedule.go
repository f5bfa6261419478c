// Package schedule decides which tasks are active on a calendar day.
package schedule

import (
	"github.com/dukerupert/allowance/internal/model"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusCompleted   Status = "completed"
	StatusUnscheduled Status = "unscheduled"
)

// IsScheduled reports whether task is active on date. An empty schedule mask
// means every day. date must already be in household-local terms.
func IsScheduled(task model.Task, date model.Date) bool {
	if len(task.Schedule) == 0 {
		return true
	}
	return task.Schedule.Contains(date.Weekday())
}

// ComputeStatus reports how a task looks on date given whether it has been
// completed. A completed task is completed even when off-schedule, since
// manual off-schedule completions are allowed.
func ComputeStatus(task model.Task, completed bool, date model.Date) Status {
	if completed {
		return StatusCompleted
	}
	if !IsScheduled(task, date) {
		return StatusUnscheduled
	}
	return StatusPending
}

// RoutineDone reports whether every task of a routine that is scheduled on
// date appears in completed. A routine with nothing scheduled that day is not
// done, so it never extends a streak.
func RoutineDone(tasks []model.Task, completed map[int64]bool, date model.Date) bool {
	scheduled := 0
	for _, t := range tasks {
		if !IsScheduled(t, date) {
			continue
		}
		scheduled++
		if !completed[t.ID] {
			return false
		}
	}
	return scheduled > 0
}
