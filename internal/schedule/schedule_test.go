package schedule

import (
	"testing"
	"time"

	"github.com/dukerupert/allowance/internal/model"
)

// week starting Sunday 2026-02-01
func weekDates() []model.Date {
	start := model.Date{Year: 2026, Month: time.February, Day: 1}
	var out []model.Date
	for i := 0; i < 7; i++ {
		out = append(out, start.AddDays(i))
	}
	return out
}

func TestEmptyMaskScheduledEveryDay(t *testing.T) {
	task := model.Task{ID: 1, Name: "Make bed"}
	for _, d := range weekDates() {
		if !IsScheduled(task, d) {
			t.Errorf("IsScheduled(%s) = false, want true", d)
		}
	}
}

func TestMonWedFriMask(t *testing.T) {
	task := model.Task{ID: 1, Name: "Trash", Schedule: model.Weekdays{1, 3, 5}}
	want := map[time.Weekday]bool{
		time.Monday:    true,
		time.Wednesday: true,
		time.Friday:    true,
	}
	for _, d := range weekDates() {
		if got := IsScheduled(task, d); got != want[d.Weekday()] {
			t.Errorf("IsScheduled(%s, %s) = %v, want %v", d, d.Weekday(), got, want[d.Weekday()])
		}
	}
}

func TestLocalDayBoundary(t *testing.T) {
	loc, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	task := model.Task{ID: 1, Schedule: model.Weekdays{0}} // Sunday only

	// 2026-02-02 03:30 UTC is still Sunday evening in Denver.
	instant := time.Date(2026, 2, 2, 3, 30, 0, 0, time.UTC)
	if !IsScheduled(task, model.DateOf(instant, loc)) {
		t.Error("expected Sunday in household-local time")
	}
	if IsScheduled(task, model.DateOf(instant, time.UTC)) {
		t.Error("expected Monday in UTC")
	}
}

func TestComputeStatus(t *testing.T) {
	task := model.Task{ID: 1, Schedule: model.Weekdays{1}}
	monday := model.Date{Year: 2026, Month: time.February, Day: 2}
	tuesday := monday.AddDays(1)

	if got := ComputeStatus(task, false, monday); got != StatusPending {
		t.Errorf("status = %q, want %q", got, StatusPending)
	}
	if got := ComputeStatus(task, false, tuesday); got != StatusUnscheduled {
		t.Errorf("status = %q, want %q", got, StatusUnscheduled)
	}
	if got := ComputeStatus(task, true, tuesday); got != StatusCompleted {
		t.Errorf("status = %q, want %q", got, StatusCompleted)
	}
}

func TestRoutineDone(t *testing.T) {
	monday := model.Date{Year: 2026, Month: time.February, Day: 2}
	tasks := []model.Task{
		{ID: 1},
		{ID: 2, Schedule: model.Weekdays{1}},
		{ID: 3, Schedule: model.Weekdays{2}}, // Tuesday only
	}

	if RoutineDone(tasks, map[int64]bool{1: true}, monday) {
		t.Error("routine should not be done with task 2 outstanding")
	}
	if !RoutineDone(tasks, map[int64]bool{1: true, 2: true}, monday) {
		t.Error("routine should be done; task 3 is not scheduled on Monday")
	}
	if RoutineDone(nil, nil, monday) {
		t.Error("empty routine should never be done")
	}
}
