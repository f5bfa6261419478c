package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TaskKind string

const (
	TaskRoutine TaskKind = "routine"
	TaskBonus   TaskKind = "bonus"
)

func (k TaskKind) Valid() bool {
	return k == TaskRoutine || k == TaskBonus
}

type Routine struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

type Task struct {
	ID          int64           `json:"id"`
	HouseholdID int64           `json:"household_id"`
	RoutineID   *int64          `json:"routine_id"`
	Name        string          `json:"name"`
	Kind        TaskKind        `json:"kind"`
	Value       decimal.Decimal `json:"value"`
	Schedule    Weekdays        `json:"schedule"`
	WindowStart string          `json:"window_start,omitempty"`
	WindowEnd   string          `json:"window_end,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
