package model

import "time"

type Completion struct {
	ID             int64     `json:"id" db:"id"`
	TaskID         int64     `json:"task_id" db:"task_id"`
	MemberID       int64     `json:"member_id" db:"member_id"`
	CompletedAt    time.Time `json:"completed_at" db:"completed_at"`
	CompletionDate Date      `json:"completion_date" db:"completion_date"`
	// EarnedCents is what the completion credited. Undo debits exactly this.
	EarnedCents    int64     `json:"earned_cents" db:"earned_cents"`
}
