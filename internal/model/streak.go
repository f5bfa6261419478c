package model

type Streak struct {
	MemberID           int64 `json:"member_id" db:"member_id"`
	RoutineID          int64 `json:"routine_id" db:"routine_id"`
	CurrentCount       int   `json:"current_count" db:"current_count"`
	BestCount          int   `json:"best_count" db:"best_count"`
	LastCompletionDate Date  `json:"last_completion_date" db:"last_completion_date"`
}
