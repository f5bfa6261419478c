package model

import "time"

const (
	RoleParent = "parent"
	RoleChild  = "child"
)

type Member struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	HasPIN      bool      `json:"has_pin"`
	CreatedAt   time.Time `json:"created_at"`
}
