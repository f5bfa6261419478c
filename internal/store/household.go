package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type Household struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type HouseholdStore struct {
	db sqlx.ExtContext
}

func NewHouseholdStore(db sqlx.ExtContext) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func (s *HouseholdStore) Create(ctx context.Context, name string) (*Household, error) {
	var id int64
	err := sqlx.GetContext(ctx, s.db, &id, s.db.Rebind(
		`INSERT INTO households (name) VALUES (?) RETURNING id`), name)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *HouseholdStore) GetByID(ctx context.Context, id int64) (*Household, error) {
	var h Household
	err := sqlx.GetContext(ctx, s.db, &h, s.db.Rebind(
		`SELECT id, name, created_at FROM households WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return &h, nil
}
