package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dukerupert/allowance/internal/model"
)

type MemberStore struct {
	db sqlx.ExtContext
}

func NewMemberStore(db sqlx.ExtContext) *MemberStore {
	return &MemberStore{db: db}
}

type memberRow struct {
	ID          int64     `db:"id"`
	HouseholdID int64     `db:"household_id"`
	Name        string    `db:"name"`
	Role        string    `db:"role"`
	HasPIN      bool      `db:"has_pin"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r memberRow) toModel() *model.Member {
	return &model.Member{
		ID:          r.ID,
		HouseholdID: r.HouseholdID,
		Name:        r.Name,
		Role:        r.Role,
		HasPIN:      r.HasPIN,
		CreatedAt:   r.CreatedAt,
	}
}

const memberCols = `id, household_id, name, role, pin_hash <> '' AS has_pin, created_at`

func (s *MemberStore) Create(ctx context.Context, householdID int64, name, role string) (*model.Member, error) {
	var id int64
	err := sqlx.GetContext(ctx, s.db, &id, s.db.Rebind(
		`INSERT INTO members (household_id, name, role) VALUES (?, ?, ?) RETURNING id`),
		householdID, name, role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *MemberStore) GetByID(ctx context.Context, id int64) (*model.Member, error) {
	var r memberRow
	err := sqlx.GetContext(ctx, s.db, &r, s.db.Rebind(`SELECT `+memberCols+` FROM members WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return r.toModel(), nil
}

func (s *MemberStore) ListByHousehold(ctx context.Context, householdID int64) ([]model.Member, error) {
	var rows []memberRow
	err := sqlx.SelectContext(ctx, s.db, &rows, s.db.Rebind(
		`SELECT `+memberCols+` FROM members WHERE household_id = ? ORDER BY name ASC`), householdID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	members := make([]model.Member, 0, len(rows))
	for _, r := range rows {
		members = append(members, *r.toModel())
	}
	return members, nil
}

// SetPIN stores an already hashed PIN.
func (s *MemberStore) SetPIN(ctx context.Context, id int64, hashedPIN string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE members SET pin_hash = ? WHERE id = ?`), hashedPIN, id)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

func (s *MemberStore) ClearPIN(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE members SET pin_hash = '' WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("clear pin: %w", err)
	}
	return nil
}

// GetPINHash returns "" when the member has no PIN or does not exist.
func (s *MemberStore) GetPINHash(ctx context.Context, id int64) (string, error) {
	var hash string
	err := sqlx.GetContext(ctx, s.db, &hash, s.db.Rebind(`SELECT pin_hash FROM members WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get pin hash: %w", err)
	}
	return hash, nil
}
