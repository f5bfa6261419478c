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

type CompletionStore struct {
	db sqlx.ExtContext
}

func NewCompletionStore(db sqlx.ExtContext) *CompletionStore {
	return &CompletionStore{db: db}
}

const completionCols = `id, task_id, member_id, completed_at, completion_date, earned_cents`

// Insert records a completion and the cents it earned. The (task, member,
// date) uniqueness constraint is the only duplicate guard; a second insert
// returns ErrDuplicate.
func (s *CompletionStore) Insert(ctx context.Context, taskID, memberID int64, at time.Time, date model.Date, earnedCents int64) (*model.Completion, error) {
	var id int64
	err := sqlx.GetContext(ctx, s.db, &id, s.db.Rebind(
		`INSERT INTO completions (task_id, member_id, completed_at, completion_date, earned_cents)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`),
		taskID, memberID, at.UTC(), date, earnedCents,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *CompletionStore) GetByID(ctx context.Context, id int64) (*model.Completion, error) {
	return s.get(ctx, `SELECT `+completionCols+` FROM completions WHERE id = ?`, id)
}

// GetByIDForUpdate is GetByID with the row locked until the transaction ends.
func (s *CompletionStore) GetByIDForUpdate(ctx context.Context, id int64) (*model.Completion, error) {
	return s.get(ctx, `SELECT `+completionCols+` FROM completions WHERE id = ?`+forUpdate(s.db), id)
}

func (s *CompletionStore) Find(ctx context.Context, taskID, memberID int64, date model.Date) (*model.Completion, error) {
	return s.get(ctx,
		`SELECT `+completionCols+` FROM completions WHERE task_id = ? AND member_id = ? AND completion_date = ?`,
		taskID, memberID, date,
	)
}

func (s *CompletionStore) get(ctx context.Context, query string, args ...any) (*model.Completion, error) {
	var c model.Completion
	err := sqlx.GetContext(ctx, s.db, &c, s.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return &c, nil
}

// Delete reports whether a row was removed.
func (s *CompletionStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM completions WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("delete completion: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListByMember returns completions with from <= completion_date <= to, newest first.
func (s *CompletionStore) ListByMember(ctx context.Context, memberID int64, from, to model.Date) ([]model.Completion, error) {
	var completions []model.Completion
	err := sqlx.SelectContext(ctx, s.db, &completions, s.db.Rebind(
		`SELECT `+completionCols+` FROM completions
		 WHERE member_id = ? AND completion_date >= ? AND completion_date <= ?
		 ORDER BY completion_date DESC, completed_at DESC`),
		memberID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return completions, nil
}

// CompletedTaskIDs returns the set of tasks the member completed on date.
func (s *CompletionStore) CompletedTaskIDs(ctx context.Context, memberID int64, date model.Date) (map[int64]bool, error) {
	var ids []int64
	err := sqlx.SelectContext(ctx, s.db, &ids, s.db.Rebind(
		`SELECT task_id FROM completions WHERE member_id = ? AND completion_date = ?`),
		memberID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}
	done := make(map[int64]bool, len(ids))
	for _, id := range ids {
		done[id] = true
	}
	return done, nil
}

