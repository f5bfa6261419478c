package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dukerupert/allowance/internal/model"
)

type StreakStore struct {
	db sqlx.ExtContext
}

func NewStreakStore(db sqlx.ExtContext) *StreakStore {
	return &StreakStore{db: db}
}

const streakCols = `member_id, routine_id, current_count, best_count, last_completion_date`

// Lock creates the (member, routine) row if needed and returns it locked for
// the rest of the transaction. Must be called inside a transaction.
func (s *StreakStore) Lock(ctx context.Context, memberID, routineID int64) (*model.Streak, error) {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO streaks (member_id, routine_id, current_count, best_count) VALUES (?, ?, 0, 0)
		 ON CONFLICT (member_id, routine_id) DO NOTHING`),
		memberID, routineID,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure streak: %w", err)
	}

	var st model.Streak
	err = sqlx.GetContext(ctx, s.db, &st, s.db.Rebind(
		`SELECT `+streakCols+` FROM streaks WHERE member_id = ? AND routine_id = ?`+forUpdate(s.db)),
		memberID, routineID,
	)
	if err != nil {
		return nil, fmt.Errorf("lock streak: %w", err)
	}
	return &st, nil
}

func (s *StreakStore) Save(ctx context.Context, st model.Streak) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE streaks SET current_count = ?, best_count = ?, last_completion_date = ?
		 WHERE member_id = ? AND routine_id = ?`),
		st.CurrentCount, st.BestCount, st.LastCompletionDate, st.MemberID, st.RoutineID,
	)
	if err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}

func (s *StreakStore) ListByMember(ctx context.Context, memberID int64) ([]model.Streak, error) {
	var streaks []model.Streak
	err := sqlx.SelectContext(ctx, s.db, &streaks, s.db.Rebind(
		`SELECT `+streakCols+` FROM streaks WHERE member_id = ? ORDER BY routine_id ASC`), memberID)
	if err != nil {
		return nil, fmt.Errorf("list streaks: %w", err)
	}
	return streaks, nil
}

// TotalCurrent sums current_count across every routine of the member.
func (s *StreakStore) TotalCurrent(ctx context.Context, memberID int64) (int, error) {
	var total int
	err := sqlx.GetContext(ctx, s.db, &total, s.db.Rebind(
		`SELECT COALESCE(SUM(current_count), 0) FROM streaks WHERE member_id = ?`), memberID)
	if err != nil {
		return 0, fmt.Errorf("sum streaks: %w", err)
	}
	return total, nil
}
