package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/dukerupert/allowance/internal/events"
	"github.com/dukerupert/allowance/internal/model"
	"github.com/dukerupert/allowance/internal/store"
)

// Streaks tracks consecutive-day completion counts per member and routine.
type Streaks struct {
	db     *sqlx.DB
	clock  Clock
	notify Notifier
	logger *slog.Logger
}

// Advance applies one completion date to a streak:
//
//	no previous date      -> current = 1
//	date is the next day  -> current + 1
//	date is the same day  -> unchanged
//	anything else         -> current = 1 (gap or earlier date)
//
// best never drops below current.
func Advance(st model.Streak, date model.Date) model.Streak {
	switch {
	case st.LastCompletionDate.IsZero():
		st.CurrentCount = 1
	case date.DaysSince(st.LastCompletionDate) == 1:
		st.CurrentCount++
	case date.DaysSince(st.LastCompletionDate) == 0:
	default:
		st.CurrentCount = 1
	}
	st.BestCount = max(st.BestCount, st.CurrentCount)
	st.LastCompletionDate = date
	return st
}

// Update advances the member's streak for routine with date. The row is
// locked for the read-modify-write, so concurrent updates serialize.
func (s *Streaks) Update(ctx context.Context, memberID, routineID int64, date model.Date) (*model.Streak, error) {
	if date.IsZero() {
		return nil, validationf("date is required")
	}
	if routineID <= 0 {
		return nil, validationf("routine id is required")
	}

	var (
		next   model.Streak
		member *model.Member
	)
	err := store.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		if member, err = getMember(ctx, tx, memberID); err != nil {
			return err
		}
		routine, err := store.NewTaskStore(tx).GetRoutine(ctx, routineID)
		if err != nil {
			return fmt.Errorf("load routine: %w", err)
		}
		if routine == nil {
			return notFoundf("routine %d", routineID)
		}

		ss := store.NewStreakStore(tx)
		prev, err := ss.Lock(ctx, memberID, routineID)
		if err != nil {
			return err
		}
		next = Advance(*prev, date)
		return ss.Save(ctx, next)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("streak updated", "member_id", memberID, "routine_id", routineID,
		"current", next.CurrentCount, "best", next.BestCount)
	s.notify.Notify(events.New("streak", "updated", member.HouseholdID, memberID, routineID, map[string]any{
		"current": next.CurrentCount,
		"best":    next.BestCount,
	}, s.clock.Now()))
	return &next, nil
}

// GetTotalStreak sums the current count over all of the member's routines.
func (s *Streaks) GetTotalStreak(ctx context.Context, memberID int64) (int, error) {
	if _, err := getMember(ctx, s.db, memberID); err != nil {
		return 0, err
	}
	return store.NewStreakStore(s.db).TotalCurrent(ctx, memberID)
}

func (s *Streaks) List(ctx context.Context, memberID int64) ([]model.Streak, error) {
	if _, err := getMember(ctx, s.db, memberID); err != nil {
		return nil, err
	}
	return store.NewStreakStore(s.db).ListByMember(ctx, memberID)
}
