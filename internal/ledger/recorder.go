package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dukerupert/allowance/internal/events"
	"github.com/dukerupert/allowance/internal/model"
	"github.com/dukerupert/allowance/internal/money"
	"github.com/dukerupert/allowance/internal/schedule"
	"github.com/dukerupert/allowance/internal/store"
)

// Recorder records task completions and credits their value.
type Recorder struct {
	db       *sqlx.DB
	balances *Balances
	streaks  *Streaks
	clock    Clock
	loc      *time.Location
	notify   Notifier
	logger   *slog.Logger
}

// Today returns the current household-local date.
func (r *Recorder) Today() model.Date {
	return model.DateOf(r.clock.Now(), r.loc)
}

// Create records that member finished task on date. A zero date means today;
// dates after today are rejected. The completion and its credit commit
// together. A second completion for the same task, member and date fails
// with ErrConflict.
//
// For routine tasks, once every task of the routine scheduled on date is
// done, the member's streak is advanced in a separate transaction. A failure
// there is logged and does not undo the completion; Streaks.Update is safe
// to retry for the same date.
func (r *Recorder) Create(ctx context.Context, taskID, memberID int64, date model.Date) (*model.Completion, error) {
	now := r.clock.Now()
	today := model.DateOf(now, r.loc)
	if date.IsZero() {
		date = today
	}
	if date.After(today) {
		return nil, validationf("completion date %s is after today (%s)", date, today)
	}

	var (
		c      *model.Completion
		task   *model.Task
		member *model.Member
		credit *model.BalanceTransaction
	)
	err := store.RunInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		if task, err = getTask(ctx, tx, taskID); err != nil {
			return err
		}
		if member, err = getMember(ctx, tx, memberID); err != nil {
			return err
		}
		if task.HouseholdID != member.HouseholdID {
			return validationf("task %d and member %d belong to different households", taskID, memberID)
		}

		if !schedule.IsScheduled(*task, date) {
			r.logger.Debug("completion off schedule", "task_id", task.ID, "date", date.String())
		}

		cents, err := money.ToCents(task.Value)
		if err != nil {
			return validationf("task value %v", err)
		}
		c, err = store.NewCompletionStore(tx).Insert(ctx, task.ID, member.ID, now, date, cents)
		if errors.Is(err, store.ErrDuplicate) {
			return conflictf("task %d already completed by member %d on %s", task.ID, member.ID, date)
		}
		if err != nil {
			return err
		}

		if cents > 0 {
			credit, err = r.balances.apply(ctx, tx, member.ID, cents, model.TxEarned, task.Name)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("completion recorded",
		"completion_id", c.ID, "task_id", task.ID, "member_id", member.ID, "date", date.String())
	r.notify.Notify(events.New("completion", "created", member.HouseholdID, member.ID, c.ID, map[string]any{
		"task_id":         task.ID,
		"completion_date": date.String(),
	}, now))
	if credit != nil {
		r.balances.notifyChanged(ctx, member.HouseholdID, credit)
	}

	if task.RoutineID != nil {
		if err := r.advanceStreak(ctx, member.ID, *task.RoutineID, date); err != nil {
			r.logger.Error("advance streak", "member_id", member.ID, "routine_id", *task.RoutineID, "error", err)
		}
	}
	return c, nil
}

// advanceStreak updates the routine streak when the routine is done for date.
func (r *Recorder) advanceStreak(ctx context.Context, memberID, routineID int64, date model.Date) error {
	tasks, err := store.NewTaskStore(r.db).ListByRoutine(ctx, routineID)
	if err != nil {
		return err
	}
	done, err := store.NewCompletionStore(r.db).CompletedTaskIDs(ctx, memberID, date)
	if err != nil {
		return err
	}
	if !schedule.RoutineDone(tasks, done, date) {
		return nil
	}
	_, err = r.streaks.Update(ctx, memberID, routineID, date)
	return err
}

// IsCompleted returns the completion for task, member and date, or nil.
func (r *Recorder) IsCompleted(ctx context.Context, taskID, memberID int64, date model.Date) (*model.Completion, error) {
	if date.IsZero() {
		return nil, validationf("date is required")
	}
	c, err := store.NewCompletionStore(r.db).Find(ctx, taskID, memberID, date)
	if err != nil {
		return nil, fmt.Errorf("find completion: %w", err)
	}
	return c, nil
}

// History lists the member's completions between from and to inclusive,
// newest first.
func (r *Recorder) History(ctx context.Context, memberID int64, from, to model.Date) ([]model.Completion, error) {
	if from.IsZero() || to.IsZero() {
		return nil, validationf("from and to are required")
	}
	if from.After(to) {
		return nil, validationf("from %s is after to %s", from, to)
	}
	if _, err := getMember(ctx, r.db, memberID); err != nil {
		return nil, err
	}
	return store.NewCompletionStore(r.db).ListByMember(ctx, memberID, from, to)
}

// TaskDay is a task's state for one member on one date.
type TaskDay struct {
	Task      model.Task      `json:"task"`
	Scheduled bool            `json:"scheduled"`
	Status    schedule.Status `json:"status"`
}

// Day lists the household's tasks with their schedule and completion state
// for member on date.
func (r *Recorder) Day(ctx context.Context, memberID int64, date model.Date) ([]TaskDay, error) {
	member, err := getMember(ctx, r.db, memberID)
	if err != nil {
		return nil, err
	}
	tasks, err := store.NewTaskStore(r.db).ListByHousehold(ctx, member.HouseholdID)
	if err != nil {
		return nil, err
	}
	done, err := store.NewCompletionStore(r.db).CompletedTaskIDs(ctx, memberID, date)
	if err != nil {
		return nil, err
	}
	days := make([]TaskDay, 0, len(tasks))
	for _, t := range tasks {
		days = append(days, TaskDay{
			Task:      t,
			Scheduled: schedule.IsScheduled(t, date),
			Status:    schedule.ComputeStatus(t, done[t.ID], date),
		})
	}
	return days, nil
}
