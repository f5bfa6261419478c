package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dukerupert/allowance/internal/events"
	"github.com/dukerupert/allowance/internal/model"
	"github.com/dukerupert/allowance/internal/store"
)

// UndoWindow is how long after completion a completion may be undone.
const UndoWindow = 5 * time.Minute

// Undoer reverses completions inside the undo window.
type Undoer struct {
	db       *sqlx.DB
	balances *Balances
	clock    Clock
	notify   Notifier
	logger   *slog.Logger
}

// Undo deletes the completion and debits what it earned as an adjustment in
// one transaction. Streaks are left as they are.
func (u *Undoer) Undo(ctx context.Context, completionID int64) error {
	if completionID <= 0 {
		return validationf("completion id is required")
	}

	var (
		c      *model.Completion
		task   *model.Task
		member *model.Member
		debit  *model.BalanceTransaction
		now    time.Time
	)
	err := store.RunInTx(ctx, u.db, func(tx *sqlx.Tx) error {
		cs := store.NewCompletionStore(tx)
		var err error
		c, err = cs.GetByIDForUpdate(ctx, completionID)
		if err != nil {
			return err
		}
		if c == nil {
			return notFoundf("completion %d", completionID)
		}

		// read the clock only once the row is held
		now = u.clock.Now()
		if elapsed := now.Sub(c.CompletedAt); elapsed > UndoWindow {
			return expiredf("completion %d is %s old, undo window is %s",
				c.ID, elapsed.Truncate(time.Second), UndoWindow)
		}

		if task, err = getTask(ctx, tx, c.TaskID); err != nil {
			return err
		}
		if member, err = getMember(ctx, tx, c.MemberID); err != nil {
			return err
		}

		// offset what the completion credited, not the task's current value
		if c.EarnedCents > 0 {
			debit, err = u.balances.apply(ctx, tx, c.MemberID, -c.EarnedCents, model.TxAdjustment, "Undone: "+task.Name)
			if err != nil {
				return err
			}
		}

		deleted, err := cs.Delete(ctx, c.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("completion %d vanished during undo", c.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	u.logger.Info("completion undone", "completion_id", c.ID, "task_id", c.TaskID, "member_id", c.MemberID)
	u.notify.Notify(events.New("completion", "undone", member.HouseholdID, member.ID, c.ID, map[string]any{
		"task_id":         c.TaskID,
		"completion_date": c.CompletionDate.String(),
	}, now))
	if debit != nil {
		u.balances.notifyChanged(ctx, member.HouseholdID, debit)
	}
	return nil
}
