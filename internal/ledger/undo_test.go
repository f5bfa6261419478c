package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/allowance/internal/events"
	"github.com/dukerupert/allowance/internal/model"
	"github.com/dukerupert/allowance/internal/store"
)

func TestUndo_WithinWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.bonus(t, "Wash car", 200)

	before := env.balance(t)
	c, err := env.svc.Recorder.Create(ctx, task.ID, env.member, model.Date{})
	require.NoError(t, err)

	env.clock.Advance(4 * time.Minute)
	require.NoError(t, env.svc.Undoer.Undo(ctx, c.ID))

	found, err := env.svc.Recorder.IsCompleted(ctx, task.ID, env.member, c.CompletionDate)
	require.NoError(t, err)
	assert.Nil(t, found)

	txs := env.transactions(t)
	require.Len(t, txs, 2)
	assert.Equal(t, model.TxAdjustment, txs[0].Type)
	assert.True(t, txs[0].Amount.Equal(dec("-2.00")))
	assert.Equal(t, "Undone: Wash car", txs[0].Description)
	assert.True(t, txs[0].Amount.Add(txs[1].Amount).IsZero())

	assert.True(t, env.balance(t).Equal(before))
	env.requireReconciled(t)

	assert.Contains(t, env.events.Types(), events.CompletionUndone)
}

func TestUndo_AtWindowEdge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.bonus(t, "Dishes", 100)

	c, err := env.svc.Recorder.Create(ctx, task.ID, env.member, model.Date{})
	require.NoError(t, err)

	env.clock.Advance(UndoWindow)
	require.NoError(t, env.svc.Undoer.Undo(ctx, c.ID))
	assert.Equal(t, 0, env.completionCount(t))
}

func TestUndo_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.bonus(t, "Wash car", 200)

	c, err := env.svc.Recorder.Create(ctx, task.ID, env.member, model.Date{})
	require.NoError(t, err)
	balance := env.balance(t)
	txs := env.transactions(t)

	env.clock.Advance(UndoWindow + time.Second)
	err = env.svc.Undoer.Undo(ctx, c.ID)
	require.ErrorIs(t, err, ErrExpired)

	assert.Equal(t, 1, env.completionCount(t))
	assert.True(t, env.balance(t).Equal(balance))
	after := env.transactions(t)
	require.Len(t, after, len(txs))
	assert.Equal(t, txs[0].ID, after[0].ID)
	env.requireReconciled(t)
}

func TestUndo_NotFound(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.Undoer.Undo(context.Background(), 4242)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUndo_TwiceIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.bonus(t, "Dishes", 100)

	c, err := env.svc.Recorder.Create(ctx, task.ID, env.member, model.Date{})
	require.NoError(t, err)
	require.NoError(t, env.svc.Undoer.Undo(ctx, c.ID))

	err = env.svc.Undoer.Undo(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, env.transactions(t), 2)
}

func TestUndo_ZeroValueTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.bonus(t, "Read", 0)

	c, err := env.svc.Recorder.Create(ctx, task.ID, env.member, model.Date{})
	require.NoError(t, err)
	require.NoError(t, env.svc.Undoer.Undo(ctx, c.ID))

	assert.Empty(t, env.transactions(t))
	assert.Equal(t, 0, env.completionCount(t))
}

func TestUndo_LeavesStreak(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.routineTask(t, "Brush teeth", nil)

	c, err := env.svc.Recorder.Create(ctx, task.ID, env.member, model.Date{})
	require.NoError(t, err)
	require.NoError(t, env.svc.Undoer.Undo(ctx, c.ID))

	streaks, err := env.svc.Streaks.List(ctx, env.member)
	require.NoError(t, err)
	require.Len(t, streaks, 1)
	assert.Equal(t, 1, streaks[0].CurrentCount)
	assert.Equal(t, env.today(), streaks[0].LastCompletionDate)

	// completing again the same day is allowed and does not double count
	_, err = env.svc.Recorder.Create(ctx, task.ID, env.member, model.Date{})
	require.NoError(t, err)
	total, err := env.svc.Streaks.GetTotalStreak(ctx, env.member)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestUndo_DebitsWhatWasCredited(t *testing.T) {
	for _, tc := range []struct {
		name    string
		newCent int64
	}{
		{"value dropped to zero", 0},
		{"value raised", 500},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			task := env.bonus(t, "Wash car", 200)

			c, err := env.svc.Recorder.Create(ctx, task.ID, env.member, model.Date{})
			require.NoError(t, err)
			assert.Equal(t, int64(200), c.EarnedCents)

			_, err = store.NewTaskStore(env.db).Update(ctx, task.ID, store.TaskInput{
				Name:       "Wash car",
				Kind:       model.TaskBonus,
				ValueCents: tc.newCent,
			})
			require.NoError(t, err)

			env.clock.Advance(time.Minute)
			require.NoError(t, env.svc.Undoer.Undo(ctx, c.ID))

			assert.True(t, env.balance(t).IsZero(), "balance = %s", env.balance(t))
			txs := env.transactions(t)
			require.Len(t, txs, 2)
			assert.True(t, txs[0].Amount.Equal(dec("-2.00")), "debit = %s", txs[0].Amount)
			env.requireReconciled(t)
		})
	}
}
