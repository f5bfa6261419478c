// Package ledger records task completions, turns them into balance
// transactions and streaks, and reverses them within the undo window.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/allowance/internal/events"
	"github.com/dukerupert/allowance/internal/model"
	"github.com/dukerupert/allowance/internal/money"
	"github.com/dukerupert/allowance/internal/store"
)

// Notifier receives events after the change they describe has committed.
// Implementations must not block.
type Notifier interface {
	Notify(events.Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(events.Event) {}

type Options struct {
	// Location is the household time zone used for every calendar day.
	Location *time.Location
	Clock    Clock
	Notifier Notifier
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Clock == nil {
		o.Clock = SystemClock()
	}
	if o.Notifier == nil {
		o.Notifier = nopNotifier{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Service bundles the ledger components over one database.
type Service struct {
	Balances *Balances
	Recorder *Recorder
	Undoer   *Undoer
	Streaks  *Streaks
}

func New(db *sqlx.DB, opts Options) *Service {
	opts = opts.withDefaults()
	balances := &Balances{db: db, clock: opts.Clock, notify: opts.Notifier, logger: opts.Logger.With("component", "balances")}
	streaks := &Streaks{db: db, clock: opts.Clock, notify: opts.Notifier, logger: opts.Logger.With("component", "streaks")}
	return &Service{
		Balances: balances,
		Streaks:  streaks,
		Recorder: &Recorder{
			db:       db,
			balances: balances,
			streaks:  streaks,
			clock:    opts.Clock,
			loc:      opts.Location,
			notify:   opts.Notifier,
			logger:   opts.Logger.With("component", "recorder"),
		},
		Undoer: &Undoer{
			db:       db,
			balances: balances,
			clock:    opts.Clock,
			notify:   opts.Notifier,
			logger:   opts.Logger.With("component", "undo"),
		},
	}
}

// amountCents validates a caller supplied non-negative amount.
func amountCents(amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, validationf("amount %s is negative", amount)
	}
	return signedCents(amount)
}

func signedCents(amount decimal.Decimal) (int64, error) {
	cents, err := money.ToCents(amount)
	if err != nil {
		return 0, validationf("amount %v", err)
	}
	return cents, nil
}

func getMember(ctx context.Context, q sqlx.ExtContext, id int64) (*model.Member, error) {
	if id <= 0 {
		return nil, validationf("member id is required")
	}
	m, err := store.NewMemberStore(q).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}
	if m == nil {
		return nil, notFoundf("member %d", id)
	}
	return m, nil
}

func getTask(ctx context.Context, q sqlx.ExtContext, id int64) (*model.Task, error) {
	if id <= 0 {
		return nil, validationf("task id is required")
	}
	t, err := store.NewTaskStore(q).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if t == nil {
		return nil, notFoundf("task %d", id)
	}
	return t, nil
}
