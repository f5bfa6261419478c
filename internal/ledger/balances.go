package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/allowance/internal/events"
	"github.com/dukerupert/allowance/internal/model"
	"github.com/dukerupert/allowance/internal/money"
	"github.com/dukerupert/allowance/internal/store"
)

// Balances is the per-member balance ledger: an append-only transaction log
// plus a cached balance that always equals the sum of the log.
type Balances struct {
	db     *sqlx.DB
	clock  Clock
	notify Notifier
	logger *slog.Logger
}

// EnsureAccount creates a zero balance account for the member if none exists.
func (b *Balances) EnsureAccount(ctx context.Context, memberID int64) error {
	if _, err := getMember(ctx, b.db, memberID); err != nil {
		return err
	}
	return store.NewBalanceStore(b.db).EnsureAccount(ctx, memberID, b.clock.Now())
}

// Credit appends a positive transaction of amount.
func (b *Balances) Credit(ctx context.Context, memberID int64, amount decimal.Decimal, typ model.TransactionType, description string) (*model.BalanceTransaction, error) {
	cents, err := amountCents(amount)
	if err != nil {
		return nil, err
	}
	return b.applyTx(ctx, memberID, cents, typ, description, false)
}

// Debit appends a negative transaction of amount. amount itself must be
// non-negative.
func (b *Balances) Debit(ctx context.Context, memberID int64, amount decimal.Decimal, typ model.TransactionType, description string) (*model.BalanceTransaction, error) {
	cents, err := amountCents(amount)
	if err != nil {
		return nil, err
	}
	return b.applyTx(ctx, memberID, -cents, typ, description, false)
}

// Payout pays amount out of the balance. It fails with a conflict when the
// balance does not cover it.
func (b *Balances) Payout(ctx context.Context, memberID int64, amount decimal.Decimal, description string) (*model.BalanceTransaction, error) {
	cents, err := amountCents(amount)
	if err != nil {
		return nil, err
	}
	if cents == 0 {
		return nil, validationf("payout amount must be positive")
	}
	if description == "" {
		description = "Payout"
	}
	t, err := b.applyTx(ctx, memberID, -cents, model.TxPayout, description, true)
	if err != nil {
		return nil, err
	}
	b.logger.Info("payout", "member_id", memberID, "amount", amount.StringFixed(2))
	return t, nil
}

// Adjust records a manual correction. amount is signed.
func (b *Balances) Adjust(ctx context.Context, memberID int64, amount decimal.Decimal, description string) (*model.BalanceTransaction, error) {
	cents, err := signedCents(amount)
	if err != nil {
		return nil, err
	}
	if cents == 0 {
		return nil, validationf("adjustment amount must be non-zero")
	}
	if description == "" {
		return nil, validationf("adjustment needs a description")
	}
	return b.applyTx(ctx, memberID, cents, model.TxAdjustment, description, false)
}

func (b *Balances) applyTx(ctx context.Context, memberID, cents int64, typ model.TransactionType, description string, guarded bool) (*model.BalanceTransaction, error) {
	var (
		t      *model.BalanceTransaction
		member *model.Member
	)
	err := store.RunInTx(ctx, b.db, func(tx *sqlx.Tx) error {
		var err error
		member, err = getMember(ctx, tx, memberID)
		if err != nil {
			return err
		}
		if guarded {
			t, err = b.applyGuarded(ctx, tx, memberID, cents, typ, description)
		} else {
			t, err = b.apply(ctx, tx, memberID, cents, typ, description)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	b.notifyChanged(ctx, member.HouseholdID, t)
	return t, nil
}

// apply writes a transaction inside an open transaction. Recorder and Undoer
// use it so their writes share one commit with the ledger entry.
func (b *Balances) apply(ctx context.Context, tx *sqlx.Tx, memberID, cents int64, typ model.TransactionType, description string) (*model.BalanceTransaction, error) {
	if !typ.Valid() {
		return nil, validationf("unknown transaction type %q", typ)
	}
	t, err := store.NewBalanceStore(tx).Apply(ctx, memberID, cents, typ, description, b.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("apply transaction: %w", err)
	}
	return t, nil
}

func (b *Balances) applyGuarded(ctx context.Context, tx *sqlx.Tx, memberID, cents int64, typ model.TransactionType, description string) (*model.BalanceTransaction, error) {
	t, err := store.NewBalanceStore(tx).ApplyGuarded(ctx, memberID, cents, typ, description, b.clock.Now())
	if errors.Is(err, store.ErrInsufficientFunds) {
		return nil, conflictf("balance does not cover %s", money.FromCents(-cents).StringFixed(2))
	}
	if err != nil {
		return nil, fmt.Errorf("apply transaction: %w", err)
	}
	return t, nil
}

// notifyChanged emits balance_changed with the balance after t.
func (b *Balances) notifyChanged(ctx context.Context, householdID int64, t *model.BalanceTransaction) {
	cents, _, err := store.NewBalanceStore(b.db).BalanceCents(ctx, t.MemberID)
	if err != nil {
		b.logger.Warn("read balance for event", "member_id", t.MemberID, "error", err)
		return
	}
	b.notify.Notify(events.New("balance", "changed", householdID, t.MemberID, t.ID, map[string]any{
		"amount":  t.Amount.StringFixed(2),
		"type":    t.Type,
		"balance": money.FromCents(cents).StringFixed(2),
	}, t.CreatedAt))
}

// GetBalance returns the cached balance. A member without an account has a
// zero balance.
func (b *Balances) GetBalance(ctx context.Context, memberID int64) (decimal.Decimal, error) {
	if _, err := getMember(ctx, b.db, memberID); err != nil {
		return decimal.Zero, err
	}
	cents, _, err := store.NewBalanceStore(b.db).BalanceCents(ctx, memberID)
	if err != nil {
		return decimal.Zero, err
	}
	return money.FromCents(cents), nil
}

// Transactions returns the newest transactions first. limit <= 0 means all.
func (b *Balances) Transactions(ctx context.Context, memberID int64, limit int) ([]model.BalanceTransaction, error) {
	if _, err := getMember(ctx, b.db, memberID); err != nil {
		return nil, err
	}
	return store.NewBalanceStore(b.db).ListTransactions(ctx, memberID, limit)
}

// Reconcile checks the cached balance against the transaction log in one
// snapshot and returns a consistency error when they differ.
func (b *Balances) Reconcile(ctx context.Context, memberID int64) (decimal.Decimal, error) {
	var balance, sum int64
	err := store.RunInTx(ctx, b.db, func(tx *sqlx.Tx) error {
		if _, err := getMember(ctx, tx, memberID); err != nil {
			return err
		}
		bs := store.NewBalanceStore(tx)
		var err error
		if balance, _, err = bs.BalanceCents(ctx, memberID); err != nil {
			return err
		}
		sum, err = bs.SumCents(ctx, memberID)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	if balance != sum {
		b.logger.Error("balance mismatch", "member_id", memberID, "balance_cents", balance, "sum_cents", sum)
		return money.FromCents(balance), consistencyf("member %d balance %s != transaction sum %s",
			memberID, money.FromCents(balance).StringFixed(2), money.FromCents(sum).StringFixed(2))
	}
	return money.FromCents(balance), nil
}
