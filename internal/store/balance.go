package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dukerupert/allowance/internal/model"
	"github.com/dukerupert/allowance/internal/money"
)

// BalanceStore keeps the append-only transaction log and the cached balance
// per member. Apply and ApplyGuarded write both and must run inside a
// transaction so the two never diverge.
type BalanceStore struct {
	db sqlx.ExtContext
}

func NewBalanceStore(db sqlx.ExtContext) *BalanceStore {
	return &BalanceStore{db: db}
}

const transactionCols = `id, member_id, amount_cents, type, description, created_at`

type transactionRow struct {
	ID          int64     `db:"id"`
	MemberID    int64     `db:"member_id"`
	AmountCents int64     `db:"amount_cents"`
	Type        string    `db:"type"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r transactionRow) toModel() model.BalanceTransaction {
	return model.BalanceTransaction{
		ID:          r.ID,
		MemberID:    r.MemberID,
		Amount:      money.FromCents(r.AmountCents),
		Type:        model.TransactionType(r.Type),
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

// EnsureAccount creates a zero balance account if none exists.
func (s *BalanceStore) EnsureAccount(ctx context.Context, memberID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO balance_accounts (member_id, balance_cents, updated_at) VALUES (?, 0, ?)
		 ON CONFLICT (member_id) DO NOTHING`),
		memberID, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("ensure account: %w", err)
	}
	return nil
}

// Apply appends a transaction of amountCents and moves the cached balance by
// the same amount with an in-place increment.
func (s *BalanceStore) Apply(ctx context.Context, memberID, amountCents int64, typ model.TransactionType, description string, at time.Time) (*model.BalanceTransaction, error) {
	if err := s.EnsureAccount(ctx, memberID, at); err != nil {
		return nil, err
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE balance_accounts SET balance_cents = balance_cents + ?, updated_at = ? WHERE member_id = ?`),
		amountCents, at.UTC(), memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}
	return s.appendTransaction(ctx, memberID, amountCents, typ, description, at)
}

// ApplyGuarded is Apply for debits that may not overdraw the account. It
// returns ErrInsufficientFunds when the balance cannot cover amountCents.
func (s *BalanceStore) ApplyGuarded(ctx context.Context, memberID, amountCents int64, typ model.TransactionType, description string, at time.Time) (*model.BalanceTransaction, error) {
	if err := s.EnsureAccount(ctx, memberID, at); err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE balance_accounts SET balance_cents = balance_cents + ?, updated_at = ?
		 WHERE member_id = ? AND balance_cents + ? >= 0`),
		amountCents, at.UTC(), memberID, amountCents,
	)
	if err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrInsufficientFunds
	}
	return s.appendTransaction(ctx, memberID, amountCents, typ, description, at)
}

func (s *BalanceStore) appendTransaction(ctx context.Context, memberID, amountCents int64, typ model.TransactionType, description string, at time.Time) (*model.BalanceTransaction, error) {
	var id int64
	err := sqlx.GetContext(ctx, s.db, &id, s.db.Rebind(
		`INSERT INTO balance_transactions (member_id, amount_cents, type, description, created_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`),
		memberID, amountCents, string(typ), description, at.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	var r transactionRow
	err = sqlx.GetContext(ctx, s.db, &r, s.db.Rebind(`SELECT `+transactionCols+` FROM balance_transactions WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	t := r.toModel()
	return &t, nil
}

// BalanceCents returns the cached balance. found is false when the member has
// no account yet.
func (s *BalanceStore) BalanceCents(ctx context.Context, memberID int64) (cents int64, found bool, err error) {
	err = sqlx.GetContext(ctx, s.db, &cents, s.db.Rebind(
		`SELECT balance_cents FROM balance_accounts WHERE member_id = ?`), memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get balance: %w", err)
	}
	return cents, true, nil
}

// SumCents totals the transaction log for a member.
func (s *BalanceStore) SumCents(ctx context.Context, memberID int64) (int64, error) {
	var sum int64
	err := sqlx.GetContext(ctx, s.db, &sum, s.db.Rebind(
		`SELECT COALESCE(SUM(amount_cents), 0) FROM balance_transactions WHERE member_id = ?`), memberID)
	if err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	return sum, nil
}

// ListTransactions returns the newest transactions first. limit <= 0 means all.
func (s *BalanceStore) ListTransactions(ctx context.Context, memberID int64, limit int) ([]model.BalanceTransaction, error) {
	query := `SELECT ` + transactionCols + ` FROM balance_transactions WHERE member_id = ? ORDER BY id DESC`
	args := []any{memberID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []transactionRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs := make([]model.BalanceTransaction, 0, len(rows))
	for _, r := range rows {
		txs = append(txs, r.toModel())
	}
	return txs, nil
}
