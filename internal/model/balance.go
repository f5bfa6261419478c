package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxEarned     TransactionType = "earned"
	TxAdjustment TransactionType = "adjustment"
	TxPayout     TransactionType = "payout"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxEarned, TxAdjustment, TxPayout:
		return true
	}
	return false
}

type BalanceAccount struct {
	MemberID  int64           `json:"member_id"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BalanceTransaction is append-only. Amount is signed: positive credits,
// negative debits.
type BalanceTransaction struct {
	ID          int64           `json:"id"`
	MemberID    int64           `json:"member_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
