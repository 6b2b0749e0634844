// internal/domain/ledger_entry.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryDirection tells whether a ledger entry added to or removed from a balance.
type EntryDirection string

const (
	EntryDirectionCredit EntryDirection = "CREDIT"
	EntryDirectionDebit  EntryDirection = "DEBIT"
)

// LedgerEntry is the audit record of one balance movement caused by a request.
type LedgerEntry struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	UserID       int64           `db:"user_id" json:"user_id"`
	RequestID    uuid.UUID       `db:"request_id" json:"request_id"`
	Direction    EntryDirection  `db:"direction" json:"direction"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	BalanceAfter decimal.Decimal `db:"balance_after" json:"balance_after"`
	Reason       string          `db:"reason" json:"reason"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// NewLedgerEntry creates a LedgerEntry with a fresh id.
func NewLedgerEntry(
	userID int64,
	requestID uuid.UUID,
	direction EntryDirection,
	amount decimal.Decimal,
	balanceAfter decimal.Decimal,
	reason string,
) *LedgerEntry {
	return &LedgerEntry{
		ID:           uuid.New(),
		UserID:       userID,
		RequestID:    requestID,
		Direction:    direction,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Reason:       reason,
		CreatedAt:    time.Now().UTC(),
	}
}
