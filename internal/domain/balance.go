// internal/domain/balance.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Balance is a user's spendable balance in the ledger. It never goes negative.
type Balance struct {
	UserID    int64           `db:"user_id" json:"user_id"`       // Primary key, supplied by the auth provider
	Balance   decimal.Decimal `db:"balance" json:"balance"`       // NUMERIC(20, 4) in DB
	CreatedAt time.Time       `db:"created_at" json:"created_at"` // Timestamp of creation
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"` // Timestamp of last update
}

// NewBalance creates a zero Balance for a user.
func NewBalance(userID int64) *Balance {
	now := time.Now().UTC()
	return &Balance{
		UserID:    userID,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
