// internal/repository/balance_repo.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"finflow-requests/internal/domain"
)

// BalanceRepository defines the interface for ledger balance operations.
type BalanceRepository interface {
	// CreateBalance opens a zero balance for a user.
	CreateBalance(ctx context.Context, q DBExecutor, balance *domain.Balance) error
	// GetBalance retrieves a user's balance.
	GetBalance(ctx context.Context, q DBExecutor, userID int64) (*domain.Balance, error)
	// Credit increases a user's balance by a positive amount.
	Credit(ctx context.Context, q DBExecutor, userID int64, amount decimal.Decimal) error
	// Debit decreases a user's balance by a positive amount, failing with
	// util.ErrInsufficientFunds instead of going negative.
	Debit(ctx context.Context, q DBExecutor, userID int64, amount decimal.Decimal) error
}
