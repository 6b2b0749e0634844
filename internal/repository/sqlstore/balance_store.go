// internal/repository/sqlstore/balance_store.go
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finflow-requests/internal/domain"
	"finflow-requests/internal/repository"
	"finflow-requests/internal/util"
)

// BalanceRepository implements repository.BalanceRepository over sqlx.
type BalanceRepository struct{}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository() repository.BalanceRepository {
	return &BalanceRepository{}
}

// CreateBalance inserts a zero balance row for a user.
func (r *BalanceRepository) CreateBalance(ctx context.Context, q repository.DBExecutor, balance *domain.Balance) error {
	query := q.Rebind(`INSERT INTO balances (user_id, balance, created_at, updated_at) VALUES (?, ?, ?, ?)`)
	_, err := q.ExecContext(ctx, query, balance.UserID, balance.Balance, balance.CreatedAt, balance.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("balance for user %d: %w", balance.UserID, util.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create balance: %w", err)
	}
	return nil
}

// GetBalance retrieves a user's balance.
func (r *BalanceRepository) GetBalance(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.Balance, error) {
	var balance domain.Balance
	query := q.Rebind(`SELECT user_id, balance, created_at, updated_at FROM balances WHERE user_id = ?`)
	err := q.GetContext(ctx, &balance, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get balance for user %d: %w", userID, err)
	}
	return &balance, nil
}

// Credit adds amount to the user's balance.
func (r *BalanceRepository) Credit(ctx context.Context, q repository.DBExecutor, userID int64, amount decimal.Decimal) error {
	err := r.adjust(ctx, q, userID, func(current decimal.Decimal) (decimal.Decimal, error) {
		return current.Add(amount), nil
	})
	if err != nil {
		return fmt.Errorf("failed to credit balance for user %d: %w", userID, err)
	}
	return nil
}

// Debit subtracts amount from the user's balance, refusing to go below zero.
func (r *BalanceRepository) Debit(ctx context.Context, q repository.DBExecutor, userID int64, amount decimal.Decimal) error {
	err := r.adjust(ctx, q, userID, func(current decimal.Decimal) (decimal.Decimal, error) {
		if current.LessThan(amount) {
			return decimal.Decimal{}, util.ErrInsufficientFunds
		}
		return current.Sub(amount), nil
	})
	if err != nil {
		return fmt.Errorf("failed to debit balance for user %d: %w", userID, err)
	}
	return nil
}

// maxAdjustAttempts bounds the retries when another writer changes the row
// between the read and the conditional update.
const maxAdjustAttempts = 5

// adjust reads the stored balance, applies next in decimal arithmetic and writes
// the result only if the row still holds the value that was read.
func (r *BalanceRepository) adjust(ctx context.Context, q repository.DBExecutor, userID int64, next func(decimal.Decimal) (decimal.Decimal, error)) error {
	selectQuery := q.Rebind(`SELECT balance FROM balances WHERE user_id = ?`)
	updateQuery := q.Rebind(`UPDATE balances SET balance = ?, updated_at = ? WHERE user_id = ? AND balance = ?`)

	for attempt := 0; attempt < maxAdjustAttempts; attempt++ {
		var stored string
		if err := q.GetContext(ctx, &stored, selectQuery, userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return util.ErrAccountNotFound
			}
			return err
		}
		current, err := decimal.NewFromString(stored)
		if err != nil {
			return fmt.Errorf("stored balance %q: %w", stored, err)
		}

		updated, err := next(current)
		if err != nil {
			return err
		}

		result, err := q.ExecContext(ctx, updateQuery, updated.String(), time.Now().UTC(), userID, stored)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected > 0 {
			return nil
		}
	}
	return fmt.Errorf("balance changed concurrently %d times", maxAdjustAttempts)
}
