// internal/repository/sqlstore/ledger_store.go
package sqlstore

import (
	"context"
	"fmt"

	"finflow-requests/internal/domain"
	"finflow-requests/internal/repository"
)

// LedgerEntryRepository implements repository.LedgerEntryRepository over sqlx.
type LedgerEntryRepository struct{}

// NewLedgerEntryRepository creates a new LedgerEntryRepository.
func NewLedgerEntryRepository() repository.LedgerEntryRepository {
	return &LedgerEntryRepository{}
}

// CreateEntry inserts a ledger entry.
func (r *LedgerEntryRepository) CreateEntry(ctx context.Context, q repository.DBExecutor, entry *domain.LedgerEntry) error {
	query := q.Rebind(`INSERT INTO ledger_entries (id, user_id, request_id, direction, amount, balance_after, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := q.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.RequestID,
		entry.Direction,
		entry.Amount,
		entry.BalanceAfter,
		entry.Reason,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

// ListByUser retrieves a paginated list of a user's ledger entries, newest first.
func (r *LedgerEntryRepository) ListByUser(ctx context.Context, q repository.DBExecutor, userID int64, limit, offset int) ([]domain.LedgerEntry, int64, error) {
	entries := []domain.LedgerEntry{}
	query := q.Rebind(`SELECT id, user_id, request_id, direction, amount, balance_after, reason, created_at
		FROM ledger_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`)
	if err := q.SelectContext(ctx, &entries, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch ledger entries for user %d: %w", userID, err)
	}

	var totalCount int64
	countQuery := q.Rebind(`SELECT COUNT(*) FROM ledger_entries WHERE user_id = ?`)
	if err := q.GetContext(ctx, &totalCount, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries for user %d: %w", userID, err)
	}

	return entries, totalCount, nil
}
