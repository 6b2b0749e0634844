// internal/repository/ledger_repo.go
package repository

import (
	"context"

	"finflow-requests/internal/domain"
)

// LedgerEntryRepository defines the interface for the balance movement audit trail.
type LedgerEntryRepository interface {
	// CreateEntry records a balance movement.
	CreateEntry(ctx context.Context, q DBExecutor, entry *domain.LedgerEntry) error
	// ListByUser retrieves a user's entries, newest first, with the total count.
	ListByUser(ctx context.Context, q DBExecutor, userID int64, limit, offset int) ([]domain.LedgerEntry, int64, error)
}
