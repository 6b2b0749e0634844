// internal/repository/request_repo.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"finflow-requests/internal/domain"
)

// RequestRepository defines the interface for financial request persistence.
type RequestRepository interface {
	// CreateRequest stores a new pending request.
	CreateRequest(ctx context.Context, q DBExecutor, request *domain.FinancialRequest) error
	// GetRequestByID retrieves a request by its ID.
	GetRequestByID(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.FinancialRequest, error)
	// ListByUser retrieves a user's requests, newest first, with the total count.
	ListByUser(ctx context.Context, q DBExecutor, userID int64, limit, offset int) ([]domain.FinancialRequest, int64, error)
	// ListPending retrieves pending requests, oldest first, with the total count.
	ListPending(ctx context.Context, q DBExecutor, limit, offset int) ([]domain.FinancialRequest, int64, error)
	// SetStatus moves a pending request to a terminal status in one check-and-set.
	// It fails with util.ErrAlreadyDecided if the request is no longer pending.
	SetStatus(ctx context.Context, q DBExecutor, id uuid.UUID, decision domain.StatusDecision) error
}
