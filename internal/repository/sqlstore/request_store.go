// internal/repository/sqlstore/request_store.go
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"finflow-requests/internal/domain"
	"finflow-requests/internal/repository"
	"finflow-requests/internal/util"
)

const requestColumns = `id, user_id, kind, amount, payment_method, purse, network,
	selected_bonus_percent, promo_code, promo_bonus_percent, total_bonus_percent, bonus_amount, final_total,
	status, admin_note, rejection_reason, decided_by, decided_at, created_at, updated_at`

// RequestRepository implements repository.RequestRepository over sqlx.
type RequestRepository struct{}

// NewRequestRepository creates a new RequestRepository.
func NewRequestRepository() repository.RequestRepository {
	return &RequestRepository{}
}

// CreateRequest inserts a new request.
func (r *RequestRepository) CreateRequest(ctx context.Context, q repository.DBExecutor, req *domain.FinancialRequest) error {
	query := q.Rebind(`INSERT INTO financial_requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := q.ExecContext(ctx, query,
		req.ID,
		req.UserID,
		req.Kind,
		req.Amount,
		req.PaymentMethod,
		req.Purse,
		req.Network,
		req.SelectedBonusPercent,
		req.PromoCode,
		req.PromoBonusPercent,
		req.TotalBonusPercent,
		req.BonusAmount,
		req.FinalTotal,
		req.Status,
		req.AdminNote,
		req.RejectionReason,
		req.DecidedBy,
		req.DecidedAt,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

// GetRequestByID retrieves a request by its ID.
func (r *RequestRepository) GetRequestByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.FinancialRequest, error) {
	var req domain.FinancialRequest
	query := q.Rebind(`SELECT ` + requestColumns + ` FROM financial_requests WHERE id = ?`)
	if err := q.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get request %s: %w", id, err)
	}
	return &req, nil
}

// ListByUser retrieves a paginated list of a user's requests, newest first.
func (r *RequestRepository) ListByUser(ctx context.Context, q repository.DBExecutor, userID int64, limit, offset int) ([]domain.FinancialRequest, int64, error) {
	requests := []domain.FinancialRequest{}
	query := q.Rebind(`SELECT ` + requestColumns + ` FROM financial_requests
		WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`)
	if err := q.SelectContext(ctx, &requests, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch requests for user %d: %w", userID, err)
	}

	var totalCount int64
	countQuery := q.Rebind(`SELECT COUNT(*) FROM financial_requests WHERE user_id = ?`)
	if err := q.GetContext(ctx, &totalCount, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count requests for user %d: %w", userID, err)
	}

	return requests, totalCount, nil
}

// ListPending retrieves a paginated list of pending requests, oldest first.
func (r *RequestRepository) ListPending(ctx context.Context, q repository.DBExecutor, limit, offset int) ([]domain.FinancialRequest, int64, error) {
	requests := []domain.FinancialRequest{}
	query := q.Rebind(`SELECT ` + requestColumns + ` FROM financial_requests
		WHERE status = ?
		ORDER BY created_at ASC, id
		LIMIT ? OFFSET ?`)
	if err := q.SelectContext(ctx, &requests, query, domain.RequestStatusPending, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch pending requests: %w", err)
	}

	var totalCount int64
	countQuery := q.Rebind(`SELECT COUNT(*) FROM financial_requests WHERE status = ?`)
	if err := q.GetContext(ctx, &totalCount, countQuery, domain.RequestStatusPending); err != nil {
		return nil, 0, fmt.Errorf("failed to count pending requests: %w", err)
	}

	return requests, totalCount, nil
}

// SetStatus applies a terminal decision to a pending request.
func (r *RequestRepository) SetStatus(ctx context.Context, q repository.DBExecutor, id uuid.UUID, decision domain.StatusDecision) error {
	if !decision.Status.Terminal() {
		return fmt.Errorf("set status %s: %w", decision.Status, util.ErrInvalidInput)
	}

	query := q.Rebind(`UPDATE financial_requests
		SET status = ?, admin_note = ?, rejection_reason = ?, decided_by = ?, decided_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`)
	result, err := q.ExecContext(ctx, query,
		decision.Status,
		decision.AdminNote,
		decision.RejectionReason,
		decision.DecidedBy,
		decision.DecidedAt,
		decision.DecidedAt,
		id,
		domain.RequestStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to update status of request %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after updating request %s: %w", id, err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists int
	if err := q.GetContext(ctx, &exists, q.Rebind(`SELECT COUNT(*) FROM financial_requests WHERE id = ?`), id); err != nil {
		return fmt.Errorf("failed to check request %s: %w", id, err)
	}
	if exists == 0 {
		return util.ErrNotFound
	}
	return util.ErrAlreadyDecided
}
