// internal/repository/sqlstore/promo_store.go
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finflow-requests/internal/domain"
	"finflow-requests/internal/repository"
	"finflow-requests/internal/util"
)

// PromoCodeRepository implements repository.PromoCodeRepository over sqlx.
type PromoCodeRepository struct{}

// NewPromoCodeRepository creates a new PromoCodeRepository.
func NewPromoCodeRepository() repository.PromoCodeRepository {
	return &PromoCodeRepository{}
}

// CreatePromoCode registers a promo code.
func (r *PromoCodeRepository) CreatePromoCode(ctx context.Context, q repository.DBExecutor, promo *domain.PromoCode) error {
	query := q.Rebind(`INSERT INTO promo_codes (code, percent, active, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`)
	_, err := q.ExecContext(ctx, query, promo.Code, promo.Percent, promo.Active, promo.ExpiresAt, promo.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("promo code %q: %w", promo.Code, util.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create promo code: %w", err)
	}
	return nil
}

// GetPromoCode retrieves a promo code by its normalized code.
func (r *PromoCodeRepository) GetPromoCode(ctx context.Context, q repository.DBExecutor, code string) (*domain.PromoCode, error) {
	var promo domain.PromoCode
	query := q.Rebind(`SELECT code, percent, active, expires_at, created_at FROM promo_codes WHERE code = ?`)
	if err := q.GetContext(ctx, &promo, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get promo code %q: %w", code, err)
	}
	return &promo, nil
}
