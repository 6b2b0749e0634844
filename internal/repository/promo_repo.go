// internal/repository/promo_repo.go
package repository

import (
	"context"

	"finflow-requests/internal/domain"
)

// PromoCodeRepository defines the interface for the promo code registry.
type PromoCodeRepository interface {
	CreatePromoCode(ctx context.Context, q DBExecutor, promo *domain.PromoCode) error
	GetPromoCode(ctx context.Context, q DBExecutor, code string) (*domain.PromoCode, error)
}
