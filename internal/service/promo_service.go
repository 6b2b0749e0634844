// internal/service/promo_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"finflow-requests/internal/domain"
	"finflow-requests/internal/repository"
	"finflow-requests/internal/util"
)

// PromoService manages the promo code registry. It also satisfies bonus.PromoRegistry.
type PromoService interface {
	CreatePromoCode(ctx context.Context, actor domain.Actor, code string, percent decimal.Decimal, expiresAt *time.Time) (*domain.PromoCode, error)
	Resolve(ctx context.Context, code string) (decimal.Decimal, error)
}

type promoService struct {
	dbExecutor repository.DBExecutor
	promoRepo  repository.PromoCodeRepository
	logger     *slog.Logger
	now        func() time.Time
}

// NewPromoService creates a new instance of PromoService.
func NewPromoService(dbExecutor repository.DBExecutor, promoRepo repository.PromoCodeRepository, logger *slog.Logger) PromoService {
	return &promoService{
		dbExecutor: dbExecutor,
		promoRepo:  promoRepo,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *promoService) CreatePromoCode(ctx context.Context, actor domain.Actor, code string, percent decimal.Decimal, expiresAt *time.Time) (*domain.PromoCode, error) {
	if !actor.IsAdmin() {
		return nil, util.ErrForbidden
	}
	code = domain.NormalizePromoCode(code)
	if code == "" || len(code) > 64 {
		return nil, util.NewValidationError("code", "must be 1 to 64 characters")
	}
	if !percent.IsPositive() {
		return nil, util.NewValidationError("percent", "must be positive")
	}
	if expiresAt != nil && !expiresAt.After(s.now()) {
		return nil, util.NewValidationError("expires_at", "must be in the future")
	}

	promo := &domain.PromoCode{
		Code:      code,
		Percent:   percent,
		Active:    true,
		ExpiresAt: expiresAt,
		CreatedAt: s.now(),
	}
	if err := s.promoRepo.CreatePromoCode(ctx, s.dbExecutor, promo); err != nil {
		return nil, fmt.Errorf("create promo code: %w", err)
	}
	s.logger.Info("Promo code created", "code", code, "percent", percent.String(), "by", actor.UserID)
	return promo, nil
}

// Resolve returns the bonus percent of an active, unexpired code.
func (s *promoService) Resolve(ctx context.Context, code string) (decimal.Decimal, error) {
	promo, err := s.promoRepo.GetPromoCode(ctx, s.dbExecutor, domain.NormalizePromoCode(code))
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return decimal.Zero, util.ErrPromoCodeNotFound
		}
		return decimal.Zero, err
	}
	if !promo.UsableAt(s.now()) {
		return decimal.Zero, util.ErrPromoCodeNotFound
	}
	return promo.Percent, nil
}
