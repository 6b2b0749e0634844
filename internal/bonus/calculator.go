// Package bonus computes deposit bonuses from a selected bonus tier and an optional promo code.
package bonus

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"finflow-requests/internal/domain"
	"finflow-requests/internal/util"
)

var hundred = decimal.NewFromInt(100)

// Quote is the outcome of a bonus computation.
type Quote struct {
	PromoCode         *string
	PromoBonusPercent decimal.Decimal
	TotalBonusPercent decimal.Decimal
	BonusAmount       decimal.Decimal
	FinalTotal        decimal.Decimal
}

// Compute applies the additive bonus rule. The bonus is rounded half-up to the
// ledger's minimum unit. Amount must be positive; percents must not be negative.
func Compute(amount, selectedPercent, promoPercent decimal.Decimal) Quote {
	total := selectedPercent.Add(promoPercent)
	bonusAmount := amount.Mul(total).Div(hundred).Round(domain.MoneyPlaces)
	return Quote{
		PromoBonusPercent: promoPercent,
		TotalBonusPercent: total,
		BonusAmount:       bonusAmount,
		FinalTotal:        amount.Add(bonusAmount),
	}
}

// PromoRegistry resolves a promo code to its bonus percent.
// It returns util.ErrPromoCodeNotFound for unknown, inactive or expired codes.
type PromoRegistry interface {
	Resolve(ctx context.Context, code string) (decimal.Decimal, error)
}

// Calculator resolves promo codes and produces quotes.
type Calculator struct {
	registry   PromoRegistry
	maxPercent decimal.Decimal
}

// NewCalculator creates a Calculator. maxSelectedPercent caps the bonus tier a user may pick.
func NewCalculator(registry PromoRegistry, maxSelectedPercent decimal.Decimal) *Calculator {
	return &Calculator{registry: registry, maxPercent: maxSelectedPercent}
}

// Quote computes the bonus for a deposit. When the promo code cannot be resolved
// the returned quote carries a zero promo percent together with an error
// matching util.ErrPromoCodeNotFound, so callers may proceed or abort.
func (c *Calculator) Quote(ctx context.Context, amount, selectedPercent decimal.Decimal, promoCode string) (Quote, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return Quote{}, util.NewValidationError("amount", "must be positive")
	}
	if selectedPercent.IsNegative() {
		return Quote{}, util.NewValidationError("selected_bonus_percent", "must not be negative")
	}
	if selectedPercent.GreaterThan(c.maxPercent) {
		return Quote{}, util.NewValidationError("selected_bonus_percent", "must not exceed %s", c.maxPercent.String())
	}

	code := domain.NormalizePromoCode(promoCode)
	if code == "" {
		return Compute(amount, selectedPercent, decimal.Zero), nil
	}

	promoPercent, err := c.registry.Resolve(ctx, code)
	if err != nil {
		if !errors.Is(err, util.ErrPromoCodeNotFound) {
			return Quote{}, fmt.Errorf("resolve promo code: %w", err)
		}
		q := Compute(amount, selectedPercent, decimal.Zero)
		q.PromoCode = &code
		return q, fmt.Errorf("promo code %q: %w", code, util.ErrPromoCodeNotFound)
	}

	q := Compute(amount, selectedPercent, promoPercent)
	q.PromoCode = &code
	return q, nil
}
