// internal/domain/promo.go
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PromoCode grants an additional bonus percentage on deposits.
type PromoCode struct {
	Code      string          `db:"code" json:"code"`
	Percent   decimal.Decimal `db:"percent" json:"percent"`
	Active    bool            `db:"active" json:"active"`
	ExpiresAt *time.Time      `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// NormalizePromoCode trims and upper-cases a code so lookups are case-insensitive.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// UsableAt reports whether the code can be redeemed at t.
func (p *PromoCode) UsableAt(t time.Time) bool {
	if !p.Active {
		return false
	}
	return p.ExpiresAt == nil || t.Before(*p.ExpiresAt)
}
