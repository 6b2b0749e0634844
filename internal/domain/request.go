// internal/domain/request.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finflow-requests/internal/util"
)

// RequestKind distinguishes deposit requests from withdrawal requests.
type RequestKind string

const (
	RequestKindDeposit    RequestKind = "DEPOSIT"
	RequestKindWithdrawal RequestKind = "WITHDRAWAL"
)

// RequestStatus is the lifecycle state of a FinancialRequest.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

// Terminal reports whether no further transition is allowed out of s.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

// MoneyPlaces is the number of decimal places of the ledger's minimum currency unit.
const MoneyPlaces = 2

// MaxAmount is the largest amount a single request may carry. Totals must fit NUMERIC(20, 4).
var MaxAmount = decimal.New(1, 12)

// FinancialRequest is a deposit or withdrawal awaiting or past admin review.
// Deposit-only fields are null for withdrawals.
type FinancialRequest struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	UserID        int64           `db:"user_id" json:"user_id"`
	Kind          RequestKind     `db:"kind" json:"kind"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	Purse         *string         `db:"purse" json:"purse,omitempty"`
	Network       *string         `db:"network" json:"network,omitempty"`

	SelectedBonusPercent decimal.NullDecimal `db:"selected_bonus_percent" json:"selected_bonus_percent"`
	PromoCode            *string             `db:"promo_code" json:"promo_code,omitempty"`
	PromoBonusPercent    decimal.NullDecimal `db:"promo_bonus_percent" json:"promo_bonus_percent"`
	TotalBonusPercent    decimal.NullDecimal `db:"total_bonus_percent" json:"total_bonus_percent"`
	BonusAmount          decimal.NullDecimal `db:"bonus_amount" json:"bonus_amount"`
	FinalTotal           decimal.NullDecimal `db:"final_total" json:"final_total"`

	Status          RequestStatus `db:"status" json:"status"`
	AdminNote       *string       `db:"admin_note" json:"admin_note,omitempty"`
	RejectionReason *string       `db:"rejection_reason" json:"rejection_reason,omitempty"`
	DecidedBy       *int64        `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt       *time.Time    `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`

	// PromoWarning is set on creation when a promo code could not be applied. Not persisted.
	PromoWarning string `db:"-" json:"promo_warning,omitempty"`
}

// CreditAmount is what an approved deposit adds to the ledger.
func (r *FinancialRequest) CreditAmount() decimal.Decimal {
	if r.FinalTotal.Valid {
		return r.FinalTotal.Decimal
	}
	return r.Amount
}

// StatusDecision carries the audit fields of a terminal transition.
type StatusDecision struct {
	Status          RequestStatus
	AdminNote       *string
	RejectionReason *string
	DecidedBy       int64
	DecidedAt       time.Time
}

// DepositInput is the validated boundary shape of a deposit request.
type DepositInput struct {
	Amount               decimal.Decimal
	PaymentMethod        string
	SelectedBonusPercent decimal.Decimal
	PromoCode            string
}

// Validate checks the fields that need no collaborator to verify.
func (in *DepositInput) Validate() error {
	if err := validateAmount(in.Amount); err != nil {
		return err
	}
	if err := validatePaymentMethod(in.PaymentMethod); err != nil {
		return err
	}
	if in.SelectedBonusPercent.IsNegative() {
		return util.NewValidationError("selected_bonus_percent", "must not be negative")
	}
	return nil
}

// WithdrawalInput is the validated boundary shape of a withdrawal request.
type WithdrawalInput struct {
	Amount        decimal.Decimal
	PaymentMethod string
	Purse         string
	Network       string
}

// Validate checks the fields that need no collaborator to verify.
func (in *WithdrawalInput) Validate() error {
	if err := validateAmount(in.Amount); err != nil {
		return err
	}
	if err := validatePaymentMethod(in.PaymentMethod); err != nil {
		return err
	}
	if strings.TrimSpace(in.Purse) == "" {
		return util.NewValidationError("purse", "is required")
	}
	return nil
}

// NewDepositRequest builds a pending deposit from validated input and computed bonus fields.
func NewDepositRequest(userID int64, in DepositInput, promoCode *string, promoPercent, totalPercent, bonusAmount, finalTotal decimal.Decimal) *FinancialRequest {
	now := time.Now().UTC()
	return &FinancialRequest{
		ID:                   uuid.New(),
		UserID:               userID,
		Kind:                 RequestKindDeposit,
		Amount:               in.Amount,
		PaymentMethod:        strings.TrimSpace(in.PaymentMethod),
		SelectedBonusPercent: decimal.NewNullDecimal(in.SelectedBonusPercent),
		PromoCode:            promoCode,
		PromoBonusPercent:    decimal.NewNullDecimal(promoPercent),
		TotalBonusPercent:    decimal.NewNullDecimal(totalPercent),
		BonusAmount:          decimal.NewNullDecimal(bonusAmount),
		FinalTotal:           decimal.NewNullDecimal(finalTotal),
		Status:               RequestStatusPending,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// NewWithdrawalRequest builds a pending withdrawal from validated input.
func NewWithdrawalRequest(userID int64, in WithdrawalInput) *FinancialRequest {
	now := time.Now().UTC()
	purse := strings.TrimSpace(in.Purse)
	return &FinancialRequest{
		ID:            uuid.New(),
		UserID:        userID,
		Kind:          RequestKindWithdrawal,
		Amount:        in.Amount,
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		Purse:         &purse,
		Network:       optionalString(in.Network),
		Status:        RequestStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func validateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return util.NewValidationError("amount", "must be positive")
	}
	if amount.GreaterThan(MaxAmount) {
		return util.NewValidationError("amount", "must not exceed %s", MaxAmount.String())
	}
	if !amount.Equal(amount.Round(MoneyPlaces)) {
		return util.NewValidationError("amount", "must have at most %d decimal places", MoneyPlaces)
	}
	return nil
}

func validatePaymentMethod(method string) error {
	method = strings.TrimSpace(method)
	if method == "" {
		return util.NewValidationError("payment_method", "is required")
	}
	if len(method) > 64 {
		return util.NewValidationError("payment_method", "must be at most 64 characters")
	}
	return nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
