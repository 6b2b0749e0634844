// internal/service/request_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finflow-requests/internal/bonus"
	"finflow-requests/internal/domain"
	"finflow-requests/internal/notify"
	"finflow-requests/internal/repository"
	"finflow-requests/internal/util"
	"finflow-requests/pkg/db"
)

// RequestService drives deposit and withdrawal requests through their lifecycle.
type RequestService interface {
	CreateDeposit(ctx context.Context, actor domain.Actor, in domain.DepositInput) (*domain.FinancialRequest, error)
	CreateWithdrawal(ctx context.Context, actor domain.Actor, in domain.WithdrawalInput) (*domain.FinancialRequest, error)
	Approve(ctx context.Context, actor domain.Actor, requestID uuid.UUID, adminNote string) (*domain.FinancialRequest, error)
	Reject(ctx context.Context, actor domain.Actor, requestID uuid.UUID, adminNote, reason string) (*domain.FinancialRequest, error)
	GetRequest(ctx context.Context, actor domain.Actor, requestID uuid.UUID) (*domain.FinancialRequest, error)
	ListUserRequests(ctx context.Context, actor domain.Actor, userID int64, limit, offset int) ([]domain.FinancialRequest, int64, error)
	ListPending(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.FinancialRequest, int64, error)
}

// BonusQuoter prices a deposit bonus. *bonus.Calculator implements it.
type BonusQuoter interface {
	Quote(ctx context.Context, amount, selectedPercent decimal.Decimal, promoCode string) (bonus.Quote, error)
}

// Notifier accepts decision events without blocking. *notify.Dispatcher implements it.
type Notifier interface {
	Enqueue(e notify.Event) bool
}

// RequestOptions tunes engine policy.
type RequestOptions struct {
	// PromoStrict rejects deposits whose promo code cannot be applied
	// instead of creating them with a zero promo bonus.
	PromoStrict bool
}

// requestService implements the RequestService interface.
type requestService struct {
	dbBeginner  db.DBTxBeginner
	dbExecutor  repository.DBExecutor
	balanceRepo repository.BalanceRepository
	requestRepo repository.RequestRepository
	ledgerRepo  repository.LedgerEntryRepository
	quoter      BonusQuoter
	notifier    Notifier
	locks       *util.KeyLock
	logger      *slog.Logger
	opts        RequestOptions
	beginTx     db.BeginTxFunc
	commitTx    db.CommitTxFunc
	rollbackTx  db.RollbackTxFunc
}

// NewRequestService creates a new instance of RequestService.
func NewRequestService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	balanceRepo repository.BalanceRepository,
	requestRepo repository.RequestRepository,
	ledgerRepo repository.LedgerEntryRepository,
	quoter BonusQuoter,
	notifier Notifier,
	logger *slog.Logger,
	opts RequestOptions,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) RequestService {
	return &requestService{
		dbBeginner:  dbBeginner,
		dbExecutor:  dbExecutor,
		balanceRepo: balanceRepo,
		requestRepo: requestRepo,
		ledgerRepo:  ledgerRepo,
		quoter:      quoter,
		notifier:    notifier,
		locks:       util.NewKeyLock(),
		logger:      logger,
		opts:        opts,
		beginTx:     beginTx,
		commitTx:    commitTx,
		rollbackTx:  rollbackTx,
	}
}

func requestLockKey(id uuid.UUID) string { return "request:" + id.String() }
func userLockKey(id int64) string        { return "user:" + strconv.FormatInt(id, 10) }

// CreateDeposit records a pending deposit with its bonus fields fixed at creation.
// The balance is untouched until an admin approves it.
func (s *requestService) CreateDeposit(ctx context.Context, actor domain.Actor, in domain.DepositInput) (*domain.FinancialRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	quote, err := s.quoter.Quote(ctx, in.Amount, in.SelectedBonusPercent, in.PromoCode)
	var warning string
	if err != nil {
		if !errors.Is(err, util.ErrPromoCodeNotFound) {
			return nil, fmt.Errorf("create deposit: %w", err)
		}
		if s.opts.PromoStrict {
			return nil, util.NewValidationError("promo_code", "unknown, inactive or expired code")
		}
		warning = err.Error()
		s.logger.Warn("Promo code not applied", "user_id", actor.UserID, "promo_code", in.PromoCode)
	}

	if _, err := s.balanceRepo.GetBalance(ctx, s.dbExecutor, actor.UserID); err != nil {
		return nil, fmt.Errorf("create deposit: %w", err)
	}

	req := domain.NewDepositRequest(actor.UserID, in, quote.PromoCode,
		quote.PromoBonusPercent, quote.TotalBonusPercent, quote.BonusAmount, quote.FinalTotal)
	if err := s.requestRepo.CreateRequest(ctx, s.dbExecutor, req); err != nil {
		return nil, fmt.Errorf("create deposit: %w", err)
	}
	req.PromoWarning = warning

	s.logger.Info("Deposit request created",
		"request_id", req.ID, "user_id", req.UserID,
		"amount", req.Amount.String(), "final_total", quote.FinalTotal.String())
	return req, nil
}

// CreateWithdrawal holds the amount immediately: the debit, the request and its
// ledger entry are written in one transaction.
func (s *requestService) CreateWithdrawal(ctx context.Context, actor domain.Actor, in domain.WithdrawalInput) (*domain.FinancialRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userLockKey(actor.UserID))
	defer unlock()

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("create withdrawal: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("create withdrawal: transaction controller does not implement DBExecutor")
	}

	if err := s.balanceRepo.Debit(ctx, txExecutor, actor.UserID, in.Amount); err != nil {
		return nil, fmt.Errorf("create withdrawal: %w", err)
	}

	req := domain.NewWithdrawalRequest(actor.UserID, in)
	if err := s.requestRepo.CreateRequest(ctx, txExecutor, req); err != nil {
		return nil, fmt.Errorf("create withdrawal: %w", err)
	}

	if err := s.recordEntry(ctx, txExecutor, req, domain.EntryDirectionDebit, req.Amount, "withdrawal hold"); err != nil {
		return nil, fmt.Errorf("create withdrawal: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("create withdrawal: failed to commit transaction: %w", err)
	}

	s.logger.Info("Withdrawal request created",
		"request_id", req.ID, "user_id", req.UserID, "amount", req.Amount.String())
	return req, nil
}

// Approve credits an approved deposit's final total. An approved withdrawal
// keeps the hold taken at creation.
func (s *requestService) Approve(ctx context.Context, actor domain.Actor, requestID uuid.UUID, adminNote string) (*domain.FinancialRequest, error) {
	return s.decide(ctx, "approve", actor, requestID, domain.RequestStatusApproved, adminNote, "")
}

// Reject refunds a rejected withdrawal's held amount. A rejected deposit moves no money.
func (s *requestService) Reject(ctx context.Context, actor domain.Actor, requestID uuid.UUID, adminNote, reason string) (*domain.FinancialRequest, error) {
	return s.decide(ctx, "reject", actor, requestID, domain.RequestStatusRejected, adminNote, reason)
}

func (s *requestService) decide(
	ctx context.Context,
	op string,
	actor domain.Actor,
	requestID uuid.UUID,
	status domain.RequestStatus,
	adminNote, reason string,
) (*domain.FinancialRequest, error) {
	if !actor.IsAdmin() {
		return nil, util.ErrForbidden
	}

	unlockRequest := s.locks.Lock(requestLockKey(requestID))
	defer unlockRequest()

	// The owner is immutable, so reading it before the transaction is safe.
	current, err := s.requestRepo.GetRequestByID(ctx, s.dbExecutor, requestID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if current.Status.Terminal() {
		return nil, fmt.Errorf("%s: %w", op, util.ErrAlreadyDecided)
	}

	unlockUser := s.locks.Lock(userLockKey(current.UserID))
	defer unlockUser()

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("%s: transaction controller does not implement DBExecutor", op)
	}

	req, err := s.requestRepo.GetRequestByID(ctx, txExecutor, requestID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if req.Status != domain.RequestStatusPending {
		return nil, fmt.Errorf("%s: %w", op, util.ErrAlreadyDecided)
	}

	switch {
	case status == domain.RequestStatusApproved && req.Kind == domain.RequestKindDeposit:
		amount := req.CreditAmount()
		if err := s.balanceRepo.Credit(ctx, txExecutor, req.UserID, amount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.recordEntry(ctx, txExecutor, req, domain.EntryDirectionCredit, amount, "deposit approved"); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	case status == domain.RequestStatusRejected && req.Kind == domain.RequestKindWithdrawal:
		if err := s.balanceRepo.Credit(ctx, txExecutor, req.UserID, req.Amount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.recordEntry(ctx, txExecutor, req, domain.EntryDirectionCredit, req.Amount, "withdrawal refund"); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	decision := domain.StatusDecision{
		Status:          status,
		AdminNote:       optional(adminNote),
		RejectionReason: optional(reason),
		DecidedBy:       actor.UserID,
		DecidedAt:       time.Now().UTC(),
	}
	if err := s.requestRepo.SetStatus(ctx, txExecutor, req.ID, decision); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	req.Status = decision.Status
	req.AdminNote = decision.AdminNote
	req.RejectionReason = decision.RejectionReason
	req.DecidedBy = &decision.DecidedBy
	req.DecidedAt = &decision.DecidedAt
	req.UpdatedAt = decision.DecidedAt

	s.logger.Info("Request decided",
		"request_id", req.ID, "user_id", req.UserID, "kind", req.Kind,
		"status", req.Status, "admin_id", actor.UserID)

	if !s.notifier.Enqueue(notify.NewEvent(req)) {
		s.logger.Warn("Notification dropped", "request_id", req.ID, "user_id", req.UserID)
	}
	return req, nil
}

// recordEntry writes the ledger entry for a balance movement already applied in q.
func (s *requestService) recordEntry(
	ctx context.Context,
	q repository.DBExecutor,
	req *domain.FinancialRequest,
	direction domain.EntryDirection,
	amount decimal.Decimal,
	reason string,
) error {
	balance, err := s.balanceRepo.GetBalance(ctx, q, req.UserID)
	if err != nil {
		return err
	}
	entry := domain.NewLedgerEntry(req.UserID, req.ID, direction, amount, balance.Balance, reason)
	return s.ledgerRepo.CreateEntry(ctx, q, entry)
}

func (s *requestService) GetRequest(ctx context.Context, actor domain.Actor, requestID uuid.UUID) (*domain.FinancialRequest, error) {
	req, err := s.requestRepo.GetRequestByID(ctx, s.dbExecutor, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if !actor.CanAccess(req.UserID) {
		return nil, util.ErrForbidden
	}
	return req, nil
}

// ListUserRequests returns a user's requests, newest first.
func (s *requestService) ListUserRequests(ctx context.Context, actor domain.Actor, userID int64, limit, offset int) ([]domain.FinancialRequest, int64, error) {
	if !actor.CanAccess(userID) {
		return nil, 0, util.ErrForbidden
	}
	limit, offset = NormalizePage(limit, offset)
	requests, total, err := s.requestRepo.ListByUser(ctx, s.dbExecutor, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list user requests: %w", err)
	}
	return requests, total, nil
}

// ListPending returns the admin review queue, oldest first.
func (s *requestService) ListPending(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.FinancialRequest, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, util.ErrForbidden
	}
	limit, offset = NormalizePage(limit, offset)
	requests, total, err := s.requestRepo.ListPending(ctx, s.dbExecutor, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list pending requests: %w", err)
	}
	return requests, total, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
