// internal/service/account_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"finflow-requests/internal/domain"
	"finflow-requests/internal/repository"
	"finflow-requests/internal/util"
)

// AccountService exposes the read side of the balance ledger and account opening.
// Balance mutations happen only inside RequestService transactions.
type AccountService interface {
	OpenAccount(ctx context.Context, actor domain.Actor, userID int64) (*domain.Balance, error)
	GetBalance(ctx context.Context, actor domain.Actor, userID int64) (*domain.Balance, error)
	ListLedger(ctx context.Context, actor domain.Actor, userID int64, limit, offset int) ([]domain.LedgerEntry, int64, error)
}

type accountService struct {
	dbExecutor  repository.DBExecutor
	balanceRepo repository.BalanceRepository
	ledgerRepo  repository.LedgerEntryRepository
	logger      *slog.Logger
}

// NewAccountService creates a new instance of AccountService.
func NewAccountService(
	dbExecutor repository.DBExecutor,
	balanceRepo repository.BalanceRepository,
	ledgerRepo repository.LedgerEntryRepository,
	logger *slog.Logger,
) AccountService {
	return &accountService{
		dbExecutor:  dbExecutor,
		balanceRepo: balanceRepo,
		ledgerRepo:  ledgerRepo,
		logger:      logger,
	}
}

// OpenAccount creates a zero balance for userID. Users may open their own account; admins any.
func (s *accountService) OpenAccount(ctx context.Context, actor domain.Actor, userID int64) (*domain.Balance, error) {
	if userID <= 0 {
		return nil, util.NewValidationError("user_id", "must be positive")
	}
	if !actor.CanAccess(userID) {
		return nil, util.ErrForbidden
	}

	balance := domain.NewBalance(userID)
	if err := s.balanceRepo.CreateBalance(ctx, s.dbExecutor, balance); err != nil {
		return nil, fmt.Errorf("open account: %w", err)
	}
	s.logger.Info("Account opened", "user_id", userID, "by", actor.UserID)
	return balance, nil
}

func (s *accountService) GetBalance(ctx context.Context, actor domain.Actor, userID int64) (*domain.Balance, error) {
	if !actor.CanAccess(userID) {
		return nil, util.ErrForbidden
	}
	balance, err := s.balanceRepo.GetBalance(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// ListLedger returns the user's balance movements, newest first.
func (s *accountService) ListLedger(ctx context.Context, actor domain.Actor, userID int64, limit, offset int) ([]domain.LedgerEntry, int64, error) {
	if !actor.CanAccess(userID) {
		return nil, 0, util.ErrForbidden
	}
	limit, offset = NormalizePage(limit, offset)
	entries, total, err := s.ledgerRepo.ListByUser(ctx, s.dbExecutor, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list ledger: %w", err)
	}
	return entries, total, nil
}
