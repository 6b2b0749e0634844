// internal/service/request_service_test.go
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finflow-requests/internal/bonus"
	"finflow-requests/internal/domain"
	"finflow-requests/internal/notify"
	"finflow-requests/internal/util"
	"finflow-requests/pkg/db"
)

var (
	testAdmin = domain.Actor{UserID: 900, Role: domain.RoleAdmin}
	testUser  = domain.Actor{UserID: 1, Role: domain.RoleUser}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type requestMocks struct {
	dbBeginner  *MockDBBeginner
	dbExecutor  *MockDBExecutor
	tx          *MockTxController
	balanceRepo *MockBalanceRepository
	requestRepo *MockRequestRepository
	ledgerRepo  *MockLedgerRepository
	quoter      *MockQuoter
	notifier    *MockNotifier
}

func newRequestMocks() *requestMocks {
	return &requestMocks{
		dbBeginner:  new(MockDBBeginner),
		dbExecutor:  new(MockDBExecutor),
		tx:          new(MockTxController),
		balanceRepo: new(MockBalanceRepository),
		requestRepo: new(MockRequestRepository),
		ledgerRepo:  new(MockLedgerRepository),
		quoter:      new(MockQuoter),
		notifier:    new(MockNotifier),
	}
}

func (m *requestMocks) service(opts RequestOptions) RequestService {
	return NewRequestService(
		m.dbBeginner,
		m.dbExecutor,
		m.balanceRepo,
		m.requestRepo,
		m.ledgerRepo,
		m.quoter,
		m.notifier,
		discardLogger(),
		opts,
		func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
			return m.tx, nil
		},
		func(tx db.TxController) error {
			return m.tx.Commit()
		},
		func(tx db.TxController) {
			_ = m.tx.Rollback()
		},
	)
}

func (m *requestMocks) assertAll(t *testing.T) {
	mock.AssertExpectationsForObjects(t, m.dbBeginner, m.dbExecutor, m.tx,
		m.balanceRepo, m.requestRepo, m.ledgerRepo, m.quoter, m.notifier)
}

func pendingRequest(kind domain.RequestKind, amount, finalTotal decimal.Decimal) *domain.FinancialRequest {
	req := &domain.FinancialRequest{
		ID:            uuid.New(),
		UserID:        testUser.UserID,
		Kind:          kind,
		Amount:        amount,
		PaymentMethod: "card",
		Status:        domain.RequestStatusPending,
	}
	if kind == domain.RequestKindDeposit {
		req.FinalTotal = decimal.NewNullDecimal(finalTotal)
	}
	return req
}

func copyOf(req *domain.FinancialRequest) *domain.FinancialRequest {
	c := *req
	return &c
}

func TestCreateDeposit(t *testing.T) {
	amount := decimal.NewFromInt(100)
	code := "DEPOSIT70"

	t.Run("SuccessfulDeposit", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})

		quote := bonus.Compute(amount, decimal.NewFromInt(5), decimal.NewFromInt(70))
		quote.PromoCode = &code
		m.quoter.On("Quote", ctx, amount, decimal.NewFromInt(5), code).Return(quote, nil).Once()
		m.balanceRepo.On("GetBalance", ctx, m.dbExecutor, testUser.UserID).Return(domain.NewBalance(testUser.UserID), nil).Once()
		m.requestRepo.On("CreateRequest", ctx, m.dbExecutor, mock.AnythingOfType("*domain.FinancialRequest")).Return(nil).Once()

		req, err := svc.CreateDeposit(ctx, testUser, domain.DepositInput{
			Amount:               amount,
			PaymentMethod:        "card",
			SelectedBonusPercent: decimal.NewFromInt(5),
			PromoCode:            code,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.RequestStatusPending, req.Status)
		assert.Equal(t, domain.RequestKindDeposit, req.Kind)
		assert.True(t, decimal.NewFromInt(75).Equal(req.TotalBonusPercent.Decimal))
		assert.True(t, decimal.NewFromInt(175).Equal(req.FinalTotal.Decimal))
		assert.Empty(t, req.PromoWarning)

		m.dbBeginner.AssertNotCalled(t, "BeginTxx", mock.Anything, mock.Anything)
		m.balanceRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.assertAll(t)
	})

	t.Run("UnknownPromoCodeProceedsWithWarning", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})

		quote := bonus.Compute(amount, decimal.Zero, decimal.Zero)
		quote.PromoCode = &code
		m.quoter.On("Quote", ctx, amount, mock.AnythingOfType("decimal.Decimal"), code).
			Return(quote, util.ErrPromoCodeNotFound).Once()
		m.balanceRepo.On("GetBalance", ctx, m.dbExecutor, testUser.UserID).Return(domain.NewBalance(testUser.UserID), nil).Once()
		m.requestRepo.On("CreateRequest", ctx, m.dbExecutor, mock.AnythingOfType("*domain.FinancialRequest")).Return(nil).Once()

		req, err := svc.CreateDeposit(ctx, testUser, domain.DepositInput{Amount: amount, PaymentMethod: "card", PromoCode: code})

		require.NoError(t, err)
		assert.NotEmpty(t, req.PromoWarning)
		assert.True(t, amount.Equal(req.FinalTotal.Decimal))
		m.assertAll(t)
	})

	t.Run("UnknownPromoCodeStrict", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{PromoStrict: true})

		m.quoter.On("Quote", ctx, amount, mock.AnythingOfType("decimal.Decimal"), code).
			Return(bonus.Quote{}, util.ErrPromoCodeNotFound).Once()

		req, err := svc.CreateDeposit(ctx, testUser, domain.DepositInput{Amount: amount, PaymentMethod: "card", PromoCode: code})

		ve, ok := util.AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, "promo_code", ve.Field)
		assert.Nil(t, req)
		m.requestRepo.AssertNotCalled(t, "CreateRequest", mock.Anything, mock.Anything, mock.Anything)
		m.assertAll(t)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})

		m.quoter.On("Quote", ctx, amount, mock.AnythingOfType("decimal.Decimal"), "").Return(bonus.Compute(amount, decimal.Zero, decimal.Zero), nil).Once()
		m.balanceRepo.On("GetBalance", ctx, m.dbExecutor, testUser.UserID).Return(nil, util.ErrAccountNotFound).Once()

		_, err := svc.CreateDeposit(ctx, testUser, domain.DepositInput{Amount: amount, PaymentMethod: "card"})

		assert.ErrorIs(t, err, util.ErrAccountNotFound)
		m.assertAll(t)
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})

		_, err := svc.CreateDeposit(ctx, testUser, domain.DepositInput{Amount: decimal.NewFromInt(-5), PaymentMethod: "card"})

		assert.ErrorIs(t, err, util.ErrInvalidInput)
		m.quoter.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.assertAll(t)
	})
}

func TestCreateWithdrawal(t *testing.T) {
	amount := decimal.NewFromInt(50)
	input := domain.WithdrawalInput{Amount: amount, PaymentMethod: "crypto", Purse: "TXYZ", Network: "TRC20"}

	t.Run("SuccessfulWithdrawal", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})

		after := domain.NewBalance(testUser.UserID)
		after.Balance = decimal.NewFromInt(50)

		m.tx.On("Commit").Return(nil).Once()
		m.tx.On("Rollback").Return(nil).Maybe()
		m.balanceRepo.On("Debit", ctx, m.tx, testUser.UserID, amount).Return(nil).Once()
		m.requestRepo.On("CreateRequest", ctx, m.tx, mock.AnythingOfType("*domain.FinancialRequest")).Return(nil).Once()
		m.balanceRepo.On("GetBalance", ctx, m.tx, testUser.UserID).Return(after, nil).Once()
		m.ledgerRepo.On("CreateEntry", ctx, m.tx, mock.MatchedBy(func(e *domain.LedgerEntry) bool {
			return e.Direction == domain.EntryDirectionDebit && e.Amount.Equal(amount) && e.BalanceAfter.Equal(after.Balance)
		})).Return(nil).Once()

		req, err := svc.CreateWithdrawal(ctx, testUser, input)

		require.NoError(t, err)
		assert.Equal(t, domain.RequestKindWithdrawal, req.Kind)
		assert.Equal(t, domain.RequestStatusPending, req.Status)
		require.NotNil(t, req.Purse)
		assert.Equal(t, "TXYZ", *req.Purse)
		assert.False(t, req.FinalTotal.Valid)
		m.assertAll(t)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})

		m.balanceRepo.On("Debit", ctx, m.tx, testUser.UserID, amount).Return(util.ErrInsufficientFunds).Once()
		m.tx.On("Rollback").Return(nil).Once()

		req, err := svc.CreateWithdrawal(ctx, testUser, input)

		assert.ErrorIs(t, err, util.ErrInsufficientFunds)
		assert.Nil(t, req)
		m.tx.AssertNotCalled(t, "Commit")
		m.requestRepo.AssertNotCalled(t, "CreateRequest", mock.Anything, mock.Anything, mock.Anything)
		m.assertAll(t)
	})

	t.Run("MissingPurse", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})

		_, err := svc.CreateWithdrawal(ctx, testUser, domain.WithdrawalInput{Amount: amount, PaymentMethod: "crypto"})

		ve, ok := util.AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, "purse", ve.Field)
		m.tx.AssertNotCalled(t, "Rollback")
		m.assertAll(t)
	})
}

func TestApprove(t *testing.T) {
	amount := decimal.NewFromInt(100)
	finalTotal := decimal.NewFromInt(170)

	t.Run("DepositCreditsFinalTotal", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})
		req := pendingRequest(domain.RequestKindDeposit, amount, finalTotal)

		after := domain.NewBalance(testUser.UserID)
		after.Balance = finalTotal

		m.requestRepo.On("GetRequestByID", ctx, m.dbExecutor, req.ID).Return(copyOf(req), nil).Once()
		m.requestRepo.On("GetRequestByID", ctx, m.tx, req.ID).Return(copyOf(req), nil).Once()
		m.balanceRepo.On("Credit", ctx, m.tx, testUser.UserID, finalTotal).Return(nil).Once()
		m.balanceRepo.On("GetBalance", ctx, m.tx, testUser.UserID).Return(after, nil).Once()
		m.ledgerRepo.On("CreateEntry", ctx, m.tx, mock.MatchedBy(func(e *domain.LedgerEntry) bool {
			return e.Direction == domain.EntryDirectionCredit && e.Amount.Equal(finalTotal) && e.RequestID == req.ID
		})).Return(nil).Once()
		m.requestRepo.On("SetStatus", ctx, m.tx, req.ID, mock.MatchedBy(func(d domain.StatusDecision) bool {
			return d.Status == domain.RequestStatusApproved && d.DecidedBy == testAdmin.UserID &&
				d.AdminNote != nil && *d.AdminNote == "paid" && d.RejectionReason == nil
		})).Return(nil).Once()
		m.tx.On("Commit").Return(nil).Once()
		m.tx.On("Rollback").Return(nil).Maybe()
		m.notifier.On("Enqueue", mock.MatchedBy(func(e notify.Event) bool {
			return e.RequestID == req.ID && e.Name() == "deposit.approved"
		})).Return(true).Once()

		decided, err := svc.Approve(ctx, testAdmin, req.ID, " paid ")

		require.NoError(t, err)
		assert.Equal(t, domain.RequestStatusApproved, decided.Status)
		require.NotNil(t, decided.DecidedBy)
		assert.Equal(t, testAdmin.UserID, *decided.DecidedBy)
		assert.NotNil(t, decided.DecidedAt)
		m.assertAll(t)
	})

	t.Run("WithdrawalKeepsHold", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})
		req := pendingRequest(domain.RequestKindWithdrawal, amount, decimal.Zero)

		m.requestRepo.On("GetRequestByID", ctx, m.dbExecutor, req.ID).Return(copyOf(req), nil).Once()
		m.requestRepo.On("GetRequestByID", ctx, m.tx, req.ID).Return(copyOf(req), nil).Once()
		m.requestRepo.On("SetStatus", ctx, m.tx, req.ID, mock.AnythingOfType("domain.StatusDecision")).Return(nil).Once()
		m.tx.On("Commit").Return(nil).Once()
		m.tx.On("Rollback").Return(nil).Maybe()
		m.notifier.On("Enqueue", mock.AnythingOfType("notify.Event")).Return(true).Once()

		decided, err := svc.Approve(ctx, testAdmin, req.ID, "")

		require.NoError(t, err)
		assert.Equal(t, domain.RequestStatusApproved, decided.Status)
		assert.Nil(t, decided.AdminNote)
		m.balanceRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.ledgerRepo.AssertNotCalled(t, "CreateEntry", mock.Anything, mock.Anything, mock.Anything)
		m.assertAll(t)
	})

	t.Run("NonAdminForbidden", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})

		_, err := svc.Approve(ctx, testUser, uuid.New(), "")

		assert.ErrorIs(t, err, util.ErrForbidden)
		m.requestRepo.AssertNotCalled(t, "GetRequestByID", mock.Anything, mock.Anything, mock.Anything)
		m.assertAll(t)
	})

	t.Run("AlreadyDecided", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})
		req := pendingRequest(domain.RequestKindDeposit, amount, finalTotal)
		req.Status = domain.RequestStatusRejected

		m.requestRepo.On("GetRequestByID", ctx, m.dbExecutor, req.ID).Return(req, nil).Once()

		_, err := svc.Approve(ctx, testAdmin, req.ID, "")

		assert.ErrorIs(t, err, util.ErrAlreadyDecided)
		m.tx.AssertNotCalled(t, "Commit")
		m.assertAll(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})
		id := uuid.New()

		m.requestRepo.On("GetRequestByID", ctx, m.dbExecutor, id).Return(nil, util.ErrNotFound).Once()

		_, err := svc.Approve(ctx, testAdmin, id, "")

		assert.ErrorIs(t, err, util.ErrNotFound)
		m.assertAll(t)
	})

	t.Run("SetStatusFailureRollsBack", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})
		req := pendingRequest(domain.RequestKindDeposit, amount, finalTotal)

		m.requestRepo.On("GetRequestByID", ctx, m.dbExecutor, req.ID).Return(copyOf(req), nil).Once()
		m.requestRepo.On("GetRequestByID", ctx, m.tx, req.ID).Return(copyOf(req), nil).Once()
		m.balanceRepo.On("Credit", ctx, m.tx, testUser.UserID, finalTotal).Return(nil).Once()
		m.balanceRepo.On("GetBalance", ctx, m.tx, testUser.UserID).Return(domain.NewBalance(testUser.UserID), nil).Once()
		m.ledgerRepo.On("CreateEntry", ctx, m.tx, mock.AnythingOfType("*domain.LedgerEntry")).Return(nil).Once()
		m.requestRepo.On("SetStatus", ctx, m.tx, req.ID, mock.AnythingOfType("domain.StatusDecision")).
			Return(errors.New("connection reset")).Once()
		m.tx.On("Rollback").Return(nil).Once()

		decided, err := svc.Approve(ctx, testAdmin, req.ID, "")

		assert.Error(t, err)
		assert.Nil(t, decided)
		m.tx.AssertNotCalled(t, "Commit")
		m.notifier.AssertNotCalled(t, "Enqueue", mock.Anything)
		m.assertAll(t)
	})
}

func TestReject(t *testing.T) {
	amount := decimal.NewFromInt(50)

	t.Run("WithdrawalIsRefunded", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})
		req := pendingRequest(domain.RequestKindWithdrawal, amount, decimal.Zero)

		after := domain.NewBalance(testUser.UserID)
		after.Balance = decimal.NewFromInt(100)

		m.requestRepo.On("GetRequestByID", ctx, m.dbExecutor, req.ID).Return(copyOf(req), nil).Once()
		m.requestRepo.On("GetRequestByID", ctx, m.tx, req.ID).Return(copyOf(req), nil).Once()
		m.balanceRepo.On("Credit", ctx, m.tx, testUser.UserID, amount).Return(nil).Once()
		m.balanceRepo.On("GetBalance", ctx, m.tx, testUser.UserID).Return(after, nil).Once()
		m.ledgerRepo.On("CreateEntry", ctx, m.tx, mock.MatchedBy(func(e *domain.LedgerEntry) bool {
			return e.Direction == domain.EntryDirectionCredit && e.Amount.Equal(amount) && e.BalanceAfter.Equal(after.Balance)
		})).Return(nil).Once()
		m.requestRepo.On("SetStatus", ctx, m.tx, req.ID, mock.MatchedBy(func(d domain.StatusDecision) bool {
			return d.Status == domain.RequestStatusRejected && d.RejectionReason != nil && *d.RejectionReason == "wrong purse"
		})).Return(nil).Once()
		m.tx.On("Commit").Return(nil).Once()
		m.tx.On("Rollback").Return(nil).Maybe()
		m.notifier.On("Enqueue", mock.MatchedBy(func(e notify.Event) bool {
			return e.Name() == "withdrawal.rejected"
		})).Return(false).Once()

		decided, err := svc.Reject(ctx, testAdmin, req.ID, "", "wrong purse")

		require.NoError(t, err, "a dropped notification must not fail the decision")
		assert.Equal(t, domain.RequestStatusRejected, decided.Status)
		require.NotNil(t, decided.RejectionReason)
		assert.Equal(t, "wrong purse", *decided.RejectionReason)
		m.assertAll(t)
	})

	t.Run("DepositMovesNoMoney", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})
		req := pendingRequest(domain.RequestKindDeposit, amount, amount)

		m.requestRepo.On("GetRequestByID", ctx, m.dbExecutor, req.ID).Return(copyOf(req), nil).Once()
		m.requestRepo.On("GetRequestByID", ctx, m.tx, req.ID).Return(copyOf(req), nil).Once()
		m.requestRepo.On("SetStatus", ctx, m.tx, req.ID, mock.AnythingOfType("domain.StatusDecision")).Return(nil).Once()
		m.tx.On("Commit").Return(nil).Once()
		m.tx.On("Rollback").Return(nil).Maybe()
		m.notifier.On("Enqueue", mock.AnythingOfType("notify.Event")).Return(true).Once()

		_, err := svc.Reject(ctx, testAdmin, req.ID, "", "")

		require.NoError(t, err)
		m.balanceRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.assertAll(t)
	})

	t.Run("DecidedBetweenReadAndTransaction", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})
		req := pendingRequest(domain.RequestKindWithdrawal, amount, decimal.Zero)
		decided := copyOf(req)
		decided.Status = domain.RequestStatusApproved

		m.requestRepo.On("GetRequestByID", ctx, m.dbExecutor, req.ID).Return(copyOf(req), nil).Once()
		m.requestRepo.On("GetRequestByID", ctx, m.tx, req.ID).Return(decided, nil).Once()
		m.tx.On("Rollback").Return(nil).Once()

		_, err := svc.Reject(ctx, testAdmin, req.ID, "", "")

		assert.ErrorIs(t, err, util.ErrAlreadyDecided)
		m.balanceRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.tx.AssertNotCalled(t, "Commit")
		m.assertAll(t)
	})
}

func TestRequestQueries(t *testing.T) {
	t.Run("GetOtherUsersRequestForbidden", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})
		req := pendingRequest(domain.RequestKindDeposit, decimal.NewFromInt(10), decimal.NewFromInt(10))

		m.requestRepo.On("GetRequestByID", ctx, m.dbExecutor, req.ID).Return(req, nil).Once()

		_, err := svc.GetRequest(ctx, domain.Actor{UserID: 2, Role: domain.RoleUser}, req.ID)

		assert.ErrorIs(t, err, util.ErrForbidden)
		m.assertAll(t)
	})

	t.Run("ListUserRequestsClampsPage", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})

		m.requestRepo.On("ListByUser", ctx, m.dbExecutor, testUser.UserID, MaxPageLimit, 0).
			Return([]domain.FinancialRequest{}, int64(0), nil).Once()

		_, total, err := svc.ListUserRequests(ctx, testUser, testUser.UserID, 5000, -3)

		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		m.assertAll(t)
	})

	t.Run("ListPendingRequiresAdmin", func(t *testing.T) {
		ctx := context.Background()
		m := newRequestMocks()
		svc := m.service(RequestOptions{})

		_, _, err := svc.ListPending(ctx, testUser, 10, 0)
		assert.ErrorIs(t, err, util.ErrForbidden)

		m.requestRepo.On("ListPending", ctx, m.dbExecutor, DefaultPageLimit, 0).
			Return([]domain.FinancialRequest{}, int64(0), nil).Once()
		_, _, err = svc.ListPending(ctx, testAdmin, 0, 0)
		assert.NoError(t, err)
		m.assertAll(t)
	})
}
