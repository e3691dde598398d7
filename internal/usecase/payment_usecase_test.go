package usecase_test

import (
	"context"
	"strings"
	"testing"

	"laptophub/internal/domain/model"
	repo "laptophub/internal/repository"
	"laptophub/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newPaymentUsecaseForTest(repos *TxReposMock, payments repo.PaymentRepository, orders repo.OrderRepository) *usecase.PaymentUsecase {
	tx := new(TxManagerMock)
	tx.Repos = repos
	tx.On("WithinTx", mock.Anything).Return(nil)
	return usecase.NewPaymentUsecase(tx, payments, orders)
}

// =====================
// ProcessSimulated tests
// =====================

// 成功通知で決済COMPLETED＋注文PAIDが同時に進む。
func TestPaymentUsecase_ProcessSimulated_Success(t *testing.T) {
	ordersRepo := new(OrderRepoMock)
	paymentsRepo := new(PaymentRepoMock)

	uc := newPaymentUsecaseForTest(&TxReposMock{
		orders:   ordersRepo,
		payments: paymentsRepo,
	}, paymentsRepo, ordersRepo)

	payment := model.Payment{ID: 9, OrderID: 77, Status: model.PaymentStatusPending, Amount: 480000}
	order := model.Order{ID: 77, UserID: 1, Status: model.OrderStatusPendingPayment}

	paymentsRepo.On("FindByID", mock.Anything, int64(9)).Return(payment, nil)
	ordersRepo.On("LockByID", mock.Anything, int64(77)).Return(order, nil)
	paymentsRepo.On("LockByID", mock.Anything, int64(9)).Return(payment, nil)

	paymentsRepo.On("UpdateStatus", mock.Anything, int64(9), model.PaymentStatusCompleted).Return(nil)
	paymentsRepo.On("SetExternalRef", mock.Anything, int64(9), mock.MatchedBy(func(ref string) bool {
		return strings.HasPrefix(ref, "sim_")
	})).Return(nil)
	ordersRepo.On("UpdateStatus", mock.Anything, int64(77), model.OrderStatusPaid).Return(nil)

	out, err := uc.ProcessSimulated(context.Background(), 1, 9, true, false)
	assert.NoError(t, err)
	assert.Equal(t, "COMPLETED", out.Status)
	assert.True(t, strings.HasPrefix(out.ExternalRef, "sim_"))

	paymentsRepo.AssertExpectations(t)
	ordersRepo.AssertExpectations(t)
}

// 失敗通知は決済だけFAILEDにする。注文はPENDING_PAYMENTのまま。
func TestPaymentUsecase_ProcessSimulated_FailureLeavesOrderPending(t *testing.T) {
	ordersRepo := new(OrderRepoMock)
	paymentsRepo := new(PaymentRepoMock)

	uc := newPaymentUsecaseForTest(&TxReposMock{
		orders:   ordersRepo,
		payments: paymentsRepo,
	}, paymentsRepo, ordersRepo)

	payment := model.Payment{ID: 9, OrderID: 77, Status: model.PaymentStatusPending}
	order := model.Order{ID: 77, UserID: 1, Status: model.OrderStatusPendingPayment}

	paymentsRepo.On("FindByID", mock.Anything, int64(9)).Return(payment, nil)
	ordersRepo.On("LockByID", mock.Anything, int64(77)).Return(order, nil)
	paymentsRepo.On("LockByID", mock.Anything, int64(9)).Return(payment, nil)
	paymentsRepo.On("UpdateStatus", mock.Anything, int64(9), model.PaymentStatusFailed).Return(nil)

	out, err := uc.ProcessSimulated(context.Background(), 1, 9, false, false)
	assert.NoError(t, err)
	assert.Equal(t, "FAILED", out.Status)

	// 注文は触らない
	ordersRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

// 失敗後のリトライ成功（FAILED -> COMPLETED）で注文もPAIDになる。
func TestPaymentUsecase_ProcessSimulated_RetryAfterFailure(t *testing.T) {
	ordersRepo := new(OrderRepoMock)
	paymentsRepo := new(PaymentRepoMock)

	uc := newPaymentUsecaseForTest(&TxReposMock{
		orders:   ordersRepo,
		payments: paymentsRepo,
	}, paymentsRepo, ordersRepo)

	payment := model.Payment{ID: 9, OrderID: 77, Status: model.PaymentStatusFailed}
	order := model.Order{ID: 77, UserID: 1, Status: model.OrderStatusPendingPayment}

	paymentsRepo.On("FindByID", mock.Anything, int64(9)).Return(payment, nil)
	ordersRepo.On("LockByID", mock.Anything, int64(77)).Return(order, nil)
	paymentsRepo.On("LockByID", mock.Anything, int64(9)).Return(payment, nil)
	paymentsRepo.On("UpdateStatus", mock.Anything, int64(9), model.PaymentStatusCompleted).Return(nil)
	paymentsRepo.On("SetExternalRef", mock.Anything, int64(9), mock.Anything).Return(nil)
	ordersRepo.On("UpdateStatus", mock.Anything, int64(77), model.OrderStatusPaid).Return(nil)

	out, err := uc.ProcessSimulated(context.Background(), 1, 9, true, false)
	assert.NoError(t, err)
	assert.Equal(t, "COMPLETED", out.Status)
}

// 既に完了した決済への成功通知は拒否される。
func TestPaymentUsecase_ProcessSimulated_AlreadyCompleted(t *testing.T) {
	ordersRepo := new(OrderRepoMock)
	paymentsRepo := new(PaymentRepoMock)

	uc := newPaymentUsecaseForTest(&TxReposMock{
		orders:   ordersRepo,
		payments: paymentsRepo,
	}, paymentsRepo, ordersRepo)

	payment := model.Payment{ID: 9, OrderID: 77, Status: model.PaymentStatusCompleted}
	order := model.Order{ID: 77, UserID: 1, Status: model.OrderStatusPaid}

	paymentsRepo.On("FindByID", mock.Anything, int64(9)).Return(payment, nil)
	ordersRepo.On("LockByID", mock.Anything, int64(77)).Return(order, nil)
	paymentsRepo.On("LockByID", mock.Anything, int64(9)).Return(payment, nil)

	_, err := uc.ProcessSimulated(context.Background(), 1, 9, true, false)

	var transition *usecase.InvalidTransitionError
	assert.ErrorAs(t, err, &transition)
	assert.Equal(t, "COMPLETED", transition.From)
}

// 失敗の再通知はエラーにしない（同じ結果を返すだけ）。
func TestPaymentUsecase_ProcessSimulated_FailureTwiceIsNoOp(t *testing.T) {
	ordersRepo := new(OrderRepoMock)
	paymentsRepo := new(PaymentRepoMock)

	uc := newPaymentUsecaseForTest(&TxReposMock{
		orders:   ordersRepo,
		payments: paymentsRepo,
	}, paymentsRepo, ordersRepo)

	payment := model.Payment{ID: 9, OrderID: 77, Status: model.PaymentStatusFailed}
	order := model.Order{ID: 77, UserID: 1, Status: model.OrderStatusPendingPayment}

	paymentsRepo.On("FindByID", mock.Anything, int64(9)).Return(payment, nil)
	ordersRepo.On("LockByID", mock.Anything, int64(77)).Return(order, nil)
	paymentsRepo.On("LockByID", mock.Anything, int64(9)).Return(payment, nil)

	out, err := uc.ProcessSimulated(context.Background(), 1, 9, false, false)
	assert.NoError(t, err)
	assert.Equal(t, "FAILED", out.Status)

	paymentsRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

// 他人の決済は存在しない扱い。
func TestPaymentUsecase_ProcessSimulated_NotOwner(t *testing.T) {
	ordersRepo := new(OrderRepoMock)
	paymentsRepo := new(PaymentRepoMock)

	uc := newPaymentUsecaseForTest(&TxReposMock{
		orders:   ordersRepo,
		payments: paymentsRepo,
	}, paymentsRepo, ordersRepo)

	paymentsRepo.On("FindByID", mock.Anything, int64(9)).Return(model.Payment{
		ID: 9, OrderID: 77, Status: model.PaymentStatusPending,
	}, nil)
	ordersRepo.On("LockByID", mock.Anything, int64(77)).Return(model.Order{
		ID: 77, UserID: 2, Status: model.OrderStatusPendingPayment,
	}, nil)

	_, err := uc.ProcessSimulated(context.Background(), 1, 9, true, false)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

// =====================
// Get / UpdateStatus tests
// =====================

func TestPaymentUsecase_Get_OwnerOK(t *testing.T) {
	ordersRepo := new(OrderRepoMock)
	paymentsRepo := new(PaymentRepoMock)
	uc := newPaymentUsecaseForTest(&TxReposMock{}, paymentsRepo, ordersRepo)

	paymentsRepo.On("FindByID", mock.Anything, int64(9)).Return(model.Payment{
		ID: 9, OrderID: 77, Status: model.PaymentStatusPending, Amount: 500,
	}, nil)
	ordersRepo.On("FindByID", mock.Anything, int64(77)).Return(model.Order{
		ID: 77, UserID: 1,
	}, nil)

	out, err := uc.Get(context.Background(), 1, 9, false)
	assert.NoError(t, err)
	assert.Equal(t, int64(500), out.Amount)
}

func TestPaymentUsecase_Get_NotOwner(t *testing.T) {
	ordersRepo := new(OrderRepoMock)
	paymentsRepo := new(PaymentRepoMock)
	uc := newPaymentUsecaseForTest(&TxReposMock{}, paymentsRepo, ordersRepo)

	paymentsRepo.On("FindByID", mock.Anything, int64(9)).Return(model.Payment{
		ID: 9, OrderID: 77,
	}, nil)
	ordersRepo.On("FindByID", mock.Anything, int64(77)).Return(model.Order{
		ID: 77, UserID: 2,
	}, nil)

	_, err := uc.Get(context.Background(), 1, 9, false)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestPaymentUsecase_UpdateStatus_RefundedIsTerminal(t *testing.T) {
	ordersRepo := new(OrderRepoMock)
	paymentsRepo := new(PaymentRepoMock)
	uc := newPaymentUsecaseForTest(&TxReposMock{
		orders:   ordersRepo,
		payments: paymentsRepo,
	}, paymentsRepo, ordersRepo)

	paymentsRepo.On("LockByID", mock.Anything, int64(9)).Return(model.Payment{
		ID: 9, Status: model.PaymentStatusRefunded,
	}, nil)

	_, err := uc.UpdateStatus(context.Background(), 9, model.PaymentStatusCompleted)

	var transition *usecase.InvalidTransitionError
	assert.ErrorAs(t, err, &transition)
}
