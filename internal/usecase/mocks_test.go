//go:build !integration

package usecase_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"

	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/adapter"
	"smm-panel/internal/domain/ports/repository"
	"smm-panel/internal/usecase"
)

// Func-field mocks: tests set only the methods a case exercises.

type mockOrderRepo struct {
	repository.OrderRepository
	CreateFunc                  func(ctx context.Context, tx repository.Tx, o *model.Order) error
	SaveFunc                    func(ctx context.Context, tx repository.Tx, o *model.Order) error
	FindByIDFunc                func(ctx context.Context, tx repository.Tx, id string) (*model.Order, error)
	FindByNumberFunc            func(ctx context.Context, tx repository.Tx, number string) (*model.Order, error)
	ConfirmPaymentIfPendingFunc func(ctx context.Context, tx repository.Tx, id string) (bool, error)
	MarkDispatchedFunc          func(ctx context.Context, tx repository.Tx, id, providerOrderID string, raw []byte) (bool, error)
	UpdateProgressFunc          func(ctx context.Context, tx repository.Tx, id string, startCount, currentCount *int, newStatus *model.OrderStatus, completedAt *time.Time) error
	RecordDispatchFailureFunc   func(ctx context.Context, tx repository.Tx, id string, raw []byte) error
	SetStatusFunc               func(ctx context.Context, tx repository.Tx, id string, from, to model.OrderStatus) (bool, error)
}

func (m *mockOrderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	return m.CreateFunc(ctx, tx, o)
}
func (m *mockOrderRepo) Save(ctx context.Context, tx repository.Tx, o *model.Order) error {
	return m.SaveFunc(ctx, tx, o)
}
func (m *mockOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockOrderRepo) FindByNumber(ctx context.Context, tx repository.Tx, number string) (*model.Order, error) {
	return m.FindByNumberFunc(ctx, tx, number)
}
func (m *mockOrderRepo) ConfirmPaymentIfPending(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	return m.ConfirmPaymentIfPendingFunc(ctx, tx, id)
}
func (m *mockOrderRepo) MarkDispatched(ctx context.Context, tx repository.Tx, id, providerOrderID string, raw []byte) (bool, error) {
	return m.MarkDispatchedFunc(ctx, tx, id, providerOrderID, raw)
}
func (m *mockOrderRepo) UpdateProgress(ctx context.Context, tx repository.Tx, id string, startCount, currentCount *int, newStatus *model.OrderStatus, completedAt *time.Time) error {
	return m.UpdateProgressFunc(ctx, tx, id, startCount, currentCount, newStatus, completedAt)
}
func (m *mockOrderRepo) RecordDispatchFailure(ctx context.Context, tx repository.Tx, id string, raw []byte) error {
	return m.RecordDispatchFailureFunc(ctx, tx, id, raw)
}
func (m *mockOrderRepo) SetStatus(ctx context.Context, tx repository.Tx, id string, from, to model.OrderStatus) (bool, error) {
	return m.SetStatusFunc(ctx, tx, id, from, to)
}

type mockPackageRepo struct {
	repository.PackageRepository
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Package, error)
}

func (m *mockPackageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Package, error) {
	return m.FindByIDFunc(ctx, tx, id)
}

type mockServiceRepo struct {
	repository.ServiceRepository
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Service, error)
}

func (m *mockServiceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Service, error) {
	return m.FindByIDFunc(ctx, tx, id)
}

type mockCouponRepo struct {
	repository.CouponRepository
	FindByCodeFunc     func(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error)
	IncrementUsageFunc func(ctx context.Context, tx repository.Tx, id string) (bool, error)
}

func (m *mockCouponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	return m.FindByCodeFunc(ctx, tx, code)
}
func (m *mockCouponRepo) IncrementUsage(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	return m.IncrementUsageFunc(ctx, tx, id)
}

type mockJobRepo struct {
	repository.DispatchJobRepository
	EnqueueFunc func(ctx context.Context, tx repository.Tx, orderID string) error
}

func (m *mockJobRepo) Enqueue(ctx context.Context, tx repository.Tx, orderID string) error {
	return m.EnqueueFunc(ctx, tx, orderID)
}

type mockPaymentRepo struct {
	repository.PaymentRepository
	SaveFunc           func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	FindByIntentIDFunc func(ctx context.Context, tx repository.Tx, provider, intentID string) (*model.Payment, error)
	UpdateStatusFunc   func(ctx context.Context, tx repository.Tx, id string, status model.PaymentAttemptStatus, paidAt *time.Time) error
}

func (m *mockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	return m.SaveFunc(ctx, tx, p)
}
func (m *mockPaymentRepo) FindByIntentID(ctx context.Context, tx repository.Tx, provider, intentID string) (*model.Payment, error) {
	return m.FindByIntentIDFunc(ctx, tx, provider, intentID)
}
func (m *mockPaymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentAttemptStatus, paidAt *time.Time) error {
	return m.UpdateStatusFunc(ctx, tx, id, status, paidAt)
}

// mockTxManager runs the function inline without a real transaction.
type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

type mockGateway struct {
	NameVal           string
	CreateIntentFunc  func(ctx context.Context, amount decimal.Decimal, currency, orderNumber string, meta map[string]string) (adapter.Intent, error)
	VerifyWebhookFunc func(payload []byte, signature string) (adapter.WebhookEvent, error)
}

func (m *mockGateway) Name() string { return m.NameVal }
func (m *mockGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, currency, orderNumber string, meta map[string]string) (adapter.Intent, error) {
	return m.CreateIntentFunc(ctx, amount, currency, orderNumber, meta)
}
func (m *mockGateway) VerifyWebhook(payload []byte, signature string) (adapter.WebhookEvent, error) {
	return m.VerifyWebhookFunc(payload, signature)
}

type mockOrderUC struct {
	usecase.OrderUseCase
	ConfirmPaymentFunc func(ctx context.Context, orderID string) (*model.Order, string, error)
}

func (m *mockOrderUC) ConfirmPayment(ctx context.Context, orderID string) (*model.Order, string, error) {
	return m.ConfirmPaymentFunc(ctx, orderID)
}

type mockPricing struct {
	QuoteFunc func(ctx context.Context, packageID string, quantity int, couponCode string) (*usecase.Quote, error)
}

func (m *mockPricing) Quote(ctx context.Context, packageID string, quantity int, couponCode string) (*usecase.Quote, error) {
	return m.QuoteFunc(ctx, packageID, quantity, couponCode)
}
