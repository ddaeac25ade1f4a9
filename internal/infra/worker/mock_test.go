package worker

import (
	"context"
	"time"

	"smm-panel/internal/domain"
	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/adapter"
	"smm-panel/internal/domain/ports/repository"
	"smm-panel/internal/usecase"
)

type mockJobRepo struct {
	EnqueueFunc    func(ctx context.Context, tx repository.Tx, orderID string) error
	ClaimDueFunc   func(ctx context.Context, now time.Time) (*model.DispatchJob, error)
	RescheduleFunc func(ctx context.Context, tx repository.Tx, id string, attempts int, next time.Time, lastErr string) error
	FinishFunc     func(ctx context.Context, tx repository.Tx, id string, status model.DispatchJobStatus, lastErr string) error
	ListFailedFunc func(ctx context.Context, tx repository.Tx, limit int) ([]*model.DispatchJob, error)
}

func (m *mockJobRepo) Enqueue(ctx context.Context, tx repository.Tx, orderID string) error {
	return m.EnqueueFunc(ctx, tx, orderID)
}
func (m *mockJobRepo) ClaimDue(ctx context.Context, now time.Time) (*model.DispatchJob, error) {
	return m.ClaimDueFunc(ctx, now)
}
func (m *mockJobRepo) Reschedule(ctx context.Context, tx repository.Tx, id string, attempts int, next time.Time, lastErr string) error {
	return m.RescheduleFunc(ctx, tx, id, attempts, next, lastErr)
}
func (m *mockJobRepo) Finish(ctx context.Context, tx repository.Tx, id string, status model.DispatchJobStatus, lastErr string) error {
	return m.FinishFunc(ctx, tx, id, status, lastErr)
}
func (m *mockJobRepo) ListFailed(ctx context.Context, tx repository.Tx, limit int) ([]*model.DispatchJob, error) {
	return m.ListFailedFunc(ctx, tx, limit)
}

type mockOrderUC struct {
	usecase.OrderUseCase

	GetByIDFunc               func(ctx context.Context, orderID string) (*model.Order, error)
	MarkDispatchedFunc        func(ctx context.Context, orderID, providerOrderID string, raw []byte) (*model.Order, error)
	RecordDispatchFailureFunc func(ctx context.Context, orderID string, raw []byte) error
}

func (m *mockOrderUC) GetByID(ctx context.Context, orderID string) (*model.Order, error) {
	return m.GetByIDFunc(ctx, orderID)
}
func (m *mockOrderUC) MarkDispatched(ctx context.Context, orderID, providerOrderID string, raw []byte) (*model.Order, error) {
	return m.MarkDispatchedFunc(ctx, orderID, providerOrderID, raw)
}
func (m *mockOrderUC) RecordDispatchFailure(ctx context.Context, orderID string, raw []byte) error {
	return m.RecordDispatchFailureFunc(ctx, orderID, raw)
}

type mockPackageRepo struct {
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Package, error)
}

func (m *mockPackageRepo) Save(ctx context.Context, tx repository.Tx, p *model.Package) error {
	return domain.ErrOperationFailed
}
func (m *mockPackageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Package, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockPackageRepo) ListByService(ctx context.Context, tx repository.Tx, serviceID string) ([]*model.Package, error) {
	return nil, domain.ErrOperationFailed
}

type mockProviderRepo struct {
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Provider, error)
}

func (m *mockProviderRepo) Save(ctx context.Context, tx repository.Tx, p *model.Provider) error {
	return domain.ErrOperationFailed
}
func (m *mockProviderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Provider, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockProviderRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Provider, error) {
	return nil, domain.ErrOperationFailed
}

type mockPanel struct {
	CreateOrderFunc func(ctx context.Context, serviceID, link string, quantity int) (adapter.ProviderOrder, error)
}

func (m *mockPanel) Name() string { return "mock" }
func (m *mockPanel) CreateOrder(ctx context.Context, serviceID, link string, quantity int) (adapter.ProviderOrder, error) {
	return m.CreateOrderFunc(ctx, serviceID, link, quantity)
}
func (m *mockPanel) GetOrderStatus(ctx context.Context, providerOrderID string) (adapter.ProviderStatus, error) {
	return adapter.ProviderStatus{}, domain.ErrOperationFailed
}
func (m *mockPanel) GetBalance(ctx context.Context) (float64, error) {
	return 0, domain.ErrOperationFailed
}
func (m *mockPanel) GetServices(ctx context.Context) ([]adapter.ProviderService, error) {
	return nil, domain.ErrOperationFailed
}

type mockFactory struct {
	panel adapter.SMMProvider
}

func (m *mockFactory) For(p *model.Provider) adapter.SMMProvider { return m.panel }
