//go:build !integration

package postgres

import (
	"context"
	"time"

	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/repository"
	red "smm-panel/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerServiceRepo mocks the database repository that the Service decorator wraps.
type mockInnerServiceRepo struct {
	SaveFunc       func(ctx context.Context, tx repository.Tx, s *model.Service) error
	FindByIDFunc   func(ctx context.Context, tx repository.Tx, id string) (*model.Service, error)
	ListActiveFunc func(ctx context.Context, tx repository.Tx) ([]*model.Service, error)
}

func (m *mockInnerServiceRepo) Save(ctx context.Context, tx repository.Tx, s *model.Service) error {
	return m.SaveFunc(ctx, tx, s)
}
func (m *mockInnerServiceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Service, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerServiceRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Service, error) {
	return m.ListActiveFunc(ctx, tx)
}

// mockInnerPackageRepo mocks the database repository that the Package decorator wraps.
type mockInnerPackageRepo struct {
	SaveFunc          func(ctx context.Context, tx repository.Tx, p *model.Package) error
	FindByIDFunc      func(ctx context.Context, tx repository.Tx, id string) (*model.Package, error)
	ListByServiceFunc func(ctx context.Context, tx repository.Tx, serviceID string) ([]*model.Package, error)
}

func (m *mockInnerPackageRepo) Save(ctx context.Context, tx repository.Tx, p *model.Package) error {
	return m.SaveFunc(ctx, tx, p)
}
func (m *mockInnerPackageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Package, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerPackageRepo) ListByService(ctx context.Context, tx repository.Tx, serviceID string) ([]*model.Package, error) {
	return m.ListByServiceFunc(ctx, tx, serviceID)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc  func(ctx context.Context, key string) (string, error)
	SetFunc  func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc  func(ctx context.Context, keys ...string) error
	PingFunc func(ctx context.Context) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Close() error                   { return nil }
