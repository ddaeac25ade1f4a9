package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/repository"
	"smm-panel/internal/infra/metrics"
	red "smm-panel/internal/infra/redis"
)

var (
	_ repository.ServiceRepository = (*serviceRepoCacheDecorator)(nil)
	_ repository.PackageRepository = (*packageRepoCacheDecorator)(nil)
)

// The catalog is read on every quote and order, and changes only through the
// admin surface, so both repos get a read-through cache with write
// invalidation.

type serviceRepoCacheDecorator struct {
	inner repository.ServiceRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewServiceRepoCacheDecorator(inner repository.ServiceRepository, cache red.RedisClient, ttl time.Duration) repository.ServiceRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &serviceRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *serviceRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, s *model.Service) error {
	d.cache.Del(ctx, fmt.Sprintf("service:%s", s.ID), "services:active")
	return d.inner.Save(ctx, tx, s)
}

func (d *serviceRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Service, error) {
	key := fmt.Sprintf("service:%s", id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("service", "hit")
		var s model.Service
		if json.Unmarshal([]byte(val), &s) == nil {
			return &s, nil
		}
	}

	metrics.IncCacheRequest("service", "miss")
	s, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if s != nil {
		bytes, _ := json.Marshal(s)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return s, nil
}

func (d *serviceRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Service, error) {
	key := "services:active"
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("service_list", "hit")
		var ss []*model.Service
		if json.Unmarshal([]byte(val), &ss) == nil {
			return ss, nil
		}
	}

	metrics.IncCacheRequest("service_list", "miss")
	ss, err := d.inner.ListActive(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(ss) > 0 {
		bytes, _ := json.Marshal(ss)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return ss, nil
}

type packageRepoCacheDecorator struct {
	inner repository.PackageRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPackageRepoCacheDecorator(inner repository.PackageRepository, cache red.RedisClient, ttl time.Duration) repository.PackageRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &packageRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *packageRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.Package) error {
	d.cache.Del(ctx,
		fmt.Sprintf("package:%s", p.ID),
		fmt.Sprintf("packages:service:%s", p.ServiceID))
	return d.inner.Save(ctx, tx, p)
}

func (d *packageRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Package, error) {
	key := fmt.Sprintf("package:%s", id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("package", "hit")
		var p model.Package
		if json.Unmarshal([]byte(val), &p) == nil {
			return &p, nil
		}
	}
	metrics.IncCacheRequest("package", "miss")
	p, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if p != nil {
		bytes, _ := json.Marshal(p)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return p, nil
}

func (d *packageRepoCacheDecorator) ListByService(ctx context.Context, tx repository.Tx, serviceID string) ([]*model.Package, error) {
	key := fmt.Sprintf("packages:service:%s", serviceID)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("package_list", "hit")
		var ps []*model.Package
		if json.Unmarshal([]byte(val), &ps) == nil {
			return ps, nil
		}
	}

	metrics.IncCacheRequest("package_list", "miss")
	ps, err := d.inner.ListByService(ctx, tx, serviceID)
	if err != nil {
		return nil, err
	}
	if len(ps) > 0 {
		bytes, _ := json.Marshal(ps)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return ps, nil
}
