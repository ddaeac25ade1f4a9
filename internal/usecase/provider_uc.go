// File: internal/usecase/provider_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/adapter"
	"smm-panel/internal/domain/ports/repository"
)

// ProviderBalance is one row of the admin balance overview.
type ProviderBalance struct {
	Provider *model.Provider
	Balance  float64
	Err      string // non-empty when the panel could not be reached
}

// AdapterFactory resolves a provider record to a concrete panel adapter.
type AdapterFactory interface {
	For(p *model.Provider) adapter.SMMProvider
}

// ProviderUseCase covers admin diagnostics against upstream panels. Balance
// and catalog lookups degrade gracefully: an unreachable panel yields an
// empty result with the error recorded, never a failed request.
type ProviderUseCase interface {
	List(ctx context.Context) ([]*model.Provider, error)
	Save(ctx context.Context, p *model.Provider) error
	Balances(ctx context.Context) ([]ProviderBalance, error)
	Services(ctx context.Context, providerID string) ([]adapter.ProviderService, error)
}

var _ ProviderUseCase = (*providerUC)(nil)

type providerUC struct {
	providers repository.ProviderRepository
	factory   AdapterFactory
	log       *zerolog.Logger
}

func NewProviderUseCase(
	providers repository.ProviderRepository,
	factory AdapterFactory,
	logger *zerolog.Logger,
) ProviderUseCase {
	return &providerUC{providers: providers, factory: factory, log: logger}
}

func (u *providerUC) List(ctx context.Context) ([]*model.Provider, error) {
	return u.providers.ListActive(ctx, repository.NoTX)
}

func (u *providerUC) Save(ctx context.Context, p *model.Provider) error {
	return u.providers.Save(ctx, repository.NoTX, p)
}

func (u *providerUC) Balances(ctx context.Context) ([]ProviderBalance, error) {
	providers, err := u.providers.ListActive(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	out := make([]ProviderBalance, 0, len(providers))
	for _, p := range providers {
		row := ProviderBalance{Provider: p}
		bal, err := u.factory.For(p).GetBalance(ctx)
		if err != nil {
			u.log.Warn().Err(err).Str("provider", p.Slug).Msg("balance lookup failed")
			row.Err = err.Error()
		} else {
			row.Balance = bal
		}
		out = append(out, row)
	}
	return out, nil
}

func (u *providerUC) Services(ctx context.Context, providerID string) ([]adapter.ProviderService, error) {
	p, err := u.providers.FindByID(ctx, repository.NoTX, providerID)
	if err != nil {
		return nil, err
	}
	services, err := u.factory.For(p).GetServices(ctx)
	if err != nil {
		u.log.Warn().Err(err).Str("provider", p.Slug).Msg("service list failed")
		return []adapter.ProviderService{}, nil
	}
	return services, nil
}
