// File: internal/usecase/catalog_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/repository"
)

// CatalogUseCase serves the public storefront catalog and admin catalog
// writes. The read path is expected to sit behind the repository cache
// decorator so storefront traffic rarely touches Postgres.
type CatalogUseCase interface {
	ListServices(ctx context.Context) ([]*model.Service, error)
	ListPackages(ctx context.Context, serviceID string) ([]*model.Package, error)
	GetPackage(ctx context.Context, id string) (*model.Package, error)

	SaveService(ctx context.Context, s *model.Service) error
	SavePackage(ctx context.Context, p *model.Package) error
}

var _ CatalogUseCase = (*catalogUC)(nil)

type catalogUC struct {
	services repository.ServiceRepository
	packages repository.PackageRepository
	log      *zerolog.Logger
}

func NewCatalogUseCase(
	services repository.ServiceRepository,
	packages repository.PackageRepository,
	logger *zerolog.Logger,
) CatalogUseCase {
	return &catalogUC{services: services, packages: packages, log: logger}
}

func (u *catalogUC) ListServices(ctx context.Context) ([]*model.Service, error) {
	return u.services.ListActive(ctx, repository.NoTX)
}

func (u *catalogUC) ListPackages(ctx context.Context, serviceID string) ([]*model.Package, error) {
	return u.packages.ListByService(ctx, repository.NoTX, serviceID)
}

func (u *catalogUC) GetPackage(ctx context.Context, id string) (*model.Package, error) {
	return u.packages.FindByID(ctx, repository.NoTX, id)
}

func (u *catalogUC) SaveService(ctx context.Context, s *model.Service) error {
	return u.services.Save(ctx, repository.NoTX, s)
}

func (u *catalogUC) SavePackage(ctx context.Context, p *model.Package) error {
	return u.packages.Save(ctx, repository.NoTX, p)
}
