package repository

import (
	"context"

	"smm-panel/internal/domain/model"
)

// ServiceRepository is the port for service (category) persistence.
type ServiceRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Service) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Service, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Service, error)
}

// PackageRepository is the port for package (tier) persistence.
type PackageRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Package) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Package, error)
	ListByService(ctx context.Context, tx Tx, serviceID string) ([]*model.Package, error)
}
