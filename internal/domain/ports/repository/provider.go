package repository

import (
	"context"

	"smm-panel/internal/domain/model"
)

// ProviderRepository is the port for upstream panel records.
type ProviderRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Provider) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Provider, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Provider, error)
}
