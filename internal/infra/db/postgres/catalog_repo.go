package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"smm-panel/internal/domain"
	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/repository"
)

var (
	_ repository.ServiceRepository = (*serviceRepo)(nil)
	_ repository.PackageRepository = (*packageRepo)(nil)
)

type serviceRepo struct{ pool *pgxpool.Pool }

func NewServiceRepo(pool *pgxpool.Pool) *serviceRepo {
	return &serviceRepo{pool: pool}
}

func (r *serviceRepo) Save(ctx context.Context, tx repository.Tx, s *model.Service) error {
	const q = `
INSERT INTO services (id, name, slug, type, active, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name, slug=EXCLUDED.slug, type=EXCLUDED.type, active=EXCLUDED.active;`
	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.Name, s.Slug, string(s.Type), s.Active, s.CreatedAt)
	return err
}

func (r *serviceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Service, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT id, name, slug, type, active, created_at FROM services WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	s := &model.Service{}
	if err := row.Scan(&s.ID, &s.Name, &s.Slug, &s.Type, &s.Active, &s.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	return s, nil
}

func (r *serviceRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Service, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT id, name, slug, type, active, created_at FROM services WHERE active ORDER BY name;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Service
	for rows.Next() {
		s := &model.Service{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.Type, &s.Active, &s.CreatedAt); err != nil {
			return nil, scanErr(err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type packageRepo struct{ pool *pgxpool.Pool }

func NewPackageRepo(pool *pgxpool.Pool) *packageRepo {
	return &packageRepo{pool: pool}
}

const packageColumns = `id, service_id, name, price::text, currency, min_quantity, max_quantity,
 refill_enabled, refill_days, provider_id, provider_service_id, active, created_at`

func (r *packageRepo) Save(ctx context.Context, tx repository.Tx, p *model.Package) error {
	const q = `
INSERT INTO packages (
  id, service_id, name, price, currency, min_quantity, max_quantity,
  refill_enabled, refill_days, provider_id, provider_service_id, active, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  service_id=EXCLUDED.service_id, name=EXCLUDED.name, price=EXCLUDED.price,
  currency=EXCLUDED.currency, min_quantity=EXCLUDED.min_quantity, max_quantity=EXCLUDED.max_quantity,
  refill_enabled=EXCLUDED.refill_enabled, refill_days=EXCLUDED.refill_days,
  provider_id=EXCLUDED.provider_id, provider_service_id=EXCLUDED.provider_service_id,
  active=EXCLUDED.active;`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.ServiceID, p.Name, p.Price, p.Currency, p.MinQuantity, p.MaxQuantity,
		p.RefillEnabled, p.RefillDays, p.ProviderID, p.ProviderServiceID, p.Active, p.CreatedAt)
	return err
}

func (r *packageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Package, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+packageColumns+` FROM packages WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanPackage(row)
}

func (r *packageRepo) ListByService(ctx context.Context, tx repository.Tx, serviceID string) ([]*model.Package, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+packageColumns+` FROM packages WHERE service_id=$1 AND active ORDER BY min_quantity;`, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPackage(row pgx.Row) (*model.Package, error) {
	p := &model.Package{}
	var price string
	err := row.Scan(
		&p.ID, &p.ServiceID, &p.Name, &price, &p.Currency, &p.MinQuantity, &p.MaxQuantity,
		&p.RefillEnabled, &p.RefillDays, &p.ProviderID, &p.ProviderServiceID, &p.Active, &p.CreatedAt,
	)
	if err != nil {
		return nil, scanErr(err)
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
