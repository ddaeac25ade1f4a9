package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"smm-panel/internal/domain"
	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/repository"
)

var _ repository.ProviderRepository = (*providerRepo)(nil)

type providerRepo struct{ pool *pgxpool.Pool }

func NewProviderRepo(pool *pgxpool.Pool) *providerRepo {
	return &providerRepo{pool: pool}
}

const providerColumns = `id, name, slug, api_url, api_key, active, settings, created_at, updated_at`

func (r *providerRepo) Save(ctx context.Context, tx repository.Tx, p *model.Provider) error {
	settings, err := json.Marshal(p.Settings)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO providers (id, name, slug, api_url, api_key, active, settings, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name, slug=EXCLUDED.slug, api_url=EXCLUDED.api_url, api_key=EXCLUDED.api_key,
  active=EXCLUDED.active, settings=EXCLUDED.settings, updated_at=EXCLUDED.updated_at;`
	_, err = execSQL(ctx, r.pool, tx, q,
		p.ID, p.Name, p.Slug, p.APIURL, p.APIKey, p.Active, settings, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *providerRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Provider, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+providerColumns+` FROM providers WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanProvider(row)
}

func (r *providerRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Provider, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+providerColumns+` FROM providers WHERE active ORDER BY name;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProvider(row pgx.Row) (*model.Provider, error) {
	p := &model.Provider{}
	var settings []byte
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.APIURL, &p.APIKey, &p.Active, &settings, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, scanErr(err)
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &p.Settings); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return p, nil
}
