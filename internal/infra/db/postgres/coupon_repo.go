package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"smm-panel/internal/domain"
	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/repository"
)

var _ repository.CouponRepository = (*couponRepo)(nil)

type couponRepo struct{ pool *pgxpool.Pool }

func NewCouponRepo(pool *pgxpool.Pool) *couponRepo {
	return &couponRepo{pool: pool}
}

const couponColumns = `id, code, type, value::text, active, starts_at, expires_at, usage_limit, used_count, created_at`

func (r *couponRepo) Save(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	const q = `
INSERT INTO coupons (id, code, type, value, active, starts_at, expires_at, usage_limit, used_count, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  code=EXCLUDED.code, type=EXCLUDED.type, value=EXCLUDED.value, active=EXCLUDED.active,
  starts_at=EXCLUDED.starts_at, expires_at=EXCLUDED.expires_at,
  usage_limit=EXCLUDED.usage_limit, used_count=EXCLUDED.used_count;`
	_, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.Code, string(c.Type), c.Value, c.Active,
		c.StartsAt, c.ExpiresAt, c.UsageLimit, c.UsedCount, c.CreatedAt)
	return err
}

func (r *couponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+couponColumns+` FROM coupons WHERE lower(code)=lower($1);`, code)
	if err != nil {
		return nil, err
	}
	c := &model.Coupon{}
	var value string
	err = row.Scan(&c.ID, &c.Code, &c.Type, &value, &c.Active,
		&c.StartsAt, &c.ExpiresAt, &c.UsageLimit, &c.UsedCount, &c.CreatedAt)
	if err != nil {
		return nil, scanErr(err)
	}
	if c.Value, err = decimal.NewFromString(value); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}

// IncrementUsage is the only write path for used_count; the WHERE clause
// enforces the limit at the database so concurrent checkouts cannot
// over-consume a limited coupon.
func (r *couponRepo) IncrementUsage(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `
UPDATE coupons SET used_count = used_count + 1
WHERE id=$1 AND active AND (usage_limit = 0 OR used_count < usage_limit);`
	ct, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
