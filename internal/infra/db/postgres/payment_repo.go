package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"smm-panel/internal/domain"
	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, order_id, provider, intent_id, amount::text, currency, status, meta, created_at, updated_at, paid_at`

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	meta, err := json.Marshal(p.Meta)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO payments (id, order_id, provider, intent_id, amount, currency, status, meta, created_at, updated_at, paid_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  status=EXCLUDED.status, meta=EXCLUDED.meta, updated_at=EXCLUDED.updated_at, paid_at=EXCLUDED.paid_at;`
	_, err = execSQL(ctx, r.pool, tx, q,
		p.ID, p.OrderID, p.Provider, p.IntentID, p.Amount, p.Currency,
		string(p.Status), meta, p.CreatedAt, p.UpdatedAt, p.PaidAt)
	return err
}

func (r *paymentRepo) FindByIntentID(ctx context.Context, tx repository.Tx, provider, intentID string) (*model.Payment, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT `+paymentColumns+` FROM payments WHERE provider=$1 AND intent_id=$2;`, provider, intentID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) ListByOrder(ctx context.Context, tx repository.Tx, orderID string) ([]*model.Payment, error) {
	rows, err := queryRows(ctx, r.pool, tx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id=$1 ORDER BY created_at;`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentAttemptStatus, paidAt *time.Time) error {
	const q = `UPDATE payments SET status=$2, paid_at=COALESCE($3, paid_at), updated_at=now() WHERE id=$1;`
	ct, err := execSQL(ctx, r.pool, tx, q, id, string(status), paidAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	var amount string
	var meta []byte
	err := row.Scan(&p.ID, &p.OrderID, &p.Provider, &p.IntentID, &amount, &p.Currency,
		&p.Status, &meta, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt)
	if err != nil {
		return nil, scanErr(err)
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &p.Meta); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return p, nil
}
