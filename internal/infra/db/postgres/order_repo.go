package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"smm-panel/internal/domain"
	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/repository"
)

var _ repository.OrderRepository = (*orderRepo)(nil)

type orderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepo(pool *pgxpool.Pool) *orderRepo {
	return &orderRepo{pool: pool}
}

// Monetary columns are cast to text on read and parsed into decimals; pgx
// encodes decimal.Decimal on write through the driver.Valuer fallback.
const orderColumns = `id, order_number, package_id, service_id, quantity, links,
 amount::text, discount::text, currency, coupon_id, user_id, guest_email,
 status, payment_status, provider_order_id, provider_response,
 start_count, current_count, created_at, updated_at, completed_at`

func (r *orderRepo) Save(ctx context.Context, tx repository.Tx, o *model.Order) error {
	links, err := json.Marshal(o.Links)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO orders (
  id, order_number, package_id, service_id, quantity, links,
  amount, discount, currency, coupon_id, user_id, guest_email,
  status, payment_status, provider_order_id, provider_response,
  start_count, current_count, created_at, updated_at, completed_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21
) ON CONFLICT (id) DO UPDATE SET
  status=EXCLUDED.status, payment_status=EXCLUDED.payment_status,
  provider_order_id=EXCLUDED.provider_order_id, provider_response=EXCLUDED.provider_response,
  start_count=EXCLUDED.start_count, current_count=EXCLUDED.current_count,
  updated_at=EXCLUDED.updated_at, completed_at=EXCLUDED.completed_at;`

	_, err = execSQL(ctx, r.pool, tx, q,
		o.ID, o.OrderNumber, o.PackageID, o.ServiceID, o.Quantity, links,
		o.Amount, o.Discount, o.Currency, o.CouponID, o.UserID, o.GuestEmail,
		o.Status, o.PaymentStatus, o.ProviderOrderID, o.ProviderResponse,
		o.StartCount, o.CurrentCount, o.CreatedAt, o.UpdatedAt, o.CompletedAt)
	return err
}

// Create inserts a new order. An order_number collision reports
// domain.ErrAlreadyExists through DO NOTHING instead of a unique violation,
// so the surrounding transaction stays usable for the caller's retry.
func (r *orderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	links, err := json.Marshal(o.Links)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO orders (
  id, order_number, package_id, service_id, quantity, links,
  amount, discount, currency, coupon_id, user_id, guest_email,
  status, payment_status, provider_order_id, provider_response,
  start_count, current_count, created_at, updated_at, completed_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21
) ON CONFLICT (order_number) DO NOTHING;`

	tag, err := execSQL(ctx, r.pool, tx, q,
		o.ID, o.OrderNumber, o.PackageID, o.ServiceID, o.Quantity, links,
		o.Amount, o.Discount, o.Currency, o.CouponID, o.UserID, o.GuestEmail,
		o.Status, o.PaymentStatus, o.ProviderOrderID, o.ProviderResponse,
		o.StartCount, o.CurrentCount, o.CreatedAt, o.UpdatedAt, o.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+orderColumns+` FROM orders WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanOrder(row)
}

func (r *orderRepo) FindByNumber(ctx context.Context, tx repository.Tx, number string) (*model.Order, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+orderColumns+` FROM orders WHERE order_number=$1;`, number)
	if err != nil {
		return nil, err
	}
	return scanOrder(row)
}

func (r *orderRepo) ConfirmPaymentIfPending(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `
UPDATE orders
   SET payment_status = 'completed', updated_at = NOW()
 WHERE id = $1
   AND payment_status IN ('pending','processing');`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() >= 1, nil
}

// MarkDispatched only fires while provider_order_id is unset and the order is
// still pending, so a retried dispatch task can never double-submit upstream
// and a canceled order is never dispatched.
func (r *orderRepo) MarkDispatched(ctx context.Context, tx repository.Tx, id, providerOrderID string, raw []byte) (bool, error) {
	const q = `
UPDATE orders
   SET provider_order_id = $2, provider_response = $3,
       status = 'processing', updated_at = NOW()
 WHERE id = $1
   AND provider_order_id IS NULL
   AND status = 'pending';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, providerOrderID, raw)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() >= 1, nil
}

func (r *orderRepo) UpdateProgress(ctx context.Context, tx repository.Tx, id string, startCount, currentCount *int, newStatus *model.OrderStatus, completedAt *time.Time) error {
	const q = `
UPDATE orders
   SET start_count = COALESCE($2, start_count),
       current_count = COALESCE($3, current_count),
       status = COALESCE($4, status),
       completed_at = COALESCE($5, completed_at),
       updated_at = NOW()
 WHERE id = $1
   AND status NOT IN ('completed','canceled','refunded');`
	var st *string
	if newStatus != nil {
		s := string(*newStatus)
		st = &s
	}
	_, err := execSQL(ctx, r.pool, tx, q, id, startCount, currentCount, st, completedAt)
	return err
}

func (r *orderRepo) RecordDispatchFailure(ctx context.Context, tx repository.Tx, id string, raw []byte) error {
	const q = `UPDATE orders SET provider_response = $2, updated_at = NOW() WHERE id = $1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, raw)
	return err
}

func (r *orderRepo) SetStatus(ctx context.Context, tx repository.Tx, id string, from, to model.OrderStatus) (bool, error) {
	const q = `UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(from), string(to))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() >= 1, nil
}

func (r *orderRepo) ListForReconciliation(ctx context.Context, tx repository.Tx, limit int) ([]*model.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	// Oldest first: FIFO fairness keeps new orders from starving old ones.
	const q = `
SELECT ` + orderColumns + `
  FROM orders
 WHERE provider_order_id IS NOT NULL
   AND status IN ('processing','in_progress')
   AND payment_status = 'completed'
 ORDER BY created_at ASC
 LIMIT $1;`
	return r.list(ctx, tx, q, limit)
}

func (r *orderRepo) ListByOwner(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2;`
	return r.list(ctx, tx, q, userID, limit)
}

func (r *orderRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Order, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	var links []byte
	var amount, discount string
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.PackageID, &o.ServiceID, &o.Quantity, &links,
		&amount, &discount, &o.Currency, &o.CouponID, &o.UserID, &o.GuestEmail,
		&o.Status, &o.PaymentStatus, &o.ProviderOrderID, &o.ProviderResponse,
		&o.StartCount, &o.CurrentCount, &o.CreatedAt, &o.UpdatedAt, &o.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if err := json.Unmarshal(links, &o.Links); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if o.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if o.Discount, err = decimal.NewFromString(discount); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return o, nil
}
