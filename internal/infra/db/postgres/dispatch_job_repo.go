package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"smm-panel/internal/domain"
	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/repository"
)

var _ repository.DispatchJobRepository = (*dispatchJobRepo)(nil)

type dispatchJobRepo struct{ pool *pgxpool.Pool }

func NewDispatchJobRepo(pool *pgxpool.Pool) *dispatchJobRepo {
	return &dispatchJobRepo{pool: pool}
}

const dispatchJobColumns = `id, order_id, status, attempts, next_attempt_at, last_error, created_at, updated_at`

// Enqueue inserts a pending job unless the order already has an open one.
// The partial unique index on (order_id) WHERE status IN ('pending','processing')
// makes the collapse atomic; a conflicting insert is simply a no-op.
func (r *dispatchJobRepo) Enqueue(ctx context.Context, tx repository.Tx, orderID string) error {
	const q = `
INSERT INTO dispatch_jobs (id, order_id, status, attempts, next_attempt_at, last_error, created_at, updated_at)
VALUES ($1, $2, 'pending', 0, now(), '', now(), now())
ON CONFLICT (order_id) WHERE status IN ('pending','processing') DO NOTHING;`
	_, err := execSQL(ctx, r.pool, tx, q, domain.NewUUID(), orderID)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil
	}
	return err
}

// ClaimDue picks the oldest due pending job and flips it to processing in one
// transaction. SKIP LOCKED keeps concurrent workers off each other's rows.
func (r *dispatchJobRepo) ClaimDue(ctx context.Context, now time.Time) (*model.DispatchJob, error) {
	txn, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = txn.Rollback(ctx) }()

	const sel = `
SELECT ` + dispatchJobColumns + `
FROM dispatch_jobs
WHERE status='pending' AND next_attempt_at <= $1
ORDER BY next_attempt_at ASC
LIMIT 1
FOR UPDATE SKIP LOCKED;`
	job, err := scanDispatchJob(txn.QueryRow(ctx, sel, now))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const upd = `UPDATE dispatch_jobs SET status='processing', updated_at=now() WHERE id=$1;`
	if _, err := txn.Exec(ctx, upd, job.ID); err != nil {
		return nil, err
	}
	if err := txn.Commit(ctx); err != nil {
		return nil, err
	}
	job.Status = model.DispatchJobProcessing
	return job, nil
}

func (r *dispatchJobRepo) Reschedule(ctx context.Context, tx repository.Tx, id string, attempts int, next time.Time, lastErr string) error {
	const q = `
UPDATE dispatch_jobs
SET status='pending', attempts=$2, next_attempt_at=$3, last_error=$4, updated_at=now()
WHERE id=$1 AND status='processing';`
	ct, err := execSQL(ctx, r.pool, tx, q, id, attempts, next, lastErr)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *dispatchJobRepo) Finish(ctx context.Context, tx repository.Tx, id string, status model.DispatchJobStatus, lastErr string) error {
	const q = `
UPDATE dispatch_jobs
SET status=$2, last_error=$3, updated_at=now()
WHERE id=$1 AND status='processing';`
	ct, err := execSQL(ctx, r.pool, tx, q, id, string(status), lastErr)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *dispatchJobRepo) ListFailed(ctx context.Context, tx repository.Tx, limit int) ([]*model.DispatchJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := queryRows(ctx, r.pool, tx,
		`SELECT `+dispatchJobColumns+` FROM dispatch_jobs WHERE status='failed' ORDER BY updated_at ASC LIMIT $1;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.DispatchJob
	for rows.Next() {
		j, err := scanDispatchJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func scanDispatchJob(row pgx.Row) (*model.DispatchJob, error) {
	j := &model.DispatchJob{}
	err := row.Scan(&j.ID, &j.OrderID, &j.Status, &j.Attempts, &j.NextAttemptAt, &j.LastError, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, scanErr(err)
	}
	return j, nil
}
