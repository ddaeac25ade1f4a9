package repository

import (
	"context"
	"time"

	"smm-panel/internal/domain/model"
)

// DispatchJobRepository is the port for the dispatch queue.
type DispatchJobRepository interface {
	// Enqueue creates a pending job for the order; duplicate enqueues for
	// the same order collapse into the existing open job.
	Enqueue(ctx context.Context, tx Tx, orderID string) error

	// ClaimDue atomically fetches one due pending job and marks it
	// processing, so no other worker can pick it up.
	ClaimDue(ctx context.Context, now time.Time) (*model.DispatchJob, error)

	// Reschedule puts a claimed job back to pending with a new attempt time
	// and error note.
	Reschedule(ctx context.Context, tx Tx, id string, attempts int, next time.Time, lastErr string) error

	// Finish marks a claimed job completed or failed.
	Finish(ctx context.Context, tx Tx, id string, status model.DispatchJobStatus, lastErr string) error

	// ListFailed returns exhausted jobs for admin review, oldest first.
	ListFailed(ctx context.Context, tx Tx, limit int) ([]*model.DispatchJob, error)
}
