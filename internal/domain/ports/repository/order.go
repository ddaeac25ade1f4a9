package repository

import (
	"context"
	"time"

	"smm-panel/internal/domain/model"
)

// OrderRepository is the port for order persistence. Status mutations use
// conditional (compare-and-set) updates so a webhook and an admin action
// racing on the same row can never produce a lost update.
type OrderRepository interface {
	// Create inserts a new order. An order-number collision returns
	// ErrAlreadyExists without poisoning the surrounding transaction, so
	// callers can regenerate the number and retry on the same tx.
	Create(ctx context.Context, tx Tx, o *model.Order) error
	Save(ctx context.Context, tx Tx, o *model.Order) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Order, error)
	FindByNumber(ctx context.Context, tx Tx, number string) (*model.Order, error)

	// ConfirmPaymentIfPending flips payment_status pending -> completed and
	// reports whether the row was actually updated.
	ConfirmPaymentIfPending(ctx context.Context, tx Tx, id string) (bool, error)

	// MarkDispatched sets provider_order_id, provider_response and
	// status=processing, only when provider_order_id is still NULL.
	MarkDispatched(ctx context.Context, tx Tx, id, providerOrderID string, raw []byte) (bool, error)

	// UpdateProgress writes delivery watermarks and optionally advances
	// status. Terminal rows are never touched.
	UpdateProgress(ctx context.Context, tx Tx, id string, startCount, currentCount *int, newStatus *model.OrderStatus, completedAt *time.Time) error

	// RecordDispatchFailure stores the terminal dispatch error payload into
	// provider_response without changing status.
	RecordDispatchFailure(ctx context.Context, tx Tx, id string, raw []byte) error

	// SetStatus applies an admin transition (cancel/refund) conditionally on
	// the current status being non-terminal.
	SetStatus(ctx context.Context, tx Tx, id string, from, to model.OrderStatus) (bool, error)

	// ListForReconciliation returns up to limit in-flight orders
	// (provider_order_id set, status processing/in_progress, payment
	// completed), oldest-created first.
	ListForReconciliation(ctx context.Context, tx Tx, limit int) ([]*model.Order, error)

	// ListByOwner returns a customer's orders, newest first.
	ListByOwner(ctx context.Context, tx Tx, userID string, limit int) ([]*model.Order, error)
}
