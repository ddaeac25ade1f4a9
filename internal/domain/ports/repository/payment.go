package repository

import (
	"context"
	"time"

	"smm-panel/internal/domain/model"
)

// PaymentRepository is the port for the gateway-attempt sub-ledger.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByIntentID(ctx context.Context, tx Tx, provider, intentID string) (*model.Payment, error)
	ListByOrder(ctx context.Context, tx Tx, orderID string) ([]*model.Payment, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.PaymentAttemptStatus, paidAt *time.Time) error
}
