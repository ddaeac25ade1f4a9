package repository

import (
	"context"

	"smm-panel/internal/domain/model"
)

// CouponRepository is the port for coupon persistence.
type CouponRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Coupon) error
	FindByCode(ctx context.Context, tx Tx, code string) (*model.Coupon, error)
	// IncrementUsage bumps used_count, guarded by the usage limit so a
	// limited coupon can never be over-consumed by concurrent checkouts.
	IncrementUsage(ctx context.Context, tx Tx, id string) (bool, error)
}
