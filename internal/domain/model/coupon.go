package model

import (
	"time"

	"github.com/shopspring/decimal"

	"smm-panel/internal/domain"
)

type CouponType string

const (
	CouponTypePercentage CouponType = "percentage"
	CouponTypeFixed      CouponType = "fixed"
)

// Coupon is a discount code. Validation and discount computation are
// deterministic and side-effect-free; the usage counter is bumped only when
// an order is actually created with the coupon, never at quote time.
type Coupon struct {
	ID         string
	Code       string
	Type       CouponType
	Value      decimal.Decimal
	Active     bool
	StartsAt   *time.Time
	ExpiresAt  *time.Time
	UsageLimit int // 0 = unlimited
	UsedCount  int
	CreatedAt  time.Time
}

func (c *Coupon) IsZero() bool { return c == nil || c.ID == "" }

// NewCoupon validates and constructs a Coupon.
func NewCoupon(id, code string, typ CouponType, value decimal.Decimal) (*Coupon, error) {
	if id == "" || code == "" {
		return nil, domain.ErrInvalidArgument
	}
	switch typ {
	case CouponTypePercentage:
		if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
			return nil, domain.ErrInvalidArgument
		}
	case CouponTypeFixed:
		if value.IsNegative() {
			return nil, domain.ErrInvalidArgument
		}
	default:
		return nil, domain.ErrInvalidArgument
	}
	return &Coupon{ID: id, Code: code, Type: typ, Value: value, Active: true, CreatedAt: time.Now()}, nil
}

// Valid reports whether the coupon can be applied at the given time, with a
// reason when it cannot.
func (c *Coupon) Valid(now time.Time) (ok bool, reason string) {
	if !c.Active {
		return false, "coupon is not active"
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false, "coupon is not yet valid"
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false, "coupon has expired"
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return false, "coupon usage limit reached"
	}
	return true, ""
}

// Discount computes the discount for the given subtotal, clamped to
// [0, subtotal] so it can never exceed the amount it applies to.
func (c *Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.Type {
	case CouponTypePercentage:
		d = subtotal.Mul(c.Value).Div(decimal.NewFromInt(100))
	case CouponTypeFixed:
		d = c.Value
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(subtotal) {
		return subtotal
	}
	return d
}
