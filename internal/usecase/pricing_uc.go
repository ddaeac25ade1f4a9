// File: internal/usecase/pricing_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"smm-panel/internal/domain"
	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/repository"
)

// Quote is the result of pricing a package tier with an optional coupon.
type Quote struct {
	Package  *model.Package
	Coupon   *model.Coupon // nil when no code was supplied
	Quantity int
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
	Currency string
}

// PricingUseCase computes quotes. Quote is pure and idempotent: it never
// mutates anything, so the storefront can call it on every price preview.
type PricingUseCase interface {
	Quote(ctx context.Context, packageID string, quantity int, couponCode string) (*Quote, error)
}

var _ PricingUseCase = (*pricingUC)(nil)

type pricingUC struct {
	packages repository.PackageRepository
	coupons  repository.CouponRepository
	log      *zerolog.Logger
}

func NewPricingUseCase(
	packages repository.PackageRepository,
	coupons repository.CouponRepository,
	logger *zerolog.Logger,
) PricingUseCase {
	return &pricingUC{packages: packages, coupons: coupons, log: logger}
}

func (p *pricingUC) Quote(ctx context.Context, packageID string, quantity int, couponCode string) (*Quote, error) {
	pkg, err := p.packages.FindByID(ctx, repository.NoTX, packageID)
	if err != nil {
		return nil, err
	}
	if !pkg.Active {
		return nil, domain.NewValidationError("package_id", "package is not active")
	}
	if !pkg.QuantityInBounds(quantity) {
		return nil, domain.NewValidationError("quantity", "quantity outside package bounds")
	}

	// The package row is a fixed (quantity, price) tier: subtotal is the
	// tier price, never re-scaled by the requested quantity.
	subtotal := pkg.Price
	discount := decimal.Zero

	var coupon *model.Coupon
	if code := strings.TrimSpace(couponCode); code != "" {
		coupon, err = p.coupons.FindByCode(ctx, repository.NoTX, code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, &domain.CouponInvalidError{Code: code, Reason: "unknown coupon code"}
			}
			return nil, err
		}
		if ok, reason := coupon.Valid(time.Now()); !ok {
			return nil, &domain.CouponInvalidError{Code: code, Reason: reason}
		}
		discount = coupon.Discount(subtotal)
	}

	return &Quote{
		Package:  pkg,
		Coupon:   coupon,
		Quantity: quantity,
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount),
		Currency: pkg.Currency,
	}, nil
}
