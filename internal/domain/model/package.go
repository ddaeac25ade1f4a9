package model

import (
	"time"

	"github.com/shopspring/decimal"

	"smm-panel/internal/domain"
)

// Package is a fixed (quantity, price) purchasable tier of a Service.
// Price is the tier price, not a per-unit rate; it is copied into the order
// at creation time, so edits to a package never touch existing orders.
type Package struct {
	ID          string
	ServiceID   string
	Name        string
	Price       decimal.Decimal
	Currency    string
	MinQuantity int
	MaxQuantity int

	// Refill eligibility for under-delivered orders.
	RefillEnabled bool
	RefillDays    int

	// Upstream linkage: which provider fulfills this package, and the
	// provider-side service identifier sent on dispatch.
	ProviderID        string
	ProviderServiceID string

	Active    bool
	CreatedAt time.Time
}

func (p *Package) IsZero() bool { return p == nil || p.ID == "" }

// NewPackage validates and constructs a Package.
func NewPackage(id, serviceID, name string, price decimal.Decimal, currency string, minQ, maxQ int, providerID, providerServiceID string) (*Package, error) {
	if id == "" || serviceID == "" || name == "" || providerID == "" || providerServiceID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if price.IsNegative() || price.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	if minQ <= 0 || maxQ < minQ {
		return nil, domain.ErrInvalidArgument
	}
	if currency == "" {
		currency = "USD"
	}
	return &Package{
		ID:                id,
		ServiceID:         serviceID,
		Name:              name,
		Price:             price,
		Currency:          currency,
		MinQuantity:       minQ,
		MaxQuantity:       maxQ,
		ProviderID:        providerID,
		ProviderServiceID: providerServiceID,
		Active:            true,
		CreatedAt:         time.Now(),
	}, nil
}

// QuantityInBounds reports whether q falls inside this tier's bounds.
func (p *Package) QuantityInBounds(q int) bool {
	return q >= p.MinQuantity && q <= p.MaxQuantity
}
