package model

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"smm-panel/internal/domain"
)

// OrderStatus is the fulfillment axis of an order's state machine.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusPartial    OrderStatus = "partial"
	OrderStatusCanceled   OrderStatus = "canceled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// PaymentStatus is the payment axis, independent from fulfillment: an order
// can be payment-completed while fulfillment is still pending.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// Terminal reports whether no further fulfillment transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCanceled || s == OrderStatusRefunded
}

var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCanceled, OrderStatusRefunded},
	OrderStatusProcessing: {OrderStatusInProgress, OrderStatusCompleted, OrderStatusPartial, OrderStatusCanceled, OrderStatusRefunded},
	OrderStatusInProgress: {OrderStatusCompleted, OrderStatusPartial, OrderStatusCanceled, OrderStatusRefunded},
	OrderStatusPartial:    {OrderStatusCanceled, OrderStatusRefunded},
}

// CanTransitionTo reports whether the fulfillment axis allows s -> next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range statusTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusRefunded
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusProcessing: {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusCompleted:  {PaymentStatusRefunded},
}

// CanTransitionTo reports whether the payment axis allows s -> next.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, t := range paymentTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// TargetLink is one (url, quantity) delivery target. The first link of an
// order is the primary link: it is the one sent to the provider on dispatch.
type TargetLink struct {
	URL      string `json:"url"`
	Quantity int    `json:"quantity"`
}

// Order is the central entity of the platform.
type Order struct {
	ID          string
	OrderNumber string // generated once at creation, immutable

	// Snapshot of what was bought. Price is copied from the package at
	// creation time; orders never re-read package price.
	PackageID string
	ServiceID string
	Quantity  int
	Links     []TargetLink

	// Monetary.
	Amount   decimal.Decimal // final charge total
	Discount decimal.Decimal
	Currency string
	CouponID *string

	// Ownership: exactly one of UserID / GuestEmail is set.
	UserID     *string
	GuestEmail *string

	Status        OrderStatus
	PaymentStatus PaymentStatus

	// Provider linkage. ProviderOrderID is set exactly once on successful
	// dispatch; its presence is the idempotency guard against re-dispatch.
	ProviderOrderID  *string
	ProviderResponse []byte // last raw provider payload, diagnostics only
	StartCount       *int
	CurrentCount     *int

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// PrimaryLink returns the canonical dispatch target: the first link.
func (o *Order) PrimaryLink() TargetLink {
	if len(o.Links) == 0 {
		return TargetLink{}
	}
	return o.Links[0]
}

// Remains reports how many units are still undelivered according to the
// latest provider watermarks. Unknown until the provider reports counts.
func (o *Order) Remains() (int, bool) {
	if o.StartCount == nil || o.CurrentCount == nil {
		return 0, false
	}
	delivered := *o.CurrentCount - *o.StartCount
	if delivered < 0 {
		delivered = 0
	}
	r := o.Quantity - delivered
	if r < 0 {
		r = 0
	}
	return r, true
}

// NewOrderInput carries everything CreateOrder needs to validate atomically.
type NewOrderInput struct {
	Package    *Package
	Service    *Service
	Quantity   int
	Links      []TargetLink
	UserID     *string
	GuestEmail *string
	Coupon     *Coupon
	Discount   decimal.Decimal
}

// NewOrder validates the full creation invariant set and constructs an order
// in (pending, pending). The whole request is rejected if any check fails.
func NewOrder(in NewOrderInput) (*Order, error) {
	if in.Package.IsZero() || in.Service.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	if !in.Package.Active {
		return nil, domain.NewValidationError("package_id", "package is not active")
	}
	if !in.Package.QuantityInBounds(in.Quantity) {
		return nil, domain.NewValidationError("quantity", "quantity outside package bounds")
	}

	hasUser := in.UserID != nil && *in.UserID != ""
	hasGuest := in.GuestEmail != nil && strings.Contains(*in.GuestEmail, "@")
	if hasUser == hasGuest {
		return nil, domain.NewValidationError("owner", "order requires exactly one of user or guest email")
	}

	if len(in.Links) == 0 {
		return nil, domain.NewValidationError("links", "at least one target link is required")
	}
	sum := 0
	for i, l := range in.Links {
		if l.Quantity <= 0 {
			return nil, &domain.InvalidTargetLinkError{Index: i, URL: l.URL, Reason: "quantity must be positive"}
		}
		if ok, reason := in.Service.Type.CheckTargetURL(l.URL); !ok {
			return nil, &domain.InvalidTargetLinkError{Index: i, URL: l.URL, Reason: reason}
		}
		sum += l.Quantity
	}
	if sum != in.Quantity {
		return nil, domain.NewValidationError("links", "link quantities must sum to the order quantity")
	}

	subtotal := in.Package.Price
	discount := in.Discount
	if discount.IsNegative() || discount.GreaterThan(subtotal) {
		return nil, domain.NewValidationError("discount", "discount out of range")
	}

	now := time.Now()
	o := &Order{
		ID:            domain.NewUUID(),
		OrderNumber:   NewOrderNumber(),
		PackageID:     in.Package.ID,
		ServiceID:     in.Service.ID,
		Quantity:      in.Quantity,
		Links:         in.Links,
		Amount:        subtotal.Sub(discount),
		Discount:      discount,
		Currency:      in.Package.Currency,
		UserID:        in.UserID,
		GuestEmail:    in.GuestEmail,
		Status:        OrderStatusPending,
		PaymentStatus: PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.Coupon != nil {
		id := in.Coupon.ID
		o.CouponID = &id
	}
	return o, nil
}

// NewOrderNumber generates a human-readable, sortable order number.
// ULIDs are collision-free in practice; creation still retries on a unique
// violation rather than failing the request.
func NewOrderNumber() string {
	return "SMM-" + ulid.MustNew(ulid.Now(), rand.Reader).String()
}
