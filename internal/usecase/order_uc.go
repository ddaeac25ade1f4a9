// File: internal/usecase/order_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"smm-panel/internal/domain"
	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/repository"
	"smm-panel/internal/infra/metrics"
)

// MsgPaymentAlreadyConfirmed is returned by ConfirmPayment when the order was
// already paid; re-confirming is a no-op success, not an error.
const MsgPaymentAlreadyConfirmed = "Payment already confirmed"

const orderNumberRetries = 3

// CreateOrderInput is the checkout request after transport decoding.
type CreateOrderInput struct {
	PackageID  string
	Quantity   int
	Links      []model.TargetLink
	CouponCode string
	UserID     *string
	GuestEmail *string
}

// ProgressUpdate carries a reconciliation result for one order.
type ProgressUpdate struct {
	StartCount   *int
	CurrentCount *int
	NewStatus    *model.OrderStatus
	Raw          []byte
}

// OrderUseCase owns the order lifecycle: creation, payment confirmation,
// dispatch bookkeeping and progress updates.
type OrderUseCase interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*model.Order, error)
	// ConfirmPayment is idempotent: confirming an already-completed order
	// returns success with MsgPaymentAlreadyConfirmed.
	ConfirmPayment(ctx context.Context, orderID string) (*model.Order, string, error)
	// MarkDispatched records a successful provider dispatch exactly once.
	MarkDispatched(ctx context.Context, orderID, providerOrderID string, raw []byte) (*model.Order, error)
	// UpdateProgress applies a reconciliation snapshot, enforcing the
	// fulfillment state machine.
	UpdateProgress(ctx context.Context, orderID string, upd ProgressUpdate) (*model.Order, error)
	// RecordDispatchFailure stores the terminal dispatch error on the order
	// after retries are exhausted. The order stays pending for admin review.
	RecordDispatchFailure(ctx context.Context, orderID string, raw []byte) error
	// SetStatus applies an admin transition (cancel/refund) from any
	// non-terminal status.
	SetStatus(ctx context.Context, orderID string, to model.OrderStatus) (*model.Order, error)

	GetByID(ctx context.Context, orderID string) (*model.Order, error)
	GetByNumber(ctx context.Context, number string) (*model.Order, error)
	ListByOwner(ctx context.Context, userID string, limit int) ([]*model.Order, error)
}

var _ OrderUseCase = (*orderUC)(nil)

type orderUC struct {
	orders   repository.OrderRepository
	packages repository.PackageRepository
	services repository.ServiceRepository
	coupons  repository.CouponRepository
	jobs     repository.DispatchJobRepository
	pricing  PricingUseCase
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewOrderUseCase(
	orders repository.OrderRepository,
	packages repository.PackageRepository,
	services repository.ServiceRepository,
	coupons repository.CouponRepository,
	jobs repository.DispatchJobRepository,
	pricing PricingUseCase,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) OrderUseCase {
	return &orderUC{
		orders:   orders,
		packages: packages,
		services: services,
		coupons:  coupons,
		jobs:     jobs,
		pricing:  pricing,
		tm:       tm,
		log:      logger,
	}
}

// CreateOrder validates the whole checkout request atomically and persists
// the order in (pending, pending). The coupon is revalidated server-side via
// the pricing engine; a client-supplied discount is never trusted.
func (u *orderUC) CreateOrder(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	quote, err := u.pricing.Quote(ctx, in.PackageID, in.Quantity, in.CouponCode)
	if err != nil {
		return nil, err
	}
	svc, err := u.services.FindByID(ctx, repository.NoTX, quote.Package.ServiceID)
	if err != nil {
		return nil, err
	}

	order, err := model.NewOrder(model.NewOrderInput{
		Package:    quote.Package,
		Service:    svc,
		Quantity:   in.Quantity,
		Links:      in.Links,
		UserID:     in.UserID,
		GuestEmail: normalizeGuestEmail(in.GuestEmail),
		Coupon:     quote.Coupon,
		Discount:   quote.Discount,
	})
	if err != nil {
		return nil, err
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if quote.Coupon != nil {
			// Usage is consumed here, at confirmed creation, never at
			// quote time.
			ok, err := u.coupons.IncrementUsage(ctx, tx, quote.Coupon.ID)
			if err != nil {
				return err
			}
			if !ok {
				return &domain.CouponInvalidError{Code: quote.Coupon.Code, Reason: "coupon usage limit reached"}
			}
		}
		return u.saveWithNumberRetry(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncOrderCreated(string(svc.Type))
	u.log.Info().
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Str("package_id", order.PackageID).
		Int("links", len(order.Links)).
		Msg("order created")
	return order, nil
}

// saveWithNumberRetry regenerates the order number on a collision instead of
// failing the request. Create reports the collision without aborting the
// enclosing transaction, so the retries run on the same tx.
func (u *orderUC) saveWithNumberRetry(ctx context.Context, tx repository.Tx, order *model.Order) error {
	var err error
	for i := 0; i < orderNumberRetries; i++ {
		err = u.orders.Create(ctx, tx, order)
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return err
		}
		order.OrderNumber = model.NewOrderNumber()
	}
	return err
}

func (u *orderUC) ConfirmPayment(ctx context.Context, orderID string) (*model.Order, string, error) {
	order, err := u.orders.FindByID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, "", err
	}
	if order.PaymentStatus == model.PaymentStatusCompleted {
		return order, MsgPaymentAlreadyConfirmed, nil
	}
	if order.PaymentStatus != model.PaymentStatusPending && order.PaymentStatus != model.PaymentStatusProcessing {
		return nil, "", &domain.InvalidStateTransitionError{
			Axis: "payment_status", From: string(order.PaymentStatus), To: string(model.PaymentStatusCompleted),
		}
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		updated, err := u.orders.ConfirmPaymentIfPending(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !updated {
			// Lost the race: re-read and treat an already-completed row as
			// idempotent success below.
			return nil
		}
		// Hand the paid order to the async dispatch path. The checkout
		// handler never blocks on an upstream call.
		return u.jobs.Enqueue(ctx, tx, orderID)
	})
	if err != nil {
		return nil, "", err
	}

	order, err = u.orders.FindByID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, "", err
	}
	if order.PaymentStatus != model.PaymentStatusCompleted {
		return nil, "", &domain.InvalidStateTransitionError{
			Axis: "payment_status", From: string(order.PaymentStatus), To: string(model.PaymentStatusCompleted),
		}
	}
	metrics.IncPayment("completed")
	u.log.Info().Str("order_id", order.ID).Str("order_number", order.OrderNumber).Msg("payment confirmed")
	return order, "Payment confirmed", nil
}

func (u *orderUC) MarkDispatched(ctx context.Context, orderID, providerOrderID string, raw []byte) (*model.Order, error) {
	updated, err := u.orders.MarkDispatched(ctx, repository.NoTX, orderID, providerOrderID, raw)
	if err != nil {
		return nil, err
	}
	if !updated {
		u.log.Warn().Str("order_id", orderID).Msg("mark dispatched skipped: provider order id already set")
	}
	return u.orders.FindByID(ctx, repository.NoTX, orderID)
}

func (u *orderUC) RecordDispatchFailure(ctx context.Context, orderID string, raw []byte) error {
	if err := u.orders.RecordDispatchFailure(ctx, repository.NoTX, orderID, raw); err != nil {
		return err
	}
	metrics.IncDispatch("exhausted")
	u.log.Error().Str("order_id", orderID).Msg("dispatch failed permanently, awaiting admin")
	return nil
}

func (u *orderUC) UpdateProgress(ctx context.Context, orderID string, upd ProgressUpdate) (*model.Order, error) {
	order, err := u.orders.FindByID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, &domain.InvalidStateTransitionError{
			Axis: "status", From: string(order.Status), To: statusOrSame(upd.NewStatus, order.Status),
		}
	}

	var completedAt *time.Time
	if upd.NewStatus != nil {
		if *upd.NewStatus != order.Status && !order.Status.CanTransitionTo(*upd.NewStatus) {
			return nil, &domain.InvalidStateTransitionError{
				Axis: "status", From: string(order.Status), To: string(*upd.NewStatus),
			}
		}
		if *upd.NewStatus == model.OrderStatusCompleted {
			now := time.Now()
			completedAt = &now
		}
	}
	if err := u.orders.UpdateProgress(ctx, repository.NoTX, orderID, upd.StartCount, upd.CurrentCount, upd.NewStatus, completedAt); err != nil {
		return nil, err
	}
	if upd.NewStatus != nil && *upd.NewStatus != order.Status {
		metrics.IncOrderStatus(string(*upd.NewStatus))
	}
	return u.orders.FindByID(ctx, repository.NoTX, orderID)
}

func (u *orderUC) SetStatus(ctx context.Context, orderID string, to model.OrderStatus) (*model.Order, error) {
	if to != model.OrderStatusCanceled && to != model.OrderStatusRefunded {
		return nil, domain.NewValidationError("status", "admin may only cancel or refund")
	}
	order, err := u.orders.FindByID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() || !order.Status.CanTransitionTo(to) {
		return nil, &domain.InvalidStateTransitionError{
			Axis: "status", From: string(order.Status), To: string(to),
		}
	}
	updated, err := u.orders.SetStatus(ctx, repository.NoTX, orderID, order.Status, to)
	if err != nil {
		return nil, err
	}
	if !updated {
		// Status moved under us; reject rather than overwrite.
		cur, rerr := u.orders.FindByID(ctx, repository.NoTX, orderID)
		if rerr != nil {
			return nil, rerr
		}
		return nil, &domain.InvalidStateTransitionError{
			Axis: "status", From: string(cur.Status), To: string(to),
		}
	}
	metrics.IncOrderStatus(string(to))
	u.log.Info().Str("order_id", orderID).Str("status", string(to)).Msg("admin status change")
	return u.orders.FindByID(ctx, repository.NoTX, orderID)
}

func (u *orderUC) GetByID(ctx context.Context, orderID string) (*model.Order, error) {
	return u.orders.FindByID(ctx, repository.NoTX, orderID)
}

func (u *orderUC) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	return u.orders.FindByNumber(ctx, repository.NoTX, number)
}

func (u *orderUC) ListByOwner(ctx context.Context, userID string, limit int) ([]*model.Order, error) {
	return u.orders.ListByOwner(ctx, repository.NoTX, userID, limit)
}

func normalizeGuestEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.ToLower(strings.TrimSpace(*email))
	if e == "" {
		return nil
	}
	return &e
}

func statusOrSame(s *model.OrderStatus, cur model.OrderStatus) string {
	if s == nil {
		return string(cur)
	}
	return string(*s)
}
