// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"smm-panel/internal/domain"
	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/adapter"
	"smm-panel/internal/domain/ports/repository"
	"smm-panel/internal/infra/metrics"
)

// PaymentUseCase creates gateway intents and applies verified webhooks.
type PaymentUseCase interface {
	// CreateIntent initiates a gateway payment for an order. callerUserID is
	// the authenticated user, nil for guests; a mismatch with the order's
	// owner is ErrUnauthorized.
	CreateIntent(ctx context.Context, orderID, gatewayName string, callerUserID *string) (*model.Payment, adapter.Intent, error)

	// HandleWebhook verifies the gateway signature, records the attempt
	// outcome and, on success, confirms the order's payment. Duplicate
	// deliveries are no-ops.
	HandleWebhook(ctx context.Context, gatewayName string, payload []byte, signature string) error
}

var _ PaymentUseCase = (*paymentUC)(nil)

type paymentUC struct {
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	orderUC  OrderUseCase
	gateways map[string]adapter.PaymentGateway
	log      *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	orderUC OrderUseCase,
	gateways map[string]adapter.PaymentGateway,
	logger *zerolog.Logger,
) PaymentUseCase {
	return &paymentUC{
		payments: payments,
		orders:   orders,
		orderUC:  orderUC,
		gateways: gateways,
		log:      logger,
	}
}

func (u *paymentUC) CreateIntent(ctx context.Context, orderID, gatewayName string, callerUserID *string) (*model.Payment, adapter.Intent, error) {
	gw, ok := u.gateways[gatewayName]
	if !ok {
		return nil, adapter.Intent{}, domain.NewValidationError("gateway", "unknown payment gateway")
	}

	order, err := u.orders.FindByID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, adapter.Intent{}, err
	}
	if order.UserID != nil {
		if callerUserID == nil || *callerUserID != *order.UserID {
			return nil, adapter.Intent{}, domain.ErrUnauthorized
		}
	}
	if order.PaymentStatus == model.PaymentStatusCompleted {
		return nil, adapter.Intent{}, domain.NewValidationError("order_id", "order is already paid")
	}
	if order.PaymentStatus != model.PaymentStatusPending {
		return nil, adapter.Intent{}, &domain.InvalidStateTransitionError{
			Axis: "payment_status", From: string(order.PaymentStatus), To: string(model.PaymentStatusProcessing),
		}
	}

	intent, err := gw.CreateIntent(ctx, order.Amount, order.Currency, order.OrderNumber, map[string]string{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})
	if err != nil {
		// Upstream detail goes to the log, not to the customer.
		u.log.Error().Err(err).Str("order_id", order.ID).Str("gateway", gatewayName).Msg("intent creation failed")
		return nil, adapter.Intent{}, domain.ErrOperationFailed
	}

	now := time.Now()
	p := &model.Payment{
		ID:        domain.NewUUID(),
		OrderID:   order.ID,
		Provider:  gw.Name(),
		IntentID:  intent.ID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		Status:    model.PaymentAttemptInitiated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, adapter.Intent{}, err
	}
	metrics.IncPayment("initiated")
	return p, intent, nil
}

func (u *paymentUC) HandleWebhook(ctx context.Context, gatewayName string, payload []byte, signature string) error {
	gw, ok := u.gateways[gatewayName]
	if !ok {
		return domain.NewValidationError("gateway", "unknown payment gateway")
	}
	event, err := gw.VerifyWebhook(payload, signature)
	if err != nil {
		u.log.Warn().Err(err).Str("gateway", gatewayName).Msg("webhook verification failed")
		return domain.NewValidationError("signature", err.Error())
	}

	p, err := u.payments.FindByIntentID(ctx, repository.NoTX, gw.Name(), event.IntentID)
	if err != nil {
		return err
	}

	switch event.Type {
	case adapter.WebhookPaymentSucceeded:
		if p.Status == model.PaymentAttemptSucceeded {
			// Duplicate delivery.
			return nil
		}
		now := time.Now()
		if err := u.payments.UpdateStatus(ctx, repository.NoTX, p.ID, model.PaymentAttemptSucceeded, &now); err != nil {
			return err
		}
		// ConfirmPayment is idempotent, so a webhook racing the customer's
		// confirm call is harmless.
		if _, _, err := u.orderUC.ConfirmPayment(ctx, p.OrderID); err != nil {
			return err
		}
		u.log.Info().Str("order_id", p.OrderID).Str("intent_id", p.IntentID).Str("gateway", gatewayName).Msg("webhook: payment succeeded")
		return nil
	case adapter.WebhookPaymentFailed:
		if p.Status == model.PaymentAttemptSucceeded {
			// A late failure event never downgrades a success.
			return nil
		}
		metrics.IncPayment("failed")
		u.log.Warn().Str("order_id", p.OrderID).Str("intent_id", p.IntentID).Str("gateway", gatewayName).Msg("webhook: payment failed")
		return u.payments.UpdateStatus(ctx, repository.NoTX, p.ID, model.PaymentAttemptFailed, nil)
	default:
		// Unknown event types are acknowledged and ignored.
		u.log.Debug().Str("type", event.Type).Str("gateway", gatewayName).Msg("webhook: ignored event")
		return nil
	}
}
