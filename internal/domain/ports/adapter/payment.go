package adapter

import (
	"context"

	"github.com/shopspring/decimal"
)

// Intent is a provider-agnostic payment intent: the reference the customer
// completes on the gateway side.
type Intent struct {
	ID          string // gateway intent/charge id
	RedirectURL string // where the customer finishes the payment, if any
	ClientToken string // client-side secret for embedded flows, if any
}

// WebhookEvent is a verified, normalized gateway notification.
type WebhookEvent struct {
	Provider string
	IntentID string
	Type     string // payment_succeeded | payment_failed
	Raw      []byte
}

const (
	WebhookPaymentSucceeded = "payment_succeeded"
	WebhookPaymentFailed    = "payment_failed"
)

// PaymentGateway is the hex port for payment providers (Stripe, Tap).
type PaymentGateway interface {
	Name() string

	// CreateIntent initiates a payment for the given amount and returns the
	// gateway intent. orderNumber and meta travel to the gateway so charges
	// can be matched on its dashboard.
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency, orderNumber string, meta map[string]string) (Intent, error)

	// VerifyWebhook checks the gateway signature over the raw body and
	// decodes the event. A missing or invalid signature is an error.
	VerifyWebhook(payload []byte, signature string) (WebhookEvent, error)
}
