package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentAttemptStatus string

const (
	PaymentAttemptInitiated PaymentAttemptStatus = "initiated" // intent created on gateway side
	PaymentAttemptPending   PaymentAttemptStatus = "pending"   // customer redirected; awaiting confirmation
	PaymentAttemptSucceeded PaymentAttemptStatus = "succeeded"
	PaymentAttemptFailed    PaymentAttemptStatus = "failed"
	PaymentAttemptRefunded  PaymentAttemptStatus = "refunded"
)

// Payment is one gateway attempt against an order. Keeping attempts in a
// sub-ledger lets an order survive multiple attempts and gateways without
// overloading the order row.
type Payment struct {
	ID        string
	OrderID   string
	Provider  string // stripe | tap | knet
	IntentID  string // gateway payment-intent / charge reference
	Amount    decimal.Decimal
	Currency  string
	Status    PaymentAttemptStatus
	Meta      map[string]interface{} // serialized as JSONB
	CreatedAt time.Time
	UpdatedAt time.Time
	PaidAt    *time.Time
}
