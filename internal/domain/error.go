package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrLockNotAcquired    = errors.New("lock not acquired")
)

// ValidationError reports bad client input on a named field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// CouponInvalidError is returned when a coupon code cannot be applied:
// unknown code, inactive, outside its validity window, or usage limit reached.
type CouponInvalidError struct {
	Code   string
	Reason string
}

func (e *CouponInvalidError) Error() string {
	return fmt.Sprintf("coupon %q invalid: %s", e.Code, e.Reason)
}

// InvalidTargetLinkError identifies which target link of an order request
// failed the service-type URL shape check.
type InvalidTargetLinkError struct {
	Index  int
	URL    string
	Reason string
}

func (e *InvalidTargetLinkError) Error() string {
	return fmt.Sprintf("target link %d invalid: %s", e.Index, e.Reason)
}

// InvalidStateTransitionError reports an attempted illegal state change on
// either the fulfillment or the payment axis of an order.
type InvalidStateTransitionError struct {
	Axis string // "status" or "payment_status"
	From string
	To   string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Axis, e.From, e.To)
}

// ProviderError wraps an upstream SMM panel failure. Callers never need to
// know the transport mechanism; Message carries the upstream text.
type ProviderError struct {
	Provider string
	Action   string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider %s: %s failed: %s", e.Provider, e.Action, e.Message)
	}
	return fmt.Sprintf("provider %s: %s failed", e.Provider, e.Action)
}

func NewProviderError(provider, action, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Action: action, Message: message, Err: err}
}

func (e *ProviderError) Unwrap() error { return e.Err }
