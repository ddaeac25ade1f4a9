package adapter

import "context"

// ProviderOrder is the result of creating an order upstream.
type ProviderOrder struct {
	OrderID string // provider-side order identifier
	Status  string // provider-reported status, if any
	Raw     []byte // full response payload for diagnostics
}

// ProviderStatus is a delivery progress snapshot for one remote order.
type ProviderStatus struct {
	Status     string // provider vocabulary: Pending, In progress, Completed, Partial, Canceled...
	StartCount *int
	Remains    *int
	Raw        []byte
}

// ProviderService is one service row from the upstream catalog.
type ProviderService struct {
	ID       string
	Name     string
	Category string
	Rate     string
	Min      int
	Max      int
}

// SMMProvider is the hex port for upstream SMM panels.
//
// CreateOrder and GetOrderStatus are critical paths: failures must propagate
// to the caller. GetBalance and GetServices feed admin diagnostics only and
// degrade gracefully at the call sites.
type SMMProvider interface {
	Name() string
	CreateOrder(ctx context.Context, serviceID, link string, quantity int) (ProviderOrder, error)
	GetOrderStatus(ctx context.Context, providerOrderID string) (ProviderStatus, error)
	GetBalance(ctx context.Context) (float64, error)
	GetServices(ctx context.Context) ([]ProviderService, error)
}
