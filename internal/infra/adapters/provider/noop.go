package provider

import (
	"context"
	"fmt"
	"sync"

	"smm-panel/internal/domain/ports/adapter"
)

var _ adapter.SMMProvider = (*NoopPanel)(nil)

// NoopPanel is an in-memory panel for development and tests. Orders complete
// immediately with zero remains.
type NoopPanel struct {
	name string

	mu     sync.Mutex
	seq    int64
	orders map[string]int // order id -> quantity
}

func NewNoopPanel(name string) *NoopPanel {
	return &NoopPanel{name: name, orders: make(map[string]int)}
}

func (n *NoopPanel) Name() string { return n.name }

func (n *NoopPanel) CreateOrder(ctx context.Context, serviceID, link string, quantity int) (adapter.ProviderOrder, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seq++
	id := fmt.Sprintf("noop-%d", n.seq)
	n.orders[id] = quantity
	return adapter.ProviderOrder{OrderID: id, Status: "Pending"}, nil
}

func (n *NoopPanel) GetOrderStatus(ctx context.Context, providerOrderID string) (adapter.ProviderStatus, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.orders[providerOrderID]; !ok {
		return adapter.ProviderStatus{}, fmt.Errorf("noop: order %s not found", providerOrderID)
	}
	start, remains := 0, 0
	return adapter.ProviderStatus{Status: "Completed", StartCount: &start, Remains: &remains}, nil
}

func (n *NoopPanel) GetBalance(ctx context.Context) (float64, error) { return 1000, nil }

func (n *NoopPanel) GetServices(ctx context.Context) ([]adapter.ProviderService, error) {
	return nil, nil
}
