package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"smm-panel/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is a simple in-memory gateway to use in dev and tests.
// Its webhooks are unsigned JSON: {"intent_id": "...", "type": "..."}.
type NoopPaymentGateway struct {
	mu      sync.Mutex
	seq     int64
	intents map[string]string // intent id -> order number
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{intents: make(map[string]string)}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, currency, orderNumber string, meta map[string]string) (adapter.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("noop-%d", g.seq)
	g.intents[id] = orderNumber
	return adapter.Intent{ID: id, RedirectURL: "https://example.test/pay/" + id}, nil
}

func (g *NoopPaymentGateway) VerifyWebhook(payload []byte, signature string) (adapter.WebhookEvent, error) {
	var event struct {
		IntentID string `json:"intent_id"`
		Type     string `json:"type"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return adapter.WebhookEvent{}, err
	}
	if event.Type == "" {
		event.Type = adapter.WebhookPaymentSucceeded
	}
	return adapter.WebhookEvent{Provider: g.Name(), IntentID: event.IntentID, Type: event.Type, Raw: payload}, nil
}
