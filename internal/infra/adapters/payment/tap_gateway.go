package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"smm-panel/internal/config"
	"smm-panel/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*TapGateway)(nil)

// TapGateway implements adapter.PaymentGateway against the Tap charges API,
// the common card gateway for Gulf-region customers.
type TapGateway struct {
	secretKey     string
	webhookSecret string
	redirectURL   string
	client        *http.Client
	apiBase       string
}

func NewTapGateway(cfg config.TapConfig) (*TapGateway, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("tap secret key empty")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("tap webhook secret empty")
	}
	return &TapGateway{
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		redirectURL:   cfg.RedirectURL,
		client:        &http.Client{Timeout: 15 * time.Second},
		apiBase:       "https://api.tap.company/v2",
	}, nil
}

func (t *TapGateway) Name() string { return "tap" }

func (t *TapGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, currency, orderNumber string, meta map[string]string) (adapter.Intent, error) {
	payload := map[string]any{
		"amount":      amount,
		"currency":    currency,
		"description": "Order " + orderNumber,
		"reference":   map[string]string{"order": orderNumber},
		"redirect":    map[string]string{"url": t.redirectURL},
	}
	if len(meta) > 0 {
		payload["metadata"] = meta
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiBase+"/charges", bytes.NewReader(b))
	if err != nil {
		return adapter.Intent{}, err
	}
	req.Header.Set("Authorization", "Bearer "+t.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return adapter.Intent{}, err
	}
	defer resp.Body.Close()

	var out struct {
		ID          string `json:"id"`
		Transaction struct {
			URL string `json:"url"`
		} `json:"transaction"`
		Errors []struct {
			Description string `json:"description"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return adapter.Intent{}, err
	}
	if len(out.Errors) > 0 {
		return adapter.Intent{}, fmt.Errorf("tap: %s", out.Errors[0].Description)
	}
	if out.ID == "" {
		return adapter.Intent{}, errors.New("tap: no charge id in response")
	}
	return adapter.Intent{ID: out.ID, RedirectURL: out.Transaction.URL}, nil
}

// VerifyWebhook checks the hex HMAC-SHA256 of the raw body against the
// configured webhook secret.
func (t *TapGateway) VerifyWebhook(payload []byte, signature string) (adapter.WebhookEvent, error) {
	if signature == "" {
		return adapter.WebhookEvent{}, errors.New("tap: missing signature")
	}
	mac := hmac.New(sha256.New, []byte(t.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return adapter.WebhookEvent{}, errors.New("tap: signature mismatch")
	}

	var event struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return adapter.WebhookEvent{}, err
	}

	out := adapter.WebhookEvent{Provider: t.Name(), IntentID: event.ID, Raw: payload}
	switch event.Status {
	case "CAPTURED":
		out.Type = adapter.WebhookPaymentSucceeded
	case "FAILED", "DECLINED", "CANCELLED", "EXPIRED":
		out.Type = adapter.WebhookPaymentFailed
	default:
		out.Type = event.Status
	}
	return out, nil
}
