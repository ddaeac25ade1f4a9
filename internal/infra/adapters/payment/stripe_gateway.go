package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"smm-panel/internal/config"
	"smm-panel/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*StripeGateway)(nil)

// StripeGateway implements adapter.PaymentGateway against the Payment
// Intents API. Webhooks are verified with the endpoint's signing secret.
type StripeGateway struct {
	secretKey     string
	webhookSecret string
	successURL    string
	cancelURL     string
	client        *http.Client
	apiBase       string
}

func NewStripeGateway(cfg config.StripeConfig) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe secret key empty")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("stripe webhook secret empty")
	}
	return &StripeGateway{
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		client:        &http.Client{Timeout: 15 * time.Second},
		apiBase:       "https://api.stripe.com/v1",
	}, nil
}

func (s *StripeGateway) Name() string { return "stripe" }

func (s *StripeGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, currency, orderNumber string, meta map[string]string) (adapter.Intent, error) {
	form := url.Values{}
	// Stripe takes the amount in the currency's smallest unit.
	form.Set("amount", amount.Mul(decimal.NewFromInt(100)).Round(0).String())
	form.Set("currency", strings.ToLower(currency))
	form.Set("description", "Order "+orderNumber)
	form.Set("metadata[order_number]", orderNumber)
	for k, v := range meta {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBase+"/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return adapter.Intent{}, err
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return adapter.Intent{}, err
	}
	defer resp.Body.Close()

	var out struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
		Error        *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return adapter.Intent{}, err
	}
	if out.Error != nil {
		return adapter.Intent{}, fmt.Errorf("stripe: %s", out.Error.Message)
	}
	if out.ID == "" {
		return adapter.Intent{}, errors.New("stripe: no intent id in response")
	}
	return adapter.Intent{ID: out.ID, ClientToken: out.ClientSecret, RedirectURL: s.successURL}, nil
}

// VerifyWebhook checks the Stripe-Signature header (t=...,v1=...) against an
// HMAC-SHA256 of "<t>.<payload>" with the endpoint secret.
func (s *StripeGateway) VerifyWebhook(payload []byte, signature string) (adapter.WebhookEvent, error) {
	ts, v1 := "", ""
	for _, part := range strings.Split(signature, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts = kv[1]
		case "v1":
			v1 = kv[1]
		}
	}
	if ts == "" || v1 == "" {
		return adapter.WebhookEvent{}, errors.New("stripe: malformed signature header")
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return adapter.WebhookEvent{}, errors.New("stripe: signature mismatch")
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID string `json:"id"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return adapter.WebhookEvent{}, err
	}

	out := adapter.WebhookEvent{Provider: s.Name(), IntentID: event.Data.Object.ID, Raw: payload}
	switch event.Type {
	case "payment_intent.succeeded":
		out.Type = adapter.WebhookPaymentSucceeded
	case "payment_intent.payment_failed", "payment_intent.canceled":
		out.Type = adapter.WebhookPaymentFailed
	default:
		out.Type = event.Type
	}
	return out, nil
}
