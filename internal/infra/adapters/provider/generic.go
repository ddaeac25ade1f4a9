package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"smm-panel/internal/domain"
	"smm-panel/internal/domain/ports/adapter"
	"smm-panel/internal/infra/metrics"
)

var _ adapter.SMMProvider = (*GenericPanel)(nil)

// GenericPanel talks the de-facto standard panel API: a single endpoint that
// takes form-encoded key/action parameters and answers JSON. Most upstream
// panels expose exactly this surface, so "generic" is the default adapter.
type GenericPanel struct {
	name   string
	apiURL string
	apiKey string
	client *http.Client
}

func NewGenericPanel(name, apiURL, apiKey string, timeout time.Duration) *GenericPanel {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GenericPanel{
		name:   name,
		apiURL: apiURL,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

func (g *GenericPanel) Name() string { return g.name }

// call posts one action and returns the raw body. Panels signal failure with
// an "error" field in an otherwise 200 response, so the body is checked here
// for every action.
func (g *GenericPanel) call(ctx context.Context, action string, params url.Values) ([]byte, error) {
	form := url.Values{}
	form.Set("key", g.apiKey)
	form.Set("action", action)
	for k, vs := range params {
		for _, v := range vs {
			form.Add(k, v)
		}
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	elapsed := int(time.Since(start).Milliseconds())
	if err != nil {
		metrics.ObserveProviderCall(g.name, action, elapsed, false)
		return nil, domain.NewProviderError(g.name, action, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.ObserveProviderCall(g.name, action, elapsed, false)
		return nil, domain.NewProviderError(g.name, action, "read body", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ObserveProviderCall(g.name, action, elapsed, false)
		return nil, domain.NewProviderError(g.name, action, fmt.Sprintf("http %d", resp.StatusCode), nil)
	}

	var probe struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &probe) == nil && probe.Error != "" {
		metrics.ObserveProviderCall(g.name, action, elapsed, false)
		return nil, domain.NewProviderError(g.name, action, probe.Error, nil)
	}

	metrics.ObserveProviderCall(g.name, action, elapsed, true)
	return body, nil
}

func (g *GenericPanel) CreateOrder(ctx context.Context, serviceID, link string, quantity int) (adapter.ProviderOrder, error) {
	params := url.Values{}
	params.Set("service", serviceID)
	params.Set("link", link)
	params.Set("quantity", strconv.Itoa(quantity))

	body, err := g.call(ctx, "add", params)
	if err != nil {
		return adapter.ProviderOrder{}, err
	}
	var out struct {
		Order  json.RawMessage `json:"order"`
		Status string          `json:"status"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return adapter.ProviderOrder{}, domain.NewProviderError(g.name, "add", "malformed response", err)
	}
	orderID := strings.Trim(strings.TrimSpace(string(out.Order)), `"`)
	if orderID == "" || orderID == "null" {
		return adapter.ProviderOrder{}, domain.NewProviderError(g.name, "add", "no order id in response", nil)
	}
	return adapter.ProviderOrder{OrderID: orderID, Status: out.Status, Raw: body}, nil
}

func (g *GenericPanel) GetOrderStatus(ctx context.Context, providerOrderID string) (adapter.ProviderStatus, error) {
	params := url.Values{}
	params.Set("order", providerOrderID)

	body, err := g.call(ctx, "status", params)
	if err != nil {
		return adapter.ProviderStatus{}, err
	}
	var out struct {
		Status     string          `json:"status"`
		StartCount json.RawMessage `json:"start_count"`
		Remains    json.RawMessage `json:"remains"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return adapter.ProviderStatus{}, domain.NewProviderError(g.name, "status", "malformed response", err)
	}
	return adapter.ProviderStatus{
		Status:     out.Status,
		StartCount: asInt(out.StartCount),
		Remains:    asInt(out.Remains),
		Raw:        body,
	}, nil
}

func (g *GenericPanel) GetBalance(ctx context.Context) (float64, error) {
	body, err := g.call(ctx, "balance", nil)
	if err != nil {
		return 0, err
	}
	var out struct {
		Balance json.RawMessage `json:"balance"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, domain.NewProviderError(g.name, "balance", "malformed response", err)
	}
	bal, ok := asFloat(out.Balance)
	if !ok {
		return 0, domain.NewProviderError(g.name, "balance", "malformed balance", nil)
	}
	return bal, nil
}

// Panels are inconsistent about numeric fields: the same panel can return
// both 3572 and "3572". asInt and asFloat accept either form.
func asInt(raw json.RawMessage) *int {
	f, ok := asFloat(raw)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}

func asFloat(raw json.RawMessage) (float64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (g *GenericPanel) GetServices(ctx context.Context) ([]adapter.ProviderService, error) {
	body, err := g.call(ctx, "services", nil)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Service  json.RawMessage `json:"service"`
		Name     string          `json:"name"`
		Category string          `json:"category"`
		Rate     string          `json:"rate"`
		Min      json.RawMessage `json:"min"`
		Max      json.RawMessage `json:"max"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, domain.NewProviderError(g.name, "services", "malformed response", err)
	}
	out := make([]adapter.ProviderService, 0, len(rows))
	for _, r := range rows {
		var min, max int
		if v := asInt(r.Min); v != nil {
			min = *v
		}
		if v := asInt(r.Max); v != nil {
			max = *v
		}
		out = append(out, adapter.ProviderService{
			ID:       strings.Trim(strings.TrimSpace(string(r.Service)), `"`),
			Name:     r.Name,
			Category: r.Category,
			Rate:     r.Rate,
			Min:      min,
			Max:      max,
		})
	}
	return out, nil
}
