package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smm-panel/internal/domain"
	"smm-panel/internal/domain/model"
)

func mustProvider(t *testing.T, name, slug string) *model.Provider {
	t.Helper()
	p, err := model.NewProvider("11111111-1111-1111-1111-111111111111", name, slug, "https://panel.example/api/v2", "key")
	if err != nil {
		t.Fatalf("failed to build provider: %v", err)
	}
	return p
}

func TestGenericPanel_CreateOrder(t *testing.T) {
	t.Run("should send key, action and order params as a form", func(t *testing.T) {
		var gotForm map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			gotForm = map[string]string{
				"key":      r.PostFormValue("key"),
				"action":   r.PostFormValue("action"),
				"service":  r.PostFormValue("service"),
				"link":     r.PostFormValue("link"),
				"quantity": r.PostFormValue("quantity"),
			}
			w.Write([]byte(`{"order": 23501}`))
		}))
		defer srv.Close()

		panel := NewGenericPanel("upstream", srv.URL, "secret-key", 5*time.Second)
		got, err := panel.CreateOrder(context.Background(), "101", "https://youtube.com/watch?v=abc", 5000)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.OrderID != "23501" {
			t.Errorf("expected order id 23501, got %q", got.OrderID)
		}
		if gotForm["key"] != "secret-key" || gotForm["action"] != "add" {
			t.Errorf("auth params wrong: %+v", gotForm)
		}
		if gotForm["service"] != "101" || gotForm["quantity"] != "5000" {
			t.Errorf("order params wrong: %+v", gotForm)
		}
	})

	t.Run("should accept a quoted order id", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"order": "900123"}`))
		}))
		defer srv.Close()

		panel := NewGenericPanel("upstream", srv.URL, "k", 5*time.Second)
		got, err := panel.CreateOrder(context.Background(), "1", "https://youtu.be/x", 100)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.OrderID != "900123" {
			t.Errorf("expected order id 900123, got %q", got.OrderID)
		}
	})

	t.Run("should surface the panel error field", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": "not_enough_funds"}`))
		}))
		defer srv.Close()

		panel := NewGenericPanel("upstream", srv.URL, "k", 5*time.Second)
		_, err := panel.CreateOrder(context.Background(), "1", "https://youtu.be/x", 100)
		var perr *domain.ProviderError
		if !errors.As(err, &perr) {
			t.Fatalf("expected ProviderError, got %v", err)
		}
		if perr.Message != "not_enough_funds" {
			t.Errorf("expected upstream message, got %q", perr.Message)
		}
	})

	t.Run("should fail on a non-2xx response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		panel := NewGenericPanel("upstream", srv.URL, "k", 5*time.Second)
		_, err := panel.CreateOrder(context.Background(), "1", "https://youtu.be/x", 100)
		var perr *domain.ProviderError
		if !errors.As(err, &perr) {
			t.Fatalf("expected ProviderError, got %v", err)
		}
	})
}

func TestGenericPanel_GetOrderStatus(t *testing.T) {
	t.Run("should parse numeric fields in both number and string form", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.PostFormValue("action") != "status" {
				t.Errorf("expected status action, got %s", r.PostFormValue("action"))
			}
			w.Write([]byte(`{"status": "Partial", "start_count": "3572", "remains": 157}`))
		}))
		defer srv.Close()

		panel := NewGenericPanel("upstream", srv.URL, "k", 5*time.Second)
		got, err := panel.GetOrderStatus(context.Background(), "23501")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Status != "Partial" {
			t.Errorf("expected Partial, got %q", got.Status)
		}
		if got.StartCount == nil || *got.StartCount != 3572 {
			t.Errorf("start count wrong: %v", got.StartCount)
		}
		if got.Remains == nil || *got.Remains != 157 {
			t.Errorf("remains wrong: %v", got.Remains)
		}
	})

	t.Run("missing counters should stay nil", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": "Pending"}`))
		}))
		defer srv.Close()

		panel := NewGenericPanel("upstream", srv.URL, "k", 5*time.Second)
		got, err := panel.GetOrderStatus(context.Background(), "23501")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.StartCount != nil || got.Remains != nil {
			t.Error("absent counters should decode as nil")
		}
	})
}

func TestGenericPanel_GetBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balance": "100.84", "currency": "USD"}`))
	}))
	defer srv.Close()

	panel := NewGenericPanel("upstream", srv.URL, "k", 5*time.Second)
	got, err := panel.GetBalance(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != 100.84 {
		t.Errorf("expected 100.84, got %v", got)
	}
}

func TestFactory(t *testing.T) {
	f := NewFactory(5 * time.Second)

	t.Run("unknown slug should fall back to the generic panel", func(t *testing.T) {
		p := mustProvider(t, "Upstream", "custom-slug")
		if _, ok := f.For(p).(*GenericPanel); !ok {
			t.Error("expected the generic panel adapter")
		}
	})

	t.Run("noop slug should select the noop panel", func(t *testing.T) {
		p := mustProvider(t, "Dev", "noop")
		if _, ok := f.For(p).(*NoopPanel); !ok {
			t.Error("expected the noop panel adapter")
		}
	})
}
