//go:build !integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"smm-panel/internal/domain"
	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/repository"
	"smm-panel/internal/usecase"
)

type mockPricingUC struct {
	QuoteFunc func(ctx context.Context, packageID string, quantity int, couponCode string) (*usecase.Quote, error)
}

func (m *mockPricingUC) Quote(ctx context.Context, packageID string, quantity int, couponCode string) (*usecase.Quote, error) {
	return m.QuoteFunc(ctx, packageID, quantity, couponCode)
}

type mockOrderUC struct {
	usecase.OrderUseCase
	CreateOrderFunc    func(ctx context.Context, in usecase.CreateOrderInput) (*model.Order, error)
	ConfirmPaymentFunc func(ctx context.Context, orderID string) (*model.Order, string, error)
	SetStatusFunc      func(ctx context.Context, orderID string, to model.OrderStatus) (*model.Order, error)
	GetByIDFunc        func(ctx context.Context, orderID string) (*model.Order, error)
	GetByNumberFunc    func(ctx context.Context, number string) (*model.Order, error)
}

func (m *mockOrderUC) CreateOrder(ctx context.Context, in usecase.CreateOrderInput) (*model.Order, error) {
	return m.CreateOrderFunc(ctx, in)
}
func (m *mockOrderUC) ConfirmPayment(ctx context.Context, orderID string) (*model.Order, string, error) {
	return m.ConfirmPaymentFunc(ctx, orderID)
}
func (m *mockOrderUC) SetStatus(ctx context.Context, orderID string, to model.OrderStatus) (*model.Order, error) {
	return m.SetStatusFunc(ctx, orderID, to)
}
func (m *mockOrderUC) GetByID(ctx context.Context, orderID string) (*model.Order, error) {
	return m.GetByIDFunc(ctx, orderID)
}
func (m *mockOrderUC) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	return m.GetByNumberFunc(ctx, number)
}

type mockPaymentUC struct {
	usecase.PaymentUseCase
	HandleWebhookFunc func(ctx context.Context, gatewayName string, payload []byte, signature string) error
}

func (m *mockPaymentUC) HandleWebhook(ctx context.Context, gatewayName string, payload []byte, signature string) error {
	return m.HandleWebhookFunc(ctx, gatewayName, payload, signature)
}

type mockCatalogUC struct {
	usecase.CatalogUseCase
	ListServicesFunc func(ctx context.Context) ([]*model.Service, error)
}

func (m *mockCatalogUC) ListServices(ctx context.Context) ([]*model.Service, error) {
	return m.ListServicesFunc(ctx)
}

type mockJobRepo struct {
	repository.DispatchJobRepository
	ListFailedFunc func(ctx context.Context, tx repository.Tx, limit int) ([]*model.DispatchJob, error)
}

func (m *mockJobRepo) ListFailed(ctx context.Context, tx repository.Tx, limit int) ([]*model.DispatchJob, error) {
	return m.ListFailedFunc(ctx, tx, limit)
}

const testAdminKey = "test-admin-key"

func newTestServer(t *testing.T, mutate func(s *Server)) http.Handler {
	t.Helper()
	logger := zerolog.Nop()
	s := NewServer(nil, nil, nil, nil, nil, nil, testAdminKey, &logger)
	if mutate != nil {
		mutate(s)
	}
	return s.Routes()
}

func sampleOrder() *model.Order {
	return &model.Order{
		ID:            "ord-1",
		OrderNumber:   "SMM-20260830-A1B2C3",
		PackageID:     "pkg-1",
		ServiceID:     "svc-1",
		Quantity:      5000,
		Links:         []model.TargetLink{{URL: "https://youtube.com/watch?v=abc123def45", Quantity: 5000}},
		Amount:        decimal.RequireFromString("8.991"),
		Discount:      decimal.RequireFromString("0.999"),
		Currency:      "USD",
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestQuoteHandler(t *testing.T) {
	t.Run("should return the priced quote", func(t *testing.T) {
		pricing := &mockPricingUC{
			QuoteFunc: func(_ context.Context, packageID string, quantity int, couponCode string) (*usecase.Quote, error) {
				if packageID != "pkg-1" || quantity != 5000 || couponCode != "WELCOME10" {
					t.Errorf("unexpected quote args: %s %d %s", packageID, quantity, couponCode)
				}
				return &usecase.Quote{
					Package:  &model.Package{ID: "pkg-1", Price: decimal.RequireFromString("9.99"), Currency: "USD"},
					Coupon:   &model.Coupon{Code: "WELCOME10"},
					Quantity: quantity,
					Subtotal: decimal.RequireFromString("9.99"),
					Discount: decimal.RequireFromString("0.999"),
					Total:    decimal.RequireFromString("8.991"),
					Currency: "USD",
				}, nil
			},
		}
		router := newTestServer(t, func(s *Server) { s.pricingUC = pricing })

		body := `{"package_id":"pkg-1","quantity":5000,"coupon_code":"WELCOME10"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quote", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp struct {
			Total      string `json:"total"`
			CouponCode string `json:"coupon_code"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Total != "8.991" {
			t.Errorf("total = %q, want 8.991", resp.Total)
		}
		if resp.CouponCode != "WELCOME10" {
			t.Errorf("coupon_code = %q", resp.CouponCode)
		}
	})

	t.Run("should map an invalid coupon to 400", func(t *testing.T) {
		pricing := &mockPricingUC{
			QuoteFunc: func(_ context.Context, _ string, _ int, _ string) (*usecase.Quote, error) {
				return nil, &domain.CouponInvalidError{Code: "DEAD", Reason: "expired"}
			},
		}
		router := newTestServer(t, func(s *Server) { s.pricingUC = pricing })

		req := httptest.NewRequest(http.MethodPost, "/api/v1/quote", bytes.NewBufferString(`{"package_id":"pkg-1","quantity":1,"coupon_code":"DEAD"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestOrderHandlers(t *testing.T) {
	t.Run("should create an order", func(t *testing.T) {
		orders := &mockOrderUC{
			CreateOrderFunc: func(_ context.Context, in usecase.CreateOrderInput) (*model.Order, error) {
				if in.PackageID != "pkg-1" || len(in.Links) != 1 {
					t.Errorf("unexpected input: %+v", in)
				}
				return sampleOrder(), nil
			},
		}
		router := newTestServer(t, func(s *Server) { s.orderUC = orders })

		body := `{"package_id":"pkg-1","quantity":5000,"links":[{"url":"https://youtube.com/watch?v=abc123def45","quantity":5000}],"guest_email":"a@b.com"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
		}
		var resp orderResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.OrderNumber != "SMM-20260830-A1B2C3" {
			t.Errorf("order_number = %q", resp.OrderNumber)
		}
		if resp.Amount != "8.991" {
			t.Errorf("amount = %q", resp.Amount)
		}
	})

	t.Run("should return 404 for an unknown order", func(t *testing.T) {
		orders := &mockOrderUC{
			GetByIDFunc: func(_ context.Context, _ string) (*model.Order, error) {
				return nil, domain.ErrNotFound
			},
		}
		router := newTestServer(t, func(s *Server) { s.orderUC = orders })

		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/nope", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("should look an order up by number", func(t *testing.T) {
		orders := &mockOrderUC{
			GetByNumberFunc: func(_ context.Context, number string) (*model.Order, error) {
				if number != "SMM-20260830-A1B2C3" {
					t.Errorf("number = %q", number)
				}
				return sampleOrder(), nil
			},
		}
		router := newTestServer(t, func(s *Server) { s.orderUC = orders })

		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/number/SMM-20260830-A1B2C3", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("should confirm with the already-confirmed message", func(t *testing.T) {
		orders := &mockOrderUC{
			ConfirmPaymentFunc: func(_ context.Context, orderID string) (*model.Order, string, error) {
				o := sampleOrder()
				o.PaymentStatus = model.PaymentStatusCompleted
				return o, usecase.MsgPaymentAlreadyConfirmed, nil
			},
		}
		router := newTestServer(t, func(s *Server) { s.orderUC = orders })

		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/ord-1/confirm", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp struct {
			Message string `json:"message"`
		}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Message != usecase.MsgPaymentAlreadyConfirmed {
			t.Errorf("message = %q", resp.Message)
		}
	})

	t.Run("should report the current order when confirmation fails internally", func(t *testing.T) {
		orders := &mockOrderUC{
			ConfirmPaymentFunc: func(_ context.Context, _ string) (*model.Order, string, error) {
				return nil, "", errors.New("commit failed")
			},
			GetByIDFunc: func(_ context.Context, orderID string) (*model.Order, error) {
				if orderID != "ord-1" {
					t.Errorf("order id = %q", orderID)
				}
				return sampleOrder(), nil
			},
		}
		router := newTestServer(t, func(s *Server) { s.orderUC = orders })

		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/ord-1/confirm", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp struct {
			Order   orderResponse `json:"order"`
			Message string        `json:"message"`
		}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Order.OrderNumber != "SMM-20260830-A1B2C3" {
			t.Errorf("order_number = %q", resp.Order.OrderNumber)
		}
		if resp.Message == "" {
			t.Error("expected a customer-facing message")
		}
	})

	t.Run("should keep 409 for an illegal confirmation state", func(t *testing.T) {
		orders := &mockOrderUC{
			ConfirmPaymentFunc: func(_ context.Context, _ string) (*model.Order, string, error) {
				return nil, "", &domain.InvalidStateTransitionError{
					Axis: "payment", From: "failed", To: "completed",
				}
			},
		}
		router := newTestServer(t, func(s *Server) { s.orderUC = orders })

		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/ord-1/confirm", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})
}

func TestWebhookHandler(t *testing.T) {
	t.Run("should read the Stripe signature header", func(t *testing.T) {
		var gotGateway, gotSig string
		var gotPayload []byte
		payments := &mockPaymentUC{
			HandleWebhookFunc: func(_ context.Context, gatewayName string, payload []byte, signature string) error {
				gotGateway, gotPayload, gotSig = gatewayName, payload, signature
				return nil
			},
		}
		router := newTestServer(t, func(s *Server) { s.paymentUC = payments })

		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewBufferString(`{"type":"payment_intent.succeeded"}`))
		req.Header.Set("Stripe-Signature", "t=1,v1=abc")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if gotGateway != "stripe" {
			t.Errorf("gateway = %q", gotGateway)
		}
		if gotSig != "t=1,v1=abc" {
			t.Errorf("signature = %q", gotSig)
		}
		if string(gotPayload) != `{"type":"payment_intent.succeeded"}` {
			t.Errorf("payload = %s", gotPayload)
		}
	})

	t.Run("should reject a bad signature with 400", func(t *testing.T) {
		payments := &mockPaymentUC{
			HandleWebhookFunc: func(_ context.Context, _ string, _ []byte, _ string) error {
				return domain.NewValidationError("signature", "signature mismatch")
			},
		}
		router := newTestServer(t, func(s *Server) { s.paymentUC = payments })

		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewBufferString(`{}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestAuthMiddleware(t *testing.T) {
	jobs := &mockJobRepo{
		ListFailedFunc: func(_ context.Context, _ repository.Tx, _ int) ([]*model.DispatchJob, error) {
			return nil, nil
		},
	}

	cases := []struct {
		name   string
		key    string
		header string
		want   int
	}{
		{"missing header", testAdminKey, "", http.StatusUnauthorized},
		{"malformed token", testAdminKey, "NotBearer abc", http.StatusUnauthorized},
		{"wrong key", testAdminKey, "Bearer wrong", http.StatusForbidden},
		{"unconfigured key", "", "Bearer anything", http.StatusForbidden},
		{"valid key", testAdminKey, "Bearer " + testAdminKey, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestServer(t, func(s *Server) {
				s.apiKey = tc.key
				s.jobs = jobs
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dispatch/failures", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestAdminHandlers(t *testing.T) {
	t.Run("should cancel via the status endpoint", func(t *testing.T) {
		orders := &mockOrderUC{
			SetStatusFunc: func(_ context.Context, orderID string, to model.OrderStatus) (*model.Order, error) {
				if to != model.OrderStatusCanceled {
					t.Errorf("to = %q, want canceled", to)
				}
				o := sampleOrder()
				o.Status = model.OrderStatusCanceled
				return o, nil
			},
		}
		router := newTestServer(t, func(s *Server) { s.orderUC = orders })

		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/ord-1/cancel", nil)
		req.Header.Set("Authorization", "Bearer "+testAdminKey)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("should map a forbidden transition to 409", func(t *testing.T) {
		orders := &mockOrderUC{
			SetStatusFunc: func(_ context.Context, _ string, _ model.OrderStatus) (*model.Order, error) {
				return nil, &domain.InvalidStateTransitionError{Axis: "status", From: "completed", To: "refunded"}
			},
		}
		router := newTestServer(t, func(s *Server) { s.orderUC = orders })

		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/ord-1/refund", nil)
		req.Header.Set("Authorization", "Bearer "+testAdminKey)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("should list failed dispatch jobs", func(t *testing.T) {
		jobs := &mockJobRepo{
			ListFailedFunc: func(_ context.Context, _ repository.Tx, _ int) ([]*model.DispatchJob, error) {
				return []*model.DispatchJob{
					{ID: "job-1", OrderID: "ord-1", Status: model.DispatchJobFailed, Attempts: 4, LastError: "panel down"},
				}, nil
			},
		}
		router := newTestServer(t, func(s *Server) { s.jobs = jobs })

		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dispatch/failures", nil)
		req.Header.Set("Authorization", "Bearer "+testAdminKey)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var rows []struct {
			OrderID   string `json:"order_id"`
			LastError string `json:"last_error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(rows) != 1 || rows[0].OrderID != "ord-1" || rows[0].LastError != "panel down" {
			t.Errorf("unexpected rows: %+v", rows)
		}
	})

	t.Run("should serve the public services listing", func(t *testing.T) {
		services := &mockCatalogUC{
			ListServicesFunc: func(_ context.Context) ([]*model.Service, error) {
				return []*model.Service{{ID: "svc-1", Name: "YouTube Views", Slug: "yt-views", Type: model.ServiceTypeViews, Active: true}}, nil
			},
		}
		router := newTestServer(t, func(s *Server) { s.catalogUC = services })

		req := httptest.NewRequest(http.MethodGet, "/api/v1/services", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})
}
