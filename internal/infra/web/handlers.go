package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"smm-panel/internal/domain"
	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/repository"
	"smm-panel/internal/usecase"
)

const maxBodyBytes = 1 << 20 // webhooks and admin payloads alike

// signatureHeaders maps a gateway name to the header carrying its webhook
// signature. Unlisted gateways fall back to X-Signature.
var signatureHeaders = map[string]string{
	"stripe": "Stripe-Signature",
	"tap":    "hashstring",
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses. Internal errors never
// leak their message to the client.
func writeError(w http.ResponseWriter, err error) {
	var (
		valErr    *domain.ValidationError
		couponErr *domain.CouponInvalidError
		linkErr   *domain.InvalidTargetLinkError
		transErr  *domain.InvalidStateTransitionError
	)
	switch {
	case errors.As(err, &valErr), errors.As(err, &couponErr), errors.As(err, &linkErr),
		errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.As(err, &transErr):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

type serviceResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

func toServiceResponse(s *model.Service) serviceResponse {
	return serviceResponse{ID: s.ID, Name: s.Name, Slug: s.Slug, Type: string(s.Type), Active: s.Active}
}

type packageResponse struct {
	ID            string `json:"id"`
	ServiceID     string `json:"service_id"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	Currency      string `json:"currency"`
	MinQuantity   int    `json:"min_quantity"`
	MaxQuantity   int    `json:"max_quantity"`
	RefillEnabled bool   `json:"refill_enabled"`
	RefillDays    int    `json:"refill_days,omitempty"`
}

func toPackageResponse(p *model.Package) packageResponse {
	return packageResponse{
		ID:            p.ID,
		ServiceID:     p.ServiceID,
		Name:          p.Name,
		Price:         p.Price.String(),
		Currency:      p.Currency,
		MinQuantity:   p.MinQuantity,
		MaxQuantity:   p.MaxQuantity,
		RefillEnabled: p.RefillEnabled,
		RefillDays:    p.RefillDays,
	}
}

type orderResponse struct {
	ID              string             `json:"id"`
	OrderNumber     string             `json:"order_number"`
	PackageID       string             `json:"package_id"`
	ServiceID       string             `json:"service_id"`
	Quantity        int                `json:"quantity"`
	Links           []model.TargetLink `json:"links"`
	Amount          string             `json:"amount"`
	Discount        string             `json:"discount"`
	Currency        string             `json:"currency"`
	Status          string             `json:"status"`
	PaymentStatus   string             `json:"payment_status"`
	ProviderOrderID *string            `json:"provider_order_id,omitempty"`
	StartCount      *int               `json:"start_count,omitempty"`
	CurrentCount    *int               `json:"current_count,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
}

func toOrderResponse(o *model.Order) orderResponse {
	return orderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		PackageID:       o.PackageID,
		ServiceID:       o.ServiceID,
		Quantity:        o.Quantity,
		Links:           o.Links,
		Amount:          o.Amount.String(),
		Discount:        o.Discount.String(),
		Currency:        o.Currency,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		ProviderOrderID: o.ProviderOrderID,
		StartCount:      o.StartCount,
		CurrentCount:    o.CurrentCount,
		CreatedAt:       o.CreatedAt,
		CompletedAt:     o.CompletedAt,
	}
}

func servicesListHandler(catalogUC usecase.CatalogUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := catalogUC.ListServices(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]serviceResponse, 0, len(services))
		for _, s := range services {
			out = append(out, toServiceResponse(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func packagesListHandler(catalogUC usecase.CatalogUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		packages, err := catalogUC.ListPackages(r.Context(), chi.URLParam(r, "serviceID"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]packageResponse, 0, len(packages))
		for _, p := range packages {
			out = append(out, toPackageResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type quoteRequest struct {
	PackageID  string `json:"package_id"`
	Quantity   int    `json:"quantity"`
	CouponCode string `json:"coupon_code"`
}

func quoteHandler(pricingUC usecase.PricingUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		quote, err := pricingUC.Quote(r.Context(), req.PackageID, req.Quantity, req.CouponCode)
		if err != nil {
			writeError(w, err)
			return
		}

		resp := struct {
			Package    packageResponse `json:"package"`
			Quantity   int             `json:"quantity"`
			Subtotal   string          `json:"subtotal"`
			Discount   string          `json:"discount"`
			Total      string          `json:"total"`
			Currency   string          `json:"currency"`
			CouponCode string          `json:"coupon_code,omitempty"`
		}{
			Package:  toPackageResponse(quote.Package),
			Quantity: quote.Quantity,
			Subtotal: quote.Subtotal.String(),
			Discount: quote.Discount.String(),
			Total:    quote.Total.String(),
			Currency: quote.Currency,
		}
		if quote.Coupon != nil {
			resp.CouponCode = quote.Coupon.Code
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type orderCreateRequest struct {
	PackageID  string             `json:"package_id"`
	Quantity   int                `json:"quantity"`
	Links      []model.TargetLink `json:"links"`
	CouponCode string             `json:"coupon_code"`
	UserID     *string            `json:"user_id"`
	GuestEmail *string            `json:"guest_email"`
}

func orderCreateHandler(orderUC usecase.OrderUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orderCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		order, err := orderUC.CreateOrder(r.Context(), usecase.CreateOrderInput{
			PackageID:  req.PackageID,
			Quantity:   req.Quantity,
			Links:      req.Links,
			CouponCode: req.CouponCode,
			UserID:     req.UserID,
			GuestEmail: req.GuestEmail,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toOrderResponse(order))
	}
}

func orderGetHandler(orderUC usecase.OrderUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := orderUC.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

func orderGetByNumberHandler(orderUC usecase.OrderUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := orderUC.GetByNumber(r.Context(), chi.URLParam(r, "number"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

// orderConfirmHandler acknowledges the customer's return from the gateway.
// The response is always success-shaped for a known order; the webhook
// remains the authoritative payment signal.
func orderConfirmHandler(orderUC usecase.OrderUseCase, logger *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		order, msg, err := orderUC.ConfirmPayment(r.Context(), id)
		if err != nil {
			var ist *domain.InvalidStateTransitionError
			if errors.As(err, &ist) || errors.Is(err, domain.ErrNotFound) {
				writeError(w, err)
				return
			}
			// Anything else is an internal hiccup. The webhook will settle
			// the payment regardless, so report the order as-is rather than
			// failing the customer's return trip.
			logger.Error().Err(err).Str("order_id", id).Msg("payment confirmation deferred to webhook")
			order, err = orderUC.GetByID(r.Context(), id)
			if err != nil {
				writeError(w, err)
				return
			}
			msg = "Payment is being processed"
		}
		writeJSON(w, http.StatusOK, struct {
			Order   orderResponse `json:"order"`
			Message string        `json:"message"`
		}{toOrderResponse(order), msg})
	}
}

type intentCreateRequest struct {
	Gateway string  `json:"gateway"`
	UserID  *string `json:"user_id"`
}

func intentCreateHandler(paymentUC usecase.PaymentUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req intentCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		payment, intent, err := paymentUC.CreateIntent(r.Context(), chi.URLParam(r, "id"), req.Gateway, req.UserID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			PaymentID   string `json:"payment_id"`
			IntentID    string `json:"intent_id"`
			RedirectURL string `json:"redirect_url,omitempty"`
			ClientToken string `json:"client_token,omitempty"`
			Amount      string `json:"amount"`
			Currency    string `json:"currency"`
		}{
			PaymentID:   payment.ID,
			IntentID:    intent.ID,
			RedirectURL: intent.RedirectURL,
			ClientToken: intent.ClientToken,
			Amount:      payment.Amount.String(),
			Currency:    payment.Currency,
		})
	}
}

func webhookHandler(paymentUC usecase.PaymentUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gateway := chi.URLParam(r, "gateway")
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, "Failed to read body", http.StatusBadRequest)
			return
		}

		header := signatureHeaders[gateway]
		if header == "" {
			header = "X-Signature"
		}

		if err := paymentUC.HandleWebhook(r.Context(), gateway, payload, r.Header.Get(header)); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	}
}

func adminOrdersHandler(orderUC usecase.OrderUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		orders, err := orderUC.ListByOwner(r.Context(), userID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]orderResponse, 0, len(orders))
		for _, o := range orders {
			out = append(out, toOrderResponse(o))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func adminStatusHandler(orderUC usecase.OrderUseCase, to model.OrderStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := orderUC.SetStatus(r.Context(), chi.URLParam(r, "id"), to)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

func dispatchFailuresHandler(jobs repository.DispatchJobRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		failed, err := jobs.ListFailed(r.Context(), repository.NoTX, limit)
		if err != nil {
			writeError(w, err)
			return
		}

		type jobRow struct {
			ID         string    `json:"id"`
			OrderID    string    `json:"order_id"`
			Attempts   int       `json:"attempts"`
			LastError  string    `json:"last_error"`
			FailedAt   time.Time `json:"failed_at"`
			EnqueuedAt time.Time `json:"enqueued_at"`
		}
		out := make([]jobRow, 0, len(failed))
		for _, j := range failed {
			out = append(out, jobRow{
				ID:         j.ID,
				OrderID:    j.OrderID,
				Attempts:   j.Attempts,
				LastError:  j.LastError,
				FailedAt:   j.UpdatedAt,
				EnqueuedAt: j.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type providerResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	APIURL string `json:"api_url"`
	Active bool   `json:"active"`
}

func providersListHandler(providerUC usecase.ProviderUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providers, err := providerUC.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		// API keys stay server-side.
		out := make([]providerResponse, 0, len(providers))
		for _, p := range providers {
			out = append(out, providerResponse{ID: p.ID, Name: p.Name, Slug: p.Slug, APIURL: p.APIURL, Active: p.Active})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type providerSaveRequest struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Slug     string            `json:"slug"`
	APIURL   string            `json:"api_url"`
	APIKey   string            `json:"api_key"`
	Active   *bool             `json:"active"`
	Settings map[string]string `json:"settings"`
}

func providerSaveHandler(providerUC usecase.ProviderUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req providerSaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Name == "" || req.APIURL == "" {
			http.Error(w, "name and api_url are required", http.StatusBadRequest)
			return
		}

		p := &model.Provider{
			ID:       req.ID,
			Name:     req.Name,
			Slug:     req.Slug,
			APIURL:   req.APIURL,
			APIKey:   req.APIKey,
			Active:   true,
			Settings: req.Settings,
		}
		if p.ID == "" {
			p.ID = domain.NewUUID()
		}
		if req.Active != nil {
			p.Active = *req.Active
		}

		if err := providerUC.Save(r.Context(), p); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, providerResponse{ID: p.ID, Name: p.Name, Slug: p.Slug, APIURL: p.APIURL, Active: p.Active})
	}
}

func providerBalancesHandler(providerUC usecase.ProviderUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		balances, err := providerUC.Balances(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		type balanceRow struct {
			ProviderID string  `json:"provider_id"`
			Name       string  `json:"name"`
			Balance    float64 `json:"balance"`
			Error      string  `json:"error,omitempty"`
		}
		out := make([]balanceRow, 0, len(balances))
		for _, b := range balances {
			out = append(out, balanceRow{
				ProviderID: b.Provider.ID,
				Name:       b.Provider.Name,
				Balance:    b.Balance,
				Error:      b.Err,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func providerServicesHandler(providerUC usecase.ProviderUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := providerUC.Services(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, services)
	}
}

type serviceSaveRequest struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Type   string `json:"type"`
	Active *bool  `json:"active"`
}

func serviceSaveHandler(catalogUC usecase.CatalogUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req serviceSaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		svc := &model.Service{
			ID:     req.ID,
			Name:   req.Name,
			Slug:   req.Slug,
			Type:   model.ServiceType(req.Type),
			Active: true,
		}
		if svc.ID == "" {
			svc.ID = domain.NewUUID()
		}
		if req.Active != nil {
			svc.Active = *req.Active
		}

		if err := catalogUC.SaveService(r.Context(), svc); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toServiceResponse(svc))
	}
}

type packageSaveRequest struct {
	ID                string `json:"id"`
	ServiceID         string `json:"service_id"`
	Name              string `json:"name"`
	Price             string `json:"price"`
	Currency          string `json:"currency"`
	MinQuantity       int    `json:"min_quantity"`
	MaxQuantity       int    `json:"max_quantity"`
	RefillEnabled     bool   `json:"refill_enabled"`
	RefillDays        int    `json:"refill_days"`
	ProviderID        string `json:"provider_id"`
	ProviderServiceID string `json:"provider_service_id"`
	Active            *bool  `json:"active"`
}

func packageSaveHandler(catalogUC usecase.CatalogUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req packageSaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			http.Error(w, "Invalid price", http.StatusBadRequest)
			return
		}

		pkg := &model.Package{
			ID:                req.ID,
			ServiceID:         req.ServiceID,
			Name:              req.Name,
			Price:             price,
			Currency:          req.Currency,
			MinQuantity:       req.MinQuantity,
			MaxQuantity:       req.MaxQuantity,
			RefillEnabled:     req.RefillEnabled,
			RefillDays:        req.RefillDays,
			ProviderID:        req.ProviderID,
			ProviderServiceID: req.ProviderServiceID,
			Active:            true,
		}
		if pkg.ID == "" {
			pkg.ID = domain.NewUUID()
		}
		if req.Active != nil {
			pkg.Active = *req.Active
		}

		if err := catalogUC.SavePackage(r.Context(), pkg); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPackageResponse(pkg))
	}
}
