package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"smm-panel/internal/domain/ports/repository"
	"smm-panel/internal/infra/logging"
	"smm-panel/internal/usecase"
)

type Server struct {
	pricingUC  usecase.PricingUseCase
	orderUC    usecase.OrderUseCase
	paymentUC  usecase.PaymentUseCase
	catalogUC  usecase.CatalogUseCase
	providerUC usecase.ProviderUseCase
	jobs       repository.DispatchJobRepository
	apiKey     string
	log        *zerolog.Logger
}

func NewServer(
	pricingUC usecase.PricingUseCase,
	orderUC usecase.OrderUseCase,
	paymentUC usecase.PaymentUseCase,
	catalogUC usecase.CatalogUseCase,
	providerUC usecase.ProviderUseCase,
	jobs repository.DispatchJobRepository,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		pricingUC:  pricingUC,
		orderUC:    orderUC,
		paymentUC:  paymentUC,
		catalogUC:  catalogUC,
		providerUC: providerUC,
		jobs:       jobs,
		apiKey:     apiKey,
		log:        logger,
	}
}

// Routes builds the full HTTP surface: storefront API, gateway webhooks and
// the bearer-key admin API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/services", servicesListHandler(s.catalogUC))
		r.Get("/services/{serviceID}/packages", packagesListHandler(s.catalogUC))
		r.Post("/quote", quoteHandler(s.pricingUC))

		r.Post("/orders", orderCreateHandler(s.orderUC))
		r.Get("/orders/{id}", orderGetHandler(s.orderUC))
		r.Get("/orders/number/{number}", orderGetByNumberHandler(s.orderUC))
		r.Post("/orders/{id}/confirm", orderConfirmHandler(s.orderUC, s.log))
		r.Post("/orders/{id}/intent", intentCreateHandler(s.paymentUC))

		r.Post("/webhooks/{gateway}", webhookHandler(s.paymentUC))

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/orders", adminOrdersHandler(s.orderUC))
			r.Post("/orders/{id}/cancel", adminStatusHandler(s.orderUC, "canceled"))
			r.Post("/orders/{id}/refund", adminStatusHandler(s.orderUC, "refunded"))
			r.Get("/dispatch/failures", dispatchFailuresHandler(s.jobs))
			r.Get("/providers", providersListHandler(s.providerUC))
			r.Post("/providers", providerSaveHandler(s.providerUC))
			r.Get("/providers/balances", providerBalancesHandler(s.providerUC))
			r.Get("/providers/{id}/services", providerServicesHandler(s.providerUC))
			r.Post("/services", serviceSaveHandler(s.catalogUC))
			r.Post("/packages", packageSaveHandler(s.catalogUC))
		})
	})

	return r
}

// requestLogger is a thin zerolog access log keyed by the chi request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(ww, r.WithContext(ctx))

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// authMiddleware provides simple Bearer token authentication for the admin API.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}

		if tokenParts[1] != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
