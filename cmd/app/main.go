// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smm-panel/internal/config"
	"smm-panel/internal/domain/ports/adapter"
	payAdapters "smm-panel/internal/infra/adapters/payment"
	smmAdapters "smm-panel/internal/infra/adapters/provider"
	pg "smm-panel/internal/infra/db/postgres"
	"smm-panel/internal/infra/logging"
	"smm-panel/internal/infra/metrics"
	red "smm-panel/internal/infra/redis"
	"smm-panel/internal/infra/sched"
	"smm-panel/internal/infra/web"
	"smm-panel/internal/infra/worker"
	"smm-panel/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop gateway and panel)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.PoolSize))
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	serviceRepo := pg.NewServiceRepoCacheDecorator(pg.NewServiceRepo(pool), redisClient, cfg.Redis.TTL)
	packageRepo := pg.NewPackageRepoCacheDecorator(pg.NewPackageRepo(pool), redisClient, cfg.Redis.TTL)
	couponRepo := pg.NewCouponRepo(pool)
	providerRepo := pg.NewProviderRepo(pool)
	orderRepo := pg.NewOrderRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	jobRepo := pg.NewDispatchJobRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Adapters ----
	factory := smmAdapters.NewFactory(cfg.Provider.Timeout)

	gateways := map[string]adapter.PaymentGateway{}
	if cfg.Payment.Stripe.SecretKey != "" {
		stripe, err := payAdapters.NewStripeGateway(cfg.Payment.Stripe)
		if err != nil {
			logger.Fatal().Err(err).Msg("stripe gateway init failed")
		}
		gateways["stripe"] = stripe
	}
	if cfg.Payment.Tap.SecretKey != "" {
		tap, err := payAdapters.NewTapGateway(cfg.Payment.Tap)
		if err != nil {
			logger.Fatal().Err(err).Msg("tap gateway init failed")
		}
		gateways["tap"] = tap
	}
	if cfg.Runtime.Dev {
		gateways["noop"] = payAdapters.NewNoopPaymentGateway()
	}
	if len(gateways) == 0 {
		logger.Fatal().Msg("no payment gateway configured: set payment.stripe or payment.tap in config")
	}

	// ---- Use cases ----
	pricingUC := usecase.NewPricingUseCase(packageRepo, couponRepo, logger)
	catalogUC := usecase.NewCatalogUseCase(serviceRepo, packageRepo, logger)
	providerUC := usecase.NewProviderUseCase(providerRepo, factory, logger)
	orderUC := usecase.NewOrderUseCase(orderRepo, packageRepo, serviceRepo, couponRepo, jobRepo, pricingUC, txManager, logger)
	paymentUC := usecase.NewPaymentUseCase(paymentRepo, orderRepo, orderUC, gateways, logger)

	// ---- Dispatch worker ----
	workerPool := worker.NewPool(cfg.Dispatch.Workers, logger)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	dispatcher := worker.NewDispatchWorker(jobRepo, orderUC, packageRepo, providerRepo, factory, cfg.Dispatch, logger)
	go dispatcher.Start(ctx, workerPool)

	// ---- Status reconciler ----
	reconciler := sched.NewReconciler(orderRepo, orderUC, packageRepo, providerRepo, factory, locker, cfg.Reconcile, logger)
	go func() { _ = reconciler.Run(ctx) }()

	// ---- HTTP ----
	metrics.MustRegister()
	srv := web.NewServer(pricingUC, orderUC, paymentUC, catalogUC, providerUC, jobRepo, cfg.Server.AdminAPIKey, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
}
