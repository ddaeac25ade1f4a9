package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"smm-panel/internal/config"
	"smm-panel/internal/domain"
	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/adapter"
	"smm-panel/internal/domain/ports/repository"
	"smm-panel/internal/infra/logging"
	"smm-panel/internal/infra/metrics"
	"smm-panel/internal/usecase"
)

// DispatchWorker drains the dispatch queue: it claims due jobs and sends
// the corresponding paid orders to their upstream panels. Failures are
// retried on a fixed schedule; after the last attempt the order is parked
// for admin review.
type DispatchWorker struct {
	jobs      repository.DispatchJobRepository
	orders    usecase.OrderUseCase
	packages  repository.PackageRepository
	providers repository.ProviderRepository
	factory   usecase.AdapterFactory
	cfg       config.DispatchConfig
	log       *zerolog.Logger
}

func NewDispatchWorker(
	jobs repository.DispatchJobRepository,
	orders usecase.OrderUseCase,
	packages repository.PackageRepository,
	providers repository.ProviderRepository,
	factory usecase.AdapterFactory,
	cfg config.DispatchConfig,
	logger *zerolog.Logger,
) *DispatchWorker {
	return &DispatchWorker{
		jobs:      jobs,
		orders:    orders,
		packages:  packages,
		providers: providers,
		factory:   factory,
		cfg:       cfg,
		log:       logger,
	}
}

// Start polls for due jobs and feeds them to the pool.
// This should be run in a goroutine.
func (w *DispatchWorker) Start(ctx context.Context, pool *Pool) {
	w.log.Info().Msg("dispatch worker started")
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("dispatch worker stopping")
			return
		case <-ticker.C:
			_ = pool.Submit(func(ctx context.Context) error {
				w.ProcessOne(ctx)
				return nil
			})
		}
	}
}

// ProcessOne claims and handles a single due job. It returns quietly when the
// queue is empty.
func (w *DispatchWorker) ProcessOne(ctx context.Context) {
	job, err := w.jobs.ClaimDue(ctx, time.Now())
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			w.log.Error().Err(err).Msg("failed to claim dispatch job")
		}
		return
	}

	ctx = logging.WithOrderID(ctx, job.OrderID)
	log := logging.With(ctx, w.log).With().Str("job_id", job.ID).Logger()
	start := time.Now()

	order, err := w.orders.GetByID(ctx, job.OrderID)
	if err != nil {
		log.Error().Err(err).Msg("dispatch job references missing order")
		w.finish(ctx, job.ID, model.DispatchJobFailed, "order not found")
		metrics.IncDispatch("failed")
		return
	}
	ctx = logging.WithOrderNumber(ctx, order.OrderNumber)
	log = logging.With(ctx, w.log).With().Str("job_id", job.ID).Logger()

	// Never touch the panel for an order that is not in a dispatchable
	// state. These are quiet no-ops: a mistimed or duplicate job must not
	// produce a second upstream order or an error.
	if skip := dispatchSkipReason(order); skip != "" {
		log.Info().Str("reason", skip).Msg("dispatch skipped")
		w.finish(ctx, job.ID, model.DispatchJobCompleted, skip)
		metrics.IncDispatch("skipped")
		return
	}

	providerOrder, dispatchErr := w.sendUpstream(ctx, order)
	if dispatchErr == nil {
		if _, err := w.orders.MarkDispatched(ctx, order.ID, providerOrder.OrderID, providerOrder.Raw); err != nil {
			// The upstream order exists; losing this write would re-dispatch.
			log.Error().Err(err).Str("provider_order_id", providerOrder.OrderID).Msg("failed to record dispatch")
			w.finish(ctx, job.ID, model.DispatchJobFailed, "record dispatch: "+err.Error())
			metrics.IncDispatch("failed")
			return
		}
		w.finish(ctx, job.ID, model.DispatchJobCompleted, "")
		metrics.IncDispatch("success")
		log.Info().Str("provider_order_id", providerOrder.OrderID).
			Dur("duration_ms", time.Since(start)).Msg("order dispatched")
		return
	}

	attempts := job.Attempts + 1
	if attempts > w.cfg.MaxAttempts {
		raw, _ := json.Marshal(map[string]string{
			"error":     dispatchErr.Error(),
			"failed_at": time.Now().UTC().Format(time.RFC3339),
		})
		if err := w.orders.RecordDispatchFailure(ctx, order.ID, raw); err != nil {
			log.Error().Err(err).Msg("failed to record dispatch failure")
		}
		w.finish(ctx, job.ID, model.DispatchJobFailed, dispatchErr.Error())
		metrics.IncDispatch("failed")
		log.Error().Err(dispatchErr).Int("attempts", attempts).Msg("dispatch retries exhausted")
		return
	}

	delay := w.cfg.RetryDelays[attempts-1]
	if err := w.jobs.Reschedule(ctx, repository.NoTX, job.ID, attempts, time.Now().Add(delay), dispatchErr.Error()); err != nil {
		log.Error().Err(err).Msg("failed to reschedule dispatch job")
	}
	metrics.IncDispatch("retry")
	log.Warn().Err(dispatchErr).Int("attempt", attempts).Dur("retry_in", delay).Msg("dispatch failed, will retry")
}

// dispatchSkipReason reports why an order must not be sent upstream, or ""
// when it is dispatchable.
func dispatchSkipReason(order *model.Order) string {
	if order.PaymentStatus != model.PaymentStatusCompleted {
		return "payment not completed"
	}
	if order.ProviderOrderID != nil {
		return "already dispatched"
	}
	if order.Status != model.OrderStatusPending {
		return "order not pending"
	}
	return ""
}

func (w *DispatchWorker) sendUpstream(ctx context.Context, order *model.Order) (adapter.ProviderOrder, error) {
	pkg, err := w.packages.FindByID(ctx, repository.NoTX, order.PackageID)
	if err != nil {
		return adapter.ProviderOrder{}, err
	}
	prov, err := w.providers.FindByID(ctx, repository.NoTX, pkg.ProviderID)
	if err != nil {
		return adapter.ProviderOrder{}, err
	}
	panel := w.factory.For(prov)
	return panel.CreateOrder(ctx, pkg.ProviderServiceID, order.PrimaryLink().URL, order.Quantity)
}

func (w *DispatchWorker) finish(ctx context.Context, jobID string, status model.DispatchJobStatus, note string) {
	if err := w.jobs.Finish(ctx, repository.NoTX, jobID, status, note); err != nil {
		w.log.Error().Err(err).Str("job_id", jobID).Msg("failed to finish dispatch job")
	}
}
