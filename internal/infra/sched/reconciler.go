package sched

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"smm-panel/internal/config"
	"smm-panel/internal/domain"
	"smm-panel/internal/domain/model"
	"smm-panel/internal/domain/ports/adapter"
	"smm-panel/internal/domain/ports/repository"
	"smm-panel/internal/infra/logging"
	"smm-panel/internal/infra/metrics"
	red "smm-panel/internal/infra/redis"
	"smm-panel/internal/usecase"
)

const runLockKey = "reconcile:run"

// Reconciler periodically pulls delivery progress for every dispatched order
// from its upstream panel and applies it to the order. This covers panels
// that have no push notifications, which is all of them.
type Reconciler struct {
	orders    repository.OrderRepository
	orderUC   usecase.OrderUseCase
	packages  repository.PackageRepository
	providers repository.ProviderRepository
	factory   usecase.AdapterFactory
	locker    red.Locker
	cfg       config.ReconcileConfig
	log       *zerolog.Logger
}

func NewReconciler(
	orders repository.OrderRepository,
	orderUC usecase.OrderUseCase,
	packages repository.PackageRepository,
	providers repository.ProviderRepository,
	factory usecase.AdapterFactory,
	locker red.Locker,
	cfg config.ReconcileConfig,
	logger *zerolog.Logger,
) *Reconciler {
	recLog := logger.With().Str("component", "Reconciler").Logger()
	return &Reconciler{
		orders:    orders,
		orderUC:   orderUC,
		packages:  packages,
		providers: providers,
		factory:   factory,
		locker:    locker,
		cfg:       cfg,
		log:       &recLog,
	}
}

func (w *Reconciler) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.cfg.Interval).Msg("starting reconciler")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping reconciler")
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single reconciliation sweep. The Redis run lock keeps
// overlapping sweeps (slow run, second replica) from hammering the panels.
func (w *Reconciler) RunOnce(ctx context.Context) {
	token, err := w.locker.TryLock(ctx, runLockKey, w.cfg.Budget)
	if err != nil {
		if errors.Is(err, domain.ErrLockNotAcquired) {
			metrics.IncReconcileRun("skipped")
			w.log.Debug().Msg("previous sweep still running, skipping")
			return
		}
		w.log.Error().Err(err).Msg("run lock error")
		return
	}
	defer func() { _ = w.locker.Unlock(context.Background(), runLockKey, token) }()
	defer logging.TraceDuration(w.log, "Reconciler.RunOnce")()

	deadline := time.Now().Add(w.cfg.Budget)
	orders, err := w.orders.ListForReconciliation(ctx, repository.NoTX, w.cfg.BatchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to list orders for reconciliation")
		return
	}

	result := "completed"
	for i, order := range orders {
		if time.Now().After(deadline) {
			w.log.Warn().Int("done", i).Int("batch", len(orders)).Msg("sweep budget exhausted")
			result = "budget_exceeded"
			break
		}
		// One order failing must not starve the rest of the batch.
		if err := w.reconcileOrder(ctx, order); err != nil {
			metrics.IncReconcileOrder("error")
			w.log.Error().Err(err).Str("order_id", order.ID).Msg("reconcile failed")
		}
		if w.cfg.CallDelay > 0 && i < len(orders)-1 {
			time.Sleep(w.cfg.CallDelay)
		}
	}
	metrics.IncReconcileRun(result)
}

func (w *Reconciler) reconcileOrder(ctx context.Context, order *model.Order) error {
	ctx = logging.WithOrderID(ctx, order.ID)
	ctx = logging.WithOrderNumber(ctx, order.OrderNumber)
	log := logging.With(ctx, w.log)

	pkg, err := w.packages.FindByID(ctx, repository.NoTX, order.PackageID)
	if err != nil {
		return err
	}
	prov, err := w.providers.FindByID(ctx, repository.NoTX, pkg.ProviderID)
	if err != nil {
		return err
	}
	panel := w.factory.For(prov)

	st, err := panel.GetOrderStatus(ctx, *order.ProviderOrderID)
	if err != nil {
		return err
	}

	upd := w.deriveUpdate(order, st)
	changed := upd.StartCount != nil || upd.CurrentCount != nil || upd.NewStatus != nil
	if !changed {
		metrics.IncReconcileOrder("unchanged")
		return nil
	}
	if _, err := w.orderUC.UpdateProgress(ctx, order.ID, upd); err != nil {
		return err
	}
	metrics.IncReconcileOrder("updated")
	ev := log.Debug().Str("provider_status", st.Status)
	if upd.NewStatus != nil {
		ev = ev.Str("new_status", string(*upd.NewStatus))
	}
	ev.Msg("order progress updated")
	return nil
}

// deriveUpdate maps a provider snapshot onto the order's state machine.
// Fields left nil are not written.
func (w *Reconciler) deriveUpdate(order *model.Order, st adapter.ProviderStatus) usecase.ProgressUpdate {
	upd := usecase.ProgressUpdate{Raw: st.Raw}

	if st.StartCount != nil && (order.StartCount == nil || *order.StartCount != *st.StartCount) {
		upd.StartCount = st.StartCount
	}

	var current *int
	if st.Remains != nil {
		delivered := order.Quantity - *st.Remains
		if delivered < 0 {
			delivered = 0
		}
		base := 0
		if st.StartCount != nil {
			base = *st.StartCount
		} else if order.StartCount != nil {
			base = *order.StartCount
		}
		c := base + delivered
		if order.CurrentCount == nil || *order.CurrentCount != c {
			current = &c
		}
		upd.CurrentCount = current
	}

	next := mapProviderStatus(st.Status)
	// Zero remains means full delivery even when the panel is slow to flip
	// its own status.
	if st.Remains != nil && *st.Remains == 0 && next != model.OrderStatusCanceled && next != model.OrderStatusRefunded {
		next = model.OrderStatusCompleted
	}
	if next == "" && w.stalled(order, current) {
		next = model.OrderStatusPartial
	}
	if next != "" && next != order.Status && order.Status.CanTransitionTo(next) {
		upd.NewStatus = &next
	}
	return upd
}

// stalled applies the optional partial-delivery policy: an order that keeps
// its counts for longer than StallAfter is closed as partial.
func (w *Reconciler) stalled(order *model.Order, newCurrent *int) bool {
	if w.cfg.StallAfter <= 0 {
		return false
	}
	if newCurrent != nil {
		return false // counts moved this sweep
	}
	if order.CurrentCount == nil || order.StartCount == nil {
		return false
	}
	return time.Since(order.UpdatedAt) > w.cfg.StallAfter
}

// mapProviderStatus folds the loose panel status vocabulary into ours. An
// unknown or pending status maps to "", meaning leave the order alone.
func mapProviderStatus(s string) model.OrderStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "completed", "complete":
		return model.OrderStatusCompleted
	case "partial":
		return model.OrderStatusPartial
	case "canceled", "cancelled":
		return model.OrderStatusCanceled
	case "refunded":
		return model.OrderStatusRefunded
	case "in progress", "inprogress", "processing":
		return model.OrderStatusInProgress
	default:
		return ""
	}
}
