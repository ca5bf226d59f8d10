package app

import (
	"context"
	"time"

	"github.com/aq2208/payment-api/internal/adapter/observ"
	"github.com/aq2208/payment-api/internal/logging"
	"github.com/aq2208/payment-api/internal/usecase"
)

// startScheduler drives the two reconciliation jobs on independent
// tickers. The jobs themselves are pure functions of the clock reading,
// so this stays a thin timer shell.
func startScheduler(ctx context.Context, r *usecase.Reconciler, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	go runEvery(ctx, interval, "orders", func(ctx context.Context, now time.Time) (usecase.ReconcileReport, error) {
		return r.ReconcileOrders(ctx, now)
	})
	go runEvery(ctx, interval, "refunds", func(ctx context.Context, now time.Time) (usecase.ReconcileReport, error) {
		return r.ReconcileRefunds(ctx, now)
	})
}

func runEvery(ctx context.Context, interval time.Duration, job string, run func(context.Context, time.Time) (usecase.ReconcileReport, error)) {
	l := logging.New("reconcile").With("job", job)
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Info("scheduler stopped")
			return
		case now := <-t.C:
			rep, err := run(ctx, now)
			if err != nil {
				l.Error("reconciliation pass failed", "err", err)
				continue
			}
			observ.ReconcileRunsTotal.WithLabelValues(job).Inc()
			count(job, "confirmed", rep.Confirmed)
			count(job, "closed", rep.Closed)
			count(job, "settled", rep.Settled)
			count(job, "abnormal", rep.Abnormal)
			count(job, "skipped", rep.Skipped)
			count(job, "error", rep.Errors)
			if rep.Scanned > 0 {
				l.Info("reconciliation pass done",
					"scanned", rep.Scanned,
					"confirmed", rep.Confirmed,
					"closed", rep.Closed,
					"settled", rep.Settled,
					"abnormal", rep.Abnormal,
					"skipped", rep.Skipped,
					"errors", rep.Errors,
				)
			}
		}
	}
}

func count(job, result string, n int) {
	if n > 0 {
		observ.ReconcileItemsTotal.WithLabelValues(job, result).Add(float64(n))
	}
}
