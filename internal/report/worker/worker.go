// Package worker posts scheduled signup reports to the support channel.
package worker

import (
	"context"
	"time"

	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/catalog"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/clock"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/notify"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/observability/metrics"
	reportdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Sender is the slice of the Slack client the worker needs.
type Sender interface {
	SendMessage(ctx context.Context, text, title string) error
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Reports reportdomain.Service
	Catalog catalog.Catalog
	Slack   *notify.SlackClient
	Clock   clock.Clock
	Config  Config                 `optional:"true"`
	Metrics *metrics.ReportMetrics `optional:"true"`
}

type Worker struct {
	log     *zap.Logger
	reports reportdomain.Service
	catalog catalog.Catalog
	sender  Sender
	clock   clock.Clock
	cfg     Config
	metrics *metrics.ReportMetrics

	lastRun time.Time
}

func NewWorker(p Params) *Worker {
	return &Worker{
		log:     p.Log.Named("report.worker"),
		reports: p.Reports,
		catalog: p.Catalog,
		sender:  p.Slack,
		clock:   p.Clock,
		cfg:     p.Config.withDefaults(),
		metrics: p.Metrics,
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	if w.cfg.Interval <= 0 {
		w.log.Info("scheduled reports disabled")
		return
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		started := time.Now()
		err := w.RunOnce(ctx)
		w.metrics.ObserveRun(time.Since(started), err)
		if err != nil {
			w.log.Warn("signup report failed", zap.Error(err))
		}
	}
}

// RunOnce reports counts for the window since the previous run, alongside
// all-time counts. A failed run does not advance the window.
func (w *Worker) RunOnce(ctx context.Context) error {
	now := w.clock.Now()
	start := w.lastRun
	if start.IsZero() {
		start = now.Add(-w.cfg.Lookback)
	}

	windowCounts, err := w.reports.CountSignups(ctx, reportdomain.Window{Start: &start, End: &now})
	if err != nil {
		return err
	}
	allTime, err := w.reports.CountSignups(ctx, reportdomain.Window{})
	if err != nil {
		return err
	}
	consumers, err := w.reports.ConsumerView(ctx)
	if err != nil {
		return err
	}

	text := notify.CountSummary(w.catalog, *windowCounts, *allTime, len(consumers))
	if err := w.sender.SendMessage(ctx, text, "Developer signups"); err != nil {
		return err
	}

	w.lastRun = now
	return nil
}
