package worker

import (
	"context"

	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("report.worker",
	fx.Provide(func(cfg config.Config) Config {
		return Config{
			Interval: cfg.Report.Interval,
			Lookback: cfg.Report.Lookback,
		}
	}),
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

// runWorker runs the report loop for the lifetime of the app. The loop gets
// its own context: the OnStart context expires with the app start timeout,
// long before the first tick of any realistic interval.
func runWorker(lc fx.Lifecycle, worker *Worker) {
	loopCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go worker.RunForever(loopCtx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
}
