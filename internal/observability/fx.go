// Package observability wires logging, tracing, and metrics for the API
// process.
package observability

import (
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/config"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/observability/logger"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/observability/metrics"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/observability/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const serviceName = "developer-portal-backend"

var Module = fx.Module("observability",
	logger.Module,
	fx.Provide(func(cfg config.Config) tracing.Config {
		return tracing.Config{
			Enabled:          cfg.Tracing.Enabled,
			ServiceName:      serviceName,
			ServiceVersion:   "dev",
			Environment:      cfg.Environment,
			ExporterEndpoint: cfg.Tracing.ExporterEndpoint,
			ExporterProtocol: cfg.Tracing.ExporterProtocol,
			SamplingRatio:    cfg.Tracing.SamplingRatio,
		}
	}),
	fx.Invoke(func(lc fx.Lifecycle, cfg tracing.Config, log *zap.Logger) error {
		_, err := tracing.NewProvider(lc, cfg, log)
		return err
	}),
	fx.Provide(func(cfg config.Config) metrics.Config {
		return metrics.Config{
			ServiceName: serviceName,
			Environment: cfg.Environment,
		}
	}),
	fx.Provide(func() metric.MeterProvider {
		return otel.GetMeterProvider()
	}),
	fx.Provide(metrics.NewHTTPMetrics),
	fx.Provide(metrics.SignupWithConfig),
	fx.Provide(metrics.ReportWithConfig),
)
