package metrics

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReportMetrics tracks the scheduled signup report loop.
type ReportMetrics struct {
	runDuration *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	lastSuccess prometheus.Gauge
}

var (
	reportMetricsOnce sync.Once
	reportMetrics     *ReportMetrics
)

func Report() *ReportMetrics {
	return ReportWithConfig(Config{})
}

func ReportWithConfig(cfg Config) *ReportMetrics {
	reportMetricsOnce.Do(func() {
		reportMetrics = newReportMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return reportMetrics
}

func ResetReportMetricsForTest() {
	reportMetricsOnce = sync.Once{}
	reportMetrics = nil
}

func newReportMetrics(registerer prometheus.Registerer, cfg Config) *ReportMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "developer_portal"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "report_run_duration_seconds",
			Help:        "Duration of one scheduled signup report run.",
			Buckets:     []float64{0.1, 0.5, 1, 5, 15, 60, 300},
			ConstLabels: constLabels,
		},
		[]string{"result"}, // success | failed
	)

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "report_runs_total",
			Help:        "Total scheduled signup report runs.",
			ConstLabels: constLabels,
		},
		[]string{"result"},
	)

	lastSuccess := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "report_last_success_timestamp_seconds",
			Help:        "Unix time of the last successful signup report.",
			ConstLabels: constLabels,
		},
	)

	for _, collector := range []prometheus.Collector{runDuration, runs, lastSuccess} {
		if err := registerer.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				panic(err)
			}
		}
	}

	return &ReportMetrics{
		runDuration: runDuration,
		runs:        runs,
		lastSuccess: lastSuccess,
	}
}

// ObserveRun records one report run's outcome and duration.
func (m *ReportMetrics) ObserveRun(duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failed"
	}
	m.runDuration.WithLabelValues(result).Observe(duration.Seconds())
	m.runs.WithLabelValues(result).Inc()
	if err == nil {
		m.lastSuccess.SetToCurrentTime()
	}
}
