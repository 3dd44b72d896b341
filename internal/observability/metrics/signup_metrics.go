package metrics

import (
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// SignupMetrics counts provisioning outcomes and notification failures.
type SignupMetrics struct {
	signupsProvisioned   *prometheus.CounterVec
	provisioningFailures *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
	apisGranted          *prometheus.CounterVec
}

var (
	signupMetricsOnce sync.Once
	signupMetrics     *SignupMetrics
)

func Signup() *SignupMetrics {
	return SignupWithConfig(Config{})
}

func SignupWithConfig(cfg Config) *SignupMetrics {
	signupMetricsOnce.Do(func() {
		signupMetrics = newSignupMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return signupMetrics
}

func ResetSignupMetricsForTest() {
	signupMetricsOnce = sync.Once{}
	signupMetrics = nil
}

func newSignupMetrics(registerer prometheus.Registerer, cfg Config) *SignupMetrics {
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

	signupsProvisioned := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "signup_provisioned_total",
			Help:        "Signups fully provisioned and persisted.",
			ConstLabels: constLabels,
		},
		[]string{"oauth"},
	)
	provisioningFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "signup_provisioning_failures_total",
			Help:        "Fatal workflow failures by action tag.",
			ConstLabels: constLabels,
		},
		[]string{"action"},
	)
	notificationFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "signup_notification_failures_total",
			Help:        "Non-fatal notification failures by channel.",
			ConstLabels: constLabels,
		},
		[]string{"channel"},
	)
	apisGranted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "signup_apis_granted_total",
			Help:        "API grants recorded on persisted signups.",
			ConstLabels: constLabels,
		},
		[]string{"api"},
	)

	for _, collector := range []prometheus.Collector{
		signupsProvisioned,
		provisioningFailures,
		notificationFailures,
		apisGranted,
	} {
		if err := registerer.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				panic(err)
			}
		}
	}

	return &SignupMetrics{
		signupsProvisioned:   signupsProvisioned,
		provisioningFailures: provisioningFailures,
		notificationFailures: notificationFailures,
		apisGranted:          apisGranted,
	}
}

func (m *SignupMetrics) IncProvisioned(oauth bool) {
	if m == nil {
		return
	}
	label := "false"
	if oauth {
		label = "true"
	}
	m.signupsProvisioned.WithLabelValues(label).Inc()
}

func (m *SignupMetrics) IncProvisioningFailure(action string) {
	if m == nil {
		return
	}
	m.provisioningFailures.WithLabelValues(action).Inc()
}

func (m *SignupMetrics) IncNotificationFailure(channel string) {
	if m == nil {
		return
	}
	m.notificationFailures.WithLabelValues(channel).Inc()
}

func (m *SignupMetrics) IncAPIGranted(api string) {
	if m == nil {
		return
	}
	m.apisGranted.WithLabelValues(api).Inc()
}
