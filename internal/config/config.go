// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every deployment knob for the API process.
type Config struct {
	Environment string
	Port        string

	// DatabaseURL is the Postgres DSN. Empty falls back to a local sqlite
	// database, which is only suitable for development.
	DatabaseURL string

	// AdminToken gates the reporting endpoints.
	AdminToken string

	Kong   KongConfig
	Okta   OktaConfig
	Slack  SlackConfig
	Email  EmailConfig
	Report ReportConfig

	Tracing TracingConfig
}

type KongConfig struct {
	// Host is the Kong admin API base URL.
	Host   string
	APIKey string
}

type OktaConfig struct {
	// Host is the Okta org URL. Empty disables the OAuth provisioning step.
	Host  string
	Token string
	// ApplicationGroupID is the group every new application is assigned to.
	ApplicationGroupID string
}

type SlackConfig struct {
	WebhookURL string
	Channel    string
}

type EmailConfig struct {
	Host              string
	Token             string
	WelcomeTemplateID string
	From              string
}

type ReportConfig struct {
	// Interval between scheduled signup reports. Zero disables the worker.
	Interval time.Duration
	// Lookback bounds the first report window after a restart.
	Lookback time.Duration
}

type TracingConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

// Load reads configuration from the environment. Missing optional values get
// development defaults; only malformed values fail.
func Load() (Config, error) {
	cfg := Config{
		Environment: getenv("ENVIRONMENT", "local"),
		Port:        getenv("PORT", "9999"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AdminToken:  os.Getenv("ADMIN_TOKEN"),
		Kong: KongConfig{
			Host:   getenv("KONG_HOST", "http://localhost:8001"),
			APIKey: os.Getenv("KONG_API_KEY"),
		},
		Okta: OktaConfig{
			Host:               os.Getenv("OKTA_HOST"),
			Token:              os.Getenv("OKTA_TOKEN"),
			ApplicationGroupID: os.Getenv("OKTA_APPLICATION_GROUP_ID"),
		},
		Slack: SlackConfig{
			WebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
			Channel:    os.Getenv("SLACK_CHANNEL"),
		},
		Email: EmailConfig{
			Host:              os.Getenv("EMAIL_HOST"),
			Token:             os.Getenv("EMAIL_TOKEN"),
			WelcomeTemplateID: os.Getenv("EMAIL_WELCOME_TEMPLATE_ID"),
			From:              getenv("EMAIL_FROM", "api@va.gov"),
		},
	}

	interval, err := getduration("REPORT_INTERVAL", 0)
	if err != nil {
		return Config{}, err
	}
	lookback, err := getduration("REPORT_LOOKBACK", 7*24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.Report = ReportConfig{Interval: interval, Lookback: lookback}

	ratio := 1.0
	if raw := os.Getenv("TRACING_SAMPLING_RATIO"); raw != "" {
		ratio, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TRACING_SAMPLING_RATIO %q: %w", raw, err)
		}
	}
	cfg.Tracing = TracingConfig{
		Enabled:          getbool("TRACING_ENABLED"),
		ExporterEndpoint: os.Getenv("TRACING_EXPORTER_ENDPOINT"),
		ExporterProtocol: getenv("TRACING_EXPORTER_PROTOCOL", "grpc"),
		SamplingRatio:    ratio,
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// OktaEnabled reports whether the deployment has an Okta client configured.
func (c Config) OktaEnabled() bool {
	return c.Okta.Host != "" && c.Okta.Token != ""
}

func getenv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getbool(key string) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return value == "1" || value == "true" || value == "yes"
}

func getduration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
