package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/config"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/observability/tracing"
	"go.uber.org/zap"
)

var ErrEmailDisabled = errors.New("email_not_configured")

// WelcomeEmail is the substitution set for the welcome template.
type WelcomeEmail struct {
	Recipient    string
	FirstName    string
	APIs         string
	Token        string
	ClientID     string
	ClientSecret string
}

// EmailClient sends template mail through the transactional mail API.
type EmailClient struct {
	host       string
	token      string
	templateID string
	from       string
	http       *http.Client
	log        *zap.Logger
}

func NewEmailClient(cfg config.Config, log *zap.Logger) *EmailClient {
	return &EmailClient{
		host:       cfg.Email.Host,
		token:      cfg.Email.Token,
		templateID: cfg.Email.WelcomeTemplateID,
		from:       cfg.Email.From,
		http:       tracing.WrapHTTPClient(&http.Client{Timeout: 10 * time.Second}),
		log:        log.Named("notify.email"),
	}
}

type templateMessage struct {
	TemplateID    string            `json:"template_id"`
	From          string            `json:"from"`
	Recipient     string            `json:"recipient"`
	Substitutions map[string]string `json:"substitutions"`
}

// SendWelcome delivers the signup confirmation email.
func (c *EmailClient) SendWelcome(ctx context.Context, email WelcomeEmail) error {
	if c.host == "" || c.templateID == "" {
		return ErrEmailDisabled
	}

	msg := templateMessage{
		TemplateID: c.templateID,
		From:       c.from,
		Recipient:  email.Recipient,
		Substitutions: map[string]string{
			"firstName":    email.FirstName,
			"apis":         email.APIs,
			"token":        email.Token,
			"clientID":     email.ClientID,
			"clientSecret": email.ClientSecret,
		},
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/messages/email", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email api returned status %d", resp.StatusCode)
	}
	return nil
}

// Name implements the health check capability.
func (c *EmailClient) Name() string { return "email" }

func (c *EmailClient) Healthy(_ context.Context) error {
	if c.host == "" || c.templateID == "" {
		return ErrEmailDisabled
	}
	return nil
}
