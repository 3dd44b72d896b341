// Package notify delivers signup notifications to Slack and email, and owns
// the formatting of their human-readable text.
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

var ErrSlackDisabled = errors.New("slack_not_configured")

// SlackClient posts to a Slack incoming webhook. Delivery is best effort;
// callers treat failures as non-fatal.
type SlackClient struct {
	webhookURL string
	channel    string
	http       *http.Client
	log        *zap.Logger
}

func NewSlackClient(cfg config.Config, log *zap.Logger) *SlackClient {
	return &SlackClient{
		webhookURL: cfg.Slack.WebhookURL,
		channel:    cfg.Slack.Channel,
		http:       tracing.WrapHTTPClient(&http.Client{Timeout: 5 * time.Second}),
		log:        log.Named("notify.slack"),
	}
}

type slackMessage struct {
	Channel string       `json:"channel,omitempty"`
	Text    string       `json:"text,omitempty"`
	Blocks  []slackBlock `json:"blocks,omitempty"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendMessage posts text under a bold title.
func (c *SlackClient) SendMessage(ctx context.Context, text, title string) error {
	if c.webhookURL == "" {
		return ErrSlackDisabled
	}

	msg := slackMessage{Channel: c.channel, Text: title}
	if title != "" {
		msg.Blocks = append(msg.Blocks, slackBlock{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: title},
		})
	}
	msg.Blocks = append(msg.Blocks, slackBlock{
		Type: "section",
		Text: &slackText{Type: "mrkdwn", Text: text},
	})

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}
	return nil
}

// Name implements the health check capability.
func (c *SlackClient) Name() string { return "slack" }

// Healthy reports whether the webhook is configured. Posting a test message
// to the channel would be noise, so configuration is the check.
func (c *SlackClient) Healthy(_ context.Context) error {
	if c.webhookURL == "" {
		return ErrSlackDisabled
	}
	return nil
}
