package kong

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/config"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/observability/tracing"
	"go.uber.org/zap"
)

// HTTPClient implements Client against the Kong admin API.
type HTTPClient struct {
	host   string
	apiKey string
	http   *http.Client
	log    *zap.Logger
}

func NewHTTPClient(cfg config.Config, log *zap.Logger) *HTTPClient {
	return &HTTPClient{
		host:   strings.TrimRight(cfg.Kong.Host, "/"),
		apiKey: cfg.Kong.APIKey,
		http:   tracing.WrapHTTPClient(&http.Client{Timeout: 15 * time.Second}),
		log:    log.Named("kong.client"),
	}
}

func (c *HTTPClient) EnsureConsumer(ctx context.Context, name string) (*Consumer, error) {
	consumer, err := c.getConsumer(ctx, name)
	if err == nil {
		return consumer, nil
	}
	if !errors.Is(err, ErrConsumerNotFound) {
		return nil, err
	}

	var created Consumer
	if err := c.do(ctx, http.MethodPost, "/consumers", map[string]string{"username": name}, &created); err != nil {
		return nil, err
	}
	c.log.Info("created kong consumer", zap.String("username", name))
	return &created, nil
}

func (c *HTTPClient) ListACLs(ctx context.Context, name string) ([]string, error) {
	var resp struct {
		Data []struct {
			Group string `json:"group"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/consumers/"+url.PathEscape(name)+"/acls", nil, &resp); err != nil {
		return nil, err
	}
	groups := make([]string, 0, len(resp.Data))
	for _, acl := range resp.Data {
		groups = append(groups, acl.Group)
	}
	return groups, nil
}

func (c *HTTPClient) AddACL(ctx context.Context, name, group string) error {
	return c.do(ctx, http.MethodPost, "/consumers/"+url.PathEscape(name)+"/acls", map[string]string{"group": group}, nil)
}

func (c *HTTPClient) CreateKeyAuth(ctx context.Context, name string) (*Credential, error) {
	var cred Credential
	if err := c.do(ctx, http.MethodPost, "/consumers/"+url.PathEscape(name)+"/key-auth", nil, &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

// Name implements the health check capability.
func (c *HTTPClient) Name() string { return "kong" }

// Healthy verifies the admin API answers.
func (c *HTTPClient) Healthy(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/status", nil, nil)
}

func (c *HTTPClient) getConsumer(ctx context.Context, name string) (*Consumer, error) {
	var consumer Consumer
	if err := c.do(ctx, http.MethodGet, "/consumers/"+url.PathEscape(name), nil, &consumer); err != nil {
		return nil, err
	}
	return &consumer, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", ErrConsumerNotFound, method, path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
