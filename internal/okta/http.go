package okta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/config"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/observability/tracing"
	"go.uber.org/zap"
)

// HTTPClient implements Client against the Okta management API.
type HTTPClient struct {
	host  string
	token string
	http  *http.Client
	log   *zap.Logger
}

func NewHTTPClient(cfg config.Config, log *zap.Logger) *HTTPClient {
	return &HTTPClient{
		host:  strings.TrimRight(cfg.Okta.Host, "/"),
		token: cfg.Okta.Token,
		http:  tracing.WrapHTTPClient(&http.Client{Timeout: 15 * time.Second}),
		log:   log.Named("okta.client"),
	}
}

type oauthClientSettings struct {
	RedirectURIs            []string `json:"redirect_uris"`
	ResponseTypes           []string `json:"response_types"`
	GrantTypes              []string `json:"grant_types"`
	ApplicationType         string   `json:"application_type"`
	ConsentMethod           string   `json:"consent_method"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
}

type applicationRequest struct {
	Name       string `json:"name"`
	Label      string `json:"label"`
	SignOnMode string `json:"signOnMode"`
	Settings   struct {
		OauthClient oauthClientSettings `json:"oauthClient"`
	} `json:"settings"`
}

type applicationResponse struct {
	ID          string `json:"id"`
	Credentials struct {
		OauthClient struct {
			ClientID     string `json:"client_id"`
			ClientSecret string `json:"client_secret"`
		} `json:"oauthClient"`
	} `json:"credentials"`
}

// newApplicationRequest builds the wire payload for settings. Web clients get
// the implicit flow on top of the code flow; native clients get only the code
// flow with no client secret.
func newApplicationRequest(settings AppSettings) applicationRequest {
	req := applicationRequest{
		Name:       "oidc_client",
		Label:      settings.Label,
		SignOnMode: "OPENID_CONNECT",
	}

	client := oauthClientSettings{
		RedirectURIs:  []string{settings.RedirectURI},
		ResponseTypes: []string{"code"},
		GrantTypes:    []string{"authorization_code", "refresh_token"},
		ConsentMethod: "REQUIRED",
	}
	switch settings.Type {
	case AppTypeWeb:
		client.ApplicationType = "web"
		client.ResponseTypes = append(client.ResponseTypes, "token", "id_token")
		client.GrantTypes = append(client.GrantTypes, "implicit")
	case AppTypeNative:
		client.ApplicationType = "native"
		client.TokenEndpointAuthMethod = "none"
	default:
		client.ApplicationType = "web"
	}
	req.Settings.OauthClient = client
	return req
}

func (c *HTTPClient) CreateApplication(ctx context.Context, settings AppSettings) (*Application, error) {
	var resp applicationResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/apps", newApplicationRequest(settings), &resp); err != nil {
		return nil, err
	}
	c.log.Info("created okta application", zap.String("app_id", resp.ID))
	return &Application{
		ID:           resp.ID,
		ClientID:     resp.Credentials.OauthClient.ClientID,
		ClientSecret: resp.Credentials.OauthClient.ClientSecret,
	}, nil
}

func (c *HTTPClient) AssignGroup(ctx context.Context, appID, groupID string) error {
	path := fmt.Sprintf("/api/v1/apps/%s/groups/%s", appID, groupID)
	return c.do(ctx, http.MethodPut, path, struct{}{}, nil)
}

func (c *HTTPClient) ListPolicies(ctx context.Context, serverID string) ([]Policy, error) {
	var policies []Policy
	path := fmt.Sprintf("/api/v1/authorizationServers/%s/policies", serverID)
	for path != "" {
		page, next, err := c.getPage(ctx, path)
		if err != nil {
			return nil, err
		}
		policies = append(policies, page...)
		path = next
	}
	return policies, nil
}

func (c *HTTPClient) UpdatePolicy(ctx context.Context, serverID, policyID string, policy Policy) error {
	path := fmt.Sprintf("/api/v1/authorizationServers/%s/policies/%s", serverID, policyID)
	return c.do(ctx, http.MethodPut, path, policy, nil)
}

// Name implements the health check capability.
func (c *HTTPClient) Name() string { return "okta" }

// Healthy verifies the management API answers an authenticated request.
func (c *HTTPClient) Healthy(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/v1/users/me", nil, nil)
}

func (c *HTTPClient) getPage(ctx context.Context, path string) ([]Policy, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.absolute(path), nil)
	if err != nil {
		return nil, "", err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: GET %s returned %d", ErrUnexpectedStatus, path, resp.StatusCode)
	}

	var page []Policy
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, "", err
	}
	return page, nextLink(resp.Header), nil
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

	req, err := http.NewRequestWithContext(ctx, method, c.absolute(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPClient) absolute(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.host + path
}

func (c *HTTPClient) authorize(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "SSWS "+c.token)
}

// nextLink extracts the rel="next" pagination target from Link headers.
func nextLink(headers http.Header) string {
	for _, link := range headers.Values("Link") {
		parts := strings.Split(link, ";")
		if len(parts) < 2 {
			continue
		}
		if !strings.Contains(parts[1], `rel="next"`) {
			continue
		}
		target := strings.TrimSpace(parts[0])
		return strings.Trim(target, "<>")
	}
	return ""
}
