// Package okta talks to the Okta management API to provision OAuth
// applications and authorization-server policy entries.
package okta

import (
	"context"
	"errors"
)

var (
	ErrDefaultPolicyNotFound = errors.New("okta_default_policy_not_found")
	ErrUnexpectedStatus      = errors.New("okta_unexpected_status")
)

// AppType selects the OAuth client settings for a new application.
type AppType string

const (
	AppTypeWeb    AppType = "web"
	AppTypeNative AppType = "native"
)

// AppSettings describes the application to create.
type AppSettings struct {
	Label       string
	RedirectURI string
	Type        AppType
}

// Application is a provisioned Okta application with its client credentials.
type Application struct {
	ID           string
	ClientID     string
	ClientSecret string
}

// Policy is one access policy on an authorization server. The include list
// names the client ids the policy applies to.
type Policy struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Conditions PolicyConditions `json:"conditions"`
}

type PolicyConditions struct {
	Clients PolicyClients `json:"clients"`
}

type PolicyClients struct {
	Include []string `json:"include"`
}

// Client is the capability the signup workflow needs from the identity
// provider. A deployment without Okta configured runs without one.
type Client interface {
	CreateApplication(ctx context.Context, settings AppSettings) (*Application, error)
	AssignGroup(ctx context.Context, appID, groupID string) error
	// ListPolicies returns every access policy on the authorization server,
	// following pagination.
	ListPolicies(ctx context.Context, serverID string) ([]Policy, error)
	UpdatePolicy(ctx context.Context, serverID, policyID string, policy Policy) error
}

// DefaultPolicy returns the policy named "default" from policies. Its absence
// is an error, not an empty result.
func DefaultPolicy(policies []Policy) (Policy, error) {
	for _, policy := range policies {
		if policy.Name == "default" {
			return policy, nil
		}
	}
	return Policy{}, ErrDefaultPolicyNotFound
}
