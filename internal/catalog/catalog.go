// Package catalog maps API identifiers to their display names and the
// provisioning system that owns them.
package catalog

import (
	"errors"
	"fmt"
)

var ErrUnknownAPI = errors.New("unknown_api")

// AuthKind identifies which provisioning system issues access to an API.
type AuthKind string

const (
	// KeyAuth APIs are served through the Kong gateway and gated by ACL groups.
	KeyAuth AuthKind = "key_auth"
	// OAuth APIs are gated by an Okta authorization server policy.
	OAuth AuthKind = "oauth"
)

// API is one catalog entry. Every identifier belongs to exactly one AuthKind.
type API struct {
	ID   string
	Name string
	Auth AuthKind

	// ACLGroup is the Kong ACL group for key-auth APIs.
	ACLGroup string
	// AuthServerID is the Okta authorization server for oauth APIs.
	AuthServerID string
}

// Catalog is an immutable lookup injected into the signup workflow and the
// report aggregator.
type Catalog struct {
	byID  map[string]API
	order []string
}

func New(apis []API) Catalog {
	byID := make(map[string]API, len(apis))
	order := make([]string, 0, len(apis))
	for _, api := range apis {
		if _, ok := byID[api.ID]; ok {
			continue
		}
		byID[api.ID] = api
		order = append(order, api.ID)
	}
	return Catalog{byID: byID, order: order}
}

// Default returns the production API catalog.
func Default() Catalog {
	return New([]API{
		{ID: "appeals", Name: "Appeals Status API", Auth: KeyAuth, ACLGroup: "appeals"},
		{ID: "benefits", Name: "Benefits Intake API", Auth: KeyAuth, ACLGroup: "vba_documents"},
		{ID: "confirmation", Name: "Veteran Confirmation API", Auth: KeyAuth, ACLGroup: "veteran_confirmation"},
		{ID: "facilities", Name: "VA Facilities API", Auth: KeyAuth, ACLGroup: "va_facilities"},
		{ID: "vaForms", Name: "VA Forms API", Auth: KeyAuth, ACLGroup: "va_forms"},
		{ID: "claims", Name: "Claims API", Auth: OAuth, AuthServerID: "aus7y0ho1w0bSNLDV2p7"},
		{ID: "communityCare", Name: "Community Care Eligibility API", Auth: OAuth, AuthServerID: "aus89xnh1xznM13SK2p7"},
		{ID: "health", Name: "Health API", Auth: OAuth, AuthServerID: "aus7y0lyttrObgW622p7"},
		{ID: "verification", Name: "Veteran Verification API", Auth: OAuth, AuthServerID: "aus7y0sefudDrg2HI2p7"},
	})
}

// Lookup returns the entry for id.
func (c Catalog) Lookup(id string) (API, bool) {
	api, ok := c.byID[id]
	return api, ok
}

// Name resolves the display name for id, failing on identifiers the catalog
// does not know.
func (c Catalog) Name(id string) (string, error) {
	api, ok := c.byID[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAPI, id)
	}
	return api.Name, nil
}

// IDs returns every catalog identifier in declaration order.
func (c Catalog) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// KeyAuthAPIs filters ids down to the key-auth entries, preserving order.
// Unknown identifiers are reported, not skipped.
func (c Catalog) KeyAuthAPIs(ids []string) ([]API, error) {
	return c.filter(ids, KeyAuth)
}

// OAuthAPIs filters ids down to the oauth entries, preserving order.
func (c Catalog) OAuthAPIs(ids []string) ([]API, error) {
	return c.filter(ids, OAuth)
}

func (c Catalog) filter(ids []string, kind AuthKind) ([]API, error) {
	var out []API
	for _, id := range ids {
		api, ok := c.byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAPI, id)
		}
		if api.Auth == kind {
			out = append(out, api)
		}
	}
	return out, nil
}
