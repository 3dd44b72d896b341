// Package domain contains the signup record model and the provisioning
// workflow contract.
package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// DefaultDescription is stored when an applicant leaves the description blank.
const DefaultDescription = "no description"

// Signup is one row of the append-only signup log. A user may appear many
// times; (email, created_at) identifies a row.
type Signup struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"-"`
	Email     string       `gorm:"type:text;not null;uniqueIndex:idx_signups_email_created_at" json:"email"`
	CreatedAt time.Time    `gorm:"not null;uniqueIndex:idx_signups_email_created_at" json:"createdAt"`

	// APIs is a comma-joined set of catalog identifiers granted in this event.
	APIs string `gorm:"type:text;not null" json:"apis"`

	KongConsumerID    *string `gorm:"type:text" json:"kongConsumerId,omitempty"`
	OktaApplicationID *string `gorm:"type:text" json:"oktaApplicationId,omitempty"`
	OktaClientID      *string `gorm:"type:text" json:"oktaClientId,omitempty"`

	Organization     *string `gorm:"type:text" json:"organization,omitempty"`
	FirstName        *string `gorm:"type:text" json:"firstName,omitempty"`
	LastName         *string `gorm:"type:text" json:"lastName,omitempty"`
	Description      *string `gorm:"type:text" json:"description,omitempty"`
	OAuthRedirectURI *string `gorm:"column:oauth_redirect_uri;type:text" json:"oAuthRedirectURI,omitempty"`

	TermsOfServiceAccepted bool `gorm:"column:tos_accepted;not null" json:"termsOfServiceAccepted"`
}

func (Signup) TableName() string { return "signups" }

// APIList splits the comma-joined APIs column into identifiers.
func (s Signup) APIList() []string {
	return SplitAPIs(s.APIs)
}

// Submission is one developer-application form, validated upstream.
type Submission struct {
	Email            string
	FirstName        string
	LastName         string
	Organization     string
	Description      string
	APIs             string
	OAuthRedirectURI string
	// OAuthApplicationType is "web" or "native"; anything else gets the
	// default client settings.
	OAuthApplicationType   string
	TermsOfServiceAccepted bool
}

// APIList splits the requested APIs field into identifiers.
func (s Submission) APIList() []string {
	return SplitAPIs(s.APIs)
}

// Result is the success payload returned once the signup is persisted. Empty
// fields are omitted, never errored.
type Result struct {
	Email        string `json:"email"`
	Token        string `json:"token,omitempty"`
	ClientID     string `json:"clientID,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// SplitAPIs parses a comma-joined value as a set of identifiers. Blank
// entries are dropped; order is preserved.
func SplitAPIs(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// JoinAPIs is the inverse of SplitAPIs.
func JoinAPIs(ids []string) string {
	return strings.Join(ids, ",")
}

// UnionAPIs unions two identifier sets, keeping the first set's order ahead
// of entries only present in the second.
func UnionAPIs(first, second []string) []string {
	out := make([]string, 0, len(first)+len(second))
	seen := make(map[string]struct{}, len(first)+len(second))
	for _, id := range append(append([]string{}, first...), second...) {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SortedUnion unions any number of comma-joined sets into a sorted slice.
func SortedUnion(joined ...string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, value := range joined {
		for _, id := range SplitAPIs(value) {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
