// Package domain defines the signup reporting contract.
package domain

import (
	"context"
	"time"

	signupdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/signup/domain"
)

// Window is a signup query window. A nil bound is unbounded on that side;
// Start is inclusive, End exclusive.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t falls in the window.
func (w Window) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && !t.Before(*w.End) {
		return false
	}
	return true
}

// CountResult aggregates a window: Total counts brand-new users, APIs counts
// first-time access per API, which an existing user can still contribute to.
type CountResult struct {
	Total int            `json:"total"`
	APIs  map[string]int `json:"apis"`
}

// Service computes signup reports from the raw signup log.
type Service interface {
	// UniqueSignups returns one signup per email in-window, created_at pinned
	// to the earliest in-window record, apis the sorted union across records.
	UniqueSignups(ctx context.Context, window Window) ([]signupdomain.Signup, error)
	// PreviousSignups returns every record for the signup's email strictly
	// older than its pinned created_at, across the full history.
	PreviousSignups(ctx context.Context, signup signupdomain.Signup) ([]signupdomain.Signup, error)
	// CountSignups computes the count result for the window.
	CountSignups(ctx context.Context, window Window) (*CountResult, error)
	// ConsumerView collapses the full signup history into one consumer
	// record per email via MergeSignups.
	ConsumerView(ctx context.Context) ([]signupdomain.Signup, error)
}
