package domain

import (
	"context"
	"time"
)

// Service is the provisioning workflow entry point.
type Service interface {
	Apply(ctx context.Context, sub Submission) (*Result, error)
}

// ScanFilter expresses AND-combined predicates over the signup log: list
// membership for the apis column, equality for scalar columns.
type ScanFilter struct {
	APIContains       []string
	KongConsumerID    string
	OktaApplicationID string
}

// Repository is the record store adapter. Writes are append-only; no call
// retries, and each call is independently consistent.
type Repository interface {
	Create(ctx context.Context, record *Signup) error
	Scan(ctx context.Context, filter ScanFilter) ([]Signup, error)
	// FindPrevious returns every record for email strictly older than before,
	// across the full history.
	FindPrevious(ctx context.Context, email string, before time.Time) ([]Signup, error)
}
