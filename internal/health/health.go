// Package health defines the check capability each external client adapter
// implements, and aggregates their results for the health endpoint.
package health

import (
	"context"
	"time"
)

// Service is implemented by every monitored collaborator: the database
// adapter, the Kong client, the Okta client, and the notification clients.
type Service interface {
	Name() string
	Healthy(ctx context.Context) error
}

// Status is one collaborator's check result.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

const checkTimeout = 5 * time.Second

// Check runs every registered service check and reports whether all passed.
func Check(ctx context.Context, services []Service) ([]Status, bool) {
	statuses := make([]Status, 0, len(services))
	allHealthy := true
	for _, svc := range services {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := svc.Healthy(checkCtx)
		cancel()

		status := Status{Name: svc.Name(), Healthy: err == nil}
		if err != nil {
			status.Error = err.Error()
			allHealthy = false
		}
		statuses = append(statuses, status)
	}
	return statuses, allHealthy
}
