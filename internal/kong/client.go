// Package kong talks to the Kong admin API to provision consumers, ACL
// grants, and key-auth credentials.
package kong

import (
	"context"
	"errors"
)

var (
	ErrConsumerNotFound = errors.New("kong_consumer_not_found")
	ErrUnexpectedStatus = errors.New("kong_unexpected_status")
)

// Consumer is a Kong consumer record.
type Consumer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Credential is a key-auth credential issued to a consumer.
type Credential struct {
	Key string `json:"key"`
}

// Client is the capability the signup workflow needs from the gateway.
type Client interface {
	// EnsureConsumer returns the consumer named name, creating it when absent.
	EnsureConsumer(ctx context.Context, name string) (*Consumer, error)
	// ListACLs returns the ACL groups already granted to the consumer.
	ListACLs(ctx context.Context, name string) ([]string, error)
	// AddACL grants one ACL group to the consumer.
	AddACL(ctx context.Context, name, group string) error
	// CreateKeyAuth issues a new key-auth credential for the consumer.
	CreateKeyAuth(ctx context.Context, name string) (*Credential, error)
}
