package domain

import "errors"

// Action tags attached to fatal workflow errors. The HTTP layer echoes them
// in error bodies and logs key on them.
const (
	ActionKongConsumer = "failed creating kong consumer"
	ActionOktaSave     = "failed saving to okta"
	ActionDatabaseSave = "failed saving to database"
	ActionWelcomeEmail = "failed sending welcome email"
	ActionSlackMessage = "failed sending slack message"
)

var (
	ErrInvalidSubmission = errors.New("invalid_submission")
	ErrStoreWrite        = errors.New("store_write_failed")
	ErrStoreRead         = errors.New("store_read_failed")
)
