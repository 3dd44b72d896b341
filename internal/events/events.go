package events

// Portal event types recorded in the outbox.
const (
	EventSignupCreated = "signup.created"
)

// SignupCreatedPayload captures the minimal data downstream consumers need
// to react to a persisted signup.
type SignupCreatedPayload struct {
	Email             string `json:"email"`
	CreatedAt         string `json:"created_at"`
	APIs              string `json:"apis"`
	KongConsumerID    string `json:"kong_consumer_id,omitempty"`
	OktaApplicationID string `json:"okta_application_id,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p SignupCreatedPayload) ToMap() map[string]any {
	payload := map[string]any{
		"email":      p.Email,
		"created_at": p.CreatedAt,
		"apis":       p.APIs,
	}
	if p.KongConsumerID != "" {
		payload["kong_consumer_id"] = p.KongConsumerID
	}
	if p.OktaApplicationID != "" {
		payload["okta_application_id"] = p.OktaApplicationID
	}
	return payload
}
