package dto

import "encoding/json"

// WebhookRequest is the provider's notification body.
type WebhookRequest struct {
	WebhookCategory string          `json:"webhook_category" binding:"required"`
	WebhookCode     string          `json:"webhook_code" binding:"required"`
	ConnectionID    string          `json:"connection_id" binding:"required"`
	RequestID       string          `json:"request_id" binding:"required"`
	Payload         json.RawMessage `json:"payload,omitempty"`
}

// RecurringStreamPayload carries the RECURRING event detail.
type RecurringStreamPayload struct {
	OutflowID    string `json:"outflow_id"`
	MerchantName string `json:"merchant_name"`
}

// WebhookDisposition describes what the processor did with an event.
type WebhookDisposition string

const (
	WebhookDispatched  WebhookDisposition = "dispatched"
	WebhookDedupedSkip WebhookDisposition = "deduped-skip"
	WebhookRateLimited WebhookDisposition = "rate-limited-skip"
)

// WebhookOutcome is returned to the transport layer; all dispositions
// acknowledge with transport-level success.
type WebhookOutcome struct {
	Disposition WebhookDisposition `json:"disposition"`
	RequestID   string             `json:"requestID"`
}
