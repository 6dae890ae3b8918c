package domain

import (
	"encoding/json"
	"time"
)

// WebhookCategory groups webhook events by which handler consumes them.
type WebhookCategory string

const (
	WebhookTransactions WebhookCategory = "TRANSACTIONS"
	WebhookConnection   WebhookCategory = "CONNECTION"
	WebhookRecurring    WebhookCategory = "RECURRING"
)

// Webhook codes observed from the provider. Initial-sync codes bypass the
// per-connection dispatch interval.
const (
	WebhookCodeInitialUpdate     = "INITIAL_UPDATE"
	WebhookCodeHistoricalUpdate  = "HISTORICAL_UPDATE"
	WebhookCodeSyncUpdates       = "SYNC_UPDATES_AVAILABLE"
	WebhookCodeConnectionError   = "ERROR"
	WebhookCodeConnectionRevoked = "REVOKED"
	WebhookCodePendingExpiration = "PENDING_EXPIRATION"
	WebhookCodeStreamUpdated     = "STREAM_UPDATED"
)

// WebhookEvent is the dedup/audit record for one provider notification,
// keyed by the upstream request identifier. It is written before processing
// so retried deliveries can be recognized.
type WebhookEvent struct {
	RequestID    string          `json:"requestID"`
	ConnectionID string          `json:"connectionID"`
	Category     WebhookCategory `json:"category"`
	Code         string          `json:"code"`
	ReceivedAt   time.Time       `json:"receivedAt"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}
