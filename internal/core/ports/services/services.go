package services

import (
	"context"

	"github.com/pennyworth-app/pennyworth_backend/internal/dto"
)

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Sync    SyncSvcFacade
	Webhook WebhookSvcFacade
}

// SyncSvcFacade drives the cursor-based transaction sync for connections.
type SyncSvcFacade interface {
	// SyncConnection runs the paginated diff sync for one connection, resuming
	// from its last committed cursor.
	SyncConnection(ctx context.Context, connectionID string) (*dto.SyncResult, error)

	// SyncAllConnections runs SyncConnection for every active connection,
	// collecting per-connection errors instead of stopping at the first.
	SyncAllConnections(ctx context.Context) ([]dto.ConnectionSyncOutcome, error)
}

// WebhookSvcFacade ingests provider webhook notifications.
type WebhookSvcFacade interface {
	// Process verifies, dedupes, records, and dispatches one webhook event.
	// Dedup and rate-limit rejections are successful no-ops, not errors.
	Process(ctx context.Context, req dto.WebhookRequest, rawBody []byte, signature string) (*dto.WebhookOutcome, error)
}
