package repositories

import (
	"context"
	"time"

	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
)

// BudgetReader defines read operations for budget data. Budgets are managed
// elsewhere; the sync core only reads them.
type BudgetReader interface {
	// ListActiveBudgetsByUser retrieves a user's active budgets, regular budgets
	// first, the system fallback (if any) last.
	ListActiveBudgetsByUser(ctx context.Context, userID string) ([]domain.Budget, error)
}

// OutflowReader defines read operations for outflow period data.
type OutflowReader interface {
	// ListUnsettledOutflowPeriods retrieves unpaid outflow periods for a user
	// with due dates inside [from, to].
	ListUnsettledOutflowPeriods(ctx context.Context, userID string, from, to time.Time) ([]domain.OutflowPeriod, error)
}

// OutflowWriter defines write operations for outflow period data. Settling
// an outflow period happens through the transaction batch writer, never on
// its own: the split reference and the split it points at must commit
// together.
type OutflowWriter interface {
	// UpdateOutflowMerchantHint sets the merchant name on all unpaid periods of
	// an outflow stream.
	UpdateOutflowMerchantHint(ctx context.Context, outflowID, merchantName string) error
}

// OutflowRepositoryFacade combines outflow period repository interfaces.
type OutflowRepositoryFacade interface {
	OutflowReader
	OutflowWriter
}

// PeriodReader defines read operations for the global source period table.
type PeriodReader interface {
	// ListAllPeriods retrieves the full source period table. Periods are global
	// and small enough to load once per batch.
	ListAllPeriods(ctx context.Context) ([]domain.SourcePeriod, error)
}

// ConnectionReader defines read operations for provider connections.
type ConnectionReader interface {
	// FindConnectionByID retrieves a connection by its identifier.
	FindConnectionByID(ctx context.Context, connectionID string) (*domain.Connection, error)

	// ListActiveConnections retrieves all active connections.
	ListActiveConnections(ctx context.Context) ([]domain.Connection, error)
}

// ConnectionWriter defines write operations for provider connections.
type ConnectionWriter interface {
	// UpdateCursor persists a connection's sync cursor and last-synced time.
	// Cursors only move forward; they are never rolled back.
	UpdateCursor(ctx context.Context, connectionID string, cursor string, syncedAt time.Time) error

	// SetConnectionActive flips a connection's active flag.
	SetConnectionActive(ctx context.Context, connectionID string, active bool, now time.Time) error

	// MarkInitialSyncDone records that the connection's first full sync completed.
	MarkInitialSyncDone(ctx context.Context, connectionID string, now time.Time) error
}

// ConnectionRepositoryFacade combines connection repository interfaces.
type ConnectionRepositoryFacade interface {
	ConnectionReader
	ConnectionWriter
}

// WebhookEventRepositoryFacade defines operations on the webhook dedup store.
type WebhookEventRepositoryFacade interface {
	// WebhookEventExists reports whether a request identifier has been seen.
	WebhookEventExists(ctx context.Context, requestID string) (bool, error)

	// SaveWebhookEvent records a received event. Saving an already-seen request
	// identifier returns apperrors.ErrDuplicate.
	SaveWebhookEvent(ctx context.Context, event domain.WebhookEvent) error
}
