package repositories

import (
	"context"
	"time"

	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
)

// TransactionReader defines read operations for transaction data.
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction by its external identifier.
	FindTransactionByID(ctx context.Context, txnID string) (*domain.Transaction, error)

	// FindTransactionsByIDs retrieves transactions for multiple external identifiers,
	// keyed by identifier. Missing identifiers are simply absent from the map.
	FindTransactionsByIDs(ctx context.Context, txnIDs []string) (map[string]domain.Transaction, error)

	// ListTransactionsByUser retrieves transactions for a user within a date range.
	ListTransactionsByUser(ctx context.Context, userID string, from, to time.Time, limit int) ([]domain.Transaction, error)
}

// TransactionWriter defines write operations for transaction data.
type TransactionWriter interface {
	// SaveSyncBatch upserts transactions (keyed by external identifier) together
	// with any outflow period updates. Operations are partitioned into
	// size-bounded chunks; each chunk commits atomically, chunks commit
	// sequentially. A mid-sequence failure leaves earlier chunks applied.
	SaveSyncBatch(ctx context.Context, txns []domain.Transaction, updates []domain.OutflowPeriodUpdate) error

	// PatchTransactionNames updates the cosmetic name fields of a transaction
	// without touching its splits.
	PatchTransactionNames(ctx context.Context, txnID, name, merchantName string, now time.Time) error

	// SoftDeleteTransaction flags a transaction as deleted. The row is retained.
	SoftDeleteTransaction(ctx context.Context, txnID string, now time.Time) error
}

// TransactionRepositoryFacade combines all transaction repository interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}
