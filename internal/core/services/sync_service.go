package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pennyworth-app/pennyworth_backend/internal/apperrors"
	"github.com/pennyworth-app/pennyworth_backend/internal/clients/analytics"
	"github.com/pennyworth-app/pennyworth_backend/internal/clients/provider"
	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
	portsrepo "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/repositories"
	portssvc "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/services"
	"github.com/pennyworth-app/pennyworth_backend/internal/dto"
	"github.com/pennyworth-app/pennyworth_backend/internal/middleware"
)

// ErrSyncInProgress is returned when a sync for the connection is already
// running in this process.
var ErrSyncInProgress = errors.New("sync already in progress for connection")

// ProviderClient is the slice of the upstream API the sync service needs.
type ProviderClient interface {
	SyncTransactions(ctx context.Context, accessToken string, cursor *string, count int) (*provider.SyncResponse, error)
}

// SyncServiceConfig tunes the page loop.
type SyncServiceConfig struct {
	PageSize  int
	PageDelay time.Duration
}

// syncService drives the cursor-based upstream diff through the assignment
// pipeline and batch writer, one page at a time. The cursor advances only
// after a page's writes commit, so a failed page is re-fetched on the next
// run (at-least-once delivery).
type syncService struct {
	client   ProviderClient
	assigner *SplitAssigner
	txnRepo  portsrepo.TransactionRepositoryFacade
	connRepo portsrepo.ConnectionRepositoryFacade
	recorder *analytics.Recorder
	cfg      SyncServiceConfig

	mu      sync.Mutex
	running map[string]bool
}

// NewSyncService creates the sync cursor controller. recorder may be nil.
func NewSyncService(client ProviderClient, assigner *SplitAssigner, txnRepo portsrepo.TransactionRepositoryFacade, connRepo portsrepo.ConnectionRepositoryFacade, recorder *analytics.Recorder, cfg SyncServiceConfig) portssvc.SyncSvcFacade {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	return &syncService{
		client:   client,
		assigner: assigner,
		txnRepo:  txnRepo,
		connRepo: connRepo,
		recorder: recorder,
		cfg:      cfg,
		running:  make(map[string]bool),
	}
}

var _ portssvc.SyncSvcFacade = (*syncService)(nil)

// SyncConnection implements portssvc.SyncSvcFacade.
func (s *syncService) SyncConnection(ctx context.Context, connectionID string) (*dto.SyncResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("connection_id", connectionID))

	if !s.tryLock(connectionID) {
		return nil, ErrSyncInProgress
	}
	defer s.unlock(connectionID)

	conn, err := s.connRepo.FindConnectionByID(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load connection %s: %w", connectionID, err)
	}
	if !conn.IsActive {
		return nil, fmt.Errorf("%w: connection %s is inactive", apperrors.ErrConflict, connectionID)
	}

	result := &dto.SyncResult{ConnectionID: connectionID}
	cursor := conn.Cursor

	for {
		page, err := s.client.SyncTransactions(ctx, conn.AccessToken, cursor, s.cfg.PageSize)
		if err != nil {
			if errors.Is(err, provider.ErrCredentialRevoked) {
				// Terminal for the connection; surface as a status change.
				logger.Warn("Provider credential revoked, deactivating connection")
				if deactErr := s.connRepo.SetConnectionActive(ctx, connectionID, false, time.Now().UTC()); deactErr != nil {
					logger.Error("Failed to deactivate connection", slog.String("error", deactErr.Error()))
				}
			}
			// Cursor stays at the last committed position; the next run resumes.
			return nil, fmt.Errorf("failed to fetch sync page: %w", err)
		}
		result.Pages++

		stats, err := s.processPage(ctx, logger, conn, page)
		if err != nil {
			return nil, err
		}
		result.Stats.Add(stats)
		result.Added += len(page.Added)
		result.Modified += len(page.Modified)
		result.Removed += len(page.Removed)

		now := time.Now().UTC()
		if err := s.connRepo.UpdateCursor(ctx, connectionID, page.NextCursor, now); err != nil {
			return nil, fmt.Errorf("failed to persist cursor: %w", err)
		}
		next := page.NextCursor
		cursor = &next
		result.SyncedAt = now

		if !page.HasMore {
			break
		}
		// Breather between pages for the provider's rate limits.
		if s.cfg.PageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.PageDelay):
			}
		}
	}

	if !conn.InitialSyncDone {
		if err := s.connRepo.MarkInitialSyncDone(ctx, connectionID, time.Now().UTC()); err != nil {
			logger.Warn("Failed to mark initial sync done", slog.String("error", err.Error()))
		}
	}

	logger.Info("Sync completed",
		slog.Int("pages", result.Pages),
		slog.Int("added", result.Added),
		slog.Int("modified", result.Modified),
		slog.Int("removed", result.Removed))

	s.recorder.RecordSyncRun(analytics.SyncRunRow{
		ConnectionID:         connectionID,
		Added:                result.Added,
		Modified:             result.Modified,
		Removed:              result.Removed,
		Pages:                result.Pages,
		BudgetIDsFixed:       result.Stats.BudgetIDsFixed,
		AmountsRedistributed: result.Stats.AmountsRedistributed,
		BudgetsReassigned:    result.Stats.BudgetsReassigned,
		SyncedAt:             result.SyncedAt,
	})

	return result, nil
}

// processPage handles one upstream page: additions first, then modifications,
// then removals, so no removal can outrun its own addition.
func (s *syncService) processPage(ctx context.Context, logger *slog.Logger, conn *domain.Connection, page *provider.SyncResponse) (dto.AssignStats, error) {
	stats := dto.AssignStats{}

	added := make([]*domain.Transaction, 0, len(page.Added))
	for _, raw := range page.Added {
		if txn := BuildTransaction(ctx, raw, *conn, ""); txn != nil {
			added = append(added, txn)
		}
	}

	if err := s.routeModified(ctx, logger, conn, page.Modified, &added); err != nil {
		return stats, err
	}

	if len(added) > 0 {
		assignStats, updates, err := s.assigner.Assign(ctx, added, conn.UserID)
		if err != nil {
			return stats, fmt.Errorf("failed to assign splits: %w", err)
		}
		stats.Add(assignStats)

		txns := make([]domain.Transaction, len(added))
		for i, t := range added {
			txns[i] = *t
		}
		if err := s.txnRepo.SaveSyncBatch(ctx, txns, updates); err != nil {
			return stats, fmt.Errorf("failed to write sync batch: %w", err)
		}
	}

	now := time.Now().UTC()
	for _, removed := range page.Removed {
		if err := s.txnRepo.SoftDeleteTransaction(ctx, removed.TransactionID, now); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				logger.Warn("Removal for unknown transaction", slog.String("txn_id", removed.TransactionID))
				continue
			}
			return stats, fmt.Errorf("failed to soft-delete transaction %s: %w", removed.TransactionID, err)
		}
	}

	return stats, nil
}

// routeModified splits modified records into material changes, which join the
// full pipeline alongside additions, and cosmetic ones, which are patched in
// place. Modified records never seen before are treated as additions.
func (s *syncService) routeModified(ctx context.Context, logger *slog.Logger, conn *domain.Connection, modified []provider.RawTransaction, added *[]*domain.Transaction) error {
	if len(modified) == 0 {
		return nil
	}

	ids := make([]string, 0, len(modified))
	for _, raw := range modified {
		ids = append(ids, raw.TransactionID)
	}
	stored, err := s.txnRepo.FindTransactionsByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load stored transactions for diff: %w", err)
	}

	now := time.Now().UTC()
	for _, raw := range modified {
		existing, ok := stored[raw.TransactionID]
		if !ok {
			if txn := BuildTransaction(ctx, raw, *conn, ""); txn != nil {
				*added = append(*added, txn)
			}
			continue
		}

		if IsMaterialChange(raw, &existing) {
			txn := BuildTransaction(ctx, raw, *conn, existing.CurrencyCode)
			if txn == nil {
				continue
			}
			// Re-derived records keep the user's override category and, when
			// the stored record has splits, the stored splits themselves:
			// split identities must survive a re-derivation because settled
			// outflow periods reference them, and wiping user allocations
			// over an amount or date change would lose work the assigner
			// cannot reconstruct. The assigner re-fits the carried amounts
			// to the new total and skips splits that already settled a bill.
			txn.UserCategory = existing.UserCategory
			txn.CreatedAt = existing.CreatedAt
			if len(existing.Splits) > 0 {
				txn.Splits = append([]domain.Split(nil), existing.Splits...)
			}
			*added = append(*added, txn)
			continue
		}

		if err := s.txnRepo.PatchTransactionNames(ctx, raw.TransactionID, raw.Name, raw.MerchantName, now); err != nil {
			return fmt.Errorf("failed to patch transaction %s: %w", raw.TransactionID, err)
		}
		logger.Debug("Patched cosmetic fields", slog.String("txn_id", raw.TransactionID))
	}
	return nil
}

// SyncAllConnections implements portssvc.SyncSvcFacade with a
// collect-errors-and-continue policy.
func (s *syncService) SyncAllConnections(ctx context.Context) ([]dto.ConnectionSyncOutcome, error) {
	conns, err := s.connRepo.ListActiveConnections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active connections: %w", err)
	}

	outcomes := make([]dto.ConnectionSyncOutcome, 0, len(conns))
	for _, conn := range conns {
		outcome := dto.ConnectionSyncOutcome{ConnectionID: conn.ConnectionID}
		result, err := s.SyncConnection(ctx, conn.ConnectionID)
		if err != nil {
			outcome.Error = err.Error()
		} else {
			outcome.Result = result
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (s *syncService) tryLock(connectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[connectionID] {
		return false
	}
	s.running[connectionID] = true
	return true
}

func (s *syncService) unlock(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, connectionID)
}
