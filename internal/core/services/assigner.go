package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
	portsrepo "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/repositories"
	"github.com/pennyworth-app/pennyworth_backend/internal/dto"
	"github.com/pennyworth-app/pennyworth_backend/internal/middleware"
)

// SplitAssigner orchestrates split assignment for transaction batches: category
// resolution, period matching, budget-id validation plus amount reconciliation,
// budget matching, then obligation matching, in that order. Re-running it on an
// already-processed batch with unchanged reference data is a no-op.
type SplitAssigner struct {
	resolver    *CategoryResolver
	periodRepo  portsrepo.PeriodReader
	budgetRepo  portsrepo.BudgetReader
	outflowRepo portsrepo.OutflowReader
	now         func() time.Time
}

// NewSplitAssigner creates a SplitAssigner.
func NewSplitAssigner(resolver *CategoryResolver, periodRepo portsrepo.PeriodReader, budgetRepo portsrepo.BudgetReader, outflowRepo portsrepo.OutflowReader) *SplitAssigner {
	return &SplitAssigner{
		resolver:    resolver,
		periodRepo:  periodRepo,
		budgetRepo:  budgetRepo,
		outflowRepo: outflowRepo,
		now:         time.Now,
	}
}

// Assign runs the pipeline over the batch in place and returns change
// counters plus the obligation instance updates to commit atomically with the
// transaction writes.
func (a *SplitAssigner) Assign(ctx context.Context, txns []*domain.Transaction, userID string) (dto.AssignStats, []domain.OutflowPeriodUpdate, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	stats := dto.AssignStats{}

	if len(txns) == 0 {
		return stats, nil, nil
	}

	// Reference data is loaded once per batch: periods are global, budgets and
	// obligation candidates are per-user.
	periods, err := a.periodRepo.ListAllPeriods(ctx)
	if err != nil {
		return stats, nil, fmt.Errorf("failed to load source periods: %w", err)
	}
	periodMatcher := NewPeriodMatcher(periods)

	budgets, err := a.budgetRepo.ListActiveBudgetsByUser(ctx, userID)
	if err != nil {
		return stats, nil, fmt.Errorf("failed to load budgets: %w", err)
	}
	budgetByID := make(map[string]*domain.Budget, len(budgets))
	var fallback *domain.Budget
	for i := range budgets {
		budgetByID[budgets[i].BudgetID] = &budgets[i]
		if budgets[i].IsSystem && fallback == nil {
			fallback = &budgets[i]
		}
	}

	from, to := OutflowWindow(a.now())
	candidates, err := a.outflowRepo.ListUnsettledOutflowPeriods(ctx, userID, from, to)
	if err != nil {
		return stats, nil, fmt.Errorf("failed to load outflow periods: %w", err)
	}
	outflowMatcher := NewOutflowMatcher(candidates)

	for _, txn := range txns {
		a.assignOne(txn, periodMatcher, budgets, budgetByID, fallback, outflowMatcher, &stats)
	}

	logger.Debug("Split assignment completed",
		slog.Int("transactions", len(txns)),
		slog.Int("budget_ids_fixed", stats.BudgetIDsFixed),
		slog.Int("amounts_redistributed", stats.AmountsRedistributed),
		slog.Int("budgets_reassigned", stats.BudgetsReassigned))

	return stats, outflowMatcher.PendingUpdates(), nil
}

func (a *SplitAssigner) assignOne(txn *domain.Transaction, periodMatcher *PeriodMatcher, budgets []domain.Budget, budgetByID map[string]*domain.Budget, fallback *domain.Budget, outflowMatcher *OutflowMatcher, stats *dto.AssignStats) {
	// 1. Category: the transaction keeps the provider category; the resolved
	// category lands on the splits so a later provider update can still be
	// diffed against the original.
	resolved := a.resolver.Resolve(txn.MerchantName, txn.Name, txn.Category)
	for i := range txn.Splits {
		if txn.Splits[i].UserCategory == nil {
			txn.Splits[i].Category = resolved
		}
	}

	// 2. Periods, independent of budget and obligation outcomes.
	periodMatcher.Apply(txn)

	// 3. Budget-id validation: splits pointing at inactive or unknown budgets
	// fall back to the system budget before amounts are reconciled.
	for i := range txn.Splits {
		budgetID := txn.Splits[i].BudgetID
		if budgetID == "" {
			txn.Splits[i].BudgetID = domain.UnassignedBudgetID
			continue
		}
		if budgetID == domain.UnassignedBudgetID {
			continue
		}
		if _, ok := budgetByID[budgetID]; !ok {
			if fallback != nil {
				txn.Splits[i].BudgetID = fallback.BudgetID
			} else {
				txn.Splits[i].BudgetID = domain.UnassignedBudgetID
			}
			stats.BudgetIDsFixed++
		}
	}

	// 4. Amount reconciliation before budget matching.
	if ReconcileSplitAmounts(txn) {
		stats.AmountsRedistributed++
	}

	// 5. Budget matching for splits still unassigned.
	for i := range txn.Splits {
		if txn.Splits[i].BudgetID != domain.UnassignedBudgetID {
			continue
		}
		if budget := MatchBudget(txn.TxnDate, budgets); budget != nil {
			txn.Splits[i].BudgetID = budget.BudgetID
			stats.BudgetsReassigned++
		}
	}

	// 6. Obligation matching for splits not already settling a bill.
	for i := range txn.Splits {
		if txn.Splits[i].OutflowPeriodID != nil {
			continue
		}
		outflowMatcher.MatchSplit(txn.TxnID, &txn.Splits[i], txn.MerchantName, txn.TxnDate)
	}
}
