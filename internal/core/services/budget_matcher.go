package services

import (
	"time"

	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
)

// MatchBudget picks the budget for a transaction date from the user's active
// budgets. The first matching regular budget wins, in query order; if none
// match, the system "everything else" budget is used when present. A nil
// result means the split stays unassigned, which is a valid terminal state.
func MatchBudget(date time.Time, budgets []domain.Budget) *domain.Budget {
	var fallback *domain.Budget
	for i := range budgets {
		b := &budgets[i]
		if b.IsSystem {
			if fallback == nil {
				fallback = b
			}
			continue
		}
		if b.Contains(date) {
			return b
		}
	}
	return fallback
}
