package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
)

// Obligation match scoring. These weights decide which bills get marked paid;
// they are product rules and must not drift between callers.
const (
	merchantMatchScore  = 50
	amountMatchScore    = 30
	dueDateMatchScore   = 20
	dueDatePenaltyPerDy = 2
	acceptScore         = 50
	dueDateWindowDays   = 7
)

// Lookup window for candidate obligation instances relative to now.
const (
	outflowLookbackMonths = 3
	outflowLookaheadMonth = 1
)

var amountTolerance = decimal.NewFromFloat(0.10)

// OutflowWindow returns the due-date bounds for candidate obligation lookups.
func OutflowWindow(now time.Time) (from, to time.Time) {
	return now.AddDate(0, -outflowLookbackMonths, 0), now.AddDate(0, outflowLookaheadMonth, 0)
}

// OutflowMatcher scores splits against outstanding obligation instances for
// one pipeline run. Each matcher tracks the instances claimed during its run
// so no instance is claimed twice.
type OutflowMatcher struct {
	candidates []domain.OutflowPeriod
	claimed    map[string]bool
	updates    []domain.OutflowPeriodUpdate
}

// NewOutflowMatcher creates a matcher over the user's candidate instances.
// Instances that already carry a split reference are never matched.
func NewOutflowMatcher(candidates []domain.OutflowPeriod) *OutflowMatcher {
	return &OutflowMatcher{
		candidates: candidates,
		claimed:    make(map[string]bool),
	}
}

// MatchSplit scores every untouched instance against the split and claims the
// best one when its score reaches the acceptance threshold. On a claim it
// sets the split's obligation identifier and records a pending instance
// update to be committed atomically with the transaction write.
func (m *OutflowMatcher) MatchSplit(txnID string, split *domain.Split, merchantName string, txnDate time.Time) bool {
	bestIdx := -1
	bestScore := 0

	for i := range m.candidates {
		cand := &m.candidates[i]
		if cand.IsSettled() || m.claimed[cand.OutflowPeriodID] {
			continue
		}
		score := scoreCandidate(cand, split.Amount, merchantName, txnDate)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx < 0 || bestScore < acceptScore {
		return false
	}

	cand := &m.candidates[bestIdx]
	m.claimed[cand.OutflowPeriodID] = true

	id := cand.OutflowPeriodID
	split.OutflowPeriodID = &id
	m.updates = append(m.updates, domain.OutflowPeriodUpdate{
		OutflowPeriodID: cand.OutflowPeriodID,
		Ref:             domain.TxnSplitRef{TxnID: txnID, SplitID: split.SplitID},
		Paid:            true,
	})
	return true
}

// PendingUpdates returns the obligation instance updates recorded so far.
func (m *OutflowMatcher) PendingUpdates() []domain.OutflowPeriodUpdate {
	return m.updates
}

func scoreCandidate(cand *domain.OutflowPeriod, amount decimal.Decimal, merchantName string, txnDate time.Time) int {
	score := 0

	txnMerchant := strings.ToLower(strings.TrimSpace(merchantName))
	candMerchant := strings.ToLower(strings.TrimSpace(cand.MerchantName))
	if txnMerchant != "" && candMerchant != "" &&
		(strings.Contains(txnMerchant, candMerchant) || strings.Contains(candMerchant, txnMerchant)) {
		score += merchantMatchScore
	}

	if !cand.ExpectedAmount.IsZero() {
		diff := amount.Sub(cand.ExpectedAmount).Abs()
		if diff.LessThanOrEqual(cand.ExpectedAmount.Abs().Mul(amountTolerance)) {
			score += amountMatchScore
		}
	}

	days := daysBetween(cand.DueDate, txnDate)
	if days <= dueDateWindowDays {
		score += dueDateMatchScore - dueDatePenaltyPerDy*days
	}

	return score
}

func daysBetween(a, b time.Time) int {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}
