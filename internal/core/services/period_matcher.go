package services

import (
	"time"

	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
)

// PeriodIDs holds the calendar period identifiers matched for one date.
// A nil field means no period of that type contains the date.
type PeriodIDs struct {
	Monthly   *string
	Weekly    *string
	BiMonthly *string
}

// PeriodMatcher maps transaction dates onto the global source period table.
// Build one per batch; the table is global and loaded once.
type PeriodMatcher struct {
	periods []domain.SourcePeriod
}

// NewPeriodMatcher creates a matcher over the full source period table.
func NewPeriodMatcher(periods []domain.SourcePeriod) *PeriodMatcher {
	return &PeriodMatcher{periods: periods}
}

// Match returns the first period of each type whose [start, end] interval
// contains the date, inclusive on both ends.
func (m *PeriodMatcher) Match(date time.Time) PeriodIDs {
	var ids PeriodIDs
	for i := range m.periods {
		p := &m.periods[i]
		if !p.Contains(date) {
			continue
		}
		switch p.Type {
		case domain.PeriodMonthly:
			if ids.Monthly == nil {
				id := p.PeriodID
				ids.Monthly = &id
			}
		case domain.PeriodWeekly:
			if ids.Weekly == nil {
				id := p.PeriodID
				ids.Weekly = &id
			}
		case domain.PeriodBiMonthly:
			if ids.BiMonthly == nil {
				id := p.PeriodID
				ids.BiMonthly = &id
			}
		}
	}
	return ids
}

// Apply stamps the matched period identifiers onto every split of the
// transaction. Period matching runs for every transaction regardless of
// budget or obligation outcome.
func (m *PeriodMatcher) Apply(txn *domain.Transaction) {
	ids := m.Match(txn.TxnDate)
	for i := range txn.Splits {
		txn.Splits[i].MonthlyPeriodID = ids.Monthly
		txn.Splits[i].WeeklyPeriodID = ids.Weekly
		txn.Splits[i].BiMonthlyPeriodID = ids.BiMonthly
	}
}
