package domain

import "time"

// PeriodType tags a source period's calendar granularity.
type PeriodType string

const (
	PeriodMonthly   PeriodType = "MONTHLY"
	PeriodWeekly    PeriodType = "WEEKLY"
	PeriodBiMonthly PeriodType = "BI_MONTHLY"
)

// SourcePeriod is a precomputed calendar interval used to bucket transactions
// for reporting. Periods are global, not user-scoped, and read-only here.
type SourcePeriod struct {
	PeriodID  string     `json:"periodID"`
	Type      PeriodType `json:"type"`
	StartDate time.Time  `json:"startDate"`
	EndDate   time.Time  `json:"endDate"`
}

// Contains reports whether the date falls inside [StartDate, EndDate],
// inclusive on both ends.
func (p *SourcePeriod) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}
