package domain

import "time"

// Budget is a date-ranged spending envelope owned by a user. Budget CRUD lives
// outside this service; the sync core only reads budgets to place splits.
type Budget struct {
	BudgetID  string     `json:"budgetID"`
	UserID    string     `json:"userID"`
	Name      string     `json:"name"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"` // nil for ongoing budgets
	IsOngoing bool       `json:"isOngoing"`
	IsSystem  bool       `json:"isSystem"` // the "everything else" fallback
	IsActive  bool       `json:"isActive"`
}

// Contains reports whether the given date falls inside the budget's range.
// Ongoing budgets have no upper bound.
func (b *Budget) Contains(date time.Time) bool {
	if date.Before(b.StartDate) {
		return false
	}
	if b.IsOngoing || b.EndDate == nil {
		return true
	}
	return !date.After(*b.EndDate)
}
