package models

import "time"

// SourcePeriod is the source_periods table row.
type SourcePeriod struct {
	PeriodID  string    `json:"periodID"`
	Type      string    `json:"type"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// Budget is the budgets table row. Budgets are written by the budget
// management service; this backend only reads them.
type Budget struct {
	BudgetID  string     `json:"budgetID"`
	UserID    string     `json:"userID"`
	Name      string     `json:"name"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	IsOngoing bool       `json:"isOngoing"`
	IsSystem  bool       `json:"isSystem"`
	IsActive  bool       `json:"isActive"`
}
