package dto

import "time"

// AssignStats counts what the split assignment pass changed, for observability.
// Reconciliation anomalies are counted here, never raised as errors.
type AssignStats struct {
	BudgetIDsFixed       int `json:"budgetIDsFixed"`
	AmountsRedistributed int `json:"amountsRedistributed"`
	BudgetsReassigned    int `json:"budgetsReassigned"`
}

// Add accumulates another stats value into s.
func (s *AssignStats) Add(other AssignStats) {
	s.BudgetIDsFixed += other.BudgetIDsFixed
	s.AmountsRedistributed += other.AmountsRedistributed
	s.BudgetsReassigned += other.BudgetsReassigned
}

// SyncResult summarizes one sync run for a connection.
type SyncResult struct {
	ConnectionID string      `json:"connectionID"`
	Added        int         `json:"added"`
	Modified     int         `json:"modified"`
	Removed      int         `json:"removed"`
	Pages        int         `json:"pages"`
	Stats        AssignStats `json:"stats"`
	SyncedAt     time.Time   `json:"syncedAt"`
}

// ConnectionSyncOutcome pairs a connection with its sync result or error,
// used when syncing all connections with a collect-errors-and-continue policy.
type ConnectionSyncOutcome struct {
	ConnectionID string      `json:"connectionID"`
	Result       *SyncResult `json:"result,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// SyncStatusResponse reports a connection's sync position.
type SyncStatusResponse struct {
	ConnectionID string     `json:"connectionID"`
	Cursor       *string    `json:"cursor,omitempty"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
	IsActive     bool       `json:"isActive"`
}
