package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxnSplitRef points from an outflow period back to the transaction split
// that settled it.
type TxnSplitRef struct {
	TxnID   string `json:"txnID"`
	SplitID string `json:"splitID"`
}

// OutflowPeriod is one expected occurrence of a recurring bill. An instance
// that already carries a split reference is settled and never matched again.
type OutflowPeriod struct {
	OutflowPeriodID string          `json:"outflowPeriodID"`
	OutflowID       string          `json:"outflowID"`
	UserID          string          `json:"userID"`
	MerchantName    string          `json:"merchantName"`
	ExpectedAmount  decimal.Decimal `json:"expectedAmount"`
	DueDate         time.Time       `json:"dueDate"`
	Paid            bool            `json:"paid"`
	TxnSplitRefs    []TxnSplitRef   `json:"txnSplitRefs"`
}

// IsSettled reports whether the instance has already been claimed by a split.
func (o *OutflowPeriod) IsSettled() bool {
	return o.Paid || len(o.TxnSplitRefs) > 0
}

// OutflowPeriodUpdate is a pending mutation of an outflow period, produced by
// the obligation matcher and committed atomically with its transaction batch.
type OutflowPeriodUpdate struct {
	OutflowPeriodID string      `json:"outflowPeriodID"`
	Ref             TxnSplitRef `json:"ref"`
	Paid            bool        `json:"paid"`
}
