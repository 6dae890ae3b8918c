package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OutflowPeriod is the outflow_periods table row. TxnSplitRefs is JSONB.
type OutflowPeriod struct {
	OutflowPeriodID string          `json:"outflowPeriodID"`
	OutflowID       string          `json:"outflowID"`
	UserID          string          `json:"userID"`
	MerchantName    string          `json:"merchantName"`
	ExpectedAmount  decimal.Decimal `json:"expectedAmount"`
	DueDate         time.Time       `json:"dueDate"`
	Paid            bool            `json:"paid"`
	TxnSplitRefs    json.RawMessage `json:"txnSplitRefs"`
}
