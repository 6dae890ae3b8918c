package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the transactions table row. Splits live in a JSONB column:
// they have no lifecycle outside their parent, so a child table would only
// add join traffic to every sync write.
type Transaction struct {
	TxnID           string          `json:"txnID"` // upstream external id, primary key
	UserID          string          `json:"userID"`
	AccountID       string          `json:"accountID"`
	ConnectionID    string          `json:"connectionID"`
	TxnDate         time.Time       `json:"txnDate"`
	Name            string          `json:"name"`
	MerchantName    string          `json:"merchantName"`
	CurrencyCode    string          `json:"currencyCode"`
	Amount          decimal.Decimal `json:"amount"`
	TxnType         string          `json:"txnType"`
	CategoryPrimary string          `json:"categoryPrimary"`
	CategoryDetail  string          `json:"categoryDetail"`
	UserCategory    *string         `json:"userCategory"`
	Status          string          `json:"status"`
	Splits          json.RawMessage `json:"splits"` // JSONB
	AuditFields
}

// AuditFields holds row-level audit timestamps.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}
