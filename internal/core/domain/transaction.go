package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxnType indicates whether a transaction is money going out or coming in.
type TxnType string

const (
	Expense TxnType = "EXPENSE"
	Income  TxnType = "INCOME"
)

// TxnStatus is the lifecycle state of a transaction.
// Deleted transactions are soft-deleted; the row is never physically removed.
type TxnStatus string

const (
	TxnPending  TxnStatus = "PENDING"
	TxnApproved TxnStatus = "APPROVED"
	TxnDeleted  TxnStatus = "DELETED"
)

// UnassignedBudgetID is the placeholder budget for splits no budget has claimed.
// It is a valid terminal state, not an error.
const UnassignedBudgetID = "unassigned"

// Category is the provider-assigned spending category pair.
type Category struct {
	Primary  string `json:"primary"`
	Detailed string `json:"detailed"`
}

// GenericCategoryPrimary is the provider's catch-all primary category.
// The resolver only runs against transactions still carrying it.
const GenericCategoryPrimary = "GENERAL"

// IsGeneric reports whether the category is still the provider catch-all.
func (c Category) IsGeneric() bool {
	return c.Primary == "" || c.Primary == GenericCategoryPrimary
}

// Split is one monetary allocation of a transaction. It never exists outside
// its parent transaction.
type Split struct {
	SplitID           string          `json:"splitID"`
	Description       string          `json:"description,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	BudgetID          string          `json:"budgetID"` // UnassignedBudgetID when no budget matched
	MonthlyPeriodID   *string         `json:"monthlyPeriodID,omitempty"`
	WeeklyPeriodID    *string         `json:"weeklyPeriodID,omitempty"`
	BiMonthlyPeriodID *string         `json:"biMonthlyPeriodID,omitempty"`
	OutflowPeriodID   *string         `json:"outflowPeriodID,omitempty"`
	Category          Category        `json:"category"`
	UserCategory      *string         `json:"userCategory,omitempty"`
	Ignored           bool            `json:"ignored"`
	IsRefund          bool            `json:"isRefund"`
	TaxDeductible     bool            `json:"taxDeductible"`
	PaymentDate       time.Time       `json:"paymentDate"`
}

// Transaction is one external payment event, keyed by the upstream-stable
// external identifier. Invariant: the split amounts sum to Amount within one cent.
type Transaction struct {
	TxnID        string          `json:"txnID"` // upstream external id, primary key
	UserID       string          `json:"userID"`
	AccountID    string          `json:"accountID"`
	ConnectionID string          `json:"connectionID"`
	TxnDate      time.Time       `json:"txnDate"`
	Name         string          `json:"name"`
	MerchantName string          `json:"merchantName"`
	CurrencyCode string          `json:"currencyCode"`
	Amount       decimal.Decimal `json:"amount"` // absolute value
	TxnType      TxnType         `json:"txnType"`
	Category     Category        `json:"category"`
	UserCategory *string         `json:"userCategory,omitempty"`
	Status       TxnStatus       `json:"status"`
	Splits       []Split         `json:"splits"`
	AuditFields
}

// SplitTotal returns the sum of all split amounts.
func (t *Transaction) SplitTotal() decimal.Decimal {
	total := decimal.Zero
	for _, s := range t.Splits {
		total = total.Add(s.Amount)
	}
	return total
}
