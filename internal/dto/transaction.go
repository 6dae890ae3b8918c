package dto

import (
	"time"

	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
)

// TransactionListQuery is the query string of the transaction listing
// endpoint. Dates are inclusive day bounds.
type TransactionListQuery struct {
	From  time.Time `form:"from" time_format:"2006-01-02" time_utc:"1" binding:"required"`
	To    time.Time `form:"to" time_format:"2006-01-02" time_utc:"1" binding:"required"`
	Limit int       `form:"limit"`
}

// TransactionListResponse wraps a page of transactions.
type TransactionListResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	Count        int                  `json:"count"`
}
