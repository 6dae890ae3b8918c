package provider

// RawCategory is the provider-assigned category pair on a raw transaction.
type RawCategory struct {
	Primary  string `json:"primary"`
	Detailed string `json:"detailed"`
}

// RawTransaction is one transaction as the provider reports it. Amount is
// signed: positive for money out, negative for money in.
type RawTransaction struct {
	TransactionID   string      `json:"transaction_id"`
	AccountID       string      `json:"account_id"`
	Amount          float64     `json:"amount"`
	ISOCurrencyCode string      `json:"iso_currency_code"`
	Date            string      `json:"date"` // YYYY-MM-DD
	Name            string      `json:"name"`
	MerchantName    string      `json:"merchant_name"`
	Pending         bool        `json:"pending"`
	Category        RawCategory `json:"personal_finance_category"`
}

// RemovedTransaction identifies a transaction the provider has withdrawn.
type RemovedTransaction struct {
	TransactionID string `json:"transaction_id"`
}

// SyncResponse is one page of the provider's transactions diff.
type SyncResponse struct {
	Added      []RawTransaction     `json:"added"`
	Modified   []RawTransaction     `json:"modified"`
	Removed    []RemovedTransaction `json:"removed"`
	NextCursor string               `json:"next_cursor"`
	HasMore    bool                 `json:"has_more"`
}

type syncRequest struct {
	ClientID    string  `json:"client_id"`
	Secret      string  `json:"secret"`
	AccessToken string  `json:"access_token"`
	Cursor      *string `json:"cursor,omitempty"`
	Count       int     `json:"count"`
}

type apiError struct {
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}
