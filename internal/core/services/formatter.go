package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pennyworth-app/pennyworth_backend/internal/clients/provider"
	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
	"github.com/pennyworth-app/pennyworth_backend/internal/middleware"
)

const txnDateLayout = "2006-01-02"

// BuildTransaction converts one raw upstream transaction into the canonical
// internal record with a single default split. The sign of the upstream
// amount decides expense vs income; the absolute value lands on both the
// transaction and its default split. Period, budget, and obligation fields
// stay empty for later stages. No store I/O happens here.
//
// Malformed input returns nil (logged), so one bad record cannot abort a batch.
func BuildTransaction(ctx context.Context, raw provider.RawTransaction, conn domain.Connection, currency string) *domain.Transaction {
	logger := middleware.GetLoggerFromCtx(ctx)

	if raw.TransactionID == "" || raw.AccountID == "" {
		logger.Warn("Skipping malformed upstream transaction: missing identifiers",
			slog.String("transaction_id", raw.TransactionID),
			slog.String("account_id", raw.AccountID))
		return nil
	}

	txnDate, err := time.Parse(txnDateLayout, raw.Date)
	if err != nil {
		logger.Warn("Skipping malformed upstream transaction: bad date",
			slog.String("transaction_id", raw.TransactionID),
			slog.String("date", raw.Date))
		return nil
	}

	if raw.Amount == 0 && raw.Name == "" {
		logger.Warn("Skipping malformed upstream transaction: empty record",
			slog.String("transaction_id", raw.TransactionID))
		return nil
	}

	txnType := domain.Expense
	if raw.Amount < 0 {
		txnType = domain.Income
	}
	amount := decimal.NewFromFloat(raw.Amount).Abs().Round(2)

	status := domain.TxnApproved
	if raw.Pending {
		status = domain.TxnPending
	}

	if raw.ISOCurrencyCode != "" {
		currency = raw.ISOCurrencyCode
	}

	category := domain.Category{Primary: raw.Category.Primary, Detailed: raw.Category.Detailed}
	if category.Primary == "" {
		category.Primary = domain.GenericCategoryPrimary
	}

	now := time.Now().UTC()
	return &domain.Transaction{
		TxnID:        raw.TransactionID,
		UserID:       conn.UserID,
		AccountID:    raw.AccountID,
		ConnectionID: conn.ConnectionID,
		TxnDate:      txnDate,
		Name:         raw.Name,
		MerchantName: raw.MerchantName,
		CurrencyCode: currency,
		Amount:       amount,
		TxnType:      txnType,
		Category:     category,
		Status:       status,
		Splits: []domain.Split{{
			SplitID:     uuid.NewString(),
			Amount:      amount,
			BudgetID:    domain.UnassignedBudgetID,
			Category:    category,
			PaymentDate: txnDate,
		}},
		AuditFields: domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
	}
}
