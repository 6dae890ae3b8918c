package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
	"github.com/pennyworth-app/pennyworth_backend/internal/models"
)

// ToModelTransaction converts a domain Transaction to a model Transaction.
func ToModelTransaction(d domain.Transaction) (models.Transaction, error) {
	splits, err := json.Marshal(d.Splits)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to encode splits for txn %s: %w", d.TxnID, err)
	}
	return models.Transaction{
		TxnID:           d.TxnID,
		UserID:          d.UserID,
		AccountID:       d.AccountID,
		ConnectionID:    d.ConnectionID,
		TxnDate:         d.TxnDate,
		Name:            d.Name,
		MerchantName:    d.MerchantName,
		CurrencyCode:    d.CurrencyCode,
		Amount:          d.Amount,
		TxnType:         string(d.TxnType),
		CategoryPrimary: d.Category.Primary,
		CategoryDetail:  d.Category.Detailed,
		UserCategory:    d.UserCategory,
		Status:          string(d.Status),
		Splits:          splits,
		AuditFields:     models.AuditFields{CreatedAt: d.CreatedAt, LastUpdatedAt: d.LastUpdatedAt},
	}, nil
}

// ToDomainTransaction converts a model Transaction to a domain Transaction.
func ToDomainTransaction(m models.Transaction) (domain.Transaction, error) {
	var splits []domain.Split
	if len(m.Splits) > 0 {
		if err := json.Unmarshal(m.Splits, &splits); err != nil {
			return domain.Transaction{}, fmt.Errorf("failed to decode splits for txn %s: %w", m.TxnID, err)
		}
	}
	return domain.Transaction{
		TxnID:        m.TxnID,
		UserID:       m.UserID,
		AccountID:    m.AccountID,
		ConnectionID: m.ConnectionID,
		TxnDate:      m.TxnDate,
		Name:         m.Name,
		MerchantName: m.MerchantName,
		CurrencyCode: m.CurrencyCode,
		Amount:       m.Amount,
		TxnType:      domain.TxnType(m.TxnType),
		Category:     domain.Category{Primary: m.CategoryPrimary, Detailed: m.CategoryDetail},
		UserCategory: m.UserCategory,
		Status:       domain.TxnStatus(m.Status),
		Splits:       splits,
		AuditFields:  domain.AuditFields{CreatedAt: m.CreatedAt, LastUpdatedAt: m.LastUpdatedAt},
	}, nil
}

// ToDomainOutflowPeriod converts a model OutflowPeriod to a domain OutflowPeriod.
func ToDomainOutflowPeriod(m models.OutflowPeriod) (domain.OutflowPeriod, error) {
	var refs []domain.TxnSplitRef
	if len(m.TxnSplitRefs) > 0 {
		if err := json.Unmarshal(m.TxnSplitRefs, &refs); err != nil {
			return domain.OutflowPeriod{}, fmt.Errorf("failed to decode refs for outflow period %s: %w", m.OutflowPeriodID, err)
		}
	}
	return domain.OutflowPeriod{
		OutflowPeriodID: m.OutflowPeriodID,
		OutflowID:       m.OutflowID,
		UserID:          m.UserID,
		MerchantName:    m.MerchantName,
		ExpectedAmount:  m.ExpectedAmount,
		DueDate:         m.DueDate,
		Paid:            m.Paid,
		TxnSplitRefs:    refs,
	}, nil
}

// ToDomainConnection converts a model Connection to a domain Connection.
func ToDomainConnection(m models.Connection) domain.Connection {
	return domain.Connection{
		ConnectionID:    m.ConnectionID,
		UserID:          m.UserID,
		AccessToken:     m.AccessToken,
		Cursor:          m.Cursor,
		LastSyncedAt:    m.LastSyncedAt,
		IsActive:        m.IsActive,
		InitialSyncDone: m.InitialSyncDone,
		AuditFields:     domain.AuditFields{CreatedAt: m.CreatedAt, LastUpdatedAt: m.LastUpdatedAt},
	}
}

// ToDomainSourcePeriod converts a model SourcePeriod to a domain SourcePeriod.
func ToDomainSourcePeriod(m models.SourcePeriod) domain.SourcePeriod {
	return domain.SourcePeriod{
		PeriodID:  m.PeriodID,
		Type:      domain.PeriodType(m.Type),
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
	}
}

// ToDomainBudget converts a model Budget to a domain Budget.
func ToDomainBudget(m models.Budget) domain.Budget {
	return domain.Budget{
		BudgetID:  m.BudgetID,
		UserID:    m.UserID,
		Name:      m.Name,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
		IsOngoing: m.IsOngoing,
		IsSystem:  m.IsSystem,
		IsActive:  m.IsActive,
	}
}
