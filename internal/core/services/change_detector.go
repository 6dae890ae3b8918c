package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennyworth-app/pennyworth_backend/internal/clients/provider"
	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
)

// IsMaterialChange decides whether a modified upstream record needs the full
// pipeline re-run or just a cosmetic field patch. Material: amount delta over
// one cent, date change, pending flip, or provider category change.
func IsMaterialChange(raw provider.RawTransaction, stored *domain.Transaction) bool {
	rawAmount := decimal.NewFromFloat(raw.Amount).Abs().Round(2)
	if rawAmount.Sub(stored.Amount).Abs().GreaterThan(centTolerance) {
		return true
	}

	if rawDate, err := time.Parse(txnDateLayout, raw.Date); err != nil || !sameDay(rawDate, stored.TxnDate) {
		return true
	}

	storedPending := stored.Status == domain.TxnPending
	if raw.Pending != storedPending {
		return true
	}

	rawPrimary := raw.Category.Primary
	if rawPrimary == "" {
		rawPrimary = domain.GenericCategoryPrimary
	}
	if rawPrimary != stored.Category.Primary || raw.Category.Detailed != stored.Category.Detailed {
		return true
	}

	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
