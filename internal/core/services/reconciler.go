package services

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
)

// Tolerances for split amount reconciliation. A split total is acceptable
// within one cent of the transaction amount; splits smaller than one cent
// cannot be persisted and get folded away.
var (
	centTolerance = decimal.NewFromFloat(0.01)
	oneCent       = decimal.NewFromFloat(0.01)
)

// singleSplitGapRatio is the fraction of the total beyond which a lone split
// is simply overwritten instead of scaled.
var singleSplitGapRatio = decimal.NewFromFloat(0.10)

// unallocatedSplitDescription labels the catch-all split appended when split
// amounts fall short of the transaction total.
const unallocatedSplitDescription = "Unallocated"

// ReconcileSplitAmounts ensures the transaction's splits sum to its amount
// within one cent. Valid split lists are left untouched; invalid ones are
// redistributed in place. The return reports whether a redistribution
// happened. Reconciliation never fails: a mismatched total is an anomaly to
// fix and count, not an error.
func ReconcileSplitAmounts(txn *domain.Transaction) bool {
	total := txn.Amount

	sum := decimal.Zero
	subCent := false
	for _, s := range txn.Splits {
		sum = sum.Add(s.Amount)
		if s.Amount.IsPositive() && s.Amount.LessThan(oneCent) {
			subCent = true
		}
	}

	gap := total.Sub(sum).Abs()
	if gap.LessThanOrEqual(centTolerance) && !subCent {
		return false
	}

	out := make([]domain.Split, len(txn.Splits))
	copy(out, txn.Splits)

	// A lone split far off the total carries no allocation intent worth
	// preserving; overwrite it.
	if len(out) == 1 && gap.GreaterThan(total.Mul(singleSplitGapRatio)) {
		out[0].Amount = total
		txn.Splits = out
		return true
	}

	if sum.GreaterThan(total) {
		txn.Splits = scaleDown(total, sum, out)
		return true
	}
	txn.Splits = fillShortfall(txn, out)
	return true
}

// scaleDown shrinks every split by total/sum, rounds to cents, then walks the
// rounding residual out one cent at a time starting from the last split.
func scaleDown(total, sum decimal.Decimal, splits []domain.Split) []domain.Split {
	ratio := total.Div(sum)

	scaledSum := decimal.Zero
	for i := range splits {
		splits[i].Amount = splits[i].Amount.Mul(ratio).Round(2)
		scaledSum = scaledSum.Add(splits[i].Amount)
	}

	residual := total.Sub(scaledSum)
	cent := oneCent
	if residual.IsNegative() {
		cent = oneCent.Neg()
	}
	for i := len(splits) - 1; i >= 0 && !residual.IsZero(); i-- {
		splits[i].Amount = splits[i].Amount.Add(cent)
		residual = residual.Sub(cent)
	}

	for i := range splits {
		if splits[i].Amount.LessThan(oneCent) {
			splits[i].Amount = oneCent
		}
	}
	return splits
}

// fillShortfall drops sub-cent splits (their value folds into the remainder)
// and carries the remainder either into the largest surviving split or into a
// new unallocated split stamped with the transaction's date and category.
func fillShortfall(txn *domain.Transaction, splits []domain.Split) []domain.Split {
	total := txn.Amount
	survivors := splits[:0]
	for _, s := range splits {
		if s.Amount.GreaterThanOrEqual(oneCent) {
			survivors = append(survivors, s)
		}
	}

	survivorSum := decimal.Zero
	largest := -1
	for i, s := range survivors {
		survivorSum = survivorSum.Add(s.Amount)
		if largest < 0 || s.Amount.GreaterThan(survivors[largest].Amount) {
			largest = i
		}
	}

	remainder := total.Sub(survivorSum)
	if remainder.LessThan(oneCent) {
		if largest >= 0 {
			survivors[largest].Amount = survivors[largest].Amount.Add(remainder)
		}
		return survivors
	}

	unallocated := domain.Split{
		SplitID:     uuid.NewString(),
		Description: unallocatedSplitDescription,
		Amount:      remainder,
		BudgetID:    domain.UnassignedBudgetID,
		Category:    txn.Category,
		PaymentDate: txn.TxnDate,
	}
	return append(survivors, unallocated)
}
