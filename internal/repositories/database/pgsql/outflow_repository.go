package pgsql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pennyworth-app/pennyworth_backend/internal/apperrors"
	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
	portsrepo "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/repositories"
	"github.com/pennyworth-app/pennyworth_backend/internal/models"
	"github.com/pennyworth-app/pennyworth_backend/internal/utils/mapping"
)

type PgxOutflowRepository struct {
	BaseRepository
}

// NewOutflowRepository creates a repository for outflow period data.
func NewOutflowRepository(pool *pgxpool.Pool) portsrepo.OutflowRepositoryFacade {
	return &PgxOutflowRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.OutflowRepositoryFacade = (*PgxOutflowRepository)(nil)

// ListUnsettledOutflowPeriods retrieves unpaid instances for a user with due
// dates inside [from, to].
func (r *PgxOutflowRepository) ListUnsettledOutflowPeriods(ctx context.Context, userID string, from, to time.Time) ([]domain.OutflowPeriod, error) {
	query := `
		SELECT outflow_period_id, outflow_id, user_id, merchant_name, expected_amount, due_date, paid, txn_split_refs
		FROM outflow_periods
		WHERE user_id = $1 AND paid = FALSE AND due_date >= $2 AND due_date <= $3
		ORDER BY due_date ASC, outflow_period_id;
	`
	rows, err := r.Pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query outflow periods for user "+userID, err)
	}
	defer rows.Close()

	var periods []domain.OutflowPeriod
	for rows.Next() {
		var m models.OutflowPeriod
		if err := rows.Scan(&m.OutflowPeriodID, &m.OutflowID, &m.UserID, &m.MerchantName, &m.ExpectedAmount, &m.DueDate, &m.Paid, &m.TxnSplitRefs); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan outflow period row", err)
		}
		d, err := mapping.ToDomainOutflowPeriod(m)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to map outflow period row", err)
		}
		periods = append(periods, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to read outflow period rows", err)
	}
	return periods, nil
}

// UpdateOutflowMerchantHint sets the merchant name on all unpaid periods of
// an outflow stream.
func (r *PgxOutflowRepository) UpdateOutflowMerchantHint(ctx context.Context, outflowID, merchantName string) error {
	query := `
		UPDATE outflow_periods
		SET merchant_name = $2
		WHERE outflow_id = $1 AND paid = FALSE;
	`
	if _, err := r.Pool.Exec(ctx, query, outflowID, merchantName); err != nil {
		return apperrors.NewAppError(500, "failed to update merchant hint for outflow "+outflowID, err)
	}
	return nil
}
