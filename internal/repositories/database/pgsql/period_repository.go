package pgsql

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pennyworth-app/pennyworth_backend/internal/apperrors"
	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
	portsrepo "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/repositories"
	"github.com/pennyworth-app/pennyworth_backend/internal/models"
	"github.com/pennyworth-app/pennyworth_backend/internal/utils/mapping"
)

type PgxPeriodRepository struct {
	BaseRepository
}

// NewPeriodRepository creates a read-only repository for the global source
// period table.
func NewPeriodRepository(pool *pgxpool.Pool) portsrepo.PeriodReader {
	return &PgxPeriodRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PeriodReader = (*PgxPeriodRepository)(nil)

// ListAllPeriods retrieves the full source period table.
func (r *PgxPeriodRepository) ListAllPeriods(ctx context.Context) ([]domain.SourcePeriod, error) {
	query := `
		SELECT period_id, period_type, start_date, end_date
		FROM source_periods
		ORDER BY start_date ASC, period_id;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query source periods", err)
	}
	defer rows.Close()

	var periods []domain.SourcePeriod
	for rows.Next() {
		var m models.SourcePeriod
		if err := rows.Scan(&m.PeriodID, &m.Type, &m.StartDate, &m.EndDate); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan source period row", err)
		}
		periods = append(periods, mapping.ToDomainSourcePeriod(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to read source period rows", err)
	}
	return periods, nil
}
