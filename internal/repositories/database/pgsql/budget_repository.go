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

type PgxBudgetRepository struct {
	BaseRepository
}

// NewBudgetRepository creates a read-only repository for budget data.
func NewBudgetRepository(pool *pgxpool.Pool) portsrepo.BudgetReader {
	return &PgxBudgetRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BudgetReader = (*PgxBudgetRepository)(nil)

const selectBudgetColumns = `
	budget_id, user_id, name, start_date, end_date, is_ongoing, is_system, is_active
`

// ListActiveBudgetsByUser retrieves a user's active budgets, regular budgets
// first and the system fallback last, so matching order follows query order.
func (r *PgxBudgetRepository) ListActiveBudgetsByUser(ctx context.Context, userID string) ([]domain.Budget, error) {
	query := `
		SELECT ` + selectBudgetColumns + `
		FROM budgets
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY is_system ASC, start_date ASC, budget_id;
	`
	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query budgets for user "+userID, err)
	}
	defer rows.Close()

	var budgets []domain.Budget
	for rows.Next() {
		var m models.Budget
		if err := rows.Scan(&m.BudgetID, &m.UserID, &m.Name, &m.StartDate, &m.EndDate, &m.IsOngoing, &m.IsSystem, &m.IsActive); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan budget row", err)
		}
		budgets = append(budgets, mapping.ToDomainBudget(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to read budget rows", err)
	}
	return budgets, nil
}
