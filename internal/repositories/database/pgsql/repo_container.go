package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/repositories"
)

// RepositoryContainer bundles all pgsql repositories built over one pool.
type RepositoryContainer struct {
	Transactions  portsrepo.TransactionRepositoryFacade
	Budgets       portsrepo.BudgetReader
	Outflows      portsrepo.OutflowRepositoryFacade
	Periods       portsrepo.PeriodReader
	Connections   portsrepo.ConnectionRepositoryFacade
	WebhookEvents portsrepo.WebhookEventRepositoryFacade
}

// NewRepositoryContainer creates all repositories over the given pool.
func NewRepositoryContainer(pool *pgxpool.Pool) *RepositoryContainer {
	return &RepositoryContainer{
		Transactions:  NewTransactionRepository(pool),
		Budgets:       NewBudgetRepository(pool),
		Outflows:      NewOutflowRepository(pool),
		Periods:       NewPeriodRepository(pool),
		Connections:   NewConnectionRepository(pool),
		WebhookEvents: NewWebhookEventRepository(pool),
	}
}
