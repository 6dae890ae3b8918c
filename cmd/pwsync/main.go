/*Operator CLI for running transaction syncs outside the webhook path.*/
package main

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pennyworth-app/pennyworth_backend/internal/clients/provider"
	"github.com/pennyworth-app/pennyworth_backend/internal/core/services"
	"github.com/pennyworth-app/pennyworth_backend/internal/middleware"
	"github.com/pennyworth-app/pennyworth_backend/internal/repositories/database/pgsql"
	"github.com/pennyworth-app/pennyworth_backend/pkg/config"
	"github.com/pennyworth-app/pennyworth_backend/pkg/database"

	portssvc "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/services"
)

// context holds global options
type context struct {
	Timeout time.Duration `default:"30m" help:"Give up on the whole run after this long."`
}

// cli commands / args available
var cli struct {
	Ctx context `embed:""`

	Sync syncCmd `cmd:"" help:"Run a transaction sync against the provider."`
}

type syncCmd struct {
	Connection string `help:"Sync a single connection by ID."`
	All        bool   `help:"Sync every active connection."`
}

func (s *syncCmd) Run(ctx *context) error {
	if s.Connection == "" && !s.All {
		return fmt.Errorf("either --connection or --all is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	runCtx, cancel := stdctx.WithTimeout(stdctx.Background(), ctx.Timeout)
	defer cancel()
	runCtx = middleware.WithLogger(runCtx, logger)

	dbPool, err := database.NewPgxPool(runCtx, cfg.DatabaseURL, true)
	if err != nil {
		return err
	}
	defer database.ClosePgxPool(dbPool)

	syncSvc := buildSyncService(dbPool, cfg)

	if s.Connection != "" {
		result, err := syncSvc.SyncConnection(runCtx, s.Connection)
		if err != nil {
			return err
		}
		logger.Info("Sync finished",
			slog.String("connectionID", s.Connection),
			slog.Int("added", result.Added),
			slog.Int("modified", result.Modified),
			slog.Int("removed", result.Removed),
			slog.Int("pages", result.Pages),
		)
		return nil
	}

	outcomes, err := syncSvc.SyncAllConnections(runCtx)
	if err != nil {
		return err
	}
	failed := 0
	for _, outcome := range outcomes {
		if outcome.Error != "" {
			failed++
			logger.Error("Connection sync failed", slog.String("connectionID", outcome.ConnectionID), slog.String("error", outcome.Error))
			continue
		}
		logger.Info("Connection synced", slog.String("connectionID", outcome.ConnectionID))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d connections failed to sync", failed, len(outcomes))
	}
	return nil
}

func buildSyncService(dbPool *pgxpool.Pool, cfg *config.Config) portssvc.SyncSvcFacade {
	repos := pgsql.NewRepositoryContainer(dbPool)
	providerClient := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderClientID, cfg.ProviderSecret, nil)
	resolver := services.NewCategoryResolver(services.DefaultCategoryRules())
	assigner := services.NewSplitAssigner(resolver, repos.Periods, repos.Budgets, repos.Outflows)
	return services.NewSyncService(providerClient, assigner, repos.Transactions, repos.Connections, nil, services.SyncServiceConfig{
		PageSize:  cfg.SyncPageSize,
		PageDelay: cfg.SyncPageDelay,
	})
}

func main() {
	ctx := kong.Parse(&cli)
	err := ctx.Run(&cli.Ctx)
	ctx.FatalIfErrorf(err)
}
