package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/pennyworth-app/pennyworth_backend/internal/clients/analytics"
	"github.com/pennyworth-app/pennyworth_backend/internal/clients/provider"
	"github.com/pennyworth-app/pennyworth_backend/internal/core/services"
	"github.com/pennyworth-app/pennyworth_backend/internal/handlers"
	"github.com/pennyworth-app/pennyworth_backend/internal/middleware"
	"github.com/pennyworth-app/pennyworth_backend/internal/repositories/database/pgsql"
	"github.com/pennyworth-app/pennyworth_backend/pkg/config"
	"github.com/pennyworth-app/pennyworth_backend/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	portssvc "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/services"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var recorder *analytics.Recorder
	if cfg.BQEnabled {
		recorder, err = analytics.NewRecorder(context.Background(), cfg.BQProjectID, cfg.BQDataset, logger)
		if err != nil {
			// Analytics export is advisory. Keep serving without it.
			logger.Error("Failed to initialize analytics recorder", slog.String("error", err.Error()))
			recorder = nil
		} else {
			defer recorder.Close()
		}
	}

	repos := pgsql.NewRepositoryContainer(dbPool)
	serviceContainer := buildServices(repos, cfg, recorder, logger)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Webhook callers probing with GET should see 405, not 404.
	r.HandleMethodNotAllowed = true
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Per-IP rate limit on the webhook endpoint. The per-connection sync
	// dispatch gate lives inside the webhook service.
	webhookLimiter := limiter.New(memory.NewStore(), limiter.Rate{Period: time.Minute, Limit: 120})

	handlers.RegisterRoutes(r, cfg, serviceContainer, repos.Connections, repos.Transactions, webhookLimiter)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func buildServices(repos *pgsql.RepositoryContainer, cfg *config.Config, recorder *analytics.Recorder, logger *slog.Logger) *portssvc.ServiceContainer {
	providerClient := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderClientID, cfg.ProviderSecret, nil)

	resolver := services.NewCategoryResolver(services.DefaultCategoryRules())
	assigner := services.NewSplitAssigner(resolver, repos.Periods, repos.Budgets, repos.Outflows)

	syncSvc := services.NewSyncService(providerClient, assigner, repos.Transactions, repos.Connections, recorder, services.SyncServiceConfig{
		PageSize:  cfg.SyncPageSize,
		PageDelay: cfg.SyncPageDelay,
	})

	webhookSvc := services.NewWebhookService(services.WebhookServiceConfig{
		Secret:        cfg.WebhookSecret,
		VerifyEnabled: cfg.WebhookVerifyEnabled,
		SyncInterval:  cfg.SyncMinInterval,
	}, repos.WebhookEvents, repos.Connections, repos.Outflows, syncSvc, recorder, logger)

	return &portssvc.ServiceContainer{
		Sync:    syncSvc,
		Webhook: webhookSvc,
	}
}

func runMigrations(logger *slog.Logger, databaseURL string) error {
	logger.Info("Running database migrations...")
	// Use the pgx stdlib driver so migrations share the application's driver.
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
