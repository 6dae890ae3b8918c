package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/pennyworth-app/pennyworth_backend/internal/middleware"
	"github.com/pennyworth-app/pennyworth_backend/pkg/config"

	portsrepo "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/repositories"
	portssvc "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/services"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	connReader portsrepo.ConnectionReader,
	txnReader portsrepo.TransactionReader,
	webhookLimiter *limiter.Limiter,
) {
	homeHandler := NewHomeHandler()
	r.GET("/health", homeHandler.HealthCheck)

	// Provider webhooks are authenticated by signature, not JWT, and are
	// rate-limited by source IP.
	webhookHandler := NewWebhookHandler(services.Webhook)
	webhooks := r.Group("/webhooks", middleware.RateLimit(webhookLimiter))
	webhooks.POST("/provider", webhookHandler.Receive)

	setupAPIV1Routes(r, cfg, services, connReader, txnReader)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	connReader portsrepo.ConnectionReader,
	txnReader portsrepo.TransactionReader,
) {
	// Apply AuthMiddleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))

	registerSyncRoutes(v1, services.Sync, connReader)
	registerTransactionRoutes(v1, txnReader)
}

func registerSyncRoutes(v1 *gin.RouterGroup, syncSvc portssvc.SyncSvcFacade, connReader portsrepo.ConnectionReader) {
	syncHandler := NewSyncHandler(syncSvc, connReader)

	connections := v1.Group("/connections")
	{
		connections.POST("/sync", syncHandler.SyncAll)
		connections.POST("/:connectionID/sync", syncHandler.TriggerSync)
		connections.GET("/:connectionID/sync", syncHandler.GetSyncStatus)
	}
}

func registerTransactionRoutes(v1 *gin.RouterGroup, txnReader portsrepo.TransactionReader) {
	txnHandler := NewTransactionHandler(txnReader)

	transactions := v1.Group("/transactions")
	{
		transactions.GET("", txnHandler.ListTransactions)
		transactions.GET("/:transactionID", txnHandler.GetTransaction)
	}
}
