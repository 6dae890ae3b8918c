package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pennyworth-app/pennyworth_backend/internal/apperrors"
	"github.com/pennyworth-app/pennyworth_backend/internal/core/services"
	"github.com/pennyworth-app/pennyworth_backend/internal/dto"
	"github.com/pennyworth-app/pennyworth_backend/internal/middleware"

	portsrepo "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/repositories"
	portssvc "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/services"
)

type SyncHandler struct {
	syncSvc    portssvc.SyncSvcFacade
	connReader portsrepo.ConnectionReader
}

func NewSyncHandler(syncSvc portssvc.SyncSvcFacade, connReader portsrepo.ConnectionReader) *SyncHandler {
	return &SyncHandler{syncSvc: syncSvc, connReader: connReader}
}

// TriggerSync handles POST /api/v1/connections/:connectionID/sync. It runs
// the sync inline and returns the per-run counters, so operators can see the
// outcome of a manual kick without tailing logs.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	connectionID := c.Param("connectionID")
	if connectionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "connectionID is required"})
		return
	}

	result, err := h.syncSvc.SyncConnection(c.Request.Context(), connectionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSyncInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "sync already in progress"})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "connection not found"})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "connection is not active"})
		default:
			logger.Error("Manual sync failed", "connectionID", connectionID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSyncStatus handles GET /api/v1/connections/:connectionID/sync. It
// reports the connection's committed cursor position without triggering work.
func (h *SyncHandler) GetSyncStatus(c *gin.Context) {
	connectionID := c.Param("connectionID")
	conn, err := h.connReader.FindConnectionByID(c.Request.Context(), connectionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "connection not found"})
			return
		}
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Error("Failed to load connection", "connectionID", connectionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load connection"})
		return
	}

	c.JSON(http.StatusOK, dto.SyncStatusResponse{
		ConnectionID: conn.ConnectionID,
		Cursor:       conn.Cursor,
		LastSyncedAt: conn.LastSyncedAt,
		IsActive:     conn.IsActive,
	})
}

// SyncAll handles POST /api/v1/connections/sync. Failures on individual
// connections are reported per connection, not as an overall error.
func (h *SyncHandler) SyncAll(c *gin.Context) {
	outcomes, err := h.syncSvc.SyncAllConnections(c.Request.Context())
	if err != nil {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Error("Sync-all failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": outcomes})
}
