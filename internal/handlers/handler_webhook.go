package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pennyworth-app/pennyworth_backend/internal/core/services"
	"github.com/pennyworth-app/pennyworth_backend/internal/dto"
	"github.com/pennyworth-app/pennyworth_backend/internal/middleware"

	portssvc "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/services"
)

// signatureHeader carries the provider's HMAC-SHA256 over the raw body, hex.
const signatureHeader = "X-Signature"

type WebhookHandler struct {
	webhookSvc portssvc.WebhookSvcFacade
}

func NewWebhookHandler(webhookSvc portssvc.WebhookSvcFacade) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

// Receive handles POST /webhooks/provider. Once dispatch has been attempted
// the response is always 200: the provider's retry semantics are not relied
// on, and downstream failures are logged instead of surfaced. Only a bad
// signature gets 401 (non-POST requests never reach this handler and get 405
// from the router).
func (h *WebhookHandler) Receive(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logger.Warn("Failed to read webhook body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	// Restore the body so binding can parse it.
	c.Request.Body = io.NopCloser(bytes.NewReader(rawBody))

	var req dto.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Malformed webhook body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed webhook body"})
		return
	}

	outcome, err := h.webhookSvc.Process(c.Request.Context(), req, rawBody, c.GetHeader(signatureHeader))
	if err != nil {
		if errors.Is(err, services.ErrInvalidSignature) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
		// Processing trouble is logged, not bounced back to the provider.
		logger.Error("Webhook processing failed", "error", err)
		c.JSON(http.StatusOK, gin.H{"acknowledged": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"acknowledged": true, "disposition": outcome.Disposition})
}
