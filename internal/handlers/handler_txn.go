package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pennyworth-app/pennyworth_backend/internal/apperrors"
	"github.com/pennyworth-app/pennyworth_backend/internal/dto"
	"github.com/pennyworth-app/pennyworth_backend/internal/middleware"

	portsrepo "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/repositories"
)

type TransactionHandler struct {
	txnReader portsrepo.TransactionReader
}

func NewTransactionHandler(txnReader portsrepo.TransactionReader) *TransactionHandler {
	return &TransactionHandler{txnReader: txnReader}
}

// ListTransactions handles GET /api/v1/transactions. Results are scoped to
// the authenticated user and bounded by the date range in the query string.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var query dto.TransactionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to dates are required (YYYY-MM-DD)"})
		return
	}
	if query.To.Before(query.From) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must not precede from"})
		return
	}

	txns, err := h.txnReader.ListTransactionsByUser(c.Request.Context(), userID, query.From, query.To, query.Limit)
	if err != nil {
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Error("Failed to list transactions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list transactions"})
		return
	}

	c.JSON(http.StatusOK, dto.TransactionListResponse{
		Transactions: txns,
		Count:        len(txns),
	})
}

// GetTransaction handles GET /api/v1/transactions/:transactionID. A
// transaction belonging to another user reads as not found.
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	txnID := c.Param("transactionID")
	txn, err := h.txnReader.FindTransactionByID(c.Request.Context(), txnID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		logger := middleware.GetLoggerFromCtx(c.Request.Context())
		logger.Error("Failed to load transaction", "transactionID", txnID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transaction"})
		return
	}
	if txn.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}

	c.JSON(http.StatusOK, txn)
}
