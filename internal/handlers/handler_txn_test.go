package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/pennyworth-app/pennyworth_backend/internal/apperrors"
	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
	"github.com/pennyworth-app/pennyworth_backend/internal/handlers"
	"github.com/pennyworth-app/pennyworth_backend/internal/middleware"

	portsrepo "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/repositories"
)

// --- Mock TransactionReader ---
type MockTransactionReader struct {
	mock.Mock
}

func (m *MockTransactionReader) FindTransactionByID(ctx context.Context, txnID string) (*domain.Transaction, error) {
	args := m.Called(ctx, txnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionReader) FindTransactionsByIDs(ctx context.Context, txnIDs []string) (map[string]domain.Transaction, error) {
	args := m.Called(ctx, txnIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Transaction), args.Error(1)
}

func (m *MockTransactionReader) ListTransactionsByUser(ctx context.Context, userID string, from, to time.Time, limit int) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

var _ portsrepo.TransactionReader = (*MockTransactionReader)(nil)

type TransactionHandlerTestSuite struct {
	suite.Suite
	mockTxns *MockTransactionReader
	router   *gin.Engine
}

func (suite *TransactionHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.mockTxns = new(MockTransactionReader)

	handler := handlers.NewTransactionHandler(suite.mockTxns)
	suite.router = gin.New()
	// Stand-in for the JWT middleware: stamp the authenticated user.
	suite.router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(middleware.WithUserID(c.Request.Context(), "u1"))
		c.Next()
	})
	suite.router.GET("/transactions", handler.ListTransactions)
	suite.router.GET("/transactions/:transactionID", handler.GetTransaction)
}

func (suite *TransactionHandlerTestSuite) coffeeTxn() *domain.Transaction {
	return &domain.Transaction{
		TxnID:        "txn1",
		UserID:       "u1",
		MerchantName: "Starbucks Coffee",
		Amount:       decimal.RequireFromString("4.57"),
		TxnType:      domain.Expense,
		Status:       domain.TxnApproved,
	}
}

func (suite *TransactionHandlerTestSuite) TestListTransactions() {
	from := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)
	suite.mockTxns.On("ListTransactionsByUser", mock.Anything, "u1", from, to, 0).
		Return([]domain.Transaction{*suite.coffeeTxn()}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/transactions?from=2025-11-01&to=2025-11-30", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"count":1`)
	suite.Contains(w.Body.String(), "Starbucks Coffee")
	suite.mockTxns.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestListTransactions_MissingRangeRejected() {
	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockTxns.AssertNotCalled(suite.T(), "ListTransactionsByUser",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionHandlerTestSuite) TestListTransactions_InvertedRangeRejected() {
	req := httptest.NewRequest(http.MethodGet, "/transactions?from=2025-11-30&to=2025-11-01", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TransactionHandlerTestSuite) TestListTransactions_InternalError() {
	suite.mockTxns.On("ListTransactionsByUser", mock.Anything, "u1", mock.Anything, mock.Anything, 0).
		Return(nil, errors.New("db down")).Once()

	req := httptest.NewRequest(http.MethodGet, "/transactions?from=2025-11-01&to=2025-11-30", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusInternalServerError, w.Code)
}

func (suite *TransactionHandlerTestSuite) TestGetTransaction() {
	suite.mockTxns.On("FindTransactionByID", mock.Anything, "txn1").
		Return(suite.coffeeTxn(), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/transactions/txn1", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"txnID":"txn1"`)
}

func (suite *TransactionHandlerTestSuite) TestGetTransaction_NotFound() {
	suite.mockTxns.On("FindTransactionByID", mock.Anything, "nope").
		Return(nil, apperrors.ErrNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/transactions/nope", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TransactionHandlerTestSuite) TestGetTransaction_OtherUsersTransactionHidden() {
	other := suite.coffeeTxn()
	other.UserID = "u2"
	suite.mockTxns.On("FindTransactionByID", mock.Anything, "txn1").
		Return(other, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/transactions/txn1", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TransactionHandlerTestSuite) TestListTransactions_NoAuthenticatedUser() {
	router := gin.New()
	handler := handlers.NewTransactionHandler(suite.mockTxns)
	router.GET("/transactions", handler.ListTransactions)

	req := httptest.NewRequest(http.MethodGet, "/transactions?from=2025-11-01&to=2025-11-30", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func TestTransactionHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TransactionHandlerTestSuite))
}
