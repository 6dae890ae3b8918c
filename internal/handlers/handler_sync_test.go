package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/pennyworth-app/pennyworth_backend/internal/apperrors"
	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
	"github.com/pennyworth-app/pennyworth_backend/internal/core/services"
	"github.com/pennyworth-app/pennyworth_backend/internal/dto"
	"github.com/pennyworth-app/pennyworth_backend/internal/handlers"

	portssvc "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/services"
)

// --- Mock SyncService ---
type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) SyncConnection(ctx context.Context, connectionID string) (*dto.SyncResult, error) {
	args := m.Called(ctx, connectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SyncResult), args.Error(1)
}

func (m *MockSyncService) SyncAllConnections(ctx context.Context) ([]dto.ConnectionSyncOutcome, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.ConnectionSyncOutcome), args.Error(1)
}

var _ portssvc.SyncSvcFacade = (*MockSyncService)(nil)

// --- Mock ConnectionReader ---
type MockConnectionReader struct {
	mock.Mock
}

func (m *MockConnectionReader) FindConnectionByID(ctx context.Context, connectionID string) (*domain.Connection, error) {
	args := m.Called(ctx, connectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Connection), args.Error(1)
}

func (m *MockConnectionReader) ListActiveConnections(ctx context.Context) ([]domain.Connection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Connection), args.Error(1)
}

type SyncHandlerTestSuite struct {
	suite.Suite
	mockSvc   *MockSyncService
	mockConns *MockConnectionReader
	router    *gin.Engine
}

func (suite *SyncHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.mockSvc = new(MockSyncService)
	suite.mockConns = new(MockConnectionReader)

	handler := handlers.NewSyncHandler(suite.mockSvc, suite.mockConns)
	suite.router = gin.New()
	suite.router.POST("/connections/sync", handler.SyncAll)
	suite.router.POST("/connections/:connectionID/sync", handler.TriggerSync)
	suite.router.GET("/connections/:connectionID/sync", handler.GetSyncStatus)
}

func (suite *SyncHandlerTestSuite) TestTriggerSync_Success() {
	suite.mockSvc.On("SyncConnection", mock.Anything, "conn1").
		Return(&dto.SyncResult{ConnectionID: "conn1", Added: 3, Pages: 1}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/connections/conn1/sync", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"added":3`)
}

func (suite *SyncHandlerTestSuite) TestTriggerSync_AlreadyRunningConflict() {
	suite.mockSvc.On("SyncConnection", mock.Anything, "conn1").
		Return(nil, services.ErrSyncInProgress).Once()

	req := httptest.NewRequest(http.MethodPost, "/connections/conn1/sync", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *SyncHandlerTestSuite) TestTriggerSync_UnknownConnectionNotFound() {
	suite.mockSvc.On("SyncConnection", mock.Anything, "nope").
		Return(nil, apperrors.ErrNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/connections/nope/sync", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *SyncHandlerTestSuite) TestTriggerSync_InactiveConnectionConflict() {
	suite.mockSvc.On("SyncConnection", mock.Anything, "conn1").
		Return(nil, apperrors.ErrConflict).Once()

	req := httptest.NewRequest(http.MethodPost, "/connections/conn1/sync", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *SyncHandlerTestSuite) TestTriggerSync_InternalError() {
	suite.mockSvc.On("SyncConnection", mock.Anything, "conn1").
		Return(nil, errors.New("db down")).Once()

	req := httptest.NewRequest(http.MethodPost, "/connections/conn1/sync", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusInternalServerError, w.Code)
}

func (suite *SyncHandlerTestSuite) TestGetSyncStatus() {
	cursor := "cursor-5"
	suite.mockConns.On("FindConnectionByID", mock.Anything, "conn1").
		Return(&domain.Connection{ConnectionID: "conn1", Cursor: &cursor, IsActive: true}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/connections/conn1/sync", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "cursor-5")
}

func (suite *SyncHandlerTestSuite) TestGetSyncStatus_NotFound() {
	suite.mockConns.On("FindConnectionByID", mock.Anything, "nope").
		Return(nil, apperrors.ErrNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/connections/nope/sync", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *SyncHandlerTestSuite) TestSyncAll() {
	suite.mockSvc.On("SyncAllConnections", mock.Anything).
		Return([]dto.ConnectionSyncOutcome{
			{ConnectionID: "conn1", Result: &dto.SyncResult{ConnectionID: "conn1"}},
			{ConnectionID: "conn2", Error: "boom"},
		}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/connections/sync", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "conn2")
	suite.Contains(w.Body.String(), "boom")
}

func TestSyncHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(SyncHandlerTestSuite))
}
