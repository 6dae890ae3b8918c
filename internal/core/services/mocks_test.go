package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/pennyworth-app/pennyworth_backend/internal/clients/provider"
	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
	"github.com/pennyworth-app/pennyworth_backend/internal/dto"
)

// --- Mock PeriodRepository ---
type MockPeriodRepository struct {
	mock.Mock
}

func (m *MockPeriodRepository) ListAllPeriods(ctx context.Context) ([]domain.SourcePeriod, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SourcePeriod), args.Error(1)
}

// --- Mock BudgetRepository ---
type MockBudgetRepository struct {
	mock.Mock
}

func (m *MockBudgetRepository) ListActiveBudgetsByUser(ctx context.Context, userID string) ([]domain.Budget, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Budget), args.Error(1)
}

// --- Mock OutflowRepository ---
type MockOutflowRepository struct {
	mock.Mock
}

func (m *MockOutflowRepository) ListUnsettledOutflowPeriods(ctx context.Context, userID string, from, to time.Time) ([]domain.OutflowPeriod, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OutflowPeriod), args.Error(1)
}

func (m *MockOutflowRepository) UpdateOutflowMerchantHint(ctx context.Context, outflowID, merchantName string) error {
	args := m.Called(ctx, outflowID, merchantName)
	return args.Error(0)
}

// --- Mock TransactionRepository ---
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, txnID string) (*domain.Transaction, error) {
	args := m.Called(ctx, txnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindTransactionsByIDs(ctx context.Context, txnIDs []string) (map[string]domain.Transaction, error) {
	args := m.Called(ctx, txnIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactionsByUser(ctx context.Context, userID string, from, to time.Time, limit int) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) SaveSyncBatch(ctx context.Context, txns []domain.Transaction, updates []domain.OutflowPeriodUpdate) error {
	args := m.Called(ctx, txns, updates)
	return args.Error(0)
}

func (m *MockTransactionRepository) PatchTransactionNames(ctx context.Context, txnID, name, merchantName string, now time.Time) error {
	args := m.Called(ctx, txnID, name, merchantName, now)
	return args.Error(0)
}

func (m *MockTransactionRepository) SoftDeleteTransaction(ctx context.Context, txnID string, now time.Time) error {
	args := m.Called(ctx, txnID, now)
	return args.Error(0)
}

// --- Mock ConnectionRepository ---
type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) FindConnectionByID(ctx context.Context, connectionID string) (*domain.Connection, error) {
	args := m.Called(ctx, connectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Connection), args.Error(1)
}

func (m *MockConnectionRepository) ListActiveConnections(ctx context.Context) ([]domain.Connection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Connection), args.Error(1)
}

func (m *MockConnectionRepository) UpdateCursor(ctx context.Context, connectionID string, cursor string, syncedAt time.Time) error {
	args := m.Called(ctx, connectionID, cursor, syncedAt)
	return args.Error(0)
}

func (m *MockConnectionRepository) SetConnectionActive(ctx context.Context, connectionID string, active bool, now time.Time) error {
	args := m.Called(ctx, connectionID, active, now)
	return args.Error(0)
}

func (m *MockConnectionRepository) MarkInitialSyncDone(ctx context.Context, connectionID string, now time.Time) error {
	args := m.Called(ctx, connectionID, now)
	return args.Error(0)
}

// --- Mock WebhookEventRepository ---
type MockWebhookEventRepository struct {
	mock.Mock
}

func (m *MockWebhookEventRepository) WebhookEventExists(ctx context.Context, requestID string) (bool, error) {
	args := m.Called(ctx, requestID)
	return args.Bool(0), args.Error(1)
}

func (m *MockWebhookEventRepository) SaveWebhookEvent(ctx context.Context, event domain.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// --- Mock ProviderClient ---
type MockProviderClient struct {
	mock.Mock
}

func (m *MockProviderClient) SyncTransactions(ctx context.Context, accessToken string, cursor *string, count int) (*provider.SyncResponse, error) {
	args := m.Called(ctx, accessToken, cursor, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.SyncResponse), args.Error(1)
}

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
