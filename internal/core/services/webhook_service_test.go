package services_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/pennyworth-app/pennyworth_backend/internal/core/services"
	"github.com/pennyworth-app/pennyworth_backend/internal/dto"

	portssvc "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/services"
)

const testWebhookSecret = "test-secret"

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type WebhookServiceTestSuite struct {
	suite.Suite
	mockEvents   *MockWebhookEventRepository
	mockConns    *MockConnectionRepository
	mockOutflows *MockOutflowRepository
	mockSync     *MockSyncService
	service      portssvc.WebhookSvcFacade
}

func (suite *WebhookServiceTestSuite) SetupTest() {
	suite.mockEvents = new(MockWebhookEventRepository)
	suite.mockConns = new(MockConnectionRepository)
	suite.mockOutflows = new(MockOutflowRepository)
	suite.mockSync = new(MockSyncService)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	suite.service = services.NewWebhookService(
		services.WebhookServiceConfig{
			Secret:        testWebhookSecret,
			VerifyEnabled: true,
			SyncInterval:  4 * time.Hour,
		},
		suite.mockEvents, suite.mockConns, suite.mockOutflows, suite.mockSync, nil, logger,
	)
}

func (suite *WebhookServiceTestSuite) syncWebhook(requestID string) (dto.WebhookRequest, []byte) {
	req := dto.WebhookRequest{
		WebhookCategory: "TRANSACTIONS",
		WebhookCode:     "SYNC_UPDATES_AVAILABLE",
		ConnectionID:    "conn1",
		RequestID:       requestID,
	}
	body, err := json.Marshal(req)
	suite.Require().NoError(err)
	return req, body
}

func (suite *WebhookServiceTestSuite) expectRecordAndSync() {
	suite.mockEvents.On("SaveWebhookEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	suite.mockSync.On("SyncConnection", mock.Anything, "conn1").Return(&dto.SyncResult{ConnectionID: "conn1"}, nil).Maybe()
}

func (suite *WebhookServiceTestSuite) TestProcess_ValidSignatureDispatches() {
	req, body := suite.syncWebhook("req1")
	suite.mockEvents.On("WebhookEventExists", mock.Anything, "req1").Return(false, nil).Once()
	suite.expectRecordAndSync()

	outcome, err := suite.service.Process(context.Background(), req, body, sign(body))

	suite.Require().NoError(err)
	suite.Equal(dto.WebhookDispatched, outcome.Disposition)
}

func (suite *WebhookServiceTestSuite) TestProcess_BadSignatureRejected() {
	req, body := suite.syncWebhook("req1")

	_, err := suite.service.Process(context.Background(), req, body, "deadbeef")

	suite.ErrorIs(err, services.ErrInvalidSignature)
	suite.mockEvents.AssertNotCalled(suite.T(), "WebhookEventExists", mock.Anything, mock.Anything)
}

func (suite *WebhookServiceTestSuite) TestProcess_TamperedBodyRejected() {
	req, body := suite.syncWebhook("req1")
	signature := sign(body)
	tampered := append([]byte{}, body...)
	tampered[0] ^= 0xff

	_, err := suite.service.Process(context.Background(), req, tampered, signature)

	suite.ErrorIs(err, services.ErrInvalidSignature)
}

func (suite *WebhookServiceTestSuite) TestProcess_VerificationDisabledSkipsCheck() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := services.NewWebhookService(
		services.WebhookServiceConfig{VerifyEnabled: false},
		suite.mockEvents, suite.mockConns, suite.mockOutflows, suite.mockSync, nil, logger,
	)
	req, body := suite.syncWebhook("req1")
	suite.mockEvents.On("WebhookEventExists", mock.Anything, "req1").Return(false, nil).Once()
	suite.expectRecordAndSync()

	outcome, err := svc.Process(context.Background(), req, body, "")

	suite.Require().NoError(err)
	suite.Equal(dto.WebhookDispatched, outcome.Disposition)
}

func (suite *WebhookServiceTestSuite) TestProcess_DuplicateDeliverySkipped() {
	req, body := suite.syncWebhook("req1")
	suite.mockEvents.On("WebhookEventExists", mock.Anything, "req1").Return(true, nil).Once()

	outcome, err := suite.service.Process(context.Background(), req, body, sign(body))

	suite.Require().NoError(err)
	suite.Equal(dto.WebhookDedupedSkip, outcome.Disposition)
	suite.mockSync.AssertNotCalled(suite.T(), "SyncConnection", mock.Anything, mock.Anything)
	suite.mockEvents.AssertNotCalled(suite.T(), "SaveWebhookEvent", mock.Anything, mock.Anything)
}

func (suite *WebhookServiceTestSuite) TestProcess_DedupLookupFailureStillDispatches() {
	req, body := suite.syncWebhook("req1")
	suite.mockEvents.On("WebhookEventExists", mock.Anything, "req1").Return(false, context.DeadlineExceeded).Once()
	suite.expectRecordAndSync()

	outcome, err := suite.service.Process(context.Background(), req, body, sign(body))

	suite.Require().NoError(err)
	suite.Equal(dto.WebhookDispatched, outcome.Disposition)
}

func (suite *WebhookServiceTestSuite) TestProcess_SyncDispatchRateLimitedPerConnection() {
	suite.expectRecordAndSync()

	req1, body1 := suite.syncWebhook("req1")
	suite.mockEvents.On("WebhookEventExists", mock.Anything, "req1").Return(false, nil).Once()
	first, err := suite.service.Process(context.Background(), req1, body1, sign(body1))
	suite.Require().NoError(err)
	suite.Equal(dto.WebhookDispatched, first.Disposition)

	req2, body2 := suite.syncWebhook("req2")
	suite.mockEvents.On("WebhookEventExists", mock.Anything, "req2").Return(false, nil).Once()
	second, err := suite.service.Process(context.Background(), req2, body2, sign(body2))
	suite.Require().NoError(err)
	suite.Equal(dto.WebhookRateLimited, second.Disposition)
}

func (suite *WebhookServiceTestSuite) TestProcess_InitialSyncCodesBypassGate() {
	suite.expectRecordAndSync()

	// Exhaust the gate with a routine sync event.
	req1, body1 := suite.syncWebhook("req1")
	suite.mockEvents.On("WebhookEventExists", mock.Anything, "req1").Return(false, nil).Once()
	_, err := suite.service.Process(context.Background(), req1, body1, sign(body1))
	suite.Require().NoError(err)

	req2, body2 := suite.syncWebhook("req2")
	req2.WebhookCode = "INITIAL_UPDATE"
	body2, err = json.Marshal(req2)
	suite.Require().NoError(err)
	suite.mockEvents.On("WebhookEventExists", mock.Anything, "req2").Return(false, nil).Once()

	outcome, err := suite.service.Process(context.Background(), req2, body2, sign(body2))

	suite.Require().NoError(err)
	suite.Equal(dto.WebhookDispatched, outcome.Disposition)
}

func (suite *WebhookServiceTestSuite) TestProcess_ConnectionErrorDeactivates() {
	req := dto.WebhookRequest{
		WebhookCategory: "CONNECTION",
		WebhookCode:     "REVOKED",
		ConnectionID:    "conn1",
		RequestID:       "req1",
	}
	body, err := json.Marshal(req)
	suite.Require().NoError(err)

	suite.mockEvents.On("WebhookEventExists", mock.Anything, "req1").Return(false, nil).Once()
	suite.mockEvents.On("SaveWebhookEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	suite.mockConns.On("SetConnectionActive", mock.Anything, "conn1", false, mock.Anything).Return(nil).Once()

	outcome, err := suite.service.Process(context.Background(), req, body, sign(body))

	suite.Require().NoError(err)
	suite.Equal(dto.WebhookDispatched, outcome.Disposition)
	suite.mockConns.AssertExpectations(suite.T())
}

func (suite *WebhookServiceTestSuite) TestProcess_RecurringEventUpdatesMerchantHint() {
	payload, err := json.Marshal(dto.RecurringStreamPayload{OutflowID: "of1", MerchantName: "Con Edison"})
	suite.Require().NoError(err)
	req := dto.WebhookRequest{
		WebhookCategory: "RECURRING",
		WebhookCode:     "STREAM_UPDATED",
		ConnectionID:    "conn1",
		RequestID:       "req1",
		Payload:         payload,
	}
	body, err := json.Marshal(req)
	suite.Require().NoError(err)

	suite.mockEvents.On("WebhookEventExists", mock.Anything, "req1").Return(false, nil).Once()
	suite.mockEvents.On("SaveWebhookEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	suite.mockOutflows.On("UpdateOutflowMerchantHint", mock.Anything, "of1", "Con Edison").Return(nil).Once()

	outcome, err := suite.service.Process(context.Background(), req, body, sign(body))

	suite.Require().NoError(err)
	suite.Equal(dto.WebhookDispatched, outcome.Disposition)
	suite.mockOutflows.AssertExpectations(suite.T())
}

func (suite *WebhookServiceTestSuite) TestProcess_RecurringEventWithoutMerchantIgnored() {
	payload, err := json.Marshal(dto.RecurringStreamPayload{OutflowID: "of1"})
	suite.Require().NoError(err)
	req := dto.WebhookRequest{
		WebhookCategory: "RECURRING",
		WebhookCode:     "STREAM_UPDATED",
		ConnectionID:    "conn1",
		RequestID:       "req1",
		Payload:         payload,
	}
	body, err := json.Marshal(req)
	suite.Require().NoError(err)

	suite.mockEvents.On("WebhookEventExists", mock.Anything, "req1").Return(false, nil).Once()
	suite.mockEvents.On("SaveWebhookEvent", mock.Anything, mock.Anything).Return(nil).Maybe()

	_, err = suite.service.Process(context.Background(), req, body, sign(body))

	suite.Require().NoError(err)
	suite.mockOutflows.AssertNotCalled(suite.T(), "UpdateOutflowMerchantHint", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WebhookServiceTestSuite))
}
