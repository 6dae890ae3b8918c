package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/pennyworth-app/pennyworth_backend/internal/clients/analytics"
	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
	portsrepo "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/repositories"
	portssvc "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/services"
	"github.com/pennyworth-app/pennyworth_backend/internal/dto"
	"github.com/pennyworth-app/pennyworth_backend/internal/middleware"
)

// ErrInvalidSignature is returned when webhook signature verification fails.
// It is the only webhook outcome that rejects at the transport level.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// WebhookServiceConfig tunes webhook processing.
type WebhookServiceConfig struct {
	Secret        string
	VerifyEnabled bool          // disable only outside production
	SyncInterval  time.Duration // minimum gap between sync dispatches per connection
}

// webhookService verifies, dedupes, rate-limits, and dispatches provider
// notifications. Dedup hits and rate-limit rejections acknowledge success;
// only a bad signature rejects.
type webhookService struct {
	cfg          WebhookServiceConfig
	eventRepo    portsrepo.WebhookEventRepositoryFacade
	connRepo     portsrepo.ConnectionRepositoryFacade
	outflowRepo  portsrepo.OutflowWriter
	syncSvc      portssvc.SyncSvcFacade
	dispatchGate *limiter.Limiter
	recorder     *analytics.Recorder
	baseLogger   *slog.Logger
}

// NewWebhookService creates the webhook event processor. recorder may be nil.
func NewWebhookService(cfg WebhookServiceConfig, eventRepo portsrepo.WebhookEventRepositoryFacade, connRepo portsrepo.ConnectionRepositoryFacade, outflowRepo portsrepo.OutflowWriter, syncSvc portssvc.SyncSvcFacade, recorder *analytics.Recorder, baseLogger *slog.Logger) portssvc.WebhookSvcFacade {
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = 4 * time.Hour
	}
	// One sync dispatch per connection per interval. The limiter store is
	// in-memory: webhook dispatch gating is a politeness bound, not a
	// correctness mechanism (the batch writer's upserts are).
	gate := limiter.New(memory.NewStore(), limiter.Rate{Period: cfg.SyncInterval, Limit: 1})
	return &webhookService{
		cfg:          cfg,
		eventRepo:    eventRepo,
		connRepo:     connRepo,
		outflowRepo:  outflowRepo,
		syncSvc:      syncSvc,
		dispatchGate: gate,
		recorder:     recorder,
		baseLogger:   baseLogger,
	}
}

var _ portssvc.WebhookSvcFacade = (*webhookService)(nil)

// Process implements portssvc.WebhookSvcFacade.
func (s *webhookService) Process(ctx context.Context, req dto.WebhookRequest, rawBody []byte, signature string) (*dto.WebhookOutcome, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(
		slog.String("request_id", req.RequestID),
		slog.String("connection_id", req.ConnectionID),
		slog.String("webhook_code", req.WebhookCode))

	if s.cfg.VerifyEnabled && !s.verifySignature(rawBody, signature) {
		logger.Warn("Webhook signature verification failed")
		return nil, ErrInvalidSignature
	}

	seen, err := s.eventRepo.WebhookEventExists(ctx, req.RequestID)
	if err != nil {
		// Dedup store trouble should not drop a provider notification; the
		// unique key on the insert below still catches true duplicates.
		logger.Error("Webhook dedup lookup failed", slog.String("error", err.Error()))
	}
	if seen {
		logger.Info("Duplicate webhook delivery, skipping")
		s.audit(req, dto.WebhookDedupedSkip)
		return &dto.WebhookOutcome{Disposition: dto.WebhookDedupedSkip, RequestID: req.RequestID}, nil
	}

	s.recordEvent(req)

	disposition := s.dispatch(ctx, logger, req)
	s.audit(req, disposition)
	return &dto.WebhookOutcome{Disposition: disposition, RequestID: req.RequestID}, nil
}

func (s *webhookService) verifySignature(rawBody []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.cfg.Secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// recordEvent writes the dedup/audit record without blocking the response.
func (s *webhookService) recordEvent(req dto.WebhookRequest) {
	event := domain.WebhookEvent{
		RequestID:    req.RequestID,
		ConnectionID: req.ConnectionID,
		Category:     domain.WebhookCategory(req.WebhookCategory),
		Code:         req.WebhookCode,
		ReceivedAt:   time.Now().UTC(),
		Payload:      req.Payload,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.eventRepo.SaveWebhookEvent(ctx, event); err != nil {
			s.baseLogger.Warn("Failed to record webhook event",
				slog.String("request_id", event.RequestID),
				slog.String("error", err.Error()))
		}
	}()
}

func (s *webhookService) dispatch(ctx context.Context, logger *slog.Logger, req dto.WebhookRequest) dto.WebhookDisposition {
	switch domain.WebhookCategory(req.WebhookCategory) {
	case domain.WebhookTransactions:
		return s.dispatchSync(ctx, logger, req)
	case domain.WebhookConnection:
		s.handleConnectionEvent(ctx, logger, req)
		return dto.WebhookDispatched
	case domain.WebhookRecurring:
		s.handleRecurringEvent(ctx, logger, req)
		return dto.WebhookDispatched
	default:
		logger.Warn("Unknown webhook category", slog.String("category", req.WebhookCategory))
		return dto.WebhookDispatched
	}
}

func (s *webhookService) dispatchSync(ctx context.Context, logger *slog.Logger, req dto.WebhookRequest) dto.WebhookDisposition {
	initial := req.WebhookCode == domain.WebhookCodeInitialUpdate || req.WebhookCode == domain.WebhookCodeHistoricalUpdate
	if !initial {
		lctx, err := s.dispatchGate.Get(ctx, req.ConnectionID)
		if err != nil {
			logger.Error("Sync dispatch gate failed", slog.String("error", err.Error()))
		} else if lctx.Reached {
			logger.Info("Sync dispatch rate-limited for connection")
			return dto.WebhookRateLimited
		}
	}

	// The webhook must be acknowledged fast; the sync runs on its own
	// goroutine with its own error channel (the log).
	go func() {
		syncCtx, cancel := context.WithTimeout(middleware.WithLogger(context.Background(), s.baseLogger), 10*time.Minute)
		defer cancel()
		if _, err := s.syncSvc.SyncConnection(syncCtx, req.ConnectionID); err != nil {
			s.baseLogger.Error("Webhook-triggered sync failed",
				slog.String("connection_id", req.ConnectionID),
				slog.String("error", err.Error()))
		}
	}()
	return dto.WebhookDispatched
}

func (s *webhookService) handleConnectionEvent(ctx context.Context, logger *slog.Logger, req dto.WebhookRequest) {
	switch req.WebhookCode {
	case domain.WebhookCodeConnectionError, domain.WebhookCodeConnectionRevoked, domain.WebhookCodePendingExpiration:
		if err := s.connRepo.SetConnectionActive(ctx, req.ConnectionID, false, time.Now().UTC()); err != nil {
			logger.Error("Failed to deactivate connection", slog.String("error", err.Error()))
			return
		}
		logger.Info("Connection deactivated by provider status event")
	default:
		logger.Debug("Ignoring connection event code")
	}
}

func (s *webhookService) handleRecurringEvent(ctx context.Context, logger *slog.Logger, req dto.WebhookRequest) {
	var payload dto.RecurringStreamPayload
	if err := json.Unmarshal(req.Payload, &payload); err != nil || payload.OutflowID == "" {
		logger.Warn("Recurring event payload unusable")
		return
	}
	if payload.MerchantName == "" {
		return
	}
	if err := s.outflowRepo.UpdateOutflowMerchantHint(ctx, payload.OutflowID, payload.MerchantName); err != nil {
		logger.Error("Failed to update outflow merchant hint", slog.String("error", err.Error()))
		return
	}
	logger.Info("Updated outflow merchant hint", slog.String("outflow_id", payload.OutflowID))
}

func (s *webhookService) audit(req dto.WebhookRequest, disposition dto.WebhookDisposition) {
	s.recorder.RecordWebhookEvent(analytics.WebhookEventRow{
		RequestID:    req.RequestID,
		ConnectionID: req.ConnectionID,
		Category:     req.WebhookCategory,
		Code:         req.WebhookCode,
		Disposition:  string(disposition),
		ReceivedAt:   time.Now().UTC(),
	})
}
