package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pennyworth-app/pennyworth_backend/internal/apperrors"
	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
	portsrepo "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/repositories"
)

// uniqueViolationCode is the Postgres error code for unique constraint hits.
const uniqueViolationCode = "23505"

type PgxWebhookEventRepository struct {
	BaseRepository
}

// NewWebhookEventRepository creates the webhook dedup/audit store.
func NewWebhookEventRepository(pool *pgxpool.Pool) portsrepo.WebhookEventRepositoryFacade {
	return &PgxWebhookEventRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.WebhookEventRepositoryFacade = (*PgxWebhookEventRepository)(nil)

// WebhookEventExists reports whether a request identifier has been seen.
func (r *PgxWebhookEventRepository) WebhookEventExists(ctx context.Context, requestID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM webhook_events WHERE request_id = $1);`
	var exists bool
	if err := r.Pool.QueryRow(ctx, query, requestID).Scan(&exists); err != nil {
		return false, apperrors.NewAppError(500, "failed to check webhook event "+requestID, err)
	}
	return exists, nil
}

// SaveWebhookEvent records a received event. The primary key on request_id is
// the real dedup guarantee; a duplicate insert maps to ErrDuplicate.
func (r *PgxWebhookEventRepository) SaveWebhookEvent(ctx context.Context, event domain.WebhookEvent) error {
	query := `
		INSERT INTO webhook_events (request_id, connection_id, category, code, received_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.Pool.Exec(ctx, query, event.RequestID, event.ConnectionID,
		string(event.Category), event.Code, event.ReceivedAt, event.Payload)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to save webhook event "+event.RequestID, err)
	}
	return nil
}
