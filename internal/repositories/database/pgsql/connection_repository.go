package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pennyworth-app/pennyworth_backend/internal/apperrors"
	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
	portsrepo "github.com/pennyworth-app/pennyworth_backend/internal/core/ports/repositories"
	"github.com/pennyworth-app/pennyworth_backend/internal/models"
	"github.com/pennyworth-app/pennyworth_backend/internal/utils/mapping"
)

type PgxConnectionRepository struct {
	BaseRepository
}

// NewConnectionRepository creates a repository for provider connections.
func NewConnectionRepository(pool *pgxpool.Pool) portsrepo.ConnectionRepositoryFacade {
	return &PgxConnectionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ConnectionRepositoryFacade = (*PgxConnectionRepository)(nil)

const selectConnectionColumns = `
	connection_id, user_id, access_token, cursor, last_synced_at, is_active,
	initial_sync_done, created_at, last_updated_at
`

func scanConnection(row pgx.Row) (*domain.Connection, error) {
	var m models.Connection
	err := row.Scan(&m.ConnectionID, &m.UserID, &m.AccessToken, &m.Cursor,
		&m.LastSyncedAt, &m.IsActive, &m.InitialSyncDone, &m.CreatedAt, &m.LastUpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to scan connection row", err)
	}
	conn := mapping.ToDomainConnection(m)
	return &conn, nil
}

// FindConnectionByID retrieves a connection by its identifier.
func (r *PgxConnectionRepository) FindConnectionByID(ctx context.Context, connectionID string) (*domain.Connection, error) {
	query := `SELECT ` + selectConnectionColumns + ` FROM connections WHERE connection_id = $1;`
	return scanConnection(r.Pool.QueryRow(ctx, query, connectionID))
}

// ListActiveConnections retrieves all active connections.
func (r *PgxConnectionRepository) ListActiveConnections(ctx context.Context) ([]domain.Connection, error) {
	query := `SELECT ` + selectConnectionColumns + ` FROM connections WHERE is_active = TRUE ORDER BY connection_id;`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query active connections", err)
	}
	defer rows.Close()

	var conns []domain.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, *conn)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to read connection rows", err)
	}
	return conns, nil
}

// UpdateCursor persists a connection's sync cursor and last-synced time.
// Cursors only move forward; this is called only after the page's writes
// have committed.
func (r *PgxConnectionRepository) UpdateCursor(ctx context.Context, connectionID string, cursor string, syncedAt time.Time) error {
	query := `
		UPDATE connections
		SET cursor = $2, last_synced_at = $3, last_updated_at = $3
		WHERE connection_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, connectionID, cursor, syncedAt)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update cursor for connection "+connectionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SetConnectionActive flips a connection's active flag.
func (r *PgxConnectionRepository) SetConnectionActive(ctx context.Context, connectionID string, active bool, now time.Time) error {
	query := `
		UPDATE connections
		SET is_active = $2, last_updated_at = $3
		WHERE connection_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, connectionID, active, now)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update active flag for connection "+connectionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkInitialSyncDone records that the connection's first full sync completed.
func (r *PgxConnectionRepository) MarkInitialSyncDone(ctx context.Context, connectionID string, now time.Time) error {
	query := `
		UPDATE connections
		SET initial_sync_done = TRUE, last_updated_at = $2
		WHERE connection_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, connectionID, now)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark initial sync for connection "+connectionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
