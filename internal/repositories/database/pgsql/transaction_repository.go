package pgsql

import (
	"context"
	"encoding/json"
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

// maxOpsPerCommit bounds the operations inside one atomic commit, mirroring
// the store's per-commit limit.
const maxOpsPerCommit = 500

type PgxTransactionRepository struct {
	BaseRepository
}

// NewTransactionRepository creates a repository for transaction data.
func NewTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

const upsertTxnQuery = `
	INSERT INTO transactions (
		txn_id, user_id, account_id, connection_id, txn_date, name, merchant_name,
		currency_code, amount, txn_type, category_primary, category_detail,
		user_category, status, splits, created_at, last_updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	ON CONFLICT (txn_id) DO UPDATE SET
		txn_date = EXCLUDED.txn_date,
		name = EXCLUDED.name,
		merchant_name = EXCLUDED.merchant_name,
		currency_code = EXCLUDED.currency_code,
		amount = EXCLUDED.amount,
		txn_type = EXCLUDED.txn_type,
		category_primary = EXCLUDED.category_primary,
		category_detail = EXCLUDED.category_detail,
		user_category = EXCLUDED.user_category,
		status = EXCLUDED.status,
		splits = EXCLUDED.splits,
		last_updated_at = EXCLUDED.last_updated_at;
`

// The claimed-instance guard lives in the WHERE clause: an instance that
// already carries a reference is left untouched even if a concurrent run
// matched it again.
const applyOutflowUpdateQuery = `
	UPDATE outflow_periods
	SET paid = $2,
	    txn_split_refs = COALESCE(txn_split_refs, '[]'::jsonb) || $3::jsonb
	WHERE outflow_period_id = $1
	  AND (txn_split_refs IS NULL OR jsonb_array_length(txn_split_refs) = 0);
`

// syncChunk is one atomic unit of a sync batch commit.
type syncChunk struct {
	txns    []models.Transaction
	updates []domain.OutflowPeriodUpdate
}

// planSyncChunks partitions the batch into chunks of at most maxOps
// operations. Outflow updates fill the first chunk with spare capacity and
// spill into additional chunks when none remains.
func planSyncChunks(txns []models.Transaction, updates []domain.OutflowPeriodUpdate, maxOps int) []syncChunk {
	var chunks []syncChunk
	for start := 0; start < len(txns); start += maxOps {
		end := start + maxOps
		if end > len(txns) {
			end = len(txns)
		}
		chunks = append(chunks, syncChunk{txns: txns[start:end]})
	}

	remaining := updates
	for i := range chunks {
		if len(remaining) == 0 {
			break
		}
		spare := maxOps - len(chunks[i].txns)
		if spare <= 0 {
			continue
		}
		n := spare
		if n > len(remaining) {
			n = len(remaining)
		}
		chunks[i].updates = remaining[:n]
		remaining = remaining[n:]
	}
	for len(remaining) > 0 {
		n := maxOps
		if n > len(remaining) {
			n = len(remaining)
		}
		chunks = append(chunks, syncChunk{updates: remaining[:n]})
		remaining = remaining[n:]
	}
	return chunks
}

// SaveSyncBatch upserts transactions keyed by external id together with
// outflow period updates. Each chunk commits atomically; chunks commit
// sequentially, so a mid-sequence failure leaves earlier chunks applied and
// the caller resumes rather than rolls back.
func (r *PgxTransactionRepository) SaveSyncBatch(ctx context.Context, txns []domain.Transaction, updates []domain.OutflowPeriodUpdate) error {
	modelTxns := make([]models.Transaction, 0, len(txns))
	for _, txn := range txns {
		m, err := mapping.ToModelTransaction(txn)
		if err != nil {
			return apperrors.NewAppError(500, "failed to map transaction "+txn.TxnID, err)
		}
		modelTxns = append(modelTxns, m)
	}

	for _, chunk := range planSyncChunks(modelTxns, updates, maxOpsPerCommit) {
		if err := r.commitChunk(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (r *PgxTransactionRepository) commitChunk(ctx context.Context, chunk syncChunk) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	batch := &pgx.Batch{}
	for _, m := range chunk.txns {
		batch.Queue(upsertTxnQuery,
			m.TxnID, m.UserID, m.AccountID, m.ConnectionID, m.TxnDate, m.Name,
			m.MerchantName, m.CurrencyCode, m.Amount, m.TxnType,
			m.CategoryPrimary, m.CategoryDetail, m.UserCategory, m.Status,
			m.Splits, m.CreatedAt, m.LastUpdatedAt)
	}
	for _, u := range chunk.updates {
		ref, err := json.Marshal([]domain.TxnSplitRef{u.Ref})
		if err != nil {
			return apperrors.NewAppError(500, "failed to encode split ref for outflow period "+u.OutflowPeriodID, err)
		}
		batch.Queue(applyOutflowUpdateQuery, u.OutflowPeriodID, u.Paid, ref)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to execute sync batch chunk", err)
	}
	return r.Commit(ctx, tx)
}

const selectTxnColumns = `
	txn_id, user_id, account_id, connection_id, txn_date, name, merchant_name,
	currency_code, amount, txn_type, category_primary, category_detail,
	user_category, status, splits, created_at, last_updated_at
`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TxnID, &m.UserID, &m.AccountID, &m.ConnectionID, &m.TxnDate, &m.Name,
		&m.MerchantName, &m.CurrencyCode, &m.Amount, &m.TxnType,
		&m.CategoryPrimary, &m.CategoryDetail, &m.UserCategory, &m.Status,
		&m.Splits, &m.CreatedAt, &m.LastUpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to scan transaction", err)
	}
	d, err := mapping.ToDomainTransaction(m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to map transaction row", err)
	}
	return &d, nil
}

// FindTransactionByID retrieves a transaction by its external identifier.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, txnID string) (*domain.Transaction, error) {
	query := `SELECT ` + selectTxnColumns + ` FROM transactions WHERE txn_id = $1;`
	return scanTransaction(r.Pool.QueryRow(ctx, query, txnID))
}

// FindTransactionsByIDs retrieves transactions for multiple external
// identifiers, keyed by identifier.
func (r *PgxTransactionRepository) FindTransactionsByIDs(ctx context.Context, txnIDs []string) (map[string]domain.Transaction, error) {
	if len(txnIDs) == 0 {
		return map[string]domain.Transaction{}, nil
	}
	query := `SELECT ` + selectTxnColumns + ` FROM transactions WHERE txn_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, txnIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query transactions by ids", err)
	}
	defer rows.Close()

	result := make(map[string]domain.Transaction, len(txnIDs))
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result[txn.TxnID] = *txn
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to read transaction rows", err)
	}
	return result, nil
}

// ListTransactionsByUser retrieves transactions for a user within [from, to].
func (r *PgxTransactionRepository) ListTransactionsByUser(ctx context.Context, userID string, from, to time.Time, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT ` + selectTxnColumns + `
		FROM transactions
		WHERE user_id = $1 AND txn_date >= $2 AND txn_date <= $3 AND status <> 'DELETED'
		ORDER BY txn_date DESC, txn_id
		LIMIT $4;
	`
	rows, err := r.Pool.Query(ctx, query, userID, from, to, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query transactions by user", err)
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to read transaction rows", err)
	}
	return result, nil
}

// PatchTransactionNames updates cosmetic name fields without touching splits.
func (r *PgxTransactionRepository) PatchTransactionNames(ctx context.Context, txnID, name, merchantName string, now time.Time) error {
	query := `
		UPDATE transactions
		SET name = $2, merchant_name = $3, last_updated_at = $4
		WHERE txn_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, txnID, name, merchantName, now)
	if err != nil {
		return apperrors.NewAppError(500, "failed to patch transaction "+txnID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SoftDeleteTransaction flags a transaction as deleted without removing it.
func (r *PgxTransactionRepository) SoftDeleteTransaction(ctx context.Context, txnID string, now time.Time) error {
	query := `
		UPDATE transactions
		SET status = 'DELETED', last_updated_at = $2
		WHERE txn_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, txnID, now)
	if err != nil {
		return apperrors.NewAppError(500, "failed to soft-delete transaction "+txnID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
