package analytics

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"
)

const (
	webhookEventsTable = "webhook_events"
	syncRunsTable      = "sync_runs"
	insertTimeout      = 15 * time.Second
)

// WebhookEventRow is one webhook receipt in the audit dataset.
type WebhookEventRow struct {
	RequestID    string    `bigquery:"request_id"`
	ConnectionID string    `bigquery:"connection_id"`
	Category     string    `bigquery:"category"`
	Code         string    `bigquery:"code"`
	Disposition  string    `bigquery:"disposition"`
	ReceivedAt   time.Time `bigquery:"received_at"`
}

// SyncRunRow is one completed sync run in the audit dataset.
type SyncRunRow struct {
	ConnectionID         string    `bigquery:"connection_id"`
	Added                int       `bigquery:"added"`
	Modified             int       `bigquery:"modified"`
	Removed              int       `bigquery:"removed"`
	Pages                int       `bigquery:"pages"`
	BudgetIDsFixed       int       `bigquery:"budget_ids_fixed"`
	AmountsRedistributed int       `bigquery:"amounts_redistributed"`
	BudgetsReassigned    int       `bigquery:"budgets_reassigned"`
	SyncedAt             time.Time `bigquery:"synced_at"`
}

// Recorder streams audit rows to BigQuery, best effort. Writes happen on
// their own goroutine and are never awaited by the critical path; failures
// are logged through the recorder's own logger. A nil *Recorder is a no-op,
// so callers do not branch on whether the sink is configured.
type Recorder struct {
	client  *bigquery.Client
	dataset string
	logger  *slog.Logger
}

// NewRecorder creates a Recorder for the given project and dataset.
func NewRecorder(ctx context.Context, projectID, dataset string, logger *slog.Logger, opts ...option.ClientOption) (*Recorder, error) {
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, err
	}
	return &Recorder{client: client, dataset: dataset, logger: logger}, nil
}

// RecordWebhookEvent streams one webhook receipt row.
func (r *Recorder) RecordWebhookEvent(row WebhookEventRow) {
	if r == nil {
		return
	}
	go r.insert(webhookEventsTable, []WebhookEventRow{row})
}

// RecordSyncRun streams one sync run row.
func (r *Recorder) RecordSyncRun(row SyncRunRow) {
	if r == nil {
		return
	}
	go r.insert(syncRunsTable, []SyncRunRow{row})
}

// Close releases the underlying client.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	return r.client.Close()
}

func (r *Recorder) insert(table string, rows interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	inserter := r.client.Dataset(r.dataset).Table(table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		r.logger.Warn("Audit insert failed", slog.String("table", table), slog.String("error", err.Error()))
	}
}
