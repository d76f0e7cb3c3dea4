package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-ticketing-admin/internal/model"
)

// WebhookRepo records processed webhook deliveries. The primary key on
// webhook_id is what makes delivery handling at-most-once.
type WebhookRepo struct{ DB *sql.DB }

// NewWebhookRepo returns a repository backed by db.
func NewWebhookRepo(db *sql.DB) *WebhookRepo { return &WebhookRepo{DB: db} }

// RecordTx inserts the delivery inside tx, so the record commits or rolls
// back together with the changes the delivery caused. A replay of an id
// that is already stored returns ErrDuplicate and leaves tx usable for a
// rollback.
func (r *WebhookRepo) RecordTx(ctx context.Context, tx *sql.Tx, webhookID, topic string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO processed_webhooks (webhook_id, topic) VALUES (?,?)",
		webhookID, topic)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// Recent lists the latest processed deliveries, newest first. limit
// defaults to 50 and is capped at 200.
func (r *WebhookRepo) Recent(ctx context.Context, limit int) ([]model.ProcessedWebhook, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT webhook_id, topic, processed_at FROM processed_webhooks ORDER BY processed_at DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ProcessedWebhook{}
	for rows.Next() {
		var w model.ProcessedWebhook
		if err := rows.Scan(&w.WebhookID, &w.Topic, &w.ProcessedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
