package webhook

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing-admin/internal/repository"
)

// Delivery is one authenticated webhook request.
type Delivery struct {
	ID         string
	Topic      string
	ShopDomain string
	Body       []byte
}

// Recorder stores processed delivery ids. RecordTx must return
// repository.ErrDuplicate when the id was already recorded.
type Recorder interface {
	RecordTx(ctx context.Context, tx *sql.Tx, webhookID, topic string) error
}

// ApplyFunc performs the local effects of a delivery inside the intake
// transaction.
type ApplyFunc func(ctx context.Context, tx *sql.Tx) error

// Intake applies each delivery id at most once. The record and the effects
// commit in one transaction, so a failed apply leaves no record and the
// catalog's retry is processed normally.
type Intake struct {
	db  *sql.DB
	rec Recorder
	log *zap.Logger
}

func NewIntake(db *sql.DB, rec Recorder, log *zap.Logger) *Intake {
	if log == nil {
		log = zap.NewNop()
	}
	return &Intake{db: db, rec: rec, log: log}
}

// Accept records the delivery and runs apply. A replayed id reports
// alreadyProcessed and runs nothing.
func (in *Intake) Accept(ctx context.Context, d Delivery, apply ApplyFunc) (alreadyProcessed bool, err error) {
	if d.ID == "" {
		return false, fmt.Errorf("webhook: delivery has no id")
	}
	tx, err := in.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("webhook: begin: %w", err)
	}
	defer func() {
		if err != nil || alreadyProcessed {
			_ = tx.Rollback()
		}
	}()

	if err := in.rec.RecordTx(ctx, tx, d.ID, d.Topic); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			in.log.Info("webhook replay ignored", zap.String("webhook_id", d.ID), zap.String("topic", d.Topic))
			return true, nil
		}
		return false, fmt.Errorf("webhook: record %s: %w", d.ID, err)
	}
	if apply != nil {
		if err := apply(ctx, tx); err != nil {
			return false, fmt.Errorf("webhook: apply %s: %w", d.Topic, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("webhook: commit: %w", err)
	}
	return false, nil
}
