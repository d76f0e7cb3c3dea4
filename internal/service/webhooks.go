package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing-admin/internal/cache"
	"github.com/iliyamo/event-ticketing-admin/internal/metrics"
	"github.com/iliyamo/event-ticketing-admin/internal/model"
	"github.com/iliyamo/event-ticketing-admin/internal/queue"
	"github.com/iliyamo/event-ticketing-admin/internal/webhook"
)

var (
	// ErrWebhookNotConfigured means no signing secret is set, so no
	// delivery can be authenticated.
	ErrWebhookNotConfigured = errors.New("webhook secret not configured")
	// ErrInvalidSignature rejects a delivery whose HMAC does not verify.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Orders stores order notifications inside the intake transaction.
type Orders interface {
	UpsertAttendeeTx(ctx context.Context, tx *sql.Tx, a model.Attendee) (uint64, error)
	InsertOrderTx(ctx context.Context, tx *sql.Tx, o *model.Order) (bool, error)
}

// Acceptor is the idempotent intake. *webhook.Intake implements it.
type Acceptor interface {
	Accept(ctx context.Context, d webhook.Delivery, apply webhook.ApplyFunc) (bool, error)
}

// WebhookResult reports what happened to a delivery.
type WebhookResult struct {
	DeliveryID       string
	Topic            string
	AlreadyProcessed bool
}

// WebhookService authenticates catalog deliveries, records their effects
// exactly once and invalidates the events they touch.
type WebhookService struct {
	secret string
	intake Acceptor
	orders Orders
	cache  *cache.Cache
	pub    Publisher
	log    *zap.Logger
}

func NewWebhookService(secret string, intake Acceptor, orders Orders, c *cache.Cache, pub Publisher, log *zap.Logger) *WebhookService {
	if log == nil {
		log = zap.NewNop()
	}
	if pub == nil {
		pub = NopPublisher{}
	}
	if c == nil {
		c = cache.New(nil, cache.DefaultTTLs(), log)
	}
	return &WebhookService{secret: secret, intake: intake, orders: orders, cache: c, pub: pub, log: log}
}

// Configured reports whether a signing secret is set.
func (s *WebhookService) Configured() bool { return s.secret != "" }

// Handle processes one delivery. A bad signature or payload has no side
// effects and writes no record.
func (s *WebhookService) Handle(ctx context.Context, d webhook.Delivery, signature string) (WebhookResult, error) {
	if !s.Configured() {
		s.log.Error("webhook rejected: secret not configured", zap.String("topic", d.Topic))
		metrics.WebhooksTotal.WithLabelValues("unverified", "unconfigured").Inc()
		return WebhookResult{}, ErrWebhookNotConfigured
	}
	if !webhook.Verify(d.Body, signature, s.secret) {
		s.log.Warn("webhook rejected: invalid signature",
			zap.String("topic", d.Topic), zap.String("shop", d.ShopDomain), zap.Int("bytes", len(d.Body)))
		metrics.WebhooksTotal.WithLabelValues("unverified", "rejected").Inc()
		return WebhookResult{}, ErrInvalidSignature
	}
	if !json.Valid(d.Body) {
		metrics.WebhooksTotal.WithLabelValues(d.Topic, "invalid").Inc()
		return WebhookResult{}, invalidf("webhook body is not valid JSON")
	}
	d.ID = webhook.DeliveryID(d.ID, d.Topic, d.Body)
	res := WebhookResult{DeliveryID: d.ID, Topic: d.Topic}

	var (
		notice   *webhook.OrderNotice
		affected []string
	)
	switch {
	case webhook.IsOrderTopic(d.Topic):
		n, err := webhook.ParseOrder(d.Body)
		if err != nil {
			metrics.WebhooksTotal.WithLabelValues(d.Topic, "invalid").Inc()
			return res, invalidf("%v", err)
		}
		notice = &n
		affected = n.ProductIDs()
	case webhook.IsProductTopic(d.Topic):
		if id, err := webhook.ProductID(d.Body); err == nil && id != "" {
			affected = []string{id}
		}
	}

	dup, err := s.intake.Accept(ctx, d, func(ctx context.Context, tx *sql.Tx) error {
		if notice == nil {
			return nil
		}
		return s.recordOrder(ctx, tx, notice)
	})
	if err != nil {
		metrics.WebhooksTotal.WithLabelValues(d.Topic, "error").Inc()
		s.log.Error("webhook processing failed", zap.String("webhook_id", d.ID), zap.String("topic", d.Topic), zap.Error(err))
		return res, err
	}
	if dup {
		metrics.WebhooksTotal.WithLabelValues(d.Topic, "duplicate").Inc()
		res.AlreadyProcessed = true
		return res, nil
	}

	// the catalog changed under us; drop what the delivery may have staled
	if len(affected) == 0 {
		s.cache.InvalidateAll(ctx)
	}
	for _, id := range affected {
		s.cache.InvalidateEvent(ctx, id)
	}

	if notice != nil {
		ev := orderRecorded(d, notice, affected)
		if err := s.pub.PublishOrderRecorded(ctx, ev); err != nil {
			s.log.Warn("order notification not published", zap.String("order_id", ev.CatalogOrderID), zap.Error(err))
		}
	}
	metrics.WebhooksTotal.WithLabelValues(d.Topic, "processed").Inc()
	s.log.Info("webhook processed", zap.String("webhook_id", d.ID), zap.String("topic", d.Topic),
		zap.Strings("events", affected))
	return res, nil
}

func (s *WebhookService) recordOrder(ctx context.Context, tx *sql.Tx, n *webhook.OrderNotice) error {
	if n.Attendee.Email != "" {
		id, err := s.orders.UpsertAttendeeTx(ctx, tx, n.Attendee)
		if err != nil {
			return fmt.Errorf("upsert attendee: %w", err)
		}
		n.Order.AttendeeID = id
	}
	if _, err := s.orders.InsertOrderTx(ctx, tx, &n.Order); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func orderRecorded(d webhook.Delivery, n *webhook.OrderNotice, events []string) queue.OrderRecordedEvent {
	tickets := 0
	for _, it := range n.Order.Items {
		tickets += it.Quantity
	}
	return queue.OrderRecordedEvent{
		WebhookID:       d.ID,
		Topic:           d.Topic,
		CatalogOrderID:  n.Order.CatalogOrderID,
		OrderNumber:     n.Order.OrderNumber,
		Email:           n.Order.Email,
		TotalPrice:      n.Order.TotalPrice,
		Currency:        n.Order.Currency,
		FinancialStatus: n.Order.FinancialStatus,
		EventIDs:        events,
		TicketCount:     tickets,
		RecordedAt:      time.Now().UTC().Format(time.RFC3339),
	}
}
