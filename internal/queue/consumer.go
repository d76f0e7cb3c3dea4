package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer listens on the order.recorded queue and appends one line per
// message to <dir>/orders.log.
type Consumer struct {
	url string
	dir string
	log *zap.Logger

	mu sync.Mutex // serialises file appends
}

func NewConsumer(url, dir string, log *zap.Logger) *Consumer {
	if dir == "" {
		dir = "logs"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{url: url, dir: dir, log: log}
}

// Run connects, consumes and reconnects with backoff until ctx is done.
// Messages that cannot be handled are rejected without requeue so a bad
// payload cannot spin the loop.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("order consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("order consumer: loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("order consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(OrderRecordedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, OrderRecordedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.Handle(d.Body); err != nil {
			c.log.Error("order consumer: handle message failed", zap.Error(err))
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// Handle decodes one message and appends it to the journal.
func (c *Consumer) Handle(body []byte) error {
	var ev OrderRecordedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.CatalogOrderID == "" {
		return errors.New("message has no catalog_order_id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, "orders.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(ev OrderRecordedEvent) string {
	events := "[]"
	if len(ev.EventIDs) > 0 {
		events = "[" + strings.Join(ev.EventIDs, ",") + "]"
	}
	return fmt.Sprintf("[%s] Order recorded | order_id=%s | number=%s | topic=%s | email=%q | total=%s %s | status=%s | tickets=%d | events=%s\n",
		ev.RecordedAt, ev.CatalogOrderID, ev.OrderNumber, ev.Topic, ev.Email,
		ev.TotalPrice, ev.Currency, ev.FinancialStatus, ev.TicketCount, events)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
