package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing-admin/internal/queue"
)

// Publisher emits domain notifications. Failures are reported but callers
// treat them as best-effort.
type Publisher interface {
	PublishOrderRecorded(ctx context.Context, ev queue.OrderRecordedEvent) error
}

// NopPublisher drops every message. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderRecorded(context.Context, queue.OrderRecordedEvent) error { return nil }

// AMQPPublisher publishes persistent JSON messages to RabbitMQ. It dials
// per message, which keeps it free of connection state at the volume
// webhooks arrive.
type AMQPPublisher struct {
	url string
	log *zap.Logger
}

func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &AMQPPublisher{url: url, log: log}
}

// PublishOrderRecorded declares the durable queue and publishes ev to it
// through the default exchange.
func (p *AMQPPublisher) PublishOrderRecorded(ctx context.Context, ev queue.OrderRecordedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.publish(ctx, queue.OrderRecordedQueue, body)
}

func (p *AMQPPublisher) publish(ctx context.Context, queueName string, body []byte) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		p.log.Warn("rabbitmq: queue declare failed", zap.String("queue", queueName), zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		p.log.Warn("rabbitmq: publish failed", zap.String("queue", queueName), zap.Error(err))
		return err
	}
	return nil
}
