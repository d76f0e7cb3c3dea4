// Package queue defines message payloads exchanged over the message broker
// and the background consumer that journals them.
package queue

import "github.com/iliyamo/event-ticketing-admin/internal/model"

// OrderRecordedQueue is the durable queue order notifications go to.
const OrderRecordedQueue = "order.recorded"

// OrderRecordedEvent is published after an order webhook has been stored.
// It carries enough for downstream consumers to log, notify or feed
// analytics without querying the database.
type OrderRecordedEvent struct {
	WebhookID       string      `json:"webhook_id"`
	Topic           string      `json:"topic"`
	CatalogOrderID  string      `json:"catalog_order_id"`
	OrderNumber     string      `json:"order_number"`
	Email           string      `json:"email"`
	TotalPrice      model.Money `json:"total_price"`
	Currency        string      `json:"currency"`
	FinancialStatus string      `json:"financial_status"`
	EventIDs        []string    `json:"event_ids"`
	TicketCount     int         `json:"ticket_count"`
	RecordedAt      string      `json:"recorded_at"`
}
