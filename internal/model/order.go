package model

import "time"

// Attendee is a buyer recorded from order webhooks (attendees table).
type Attendee struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Order is a local copy of a catalog order (orders table). CatalogOrderID
// is unique so replays of the same order never create a second row.
type Order struct {
	ID              uint64      `json:"id"`
	CatalogOrderID  string      `json:"catalog_order_id"`
	OrderNumber     string      `json:"order_number"`
	AttendeeID      uint64      `json:"attendee_id"`
	Email           string      `json:"email"`
	TotalPrice      Money       `json:"total_price"`
	Currency        string      `json:"currency"`
	FinancialStatus string      `json:"financial_status"`
	CreatedAt       time.Time   `json:"created_at"`
	Items           []OrderItem `json:"items"`
}

// OrderItem is one line item of an order (order_items table).
type OrderItem struct {
	ID        uint64 `json:"id"`
	OrderID   uint64 `json:"order_id"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	Price     Money  `json:"price"`
}

// ProcessedWebhook records a webhook delivery that has been applied.
type ProcessedWebhook struct {
	WebhookID   string    `json:"webhook_id"`
	Topic       string    `json:"topic"`
	ProcessedAt time.Time `json:"processed_at"`
}
