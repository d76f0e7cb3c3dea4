package webhook

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/iliyamo/event-ticketing-admin/internal/model"
)

// Topics this service acts on.
const (
	TopicOrdersCreate          = "orders/create"
	TopicOrdersPaid            = "orders/paid"
	TopicProductsCreate        = "products/create"
	TopicProductsUpdate        = "products/update"
	TopicProductsDelete        = "products/delete"
	TopicInventoryLevelsUpdate = "inventory_levels/update"
)

// IsOrderTopic reports whether the topic carries an order payload.
func IsOrderTopic(topic string) bool {
	return topic == TopicOrdersCreate || topic == TopicOrdersPaid
}

// IsProductTopic reports whether the topic carries a product payload.
func IsProductTopic(topic string) bool { return strings.HasPrefix(topic, "products/") }

// flexID decodes ids sent either as JSON numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	*f = flexID(s)
	return nil
}

type customerPayload struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type lineItemPayload struct {
	ProductID flexID      `json:"product_id"`
	VariantID flexID      `json:"variant_id"`
	Title     string      `json:"title"`
	Quantity  int         `json:"quantity"`
	Price     model.Money `json:"price"`
}

type orderPayload struct {
	ID              flexID            `json:"id"`
	OrderNumber     flexID            `json:"order_number"`
	Email           string            `json:"email"`
	TotalPrice      model.Money       `json:"total_price"`
	Currency        string            `json:"currency"`
	FinancialStatus string            `json:"financial_status"`
	Customer        *customerPayload  `json:"customer"`
	LineItems       []lineItemPayload `json:"line_items"`
}

// OrderNotice is the part of an order notification this service records.
type OrderNotice struct {
	Attendee model.Attendee
	Order    model.Order
}

// ProductIDs lists the distinct catalog products the order touches.
func (n OrderNotice) ProductIDs() []string {
	seen := map[string]bool{}
	var ids []string
	for _, it := range n.Order.Items {
		if it.ProductID == "" || seen[it.ProductID] {
			continue
		}
		seen[it.ProductID] = true
		ids = append(ids, it.ProductID)
	}
	return ids
}

// ParseOrder decodes an orders/* payload.
func ParseOrder(body []byte) (OrderNotice, error) {
	var p orderPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return OrderNotice{}, fmt.Errorf("decode order payload: %w", err)
	}
	if p.ID == "" {
		return OrderNotice{}, fmt.Errorf("order payload has no id")
	}
	email := p.Email
	att := model.Attendee{Email: email}
	if p.Customer != nil {
		if p.Customer.Email != "" {
			att.Email = p.Customer.Email
		}
		att.FirstName = p.Customer.FirstName
		att.LastName = p.Customer.LastName
		att.Phone = p.Customer.Phone
	}
	if email == "" {
		email = att.Email
	}
	o := model.Order{
		CatalogOrderID:  string(p.ID),
		OrderNumber:     string(p.OrderNumber),
		Email:           email,
		TotalPrice:      p.TotalPrice,
		Currency:        p.Currency,
		FinancialStatus: p.FinancialStatus,
	}
	for _, li := range p.LineItems {
		o.Items = append(o.Items, model.OrderItem{
			ProductID: string(li.ProductID),
			VariantID: string(li.VariantID),
			Title:     li.Title,
			Quantity:  li.Quantity,
			Price:     li.Price,
		})
	}
	return OrderNotice{Attendee: att, Order: o}, nil
}

// ProductID extracts the product id from a products/* payload.
func ProductID(body []byte) (string, error) {
	var p struct {
		ID flexID `json:"id"`
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return "", fmt.Errorf("decode product payload: %w", err)
	}
	return string(p.ID), nil
}
