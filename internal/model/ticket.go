package model

// TicketType is the ticket tier.
type TicketType string

const (
	TicketEarlyBird TicketType = "early_bird"
	TicketRegular   TicketType = "regular"
	TicketVIP       TicketType = "vip"
	TicketStudent   TicketType = "student"
	TicketGroup     TicketType = "group"
)

func (t TicketType) Valid() bool {
	switch t {
	case TicketEarlyBird, TicketRegular, TicketVIP, TicketStudent, TicketGroup:
		return true
	}
	return false
}

// TicketStatus is derived from visibility and live availability.
type TicketStatus string

const (
	TicketActive  TicketStatus = "active"
	TicketSoldOut TicketStatus = "sold_out"
	TicketHidden  TicketStatus = "hidden"
)

const (
	DefaultMaxPerOrder = 10
	MinMaxPerOrder     = 1
	MaxMaxPerOrder     = 100
)

// Ticket is a catalog variant projected into the ticket domain. Capacity,
// Sold, Revenue and Status are recomputed on every read and never stored.
type Ticket struct {
	ID                string       `json:"id"`
	EventID           string       `json:"event_id"`
	Name              string       `json:"ticket_name"`
	Type              TicketType   `json:"ticket_type,omitempty"`
	Description       string       `json:"description,omitempty"`
	Features          []string     `json:"features"`
	IsVisible         bool         `json:"is_visible"`
	Price             Money        `json:"price"`
	CompareAtPrice    *Money       `json:"compare_at_price,omitempty"`
	InventoryQuantity int          `json:"inventory_quantity"`
	Available         int          `json:"available"`
	MaxPerOrder       int          `json:"max_per_order"`
	Capacity          int          `json:"capacity"`
	Sold              int          `json:"sold"`
	Revenue           Money        `json:"revenue"`
	Status            TicketStatus `json:"status"`
	InventoryItemID   string       `json:"inventory_item_id,omitempty"`
}

// TicketCreate is the payload for adding a ticket to an event.
type TicketCreate struct {
	Name              string     `json:"ticket_name"`
	Type              TicketType `json:"ticket_type"`
	Description       string     `json:"description"`
	Features          []string   `json:"features"`
	IsVisible         *bool      `json:"is_visible"`
	Price             Money      `json:"price"`
	CompareAtPrice    *Money     `json:"compare_at_price"`
	InventoryQuantity int        `json:"inventory_quantity"`
	MaxPerOrder       int        `json:"max_per_order"`
}

// TicketUpdate is a partial update; nil fields are left untouched.
type TicketUpdate struct {
	Name              *string     `json:"ticket_name,omitempty"`
	Type              *TicketType `json:"ticket_type,omitempty"`
	Description       *string     `json:"description,omitempty"`
	Features          *[]string   `json:"features,omitempty"`
	IsVisible         *bool       `json:"is_visible,omitempty"`
	Price             *Money      `json:"price,omitempty"`
	CompareAtPrice    *Money      `json:"compare_at_price,omitempty"`
	InventoryQuantity *int        `json:"inventory_quantity,omitempty"`
	MaxPerOrder       *int        `json:"max_per_order,omitempty"`
}
