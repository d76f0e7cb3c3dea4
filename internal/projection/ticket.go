package projection

import (
	"fmt"

	"github.com/iliyamo/event-ticketing-admin/internal/catalog"
	"github.com/iliyamo/event-ticketing-admin/internal/inventory"
	"github.com/iliyamo/event-ticketing-admin/internal/model"
)

type ticketField = field[model.Ticket, model.TicketUpdate]

// ticketFields routes the metafield-backed ticket fields. Name, price and
// compare-at price are native variant fields.
var ticketFields = []ticketField{
	enum[model.Ticket, model.TicketUpdate, model.TicketType]("ticket_type", NamespaceTicket, "ticket_type",
		func(t *model.Ticket) *model.TicketType { return &t.Type },
		func(u *model.TicketUpdate) *model.TicketType { return u.Type }),
	text[model.Ticket, model.TicketUpdate]("description", NamespaceTicket, "description", catalog.TypeMultiLine,
		func(t *model.Ticket) *string { return &t.Description },
		func(u *model.TicketUpdate) *string { return u.Description }),
	list[model.Ticket, model.TicketUpdate]("features", NamespaceTicket, "features",
		func(t *model.Ticket) *[]string { return &t.Features },
		func(u *model.TicketUpdate) *[]string { return u.Features }),
	flag[model.Ticket, model.TicketUpdate]("is_visible", NamespaceTicket, "is_visible",
		func(t *model.Ticket) *bool { return &t.IsVisible },
		func(u *model.TicketUpdate) *bool { return u.IsVisible }),
	integer[model.Ticket, model.TicketUpdate]("max_per_order", NamespaceTicket, "max_per_order",
		func(t *model.Ticket) *int { return &t.MaxPerOrder },
		func(u *model.TicketUpdate) *int { return u.MaxPerOrder }),
	integer[model.Ticket, model.TicketUpdate]("inventory_quantity", NamespaceTicket, "inventory_quantity",
		func(t *model.Ticket) *int { return &t.InventoryQuantity },
		func(u *model.TicketUpdate) *int { return u.InventoryQuantity }),
}

// ProjectTicket builds a Ticket from a variant and reconciles its
// derived quantities against the live available count.
func ProjectTicket(v catalog.Variant) (model.Ticket, error) {
	t := model.Ticket{
		ID:              v.ID,
		EventID:         v.ProductID,
		Name:            v.Title,
		Features:        []string{},
		IsVisible:       true,
		MaxPerOrder:     model.DefaultMaxPerOrder,
		Available:       v.InventoryQuantity,
		InventoryItemID: v.InventoryItemID,
	}
	if v.Price != "" {
		price, err := model.ParseMoney(v.Price)
		if err != nil {
			return model.Ticket{}, fmt.Errorf("%w: variant %s price: %w", ErrSchema, v.ID, err)
		}
		t.Price = price
	}
	if v.CompareAtPrice != "" {
		cmp, err := model.ParseMoney(v.CompareAtPrice)
		if err != nil {
			return model.Ticket{}, fmt.Errorf("%w: variant %s compare-at price: %w", ErrSchema, v.ID, err)
		}
		t.CompareAtPrice = &cmp
	}
	if err := readFields(ticketFields, v.Metafields, &t, "ticket"); err != nil {
		return model.Ticket{}, err
	}
	inventory.Apply(&t)
	return t, nil
}

// standaloneTitle is the title the catalog gives the placeholder variant of
// a product created without options.
const standaloneTitle = "Default Title"

// isStandalone reports whether v is that placeholder rather than a ticket.
func isStandalone(v catalog.Variant) bool {
	return v.Title == standaloneTitle && len(v.Metafields) == 0
}

// ProjectTickets projects every ticket variant of a product. The
// placeholder variant of a ticketless event is skipped.
func ProjectTickets(p catalog.Product) ([]model.Ticket, error) {
	tickets := make([]model.Ticket, 0, len(p.Variants))
	for _, v := range p.Variants {
		if isStandalone(v) {
			continue
		}
		if v.ProductID == "" {
			v.ProductID = p.ID
		}
		t, err := ProjectTicket(v)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

// TicketWritePayload splits a partial ticket update into native variant
// fields and metafield writes.
func TicketWritePayload(u model.TicketUpdate) (catalog.VariantInput, Extension, error) {
	var in catalog.VariantInput
	if u.Name != nil {
		in.OptionValues = []catalog.OptionValue{{OptionName: catalog.TitleOption, Name: *u.Name}}
	}
	if u.Price != nil {
		in.Price = ptr(u.Price.String())
	}
	if u.CompareAtPrice != nil {
		in.CompareAtPrice = ptr(u.CompareAtPrice.String())
	}
	x, err := writeFields(ticketFields, &u)
	if err != nil {
		return catalog.VariantInput{}, Extension{}, err
	}
	return in, x, nil
}

// TicketCreatePayload builds the variant create input with its metafields
// inline. Inventory is tracked; stock is set separately.
func TicketCreatePayload(c model.TicketCreate) (catalog.VariantInput, error) {
	in, x, err := TicketWritePayload(TicketCreateAsUpdate(c))
	if err != nil {
		return catalog.VariantInput{}, err
	}
	in.InventoryPolicy = "DENY"
	in.InventoryItem = &catalog.InventoryItemInput{Tracked: ptr(true)}
	in.Metafields = x.Set
	return in, nil
}

// TicketCreateAsUpdate views a create payload as an update with defaults
// applied.
func TicketCreateAsUpdate(c model.TicketCreate) model.TicketUpdate {
	visible := true
	if c.IsVisible != nil {
		visible = *c.IsVisible
	}
	maxPerOrder := c.MaxPerOrder
	if maxPerOrder == 0 {
		maxPerOrder = model.DefaultMaxPerOrder
	}
	features := c.Features
	if features == nil {
		features = []string{}
	}
	return model.TicketUpdate{
		Name:              ptr(c.Name),
		Type:              ptr(c.Type),
		Description:       ptr(c.Description),
		Features:          ptr(features),
		IsVisible:         ptr(visible),
		Price:             ptr(c.Price),
		CompareAtPrice:    c.CompareAtPrice,
		InventoryQuantity: ptr(c.InventoryQuantity),
		MaxPerOrder:       ptr(maxPerOrder),
	}
}

// FullTicketUpdate is the update that would rewrite every writable field.
func FullTicketUpdate(t model.Ticket) model.TicketUpdate {
	return model.TicketUpdate{
		Name:              ptr(t.Name),
		Type:              ptr(t.Type),
		Description:       ptr(t.Description),
		Features:          ptr(t.Features),
		IsVisible:         ptr(t.IsVisible),
		Price:             ptr(t.Price),
		CompareAtPrice:    t.CompareAtPrice,
		InventoryQuantity: ptr(t.InventoryQuantity),
		MaxPerOrder:       ptr(t.MaxPerOrder),
	}
}
