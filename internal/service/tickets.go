package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing-admin/internal/cache"
	"github.com/iliyamo/event-ticketing-admin/internal/catalog"
	"github.com/iliyamo/event-ticketing-admin/internal/lifecycle"
	"github.com/iliyamo/event-ticketing-admin/internal/model"
	"github.com/iliyamo/event-ticketing-admin/internal/projection"
)

// TicketService manages the tickets of an event.
type TicketService struct {
	store
}

func NewTicketService(cat Catalog, c *cache.Cache, log *zap.Logger) *TicketService {
	return &TicketService{store: newStore(cat, c, log)}
}

// List returns an event's reconciled tickets.
func (s *TicketService) List(ctx context.Context, eventID string) ([]model.Ticket, error) {
	return s.tickets(ctx, eventID)
}

// Create adds a ticket. Its capacity is stored as the declared capacity
// and also seeds the live inventory.
func (s *TicketService) Create(ctx context.Context, eventID string, in model.TicketCreate) (_ model.Ticket, err error) {
	if err := validateTicketCreate(&in); err != nil {
		return model.Ticket{}, err
	}
	_, ev, err := s.fresh(ctx, eventID)
	if err != nil {
		return model.Ticket{}, err
	}
	payload, err := projection.TicketCreatePayload(in)
	if err != nil {
		return model.Ticket{}, err
	}
	defer s.invalidateOnFailure(ctx, ev.ID, &err)
	v, err := s.catalog.CreateVariant(ctx, ev.ID, payload)
	if err != nil {
		return model.Ticket{}, err
	}
	if err := s.catalog.SetInventory(ctx, v.InventoryItemID, in.InventoryQuantity); err != nil {
		// without stock the declared capacity would read as sold out, so
		// take the variant back out
		if derr := s.catalog.DeleteVariant(ctx, ev.ID, v.ID); derr != nil {
			s.log.Error("ticket left without inventory", zap.String("event_id", ev.ID),
				zap.String("ticket_id", v.ID), zap.NamedError("set_inventory", err), zap.NamedError("rollback", derr))
		}
		return model.Ticket{}, err
	}
	s.log.Info("ticket created", zap.String("event_id", ev.ID), zap.String("ticket_id", v.ID),
		zap.Int("capacity", in.InventoryQuantity))

	d, err := s.afterWrite(ctx, ev.ID, nil)
	if err != nil {
		// the write went through; answer from the mutation response
		v.InventoryQuantity = in.InventoryQuantity
		return projection.ProjectTicket(*v)
	}
	if t, ok := findTicket(d.Tickets, v.ID); ok {
		return t, nil
	}
	return model.Ticket{}, fmt.Errorf("%w: ticket %s missing after create", ErrNotFound, v.ID)
}

// Update applies a partial update after checking it against the ticket's
// current sold count. A capacity change moves live inventory to
// capacity minus sold.
func (s *TicketService) Update(ctx context.Context, eventID, ticketID string, u model.TicketUpdate) (_ model.Ticket, err error) {
	if err := validateTicketUpdate(&u); err != nil {
		return model.Ticket{}, err
	}
	_, ev, err := s.fresh(ctx, eventID)
	if err != nil {
		return model.Ticket{}, err
	}
	cur, ok := findTicket(ev.Tickets, ticketID)
	if !ok {
		return model.Ticket{}, fmt.Errorf("%w: ticket %s in event %s", ErrNotFound, catalog.ShortID(ticketID), ev.ID)
	}
	if err := lifecycle.CheckTicketUpdate(cur, u); err != nil {
		return model.Ticket{}, err
	}

	core, ext, err := projection.TicketWritePayload(u)
	if err != nil {
		return model.Ticket{}, err
	}
	defer s.invalidateOnFailure(ctx, ev.ID, &err)
	written := false
	if !core.Empty() {
		if _, err := s.catalog.UpdateVariant(ctx, ev.ID, cur.ID, core); err != nil {
			return model.Ticket{}, err
		}
		written = true
	}

	capacityChange := u.InventoryQuantity != nil && *u.InventoryQuantity != cur.Capacity
	if err := s.writeExtension(ctx, catalog.VariantGID(cur.ID), ext); err != nil {
		// a capacity that failed to persist must not move live stock
		if !written || capacityChange {
			return model.Ticket{}, err
		}
		s.log.Warn("ticket extension write failed after core update",
			zap.String("ticket_id", cur.ID), zap.Error(err))
	}

	if capacityChange {
		available := *u.InventoryQuantity - cur.Sold
		if err := s.catalog.SetInventory(ctx, cur.InventoryItemID, available); err != nil {
			s.restoreCapacity(ctx, cur)
			return model.Ticket{}, err
		}
		s.log.Info("ticket capacity changed", zap.String("ticket_id", cur.ID),
			zap.Int("from", cur.Capacity), zap.Int("to", *u.InventoryQuantity), zap.Int("available", available))
	}

	d, err := s.afterWrite(ctx, ev.ID, nil)
	if err != nil {
		return model.Ticket{}, err
	}
	t, ok := findTicket(d.Tickets, cur.ID)
	if !ok {
		return model.Ticket{}, fmt.Errorf("%w: ticket %s missing after update", ErrNotFound, cur.ID)
	}
	return t, nil
}

// restoreCapacity puts the declared capacity back after live inventory
// could not follow it.
func (s *TicketService) restoreCapacity(ctx context.Context, cur model.Ticket) {
	_, ext, err := projection.TicketWritePayload(model.TicketUpdate{InventoryQuantity: &cur.Capacity})
	if err == nil {
		err = s.writeExtension(ctx, catalog.VariantGID(cur.ID), ext)
	}
	if err != nil {
		s.log.Error("ticket capacity left ahead of inventory", zap.String("ticket_id", cur.ID), zap.Error(err))
	}
}

// Delete removes a ticket that has sold nothing.
func (s *TicketService) Delete(ctx context.Context, eventID, ticketID string) (err error) {
	_, ev, err := s.fresh(ctx, eventID)
	if err != nil {
		return err
	}
	cur, ok := findTicket(ev.Tickets, ticketID)
	if !ok {
		return fmt.Errorf("%w: ticket %s in event %s", ErrNotFound, catalog.ShortID(ticketID), ev.ID)
	}
	if err := lifecycle.CheckTicketDelete(cur); err != nil {
		return err
	}
	defer s.invalidateOnFailure(ctx, ev.ID, &err)
	if err := s.catalog.DeleteVariant(ctx, ev.ID, cur.ID); err != nil {
		return err
	}
	s.cache.InvalidateEvent(ctx, ev.ID)
	s.log.Info("ticket deleted", zap.String("event_id", ev.ID), zap.String("ticket_id", cur.ID))
	return nil
}
