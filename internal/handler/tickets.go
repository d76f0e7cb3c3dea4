package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing-admin/internal/model"
	"github.com/iliyamo/event-ticketing-admin/internal/service"
)

// TicketHandler serves the ticket endpoints nested under an event. The
// event id in the path scopes every lookup; a ticket id from another event
// is reported as not found.
type TicketHandler struct {
	Tickets *service.TicketService
	Log     *zap.Logger
}

// NewTicketHandler wires the handler to its service and panics on a nil
// service.
func NewTicketHandler(tickets *service.TicketService, log *zap.Logger) *TicketHandler {
	if tickets == nil {
		panic("nil ticket service passed to NewTicketHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TicketHandler{Tickets: tickets, Log: log}
}

// List handles GET /v1/events/:id/tickets and returns the event's tickets
// with capacity, sold, available and revenue derived from live inventory.
func (h *TicketHandler) List(c echo.Context) error {
	tickets, err := h.Tickets.List(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}

// Create handles POST /v1/events/:id/tickets. inventory_quantity becomes
// both the declared capacity and the initial stock. The ticket is returned
// with 201 Created.
func (h *TicketHandler) Create(c echo.Context) error {
	var in model.TicketCreate
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	t, err := h.Tickets.Create(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// Update handles PATCH /v1/events/:id/tickets/:ticket_id. Once a ticket
// has sales its type can no longer change and its capacity cannot drop
// below the sold count; both answer 400 with the rule that was broken.
func (h *TicketHandler) Update(c echo.Context) error {
	var u model.TicketUpdate
	if err := c.Bind(&u); err != nil {
		return badRequest(c, "invalid body")
	}
	t, err := h.Tickets.Update(c.Request().Context(), c.Param("id"), c.Param("ticket_id"), u)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /v1/events/:id/tickets/:ticket_id. A ticket with
// sales cannot be deleted; hiding it keeps the sales history intact.
func (h *TicketHandler) Delete(c echo.Context) error {
	if err := h.Tickets.Delete(c.Request().Context(), c.Param("id"), c.Param("ticket_id")); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
