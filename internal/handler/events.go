// Package handler holds the echo handlers of the admin API. Handlers
// stay thin: they bind and check request shape, call one service
// operation and translate its result or error into JSON. Every error
// response goes through writeError so that status codes stay consistent
// across endpoints.
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing-admin/internal/model"
	"github.com/iliyamo/event-ticketing-admin/internal/service"
)

// EventHandler serves the event endpoints. Reads go through the
// read-through cache inside the service; writes always validate against a
// fresh catalog read.
type EventHandler struct {
	Events *service.EventService
	Log    *zap.Logger
}

// NewEventHandler wires the handler to its service. It panics on a nil
// service because every route would otherwise fail at request time.
func NewEventHandler(events *service.EventService, log *zap.Logger) *EventHandler {
	if events == nil {
		panic("nil event service passed to NewEventHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EventHandler{Events: events, Log: log}
}

// List handles GET /v1/events. It accepts the optional query parameters
// category, status, search, featured, page and per_page and returns one
// page of events newest first. Malformed numbers or booleans produce a
// 400 Bad Request before the catalog is touched; unknown categories or
// statuses are rejected by the service with the same status.
func (h *EventHandler) List(c echo.Context) error {
	f := model.EventFilter{
		Category: model.Category(strings.TrimSpace(c.QueryParam("category"))),
		Status:   model.EventStatus(strings.ToLower(strings.TrimSpace(c.QueryParam("status")))),
		Search:   c.QueryParam("search"),
	}
	if v := c.QueryParam("featured"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "featured must be true or false")
		}
		f.Featured = &b
	}
	var err error
	if f.Page, err = intParam(c, "page"); err != nil {
		return badRequest(c, "page must be a number")
	}
	if f.PerPage, err = intParam(c, "per_page"); err != nil {
		return badRequest(c, "per_page must be a number")
	}
	page, err := h.Events.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Popular handles GET /v1/events/popular. It ranks events by tickets sold
// and returns at most limit of them under "events". A missing limit uses
// the service default; larger values are capped.
func (h *EventHandler) Popular(c echo.Context) error {
	limit, err := intParam(c, "limit")
	if err != nil {
		return badRequest(c, "limit must be a number")
	}
	events, err := h.Events.Popular(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// Get handles GET /v1/events/:id. The id may be numeric or a full global
// id. The response is the event with its reconciled tickets and totals. A
// product that is not an event answers 404 Not Found just like a missing
// one.
func (h *EventHandler) Get(c echo.Context) error {
	d, err := h.Events.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Create handles POST /v1/events. New events always start as drafts;
// the created event is returned with 201 Created. Validation failures
// from the service or from the catalog itself answer 400.
func (h *EventHandler) Create(c echo.Context) error {
	var in model.EventCreate
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	d, err := h.Events.Create(c.Request().Context(), in)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, d)
}

// Update handles PATCH /v1/events/:id. Only the fields present in the
// body change. A status or is_featured change is checked against the
// lifecycle rules and a rejected move answers 400 with the rule name, so
// clients can tell a business rule apart from a malformed request.
func (h *EventHandler) Update(c echo.Context) error {
	var u model.EventUpdate
	if err := c.Bind(&u); err != nil {
		return badRequest(c, "invalid body")
	}
	d, err := h.Events.Update(c.Request().Context(), c.Param("id"), u)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Publish handles POST /v1/events/:id/publish. The event must have at
// least one ticket with stock left; otherwise the response is 400 with
// rule "publish_precondition".
func (h *EventHandler) Publish(c echo.Context) error {
	d, err := h.Events.Publish(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Archive handles POST /v1/events/:id/archive. Archiving also clears
// is_featured because only active events may be featured.
func (h *EventHandler) Archive(c echo.Context) error {
	d, err := h.Events.Archive(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, d)
}

type featureReq struct {
	IsFeatured *bool `json:"is_featured"`
}

// Feature handles PUT /v1/events/:id/featured with a body of
// {"is_featured": bool}. The field is required; featuring a non-active
// event is a lifecycle violation.
func (h *EventHandler) Feature(c echo.Context) error {
	var req featureReq
	if err := c.Bind(&req); err != nil || req.IsFeatured == nil {
		return badRequest(c, "is_featured required")
	}
	d, err := h.Events.Feature(c.Request().Context(), c.Param("id"), *req.IsFeatured)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Delete handles DELETE /v1/events/:id. Events that have sold tickets
// cannot be deleted and should be archived instead. On success the
// response is 204 No Content.
func (h *EventHandler) Delete(c echo.Context) error {
	if err := h.Events.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// intParam parses an optional integer query parameter; absent is 0.
func intParam(c echo.Context, name string) (int, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
