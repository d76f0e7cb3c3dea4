package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing-admin/internal/cache"
	"github.com/iliyamo/event-ticketing-admin/internal/model"
)

// OrderLister pages through recorded orders.
type OrderLister interface {
	List(ctx context.Context, limit, offset int) ([]model.Order, error)
}

// DeliveryLog lists recently processed webhook deliveries.
type DeliveryLog interface {
	Recent(ctx context.Context, limit int) ([]model.ProcessedWebhook, error)
}

// AdminHandler serves the operational read endpoints: local orders,
// webhook deliveries and cache state.
type AdminHandler struct {
	Orders     OrderLister
	Deliveries DeliveryLog
	Cache      *cache.Cache
	Log        *zap.Logger
}

// NewAdminHandler builds the handler. A nil cache is valid and reports a
// disabled cache.
func NewAdminHandler(orders OrderLister, deliveries DeliveryLog, c *cache.Cache, log *zap.Logger) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{Orders: orders, Deliveries: deliveries, Cache: c, Log: log}
}

// ListOrders handles GET /v1/orders. Orders recorded from webhooks are
// returned newest first, paged with limit and offset. Non-numeric or
// negative paging values answer 400.
func (h *AdminHandler) ListOrders(c echo.Context) error {
	limit, err := intParam(c, "limit")
	if err != nil {
		return badRequest(c, "limit must be a number")
	}
	offset, err := intParam(c, "offset")
	if err != nil || offset < 0 {
		return badRequest(c, "offset must be a non-negative number")
	}
	orders, err := h.Orders.List(c.Request().Context(), limit, offset)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// RecentWebhooks handles GET /v1/admin/webhooks. It lists the most
// recently processed deliveries, which is where to look when a catalog
// change did not show up.
func (h *AdminHandler) RecentWebhooks(c echo.Context) error {
	limit, err := intParam(c, "limit")
	if err != nil {
		return badRequest(c, "limit must be a number")
	}
	rows, err := h.Deliveries.Recent(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"webhooks": rows})
}

// CacheStats handles GET /v1/admin/cache and reports the number of keys in
// each cache family. When Redis cannot be scanned it answers 503 rather
// than reporting zero counts.
func (h *AdminHandler) CacheStats(c echo.Context) error {
	st, err := h.Cache.Stats(c.Request().Context())
	if err != nil {
		h.Log.Warn("cache stats unavailable", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "cache unavailable"})
	}
	return c.JSON(http.StatusOK, st)
}

// FlushCache handles DELETE /v1/admin/cache. It drops every event family
// and answers 204. The next reads repopulate from the catalog.
func (h *AdminHandler) FlushCache(c echo.Context) error {
	h.Cache.InvalidateAll(c.Request().Context())
	h.Log.Info("event cache flushed by admin")
	return c.NoContent(http.StatusNoContent)
}
