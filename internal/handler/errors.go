package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing-admin/internal/catalog"
	"github.com/iliyamo/event-ticketing-admin/internal/lifecycle"
	"github.com/iliyamo/event-ticketing-admin/internal/middleware"
	"github.com/iliyamo/event-ticketing-admin/internal/projection"
	"github.com/iliyamo/event-ticketing-admin/internal/repository"
	"github.com/iliyamo/event-ticketing-admin/internal/service"
)

// writeError maps a service, lifecycle or gateway error to a JSON error
// response. Server-side failures are logged with the request id; their
// detail is not sent to the client.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	var v *lifecycle.Violation
	if errors.As(err, &v) {
		body := echo.Map{"error": v.Message, "rule": v.Rule}
		if v.Field != "" {
			body["field"] = v.Field
		}
		return c.JSON(http.StatusBadRequest, body)
	}

	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	status, msg := http.StatusInternalServerError, "internal error"
	switch catalog.KindOf(err) {
	case catalog.KindNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case catalog.KindValidation:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": userMessage(err)})
	case catalog.KindAuth:
		// the service's own catalog credential was rejected
		status, msg = http.StatusUnauthorized, "catalog credentials rejected"
	case catalog.KindRateLimited:
		c.Response().Header().Set("Retry-After", "2")
		status, msg = http.StatusServiceUnavailable, "catalog is rate limiting requests, retry shortly"
	case catalog.KindTransient:
		status, msg = http.StatusServiceUnavailable, "catalog unavailable, retry shortly"
	case catalog.KindProtocol:
		msg = "unexpected catalog response"
	}
	if errors.Is(err, projection.ErrSchema) {
		msg = "catalog data could not be read"
	}

	log.Error("request failed",
		zap.String("request_id", middleware.RequestIDOf(c)),
		zap.String("method", c.Request().Method),
		zap.String("route", c.Path()),
		zap.Int("status", status),
		zap.Error(err))
	return c.JSON(status, echo.Map{"error": msg})
}

// userMessage returns the remote's own validation text when present.
func userMessage(err error) string {
	var ce *catalog.Error
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return err.Error()
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
