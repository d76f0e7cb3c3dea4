package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing-admin/internal/service"
	"github.com/iliyamo/event-ticketing-admin/internal/webhook"
)

// maxWebhookBody bounds a delivery; catalog payloads are far smaller.
const maxWebhookBody = 2 << 20

// WebhookHandler receives catalog deliveries. The body is read raw because
// the signature covers the exact bytes.
type WebhookHandler struct {
	Webhooks *service.WebhookService
	Log      *zap.Logger
}

// NewWebhookHandler wires the handler to its service and panics on a nil
// service.
func NewWebhookHandler(w *service.WebhookService, log *zap.Logger) *WebhookHandler {
	if w == nil {
		panic("nil webhook service passed to NewWebhookHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WebhookHandler{Webhooks: w, Log: log}
}

// Receive handles POST /v1/webhooks/catalog. The raw body is verified
// against the signature header before anything is decoded. A bad
// signature answers 401 and a missing secret 500, both without side
// effects. A replayed delivery id answers 200 with "already processed" so
// the catalog stops retrying, while a failure while applying answers 500
// so that it retries later.
func (h *WebhookHandler) Receive(c echo.Context) error {
	correlationID := uuid.NewString()
	r := c.Request()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		return badRequest(c, "unreadable body")
	}
	if len(body) > maxWebhookBody {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "payload too large"})
	}

	d := webhook.Delivery{
		ID:         r.Header.Get(webhook.HeaderWebhookID),
		Topic:      r.Header.Get(webhook.HeaderTopic),
		ShopDomain: r.Header.Get(webhook.HeaderShopDomain),
		Body:       body,
	}
	log := h.Log.With(zap.String("correlation_id", correlationID), zap.String("topic", d.Topic))

	res, err := h.Webhooks.Handle(r.Context(), d, r.Header.Get(webhook.HeaderSignature))
	switch {
	case err == nil:
	case errors.Is(err, service.ErrWebhookNotConfigured):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "webhook secret not configured"})
	case errors.Is(err, service.ErrInvalidSignature):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
	case errors.Is(err, service.ErrInvalidInput):
		return badRequest(c, err.Error())
	default:
		// a 5xx makes the catalog retry the delivery
		log.Error("webhook failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "webhook processing failed"})
	}

	msg := "webhook processed"
	if res.AlreadyProcessed {
		msg = "webhook already processed"
	}
	log.Debug(msg, zap.String("webhook_id", res.DeliveryID))
	return c.JSON(http.StatusOK, echo.Map{
		"status":         "received",
		"correlation_id": correlationID,
		"webhook_id":     res.DeliveryID,
		"message":        msg,
	})
}

// Health handles GET /v1/webhooks/health. It reports whether a signing
// secret is configured, which is the usual reason deliveries are refused.
func (h *WebhookHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":                    "ok",
		"webhook_secret_configured": h.Webhooks.Configured(),
	})
}
