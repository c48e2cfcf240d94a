package handler

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"saldobot/internal/reconcile"
)

// Matcher consumes settlement records. Implemented by reconcile.Engine.
type Matcher interface {
	TryMatch(rec reconcile.SettlementRecord) (reconcile.Outcome, error)
}

// WebhookHandler accepts push settlement notifications from the secondary
// payment gateway.
type WebhookHandler struct {
	matcher Matcher
	logger  *zap.Logger
}

func NewWebhookHandler(matcher Matcher, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{matcher: matcher, logger: logger}
}

type webhookPayload struct {
	OrderID string  `json:"order_id"`
	Amount  float64 `json:"amount"`
	Status  string  `json:"status"`
	Project string  `json:"project"`
}

// Receive acknowledges the gateway immediately; matching and notification
// run off the request goroutine so a slow credit or Telegram send never
// stalls the HTTP response. The ack says "delivered", not "matched".
func (h *WebhookHandler) Receive(c echo.Context) error {
	var payload webhookPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	if payload.OrderID == "" || payload.Amount <= 0 || payload.Amount != math.Trunc(payload.Amount) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	if payload.Status != "completed" {
		h.logger.Debug("webhook with non-success status ignored",
			zap.String("order_id", payload.OrderID),
			zap.String("status", payload.Status))
		return c.JSON(http.StatusOK, map[string]bool{"received": true})
	}

	rec := reconcile.SettlementRecord{
		Amount:            int64(payload.Amount),
		ObservedAt:        time.Now(),
		Channel:           reconcile.ChannelWebhook,
		ExternalReference: payload.OrderID,
	}

	go func() {
		if _, err := h.matcher.TryMatch(rec); err != nil {
			h.logger.Error("webhook settlement match failed",
				zap.String("order_id", rec.ExternalReference),
				zap.Int64("amount", rec.Amount),
				zap.Error(err))
		}
	}()

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
