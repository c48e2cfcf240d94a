package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"saldobot/internal/handler"
	"saldobot/internal/middleware"
)

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	webhookHandler *handler.WebhookHandler,
	depositHandler *handler.DepositHandler,
	orderDeduper middleware.OrderDeduper,
) {
	// Global middleware
	e.Use(echomw.Recover())

	// Payment webhook (protected by order-id deduplication)
	paymentGroup := e.Group("/payment")
	paymentGroup.Use(middleware.WebhookOrderDedup(orderDeduper))
	paymentGroup.POST("/webhook", webhookHandler.Receive)

	// Internal API for the conversational UI collaborator
	apiGroup := e.Group("/api")
	apiGroup.POST("/deposits", depositHandler.Create)
	apiGroup.PUT("/deposits/:id/artifact", depositHandler.AttachArtifact)
	apiGroup.GET("/users/:id/balance", depositHandler.Balance)
	apiGroup.GET("/ledger/recent", depositHandler.RecentLedger)

	// Prometheus metrics
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
