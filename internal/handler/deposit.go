package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"saldobot/internal/deposit"
	"saldobot/internal/repository"
)

// DepositHandler exposes deposit creation to the conversational UI
// collaborator, which runs as a separate process and talks to this engine
// over the internal API.
type DepositHandler struct {
	service *deposit.Service
	users   *repository.UserRepository
	ledger  *repository.LedgerRepository
	logger  *zap.Logger
}

func NewDepositHandler(service *deposit.Service, users *repository.UserRepository, ledger *repository.LedgerRepository, logger *zap.Logger) *DepositHandler {
	return &DepositHandler{service: service, users: users, ledger: ledger, logger: logger}
}

type createDepositRequest struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Amount   int64  `json:"amount"`
}

// Create allocates a pending intent and returns the settlement amount plus
// the payment artifact the UI should deliver to the user.
func (h *DepositHandler) Create(c echo.Context) error {
	var req createDepositRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	intent, artifact, err := h.service.Create(c.Request().Context(), req.UserID, req.Username, req.Amount)
	switch {
	case errors.Is(err, deposit.ErrInvalidAmount):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "amount must be positive"})
	case errors.Is(err, deposit.ErrRequestTooFrequent),
		errors.Is(err, deposit.ErrTooManyOutstanding):
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": err.Error()})
	case errors.Is(err, deposit.ErrAmbiguityExhausted):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case err != nil:
		h.logger.Error("deposit creation failed", zap.Int64("user_id", req.UserID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "deposit creation failed"})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"intent_id":         intent.ID,
		"settlement_amount": intent.SettlementAmount,
		"expires_at":        intent.ExpiresAt,
		"artifact":          artifact,
	})
}

type attachArtifactRequest struct {
	Ref string `json:"ref"`
}

// AttachArtifact records the UI message reference once the QR is delivered,
// so completion and expiry can clean it up.
func (h *DepositHandler) AttachArtifact(c echo.Context) error {
	var req attachArtifactRequest
	if err := c.Bind(&req); err != nil || req.Ref == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if err := h.service.AttachArtifact(c.Param("id"), req.Ref); err != nil {
		h.logger.Error("failed to attach artifact", zap.String("intent_id", c.Param("id")), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to attach artifact"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Balance returns a user's wallet balance.
func (h *DepositHandler) Balance(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid user id"})
	}
	balance, err := h.users.GetBalance(userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "balance lookup failed"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"user_id": userID, "balance": balance})
}

// RecentLedger returns the newest ledger entries for the admin audit view.
func (h *DepositHandler) RecentLedger(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries, err := h.ledger.Recent(limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "ledger lookup failed"})
	}
	return c.JSON(http.StatusOK, entries)
}
