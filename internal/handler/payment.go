package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"busbook/internal/domain"
	"busbook/internal/service"
)

// PaymentHandler handles HTTP requests for payment settlement.
type PaymentHandler struct {
	reconciler *service.Reconciler
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(reconciler *service.Reconciler) *PaymentHandler {
	return &PaymentHandler{reconciler: reconciler}
}

// SettleRequest is the HTTP request body for a payment-gateway callback.
type SettleRequest struct {
	ReservationID string `json:"reservation_id"`
	ExternalTxnID string `json:"external_txn_id"`
	Method        string `json:"method"`
	Outcome       string `json:"outcome"` // SUCCEEDED or FAILED
	FailureReason string `json:"failure_reason,omitempty"`
}

// PaymentResponse is the HTTP response for payment operations.
type PaymentResponse struct {
	ID             string    `json:"id"`
	ReservationID  string    `json:"reservation_id"`
	ExternalTxnID  string    `json:"external_txn_id"`
	Method         string    `json:"method"`
	Status         string    `json:"status"`
	Amount         float64   `json:"amount"`
	FailureReason  string    `json:"failure_reason,omitempty"`
	AlreadySettled bool      `json:"already_settled,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toPaymentResponse(a *domain.PaymentAttempt, alreadySettled bool) PaymentResponse {
	return PaymentResponse{
		ID:             a.ID,
		ReservationID:  a.ReservationID,
		ExternalTxnID:  a.ExternalTxnID,
		Method:         string(a.Method),
		Status:         string(a.Status),
		Amount:         a.Amount,
		FailureReason:  a.FailureReason,
		AlreadySettled: alreadySettled,
		CreatedAt:      a.CreatedAt,
	}
}

// Settle handles POST /v1/payments/settle
func (h *PaymentHandler) Settle(c *gin.Context) {
	var req SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.reconciler.Settle(c.Request.Context(), service.SettleRequest{
		ReservationID: req.ReservationID,
		ExternalTxnID: req.ExternalTxnID,
		Method:        domain.PaymentMethod(req.Method),
		Outcome:       domain.PaymentStatus(req.Outcome),
		FailureReason: req.FailureReason,
	})
	if err != nil {
		// A late settlement still carries the recorded attempt; return it
		// alongside the conflict so the gateway sees why the money was not
		// applied.
		if errors.Is(err, service.ErrReservationNotPending) && result != nil {
			c.JSON(http.StatusConflict, toPaymentResponse(result.Attempt, false))
			return
		}
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(result.Attempt, result.AlreadySettled))
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	attempt, err := h.reconciler.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(attempt, false))
}
