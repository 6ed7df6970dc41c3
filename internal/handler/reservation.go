package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"busbook/internal/domain"
	"busbook/internal/service"
)

// ReservationHandler handles HTTP requests for reservations.
type ReservationHandler struct {
	coordinator   *service.Coordinator
	ticketService *service.TicketService
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(coordinator *service.Coordinator, ticketService *service.TicketService) *ReservationHandler {
	return &ReservationHandler{
		coordinator:   coordinator,
		ticketService: ticketService,
	}
}

// CreateReservationRequest is the HTTP request body for reserving seats.
type CreateReservationRequest struct {
	TripID     string `json:"trip_id"`
	CustomerID string `json:"customer_id"`
	Quantity   int    `json:"quantity"`
}

// ReservationResponse is the HTTP response for reservation operations.
type ReservationResponse struct {
	ID         string    `json:"id"`
	TripID     string    `json:"trip_id"`
	CustomerID string    `json:"customer_id"`
	Quantity   int       `json:"quantity"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func toReservationResponse(r *domain.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:         r.ID,
		TripID:     r.TripID,
		CustomerID: r.CustomerID,
		Quantity:   r.Quantity,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
		ExpiresAt:  r.ExpiresAt,
	}
}

// CreateReservation handles POST /v1/reservations
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	reservation, err := h.coordinator.Reserve(c.Request.Context(), service.ReserveRequest{
		TripID:     req.TripID,
		CustomerID: req.CustomerID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toReservationResponse(reservation))
}

// GetReservation handles GET /v1/reservations/:id
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	reservation, err := h.coordinator.GetReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toReservationResponse(reservation))
}

// CancelReservation handles POST /v1/reservations/:id/cancel
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	reservation, err := h.coordinator.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toReservationResponse(reservation))
}

// GetTicket handles GET /v1/reservations/:id/ticket
func (h *ReservationHandler) GetTicket(c *gin.Context) {
	pdf, err := h.ticketService.RenderPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="ticket-`+c.Param("id")+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// GetCustomerReservations handles GET /v1/customers/:id/reservations
func (h *ReservationHandler) GetCustomerReservations(c *gin.Context) {
	reservations, err := h.coordinator.CustomerReservations(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]ReservationResponse, 0, len(reservations))
	for _, r := range reservations {
		responses = append(responses, toReservationResponse(r))
	}

	respondJSON(c, http.StatusOK, responses)
}
