package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"busbook/internal/repository"
	"busbook/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidCustomerID),
		errors.Is(err, service.ErrInvalidReservationID),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidTxnID),
		errors.Is(err, service.ErrInvalidPaymentID),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidOutcome):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrInsufficientCapacity),
		errors.Is(err, service.ErrReservationNotPending),
		errors.Is(err, service.ErrTicketNotPaid),
		errors.Is(err, service.ErrTxnConflict):
		return http.StatusConflict

	// Business rule errors
	case errors.Is(err, service.ErrTripClosed):
		return http.StatusGone

	// Operator intervention required
	case errors.Is(err, service.ErrTripQuarantined):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
