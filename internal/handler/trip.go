package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"busbook/internal/domain"
	"busbook/internal/redis"
	"busbook/internal/repository"
	"busbook/internal/service"
)

// TripHandler handles HTTP requests for trip display queries. Trips are
// catalog facts; this surface is read-only.
type TripHandler struct {
	coordinator *service.Coordinator
	tripRepo    repository.TripRepository
	tripCache   redis.TripCache // optional
}

// NewTripHandler creates a new TripHandler. tripCache may be nil.
func NewTripHandler(coordinator *service.Coordinator, tripRepo repository.TripRepository, tripCache redis.TripCache) *TripHandler {
	return &TripHandler{
		coordinator: coordinator,
		tripRepo:    tripRepo,
		tripCache:   tripCache,
	}
}

// TripResponse is the HTTP response for trip queries.
type TripResponse struct {
	ID          string    `json:"id"`
	RouteID     string    `json:"route_id"`
	VehicleID   string    `json:"vehicle_id"`
	DepartureAt time.Time `json:"departure_at"`
	ArrivalAt   time.Time `json:"arrival_at"`
	Capacity    int       `json:"capacity"`
	Price       float64   `json:"price"`
}

// AvailabilityResponse is the HTTP response for seat availability queries.
type AvailabilityResponse struct {
	TripID    string `json:"trip_id"`
	Available int    `json:"available"`
}

func toTripResponse(t *domain.Trip) TripResponse {
	return TripResponse{
		ID:          t.ID,
		RouteID:     t.RouteID,
		VehicleID:   t.VehicleID,
		DepartureAt: t.DepartureAt,
		ArrivalAt:   t.ArrivalAt,
		Capacity:    t.Capacity,
		Price:       t.Price,
	}
}

// GetAll handles GET /v1/trips
func (h *TripHandler) GetAll(c *gin.Context) {
	trips, err := h.tripRepo.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		responses = append(responses, toTripResponse(t))
	}

	respondJSON(c, http.StatusOK, responses)
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	ctx := c.Request.Context()
	tripID := c.Param("id")

	if h.tripCache != nil {
		if cached, err := h.tripCache.GetTrip(ctx, tripID); err == nil && cached != nil {
			respondJSON(c, http.StatusOK, TripResponse{
				ID:          cached.ID,
				RouteID:     cached.RouteID,
				VehicleID:   cached.VehicleID,
				DepartureAt: cached.DepartureAt,
				ArrivalAt:   cached.ArrivalAt,
				Capacity:    cached.Capacity,
				Price:       cached.Price,
			})
			return
		}
	}

	trip, err := h.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.tripCache != nil {
		_ = h.tripCache.SetTrip(ctx, &redis.CachedTrip{
			ID:          trip.ID,
			RouteID:     trip.RouteID,
			VehicleID:   trip.VehicleID,
			DepartureAt: trip.DepartureAt,
			ArrivalAt:   trip.ArrivalAt,
			Capacity:    trip.Capacity,
			Price:       trip.Price,
		})
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetAvailability handles GET /v1/trips/:id/availability
func (h *TripHandler) GetAvailability(c *gin.Context) {
	tripID := c.Param("id")

	available, err := h.coordinator.Available(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, AvailabilityResponse{
		TripID:    tripID,
		Available: available,
	})
}
