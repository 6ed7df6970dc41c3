package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"busbook/internal/handler"
	"busbook/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	ReservationHandler *handler.ReservationHandler
	PaymentHandler     *handler.PaymentHandler
	TripHandler        *handler.TripHandler
	RedisClient        *redis.Client
	NewRelicApp        *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(cors.Default())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.RedisClient != nil {
		router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Trip display queries (catalog facts, read-only here).
		trips := v1.Group("/trips")
		{
			trips.GET("", deps.TripHandler.GetAll)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.GET("/:id/availability", deps.TripHandler.GetAvailability)
		}

		// Reservation routes.
		reservations := v1.Group("/reservations")
		{
			reservations.POST("", deps.ReservationHandler.CreateReservation)
			reservations.GET("/:id", deps.ReservationHandler.GetReservation)
			reservations.POST("/:id/cancel", deps.ReservationHandler.CancelReservation)
			reservations.GET("/:id/ticket", deps.ReservationHandler.GetTicket)
		}

		// Customer display queries.
		customers := v1.Group("/customers")
		{
			customers.GET("/:id/reservations", deps.ReservationHandler.GetCustomerReservations)
		}

		// Payment routes (gateway callback + display).
		payments := v1.Group("/payments")
		{
			payments.POST("/settle", deps.PaymentHandler.Settle)
			payments.GET("/:id", deps.PaymentHandler.GetPayment)
		}
	}

	return router
}
