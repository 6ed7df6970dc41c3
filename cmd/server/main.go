package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"busbook/internal/app"
	"busbook/internal/config"
	"busbook/internal/handler"
	internalRedis "busbook/internal/redis"
	"busbook/internal/repository/postgres"
	"busbook/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, sweeper := wireServer(db, redisClient, nrApp, logger, cfg)

	// Start the expiry sweep loop.
	sweeper.Start()
	defer sweeper.Stop()

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies, returning the HTTP server and the
// background expiry sweeper.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, logger *logrus.Logger, cfg *config.Config) (*http.Server, *service.Sweeper) {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	tripRepo := postgres.NewTripRepository(db)
	routeRepo := postgres.NewRouteRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(db)
	customerRepo := postgres.NewCustomerRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)
	capacityRepo := postgres.NewCapacityRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)

	// Initialize services.
	notificationService := service.NewNotificationService(logger)
	coordinator := service.NewCoordinator(
		tripRepo, reservationRepo, capacityRepo, cacheStore, notificationService, logger,
		service.CoordinatorConfig{
			HoldTTL:        cfg.Booking.HoldTTL,
			SweepBatchSize: cfg.Booking.SweepBatchSize,
		},
	)
	reconciler := service.NewReconciler(coordinator, tripRepo, reservationRepo, paymentRepo, notificationService, logger)
	ticketService := service.NewTicketService(reservationRepo, tripRepo, routeRepo, vehicleRepo, customerRepo, paymentRepo)
	sweeper := service.NewSweeper(coordinator, lockStore, logger, cfg.Booking.SweepInterval)

	// Initialize handlers.
	reservationHandler := handler.NewReservationHandler(coordinator, ticketService)
	paymentHandler := handler.NewPaymentHandler(reconciler)
	tripHandler := handler.NewTripHandler(coordinator, tripRepo, cacheStore)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		ReservationHandler: reservationHandler,
		PaymentHandler:     paymentHandler,
		TripHandler:        tripHandler,
		RedisClient:        redisClient,
		NewRelicApp:        nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, sweeper
}
