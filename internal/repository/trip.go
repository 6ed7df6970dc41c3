package repository

import (
	"context"

	"busbook/internal/domain"
)

// TripRepository defines the persistence operations for trips.
// Trips are written by the catalog subsystem; this core reads them and
// creates the matching capacity entry when a trip is registered.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetAll retrieves all trips.
	GetAll(ctx context.Context) ([]*domain.Trip, error)
}

// RouteRepository defines the persistence operations for routes.
type RouteRepository interface {
	// Create persists a new route.
	Create(ctx context.Context, route *domain.Route) error

	// GetByID retrieves a route by ID.
	GetByID(ctx context.Context, id string) (*domain.Route, error)

	// GetAll retrieves all routes.
	GetAll(ctx context.Context) ([]*domain.Route, error)
}

// VehicleRepository defines the persistence operations for vehicles.
type VehicleRepository interface {
	// Create persists a new vehicle.
	Create(ctx context.Context, vehicle *domain.Vehicle) error

	// GetByID retrieves a vehicle by ID.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)

	// GetAll retrieves all vehicles.
	GetAll(ctx context.Context) ([]*domain.Vehicle, error)
}
