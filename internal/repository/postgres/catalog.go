package postgres

import (
	"context"
	"database/sql"
	"errors"

	"busbook/internal/domain"
	"busbook/internal/repository"
)

// RouteRepository is a PostgreSQL implementation of repository.RouteRepository.
type RouteRepository struct {
	q Querier
}

// NewRouteRepository creates a new PostgreSQL route repository.
func NewRouteRepository(db *sql.DB) *RouteRepository {
	return &RouteRepository{q: db}
}

// Create persists a new route.
func (r *RouteRepository) Create(ctx context.Context, route *domain.Route) error {
	query := `
		INSERT INTO routes (id, origin, destination, distance_km)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query, route.ID, route.Origin, route.Destination, route.DistanceKm)
	return err
}

// GetByID retrieves a route by ID.
func (r *RouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	query := `SELECT id, origin, destination, distance_km FROM routes WHERE id = $1`

	var route domain.Route
	err := r.q.QueryRowContext(ctx, query, id).Scan(&route.ID, &route.Origin, &route.Destination, &route.DistanceKm)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &route, nil
}

// GetAll retrieves all routes.
func (r *RouteRepository) GetAll(ctx context.Context) ([]*domain.Route, error) {
	query := `SELECT id, origin, destination, distance_km FROM routes ORDER BY origin, destination`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*domain.Route
	for rows.Next() {
		var route domain.Route
		if err := rows.Scan(&route.ID, &route.Origin, &route.Destination, &route.DistanceKm); err != nil {
			return nil, err
		}
		routes = append(routes, &route)
	}

	return routes, rows.Err()
}

// VehicleRepository is a PostgreSQL implementation of repository.VehicleRepository.
type VehicleRepository struct {
	q Querier
}

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{q: db}
}

// Create persists a new vehicle.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, plate_number, model, seat_count)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query, vehicle.ID, vehicle.PlateNumber, vehicle.Model, vehicle.SeatCount)
	return err
}

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT id, plate_number, model, seat_count FROM vehicles WHERE id = $1`

	var vehicle domain.Vehicle
	err := r.q.QueryRowContext(ctx, query, id).Scan(&vehicle.ID, &vehicle.PlateNumber, &vehicle.Model, &vehicle.SeatCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &vehicle, nil
}

// GetAll retrieves all vehicles.
func (r *VehicleRepository) GetAll(ctx context.Context) ([]*domain.Vehicle, error) {
	query := `SELECT id, plate_number, model, seat_count FROM vehicles ORDER BY plate_number`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		var vehicle domain.Vehicle
		if err := rows.Scan(&vehicle.ID, &vehicle.PlateNumber, &vehicle.Model, &vehicle.SeatCount); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, &vehicle)
	}

	return vehicles, rows.Err()
}
