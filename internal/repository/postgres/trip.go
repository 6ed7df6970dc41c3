package postgres

import (
	"context"
	"database/sql"
	"errors"

	"busbook/internal/domain"
	"busbook/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (id, route_id, vehicle_id, departure_at, arrival_at, capacity, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.RouteID,
		trip.VehicleID,
		trip.DepartureAt,
		trip.ArrivalAt,
		trip.Capacity,
		trip.Price,
	)

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `
		SELECT id, route_id, vehicle_id, departure_at, arrival_at, capacity, price
		FROM trips WHERE id = $1
	`

	var trip domain.Trip
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&trip.ID,
		&trip.RouteID,
		&trip.VehicleID,
		&trip.DepartureAt,
		&trip.ArrivalAt,
		&trip.Capacity,
		&trip.Price,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &trip, nil
}

// GetAll retrieves all trips ordered by departure time.
func (r *TripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	query := `
		SELECT id, route_id, vehicle_id, departure_at, arrival_at, capacity, price
		FROM trips ORDER BY departure_at
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		var trip domain.Trip
		if err := rows.Scan(
			&trip.ID,
			&trip.RouteID,
			&trip.VehicleID,
			&trip.DepartureAt,
			&trip.ArrivalAt,
			&trip.Capacity,
			&trip.Price,
		); err != nil {
			return nil, err
		}
		trips = append(trips, &trip)
	}

	return trips, rows.Err()
}
