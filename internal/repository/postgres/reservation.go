package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"busbook/internal/domain"
	"busbook/internal/repository"
)

// ReservationRepository is a PostgreSQL implementation of
// repository.ReservationRepository.
type ReservationRepository struct {
	q Querier
}

// NewReservationRepository creates a new PostgreSQL reservation repository.
func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{q: db}
}

// NewReservationRepositoryWithTx creates a reservation repository using a transaction.
func NewReservationRepositoryWithTx(tx *sql.Tx) *ReservationRepository {
	return &ReservationRepository{q: tx}
}

// Create persists a new reservation.
func (r *ReservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	query := `
		INSERT INTO reservations (id, trip_id, customer_id, quantity, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		reservation.ID,
		reservation.TripID,
		reservation.CustomerID,
		reservation.Quantity,
		reservation.Status,
		reservation.CreatedAt,
		reservation.ExpiresAt,
	)

	return err
}

// GetByID retrieves a reservation by ID.
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	query := `
		SELECT id, trip_id, customer_id, quantity, status, created_at, expires_at
		FROM reservations WHERE id = $1
	`

	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByCustomerID retrieves all reservations for a customer, newest first.
func (r *ReservationRepository) GetByCustomerID(ctx context.Context, customerID string) ([]*domain.Reservation, error) {
	query := `
		SELECT id, trip_id, customer_id, quantity, status, created_at, expires_at
		FROM reservations WHERE customer_id = $1 ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReservations(rows)
}

// UpdateStatusIf transitions the reservation to next only if its current
// status still equals prev. The guarded UPDATE is the serialization point
// for reservation state: exactly one concurrent transition can match the
// prev status, so exactly one terminal state wins.
func (r *ReservationRepository) UpdateStatusIf(ctx context.Context, id string, prev, next domain.ReservationStatus) error {
	query := `UPDATE reservations SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.q.ExecContext(ctx, query, next, id, prev)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		// Distinguish a lost race from a missing reservation.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return repository.ErrStaleState
	}

	return nil
}

// ListExpiredPending returns up to limit PendingPayment reservations whose
// deadline has elapsed.
func (r *ReservationRepository) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	query := `
		SELECT id, trip_id, customer_id, quantity, status, created_at, expires_at
		FROM reservations
		WHERE status = $1 AND expires_at <= $2
		ORDER BY expires_at
		LIMIT $3
	`

	rows, err := r.q.QueryContext(ctx, query, domain.ReservationStatusPendingPayment, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReservations(rows)
}

func (r *ReservationRepository) scanOne(row *sql.Row) (*domain.Reservation, error) {
	var res domain.Reservation
	err := row.Scan(
		&res.ID,
		&res.TripID,
		&res.CustomerID,
		&res.Quantity,
		&res.Status,
		&res.CreatedAt,
		&res.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &res, nil
}

func scanReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	var reservations []*domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(
			&res.ID,
			&res.TripID,
			&res.CustomerID,
			&res.Quantity,
			&res.Status,
			&res.CreatedAt,
			&res.ExpiresAt,
		); err != nil {
			return nil, err
		}
		reservations = append(reservations, &res)
	}

	return reservations, rows.Err()
}
