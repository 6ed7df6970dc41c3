package repository

import (
	"context"
	"time"

	"busbook/internal/domain"
)

// ReservationRepository defines the persistence operations for reservations.
type ReservationRepository interface {
	// Create persists a new reservation.
	Create(ctx context.Context, reservation *domain.Reservation) error

	// GetByID retrieves a reservation by ID.
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)

	// GetByCustomerID retrieves all reservations for a customer, newest first.
	GetByCustomerID(ctx context.Context, customerID string) ([]*domain.Reservation, error)

	// UpdateStatusIf transitions the reservation to next only if its current
	// status still equals prev. Returns ErrStaleState when another transition
	// won the race, ErrNotFound when the reservation does not exist.
	UpdateStatusIf(ctx context.Context, id string, prev, next domain.ReservationStatus) error

	// ListExpiredPending returns up to limit PendingPayment reservations
	// whose expiry deadline is at or before now.
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error)
}
