package domain

import "time"

// ReservationStatus represents the current status of a reservation.
type ReservationStatus string

const (
	ReservationStatusPendingPayment ReservationStatus = "PENDING_PAYMENT"
	ReservationStatusPaid           ReservationStatus = "PAID"
	ReservationStatusCancelled      ReservationStatus = "CANCELLED"
	ReservationStatusExpired        ReservationStatus = "EXPIRED"
)

// Terminal reports whether the status accepts no further transitions.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationStatusPaid || s == ReservationStatusCancelled || s == ReservationStatusExpired
}

// Reservation represents a customer's request to hold seats on a trip,
// pending payment. Reservations are never deleted; terminal states are
// retained for audit.
type Reservation struct {
	ID         string
	TripID     string
	CustomerID string
	Quantity   int
	Status     ReservationStatus
	CreatedAt  time.Time
	ExpiresAt  time.Time
}
