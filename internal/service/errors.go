package service

import "errors"

var (
	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidCustomerID is returned when customer ID is empty.
	ErrInvalidCustomerID = errors.New("invalid customer id")

	// ErrInvalidReservationID is returned when reservation ID is empty.
	ErrInvalidReservationID = errors.New("invalid reservation id")

	// ErrInvalidQuantity is returned when the requested seat quantity is not positive.
	ErrInvalidQuantity = errors.New("invalid seat quantity")

	// ErrInvalidTxnID is returned when the external transaction ID is empty.
	ErrInvalidTxnID = errors.New("invalid external transaction id")

	// ErrInvalidPaymentID is returned when payment ID is empty.
	ErrInvalidPaymentID = errors.New("invalid payment id")

	// ErrInvalidPaymentMethod is returned when the payment method is unknown.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrInvalidOutcome is returned when a settlement outcome is neither
	// Succeeded nor Failed.
	ErrInvalidOutcome = errors.New("invalid settlement outcome")

	// ErrInsufficientCapacity is returned when a trip has fewer seats
	// available than requested. A business condition, not a fault.
	ErrInsufficientCapacity = errors.New("insufficient capacity")

	// ErrTripClosed is returned when the trip has departed or was withdrawn
	// upstream; no new reservations are accepted against it.
	ErrTripClosed = errors.New("trip closed")

	// ErrReservationNotPending is returned when an operation requires a
	// PendingPayment reservation but it has already been paid, cancelled or
	// expired.
	ErrReservationNotPending = errors.New("reservation not pending payment")

	// ErrTicketNotPaid is returned when an e-ticket is requested for a
	// reservation that is not Paid.
	ErrTicketNotPaid = errors.New("reservation not paid")

	// ErrTxnConflict is returned when an external transaction ID is replayed
	// against a different reservation than it originally settled.
	ErrTxnConflict = errors.New("external transaction id bound to another reservation")

	// ErrTripQuarantined is returned when a trip's ledger has been found
	// inconsistent and all further mutation on it is halted pending operator
	// intervention.
	ErrTripQuarantined = errors.New("trip ledger quarantined")
)
