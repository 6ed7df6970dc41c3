package repository

import (
	"context"

	"busbook/internal/domain"
)

// PaymentRepository defines the persistence operations for payment attempts.
type PaymentRepository interface {
	// Create persists a new payment attempt. Returns ErrDuplicateTxn when an
	// attempt with the same external transaction ID already exists.
	Create(ctx context.Context, attempt *domain.PaymentAttempt) error

	// GetByID retrieves a payment attempt by ID.
	GetByID(ctx context.Context, id string) (*domain.PaymentAttempt, error)

	// GetByExternalTxnID retrieves a payment attempt by its external
	// transaction ID. Returns nil if no attempt exists with the given ID.
	GetByExternalTxnID(ctx context.Context, txnID string) (*domain.PaymentAttempt, error)

	// GetByReservationID retrieves the most recent payment attempt for a
	// reservation. Returns nil if the reservation has no attempts.
	GetByReservationID(ctx context.Context, reservationID string) (*domain.PaymentAttempt, error)

	// Settle records the final outcome of a pending attempt.
	Settle(ctx context.Context, id string, status domain.PaymentStatus, reason string) error
}
