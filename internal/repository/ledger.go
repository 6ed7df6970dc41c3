package repository

import (
	"context"

	"busbook/internal/domain"
)

// CapacityRepository defines the per-trip seat ledger. Every mutating
// operation is atomic with respect to the trip's counters: implementations
// must serialize hold, commit and release per trip (single-row conditional
// update or equivalent). Operations on different trips never contend.
type CapacityRepository interface {
	// Init creates the ledger entry for a trip with the given total capacity.
	Init(ctx context.Context, tripID string, total int) error

	// Get retrieves the ledger entry for a trip.
	Get(ctx context.Context, tripID string) (*domain.CapacityEntry, error)

	// Available returns total - committed - held for the trip.
	Available(ctx context.Context, tripID string) (int, error)

	// TryHold moves qty seats into held if available >= qty. Fails closed
	// with ErrInsufficientCapacity, leaving the entry untouched.
	TryHold(ctx context.Context, tripID string, qty int) error

	// CommitHold moves qty seats from held to committed (payment succeeded).
	// Returns ErrLedgerViolation if fewer than qty seats are held.
	CommitHold(ctx context.Context, tripID string, qty int) error

	// ReleaseHold removes qty seats from held, making them sellable again
	// (expiry, cancellation or payment failure). Returns ErrLedgerViolation
	// if fewer than qty seats are held.
	ReleaseHold(ctx context.Context, tripID string, qty int) error
}
