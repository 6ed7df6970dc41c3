package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInsufficientCapacity is returned by TryHold when fewer seats are
	// available than requested. The ledger entry is left untouched.
	ErrInsufficientCapacity = errors.New("insufficient capacity")

	// ErrStaleState is returned by guarded status updates when the current
	// status no longer matches the expected prior status.
	ErrStaleState = errors.New("stale reservation state")

	// ErrLedgerViolation is returned when a commit or release would drive a
	// ledger counter negative. It indicates a broken invariant, not a
	// recoverable business condition.
	ErrLedgerViolation = errors.New("capacity ledger invariant violation")

	// ErrDuplicateTxn is returned when a payment attempt with the same
	// external transaction ID already exists.
	ErrDuplicateTxn = errors.New("duplicate external transaction id")
)
