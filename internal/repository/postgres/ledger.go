package postgres

import (
	"context"
	"database/sql"
	"errors"

	"busbook/internal/domain"
	"busbook/internal/repository"
)

// CapacityRepository is a PostgreSQL implementation of
// repository.CapacityRepository.
//
// All mutations are single-row conditional UPDATEs. Postgres serializes
// writers on the row lock for the trip's entry, so hold/commit/release are
// atomic per trip without any application-level lock, and trips never
// contend with each other.
type CapacityRepository struct {
	q Querier
}

// NewCapacityRepository creates a new PostgreSQL capacity repository.
func NewCapacityRepository(db *sql.DB) *CapacityRepository {
	return &CapacityRepository{q: db}
}

// NewCapacityRepositoryWithTx creates a capacity repository using a transaction.
func NewCapacityRepositoryWithTx(tx *sql.Tx) *CapacityRepository {
	return &CapacityRepository{q: tx}
}

// Init creates the ledger entry for a trip.
func (r *CapacityRepository) Init(ctx context.Context, tripID string, total int) error {
	query := `
		INSERT INTO trip_capacity (trip_id, total, committed, held)
		VALUES ($1, $2, 0, 0)
	`

	_, err := r.q.ExecContext(ctx, query, tripID, total)
	return err
}

// Get retrieves the ledger entry for a trip.
func (r *CapacityRepository) Get(ctx context.Context, tripID string) (*domain.CapacityEntry, error) {
	query := `SELECT trip_id, total, committed, held FROM trip_capacity WHERE trip_id = $1`

	var entry domain.CapacityEntry
	err := r.q.QueryRowContext(ctx, query, tripID).Scan(
		&entry.TripID,
		&entry.Total,
		&entry.Committed,
		&entry.Held,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &entry, nil
}

// Available returns the number of seats still sellable for the trip.
func (r *CapacityRepository) Available(ctx context.Context, tripID string) (int, error) {
	query := `SELECT total - committed - held FROM trip_capacity WHERE trip_id = $1`

	var available int
	err := r.q.QueryRowContext(ctx, query, tripID).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}

	return available, nil
}

// TryHold moves qty seats into held if enough are available. The WHERE
// clause makes the check-then-debit a single atomic step: zero rows
// affected means the hold failed closed.
func (r *CapacityRepository) TryHold(ctx context.Context, tripID string, qty int) error {
	query := `
		UPDATE trip_capacity
		SET held = held + $2
		WHERE trip_id = $1 AND committed + held + $2 <= total
	`

	return r.guardedUpdate(ctx, tripID, query, qty, repository.ErrInsufficientCapacity)
}

// CommitHold moves qty seats from held to committed.
func (r *CapacityRepository) CommitHold(ctx context.Context, tripID string, qty int) error {
	query := `
		UPDATE trip_capacity
		SET held = held - $2, committed = committed + $2
		WHERE trip_id = $1 AND held >= $2
	`

	return r.guardedUpdate(ctx, tripID, query, qty, repository.ErrLedgerViolation)
}

// ReleaseHold removes qty seats from held, returning them to the sellable pool.
func (r *CapacityRepository) ReleaseHold(ctx context.Context, tripID string, qty int) error {
	query := `
		UPDATE trip_capacity
		SET held = held - $2
		WHERE trip_id = $1 AND held >= $2
	`

	return r.guardedUpdate(ctx, tripID, query, qty, repository.ErrLedgerViolation)
}

// guardedUpdate runs a conditional counter update and maps "no row matched"
// to either noMatch (guard failed) or ErrNotFound (no such trip).
func (r *CapacityRepository) guardedUpdate(ctx context.Context, tripID, query string, qty int, noMatch error) error {
	result, err := r.q.ExecContext(ctx, query, tripID, qty)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		if _, err := r.Get(ctx, tripID); err != nil {
			return err
		}
		return noMatch
	}

	return nil
}
