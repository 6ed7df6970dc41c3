package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"busbook/internal/domain"
	"busbook/internal/repository"
)

// pgUniqueViolation is the Postgres error code for unique-constraint violations.
const pgUniqueViolation = "23505"

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

// Create persists a new payment attempt. The unique index on
// external_txn_id is the idempotency guard: a duplicate gateway callback
// surfaces as ErrDuplicateTxn instead of a second row.
func (r *PaymentRepository) Create(ctx context.Context, attempt *domain.PaymentAttempt) error {
	query := `
		INSERT INTO payment_attempts
			(id, reservation_id, external_txn_id, method, status, amount, failure_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		attempt.ID,
		attempt.ReservationID,
		attempt.ExternalTxnID,
		attempt.Method,
		attempt.Status,
		attempt.Amount,
		attempt.FailureReason,
		attempt.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return repository.ErrDuplicateTxn
		}
		return err
	}

	return nil
}

// GetByID retrieves a payment attempt by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.PaymentAttempt, error) {
	query := selectPayment + ` WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetByExternalTxnID retrieves a payment attempt by its external transaction
// ID. Returns nil if no attempt exists with the given ID.
func (r *PaymentRepository) GetByExternalTxnID(ctx context.Context, txnID string) (*domain.PaymentAttempt, error) {
	query := selectPayment + ` WHERE external_txn_id = $1`

	attempt, err := r.scanOne(ctx, query, txnID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return attempt, err
}

// GetByReservationID retrieves the most recent payment attempt for a
// reservation. Returns nil if the reservation has no attempts.
func (r *PaymentRepository) GetByReservationID(ctx context.Context, reservationID string) (*domain.PaymentAttempt, error) {
	query := selectPayment + ` WHERE reservation_id = $1 ORDER BY created_at DESC LIMIT 1`

	attempt, err := r.scanOne(ctx, query, reservationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return attempt, err
}

// Settle records the final outcome of a pending attempt. Settled attempts
// are immutable: the status guard refuses to touch a terminal row.
func (r *PaymentRepository) Settle(ctx context.Context, id string, status domain.PaymentStatus, reason string) error {
	query := `
		UPDATE payment_attempts
		SET status = $1, failure_reason = $2, settled_at = NOW()
		WHERE id = $3 AND status = $4
	`

	result, err := r.q.ExecContext(ctx, query, status, reason, id, domain.PaymentStatusPending)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

const selectPayment = `
	SELECT id, reservation_id, external_txn_id, method, status, amount,
	       failure_reason, created_at, COALESCE(settled_at, created_at)
	FROM payment_attempts`

func (r *PaymentRepository) scanOne(ctx context.Context, query string, arg any) (*domain.PaymentAttempt, error) {
	var attempt domain.PaymentAttempt
	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&attempt.ID,
		&attempt.ReservationID,
		&attempt.ExternalTxnID,
		&attempt.Method,
		&attempt.Status,
		&attempt.Amount,
		&attempt.FailureReason,
		&attempt.CreatedAt,
		&attempt.SettledAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &attempt, nil
}
