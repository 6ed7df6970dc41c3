package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"busbook/internal/domain"
	"busbook/internal/repository"
)

// Reconciler binds external payment attempts to reservations, enforcing
// idempotent settlement: one external transaction ID settles exactly once,
// and money is never applied to a seat that is no longer held.
type Reconciler struct {
	coordinator     *Coordinator
	tripRepo        repository.TripRepository
	reservationRepo repository.ReservationRepository
	paymentRepo     repository.PaymentRepository
	notifier        *NotificationService // optional
	logger          *logrus.Logger
}

// NewReconciler creates a new Reconciler. notifier may be nil.
func NewReconciler(
	coordinator *Coordinator,
	tripRepo repository.TripRepository,
	reservationRepo repository.ReservationRepository,
	paymentRepo repository.PaymentRepository,
	notifier *NotificationService,
	logger *logrus.Logger,
) *Reconciler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Reconciler{
		coordinator:     coordinator,
		tripRepo:        tripRepo,
		reservationRepo: reservationRepo,
		paymentRepo:     paymentRepo,
		notifier:        notifier,
		logger:          logger,
	}
}

// SettleRequest contains the parameters for settling a payment attempt.
type SettleRequest struct {
	ReservationID string
	ExternalTxnID string
	Method        domain.PaymentMethod
	Outcome       domain.PaymentStatus // Succeeded or Failed
	FailureReason string               // gateway-supplied, for failed outcomes
}

// SettleResult is the acknowledgment returned to the payment gateway.
type SettleResult struct {
	Attempt        *domain.PaymentAttempt
	AlreadySettled bool
}

// Settle records the final outcome of a payment attempt against a
// reservation. Duplicate gateway callbacks (same external transaction ID)
// return the prior result without touching the ledger. On Succeeded the
// reservation's payment-succeeds transition runs exactly once; if the
// reservation is no longer PendingPayment the payment is recorded as Failed
// and rejected with ErrReservationNotPending.
func (s *Reconciler) Settle(ctx context.Context, req SettleRequest) (*SettleResult, error) {
	if req.ReservationID == "" {
		return nil, ErrInvalidReservationID
	}

	if req.ExternalTxnID == "" {
		return nil, ErrInvalidTxnID
	}

	if !domain.ValidPaymentMethod(req.Method) {
		return nil, ErrInvalidPaymentMethod
	}

	if req.Outcome != domain.PaymentStatusSucceeded && req.Outcome != domain.PaymentStatusFailed {
		return nil, ErrInvalidOutcome
	}

	// Idempotency: a replayed transaction ID returns the prior outcome.
	existing, err := s.paymentRepo.GetByExternalTxnID(ctx, req.ExternalTxnID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.ReservationID != req.ReservationID {
			return nil, ErrTxnConflict
		}
		if existing.Status != domain.PaymentStatusPending {
			return &SettleResult{Attempt: existing, AlreadySettled: true}, nil
		}
		// A prior call crashed between recording and settling; resume with
		// the recorded attempt.
		return s.settleAttempt(ctx, existing, req)
	}

	reservation, err := s.reservationRepo.GetByID(ctx, req.ReservationID)
	if err != nil {
		return nil, err
	}

	trip, err := s.tripRepo.GetByID(ctx, reservation.TripID)
	if err != nil {
		return nil, err
	}

	attempt := &domain.PaymentAttempt{
		ID:            uuid.New().String(),
		ReservationID: reservation.ID,
		ExternalTxnID: req.ExternalTxnID,
		Method:        req.Method,
		Status:        domain.PaymentStatusPending,
		Amount:        float64(reservation.Quantity) * trip.Price,
		CreatedAt:     time.Now(),
	}

	if err := s.paymentRepo.Create(ctx, attempt); err != nil {
		if errors.Is(err, repository.ErrDuplicateTxn) {
			// Lost a race with a concurrent duplicate callback.
			prior, getErr := s.paymentRepo.GetByExternalTxnID(ctx, req.ExternalTxnID)
			if getErr != nil {
				return nil, getErr
			}
			if prior != nil && prior.ReservationID == req.ReservationID {
				return &SettleResult{Attempt: prior, AlreadySettled: true}, nil
			}
			return nil, ErrTxnConflict
		}
		return nil, err
	}

	return s.settleAttempt(ctx, attempt, req)
}

// GetPayment retrieves a payment attempt by ID.
func (s *Reconciler) GetPayment(ctx context.Context, paymentID string) (*domain.PaymentAttempt, error) {
	if paymentID == "" {
		return nil, ErrInvalidPaymentID
	}

	return s.paymentRepo.GetByID(ctx, paymentID)
}

// settleAttempt drives a Pending attempt to its terminal status, running the
// reservation's payment transition when the gateway reported success.
func (s *Reconciler) settleAttempt(ctx context.Context, attempt *domain.PaymentAttempt, req SettleRequest) (*SettleResult, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, attempt.ReservationID)
	if err != nil {
		return nil, err
	}

	if reservation.Status.Terminal() {
		// Arrived too late: the reservation was already resolved and the
		// seats are no longer held for this payment.
		reason := "reservation already " + string(reservation.Status)
		if err := s.paymentRepo.Settle(ctx, attempt.ID, domain.PaymentStatusFailed, reason); err != nil {
			return nil, err
		}
		attempt.Status = domain.PaymentStatusFailed
		attempt.FailureReason = reason
		return &SettleResult{Attempt: attempt}, ErrReservationNotPending
	}

	if req.Outcome == domain.PaymentStatusFailed {
		// Payment failed: the reservation stays PendingPayment and keeps its
		// hold; the customer may retry until the deadline.
		reason := req.FailureReason
		if reason == "" {
			reason = "payment gateway reported failure"
		}
		if err := s.paymentRepo.Settle(ctx, attempt.ID, domain.PaymentStatusFailed, reason); err != nil {
			return nil, err
		}
		attempt.Status = domain.PaymentStatusFailed
		attempt.FailureReason = reason

		if s.notifier != nil {
			_ = s.notifier.NotifyPaymentFailed(ctx, attempt, reservation.CustomerID)
		}
		return &SettleResult{Attempt: attempt}, nil
	}

	// Exactly-once payment-succeeds transition. If the sweep or a
	// cancellation won the race, the seats are gone: record the money as
	// not applied.
	err = s.reservationRepo.UpdateStatusIf(ctx, reservation.ID,
		domain.ReservationStatusPendingPayment, domain.ReservationStatusPaid)
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			reason := "reservation no longer pending payment"
			if settleErr := s.paymentRepo.Settle(ctx, attempt.ID, domain.PaymentStatusFailed, reason); settleErr != nil {
				return nil, settleErr
			}
			attempt.Status = domain.PaymentStatusFailed
			attempt.FailureReason = reason
			return &SettleResult{Attempt: attempt}, ErrReservationNotPending
		}
		return nil, err
	}

	if err := s.coordinator.commit(ctx, reservation.TripID, reservation.Quantity); err != nil {
		// The reservation is Paid; a commit failure is a ledger fault, not a
		// payment failure. The guard has frozen the trip for the operator.
		s.logger.WithFields(logrus.Fields{
			"reservation_id": reservation.ID,
			"trip_id":        reservation.TripID,
		}).WithError(err).Error("hold commit failed after successful payment")
	}

	if err := s.paymentRepo.Settle(ctx, attempt.ID, domain.PaymentStatusSucceeded, ""); err != nil {
		return nil, err
	}
	attempt.Status = domain.PaymentStatusSucceeded

	if s.notifier != nil {
		_ = s.notifier.NotifyPaymentSucceeded(ctx, attempt, reservation.CustomerID)
	}

	return &SettleResult{Attempt: attempt}, nil
}
