package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"busbook/internal/domain"
	"busbook/internal/redis"
	"busbook/internal/repository"
)

const defaultSweepBatchSize = 100

// CoordinatorConfig holds tunables for the reservation coordinator.
type CoordinatorConfig struct {
	HoldTTL        time.Duration // How long an unpaid reservation keeps its seats
	SweepBatchSize int           // Max reservations expired per sweep pass
}

// DefaultCoordinatorConfig returns the default coordinator configuration.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		HoldTTL:        15 * time.Minute,
		SweepBatchSize: defaultSweepBatchSize,
	}
}

// Coordinator is the single entry point for seat allocation. It composes
// the capacity ledger's hold with reservation creation so that no caller
// ever observes a half-updated capacity state, and it owns the guarded
// reservation state transitions for cancellation and expiry.
type Coordinator struct {
	tripRepo        repository.TripRepository
	reservationRepo repository.ReservationRepository
	capacityRepo    repository.CapacityRepository
	cache           redis.AvailabilityCache // optional
	notifier        *NotificationService    // optional
	guard           *ledgerGuard
	logger          *logrus.Logger
	config          CoordinatorConfig
}

// NewCoordinator creates a new Coordinator. cache and notifier may be nil.
func NewCoordinator(
	tripRepo repository.TripRepository,
	reservationRepo repository.ReservationRepository,
	capacityRepo repository.CapacityRepository,
	cache redis.AvailabilityCache,
	notifier *NotificationService,
	logger *logrus.Logger,
	config CoordinatorConfig,
) *Coordinator {
	if logger == nil {
		logger = logrus.New()
	}
	if config.HoldTTL <= 0 {
		config.HoldTTL = DefaultCoordinatorConfig().HoldTTL
	}
	if config.SweepBatchSize <= 0 {
		config.SweepBatchSize = defaultSweepBatchSize
	}
	return &Coordinator{
		tripRepo:        tripRepo,
		reservationRepo: reservationRepo,
		capacityRepo:    capacityRepo,
		cache:           cache,
		notifier:        notifier,
		guard:           newLedgerGuard(logger),
		logger:          logger,
		config:          config,
	}
}

// ReserveRequest contains the parameters for reserving seats.
type ReserveRequest struct {
	TripID     string
	CustomerID string
	Quantity   int
}

// Reserve attempts to hold seats on a trip and create the backing
// reservation. The ledger's TryHold is the only capacity check: it debits
// held atomically, so a rejected request never creates a reservation and a
// successful one can never oversell.
func (s *Coordinator) Reserve(ctx context.Context, req ReserveRequest) (*domain.Reservation, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}

	if req.CustomerID == "" {
		return nil, ErrInvalidCustomerID
	}

	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	if err := s.guard.check(req.TripID); err != nil {
		return nil, err
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Withdrawn upstream.
			return nil, ErrTripClosed
		}
		return nil, err
	}

	if trip.Departed(time.Now()) {
		return nil, ErrTripClosed
	}

	// Atomic check-and-debit. Fails closed on insufficient capacity.
	if err := s.capacityRepo.TryHold(ctx, req.TripID, req.Quantity); err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientCapacity):
			return nil, ErrInsufficientCapacity
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrTripClosed
		}
		return nil, err
	}

	now := time.Now()
	reservation := &domain.Reservation{
		ID:         uuid.New().String(),
		TripID:     req.TripID,
		CustomerID: req.CustomerID,
		Quantity:   req.Quantity,
		Status:     domain.ReservationStatusPendingPayment,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.config.HoldTTL),
	}

	if err := s.reservationRepo.Create(ctx, reservation); err != nil {
		// Compensate: the hold exists but no reservation backs it.
		s.release(ctx, req.TripID, req.Quantity)
		return nil, err
	}

	s.invalidateAvailability(ctx, req.TripID)

	if s.notifier != nil {
		_ = s.notifier.NotifyReservationCreated(ctx, reservation)
	}

	return reservation, nil
}

// Cancel transitions a PendingPayment reservation to Cancelled and returns
// its seats to the sellable pool. Only legal from PendingPayment.
func (s *Coordinator) Cancel(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	if reservationID == "" {
		return nil, ErrInvalidReservationID
	}

	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	if err := s.guard.check(reservation.TripID); err != nil {
		return nil, err
	}

	err = s.reservationRepo.UpdateStatusIf(ctx, reservationID,
		domain.ReservationStatusPendingPayment, domain.ReservationStatusCancelled)
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, ErrReservationNotPending
		}
		return nil, err
	}

	s.release(ctx, reservation.TripID, reservation.Quantity)
	s.invalidateAvailability(ctx, reservation.TripID)

	reservation.Status = domain.ReservationStatusCancelled
	return reservation, nil
}

// SweepExpired expires PendingPayment reservations whose deadline has
// elapsed and releases their holds. Safe to run concurrently with payment
// settlement: the guarded transition drops this sweep's claim on any
// reservation that was paid or cancelled in the meantime. Returns the
// number of reservations expired.
func (s *Coordinator) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.reservationRepo.ListExpiredPending(ctx, time.Now(), s.config.SweepBatchSize)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, reservation := range expired {
		if err := s.guard.check(reservation.TripID); err != nil {
			continue
		}

		err := s.reservationRepo.UpdateStatusIf(ctx, reservation.ID,
			domain.ReservationStatusPendingPayment, domain.ReservationStatusExpired)
		if err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				// Someone else already resolved this reservation.
				continue
			}
			return count, err
		}

		s.release(ctx, reservation.TripID, reservation.Quantity)
		s.invalidateAvailability(ctx, reservation.TripID)
		count++

		if s.notifier != nil {
			_ = s.notifier.NotifyReservationExpired(ctx, reservation)
		}
	}

	return count, nil
}

// Available returns the number of seats still sellable on a trip, consulting
// the cache first when one is configured.
func (s *Coordinator) Available(ctx context.Context, tripID string) (int, error) {
	if tripID == "" {
		return 0, ErrInvalidTripID
	}

	if s.cache != nil {
		if available, ok, err := s.cache.GetAvailability(ctx, tripID); err == nil && ok {
			return available, nil
		}
	}

	available, err := s.capacityRepo.Available(ctx, tripID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		_ = s.cache.SetAvailability(ctx, tripID, available)
	}

	return available, nil
}

// GetReservation retrieves a reservation by ID.
func (s *Coordinator) GetReservation(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	if reservationID == "" {
		return nil, ErrInvalidReservationID
	}

	return s.reservationRepo.GetByID(ctx, reservationID)
}

// CustomerReservations retrieves a customer's reservation history, newest first.
func (s *Coordinator) CustomerReservations(ctx context.Context, customerID string) ([]*domain.Reservation, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}

	return s.reservationRepo.GetByCustomerID(ctx, customerID)
}

// TripQuarantined reports whether a trip's ledger has been frozen.
func (s *Coordinator) TripQuarantined(tripID string) bool {
	return s.guard.Quarantined(tripID)
}

// commit moves a reservation's hold to committed on behalf of the payment
// reconciler. A ledger violation here quarantines the trip.
func (s *Coordinator) commit(ctx context.Context, tripID string, qty int) error {
	err := s.capacityRepo.CommitHold(ctx, tripID, qty)
	if err != nil {
		if errors.Is(err, repository.ErrLedgerViolation) {
			s.guard.quarantine(tripID, err)
		}
		return err
	}

	s.invalidateAvailability(ctx, tripID)
	return nil
}

// release returns qty held seats to the pool, quarantining the trip if the
// ledger refuses (releasing more than is held is a programming error, never
// a user condition).
func (s *Coordinator) release(ctx context.Context, tripID string, qty int) {
	if err := s.capacityRepo.ReleaseHold(ctx, tripID, qty); err != nil {
		if errors.Is(err, repository.ErrLedgerViolation) {
			s.guard.quarantine(tripID, err)
			return
		}
		s.logger.WithFields(logrus.Fields{
			"trip_id": tripID,
			"qty":     qty,
		}).WithError(err).Error("failed to release seat hold")
	}
}

func (s *Coordinator) invalidateAvailability(ctx context.Context, tripID string) {
	if s.cache != nil {
		_ = s.cache.InvalidateAvailability(ctx, tripID)
	}
}
