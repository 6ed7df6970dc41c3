package tests

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"busbook/internal/domain"
	"busbook/internal/service"
)

// ──────────────────────────────────────────────
// 1. RESERVATION CREATION
// ──────────────────────────────────────────────

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// testFixture bundles the mocks behind a wired Coordinator.
type testFixture struct {
	tripRepo        *MockTripRepository
	reservationRepo *MockReservationRepository
	capacityRepo    *MockCapacityRepository
	cache           *MockAvailabilityCache
	coordinator     *service.Coordinator
}

func newTestFixture(holdTTL time.Duration) *testFixture {
	f := &testFixture{
		tripRepo:        NewMockTripRepository(),
		reservationRepo: NewMockReservationRepository(),
		capacityRepo:    NewMockCapacityRepository(),
		cache:           NewMockAvailabilityCache(),
	}
	f.coordinator = service.NewCoordinator(
		f.tripRepo, f.reservationRepo, f.capacityRepo, f.cache, nil, newTestLogger(),
		service.CoordinatorConfig{HoldTTL: holdTTL, SweepBatchSize: 100},
	)
	return f
}

// addTrip registers a future trip and its ledger entry with the given capacity.
func (f *testFixture) addTrip(t *testing.T, tripID string, capacity int) {
	t.Helper()
	f.tripRepo.AddTrip(&domain.Trip{
		ID:          tripID,
		RouteID:     "route-1",
		VehicleID:   "vehicle-1",
		DepartureAt: time.Now().Add(24 * time.Hour),
		ArrivalAt:   time.Now().Add(28 * time.Hour),
		Capacity:    capacity,
		Price:       150000,
	})
	if err := f.capacityRepo.Init(context.Background(), tripID, capacity); err != nil {
		t.Fatalf("failed to init ledger: %v", err)
	}
}

func TestReserve_ValidatesInput(t *testing.T) {
	t.Parallel()

	f := newTestFixture(15 * time.Minute)
	f.addTrip(t, "trip-1", 40)

	cases := []struct {
		name    string
		req     service.ReserveRequest
		wantErr error
	}{
		{"missing trip", service.ReserveRequest{CustomerID: "cust-1", Quantity: 1}, service.ErrInvalidTripID},
		{"missing customer", service.ReserveRequest{TripID: "trip-1", Quantity: 1}, service.ErrInvalidCustomerID},
		{"zero quantity", service.ReserveRequest{TripID: "trip-1", CustomerID: "cust-1"}, service.ErrInvalidQuantity},
		{"negative quantity", service.ReserveRequest{TripID: "trip-1", CustomerID: "cust-1", Quantity: -3}, service.ErrInvalidQuantity},
	}

	for _, tc := range cases {
		_, err := f.coordinator.Reserve(context.Background(), tc.req)
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}

	// Nothing should have touched the ledger.
	if f.capacityRepo.TryHoldCallCount != 0 {
		t.Error("validation failures must not reach the ledger")
	}
}

func TestReserve_CreatesPendingReservationAndHold(t *testing.T) {
	t.Parallel()

	f := newTestFixture(15 * time.Minute)
	f.addTrip(t, "trip-1", 40)

	before := time.Now()
	reservation, err := f.coordinator.Reserve(context.Background(), service.ReserveRequest{
		TripID:     "trip-1",
		CustomerID: "cust-1",
		Quantity:   3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reservation.Status != domain.ReservationStatusPendingPayment {
		t.Errorf("expected PENDING_PAYMENT, got %s", reservation.Status)
	}
	if reservation.Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", reservation.Quantity)
	}
	if reservation.ExpiresAt.Before(before.Add(15 * time.Minute)) {
		t.Error("expiry deadline should be at least HoldTTL in the future")
	}

	entry := f.capacityRepo.Entry("trip-1")
	if entry.Held != 3 || entry.Committed != 0 {
		t.Errorf("expected held=3 committed=0, got held=%d committed=%d", entry.Held, entry.Committed)
	}

	available, err := f.coordinator.Available(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if available != 37 {
		t.Errorf("expected 37 seats available, got %d", available)
	}
}

func TestReserve_UnknownTripIsClosed(t *testing.T) {
	t.Parallel()

	f := newTestFixture(15 * time.Minute)

	_, err := f.coordinator.Reserve(context.Background(), service.ReserveRequest{
		TripID:     "no-such-trip",
		CustomerID: "cust-1",
		Quantity:   1,
	})
	if !errors.Is(err, service.ErrTripClosed) {
		t.Errorf("expected ErrTripClosed, got %v", err)
	}
}

func TestReserve_DepartedTripIsClosed(t *testing.T) {
	t.Parallel()

	f := newTestFixture(15 * time.Minute)
	f.tripRepo.AddTrip(&domain.Trip{
		ID:          "trip-gone",
		DepartureAt: time.Now().Add(-time.Hour),
		Capacity:    40,
	})
	_ = f.capacityRepo.Init(context.Background(), "trip-gone", 40)

	_, err := f.coordinator.Reserve(context.Background(), service.ReserveRequest{
		TripID:     "trip-gone",
		CustomerID: "cust-1",
		Quantity:   1,
	})
	if !errors.Is(err, service.ErrTripClosed) {
		t.Errorf("expected ErrTripClosed, got %v", err)
	}
	if f.capacityRepo.TryHoldCallCount != 0 {
		t.Error("departed trip must not reach the ledger")
	}
}

func TestReserve_RejectsWhenCapacityExhausted(t *testing.T) {
	t.Parallel()

	f := newTestFixture(15 * time.Minute)
	f.addTrip(t, "trip-1", 2)

	// Two seats, two requests for 2 and 1.
	_, err := f.coordinator.Reserve(context.Background(), service.ReserveRequest{
		TripID: "trip-1", CustomerID: "cust-1", Quantity: 2,
	})
	if err != nil {
		t.Fatalf("first reservation should succeed: %v", err)
	}

	_, err = f.coordinator.Reserve(context.Background(), service.ReserveRequest{
		TripID: "trip-1", CustomerID: "cust-2", Quantity: 1,
	})
	if !errors.Is(err, service.ErrInsufficientCapacity) {
		t.Errorf("expected ErrInsufficientCapacity, got %v", err)
	}

	// A rejected request never creates a reservation.
	if f.reservationRepo.CountReservations() != 1 {
		t.Errorf("expected 1 reservation, got %d", f.reservationRepo.CountReservations())
	}
}

func TestReserve_CompensatesHoldWhenCreateFails(t *testing.T) {
	t.Parallel()

	f := newTestFixture(15 * time.Minute)
	f.addTrip(t, "trip-1", 40)
	f.reservationRepo.CreateError = errors.New("insert failed")

	_, err := f.coordinator.Reserve(context.Background(), service.ReserveRequest{
		TripID: "trip-1", CustomerID: "cust-1", Quantity: 5,
	})
	if err == nil {
		t.Fatal("expected error")
	}

	// The hold taken before the failed insert must be released.
	entry := f.capacityRepo.Entry("trip-1")
	if entry.Held != 0 {
		t.Errorf("expected held=0 after compensation, got %d", entry.Held)
	}
	if f.capacityRepo.ReleaseHoldCallCount != 1 {
		t.Errorf("expected 1 release call, got %d", f.capacityRepo.ReleaseHoldCallCount)
	}
}

// ──────────────────────────────────────────────
// 2. CONCURRENT RESERVATION (NO OVERSELL)
// ──────────────────────────────────────────────

func TestReserve_ConcurrentRequestsNeverOversell(t *testing.T) {
	t.Parallel()

	const capacity = 10
	const workers = 50

	f := newTestFixture(15 * time.Minute)
	f.addTrip(t, "trip-1", capacity)

	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.coordinator.Reserve(context.Background(), service.ReserveRequest{
				TripID:     "trip-1",
				CustomerID: fmt.Sprintf("cust-%d", n),
				Quantity:   1,
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	rejected := 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, service.ErrInsufficientCapacity):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if succeeded != capacity {
		t.Errorf("expected exactly %d successful reservations, got %d", capacity, succeeded)
	}
	if rejected != workers-capacity {
		t.Errorf("expected %d rejections, got %d", workers-capacity, rejected)
	}

	entry := f.capacityRepo.Entry("trip-1")
	if entry.Held != capacity {
		t.Errorf("expected held=%d, got %d", capacity, entry.Held)
	}
	if entry.Committed+entry.Held > entry.Total {
		t.Errorf("ledger oversold: committed=%d held=%d total=%d", entry.Committed, entry.Held, entry.Total)
	}
}

// ──────────────────────────────────────────────
// 3. CANCELLATION
// ──────────────────────────────────────────────

func TestCancel_ReturnsSeatsToPool(t *testing.T) {
	t.Parallel()

	f := newTestFixture(15 * time.Minute)
	f.addTrip(t, "trip-1", 40)

	reservation, err := f.coordinator.Reserve(context.Background(), service.ReserveRequest{
		TripID: "trip-1", CustomerID: "cust-1", Quantity: 4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, err := f.coordinator.Cancel(context.Background(), reservation.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != domain.ReservationStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}

	available, err := f.coordinator.Available(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if available != 40 {
		t.Errorf("expected 40 seats available after cancel, got %d", available)
	}
}

func TestCancel_RejectsTerminalReservation(t *testing.T) {
	t.Parallel()

	f := newTestFixture(15 * time.Minute)
	f.addTrip(t, "trip-1", 40)

	f.reservationRepo.AddReservation(&domain.Reservation{
		ID:     "res-paid",
		TripID: "trip-1",
		Status: domain.ReservationStatusPaid,
	})

	_, err := f.coordinator.Cancel(context.Background(), "res-paid")
	if !errors.Is(err, service.ErrReservationNotPending) {
		t.Errorf("expected ErrReservationNotPending, got %v", err)
	}
	if f.capacityRepo.ReleaseHoldCallCount != 0 {
		t.Error("cancelling a terminal reservation must not touch the ledger")
	}
}

func TestCancel_IsIdempotentlyRejected(t *testing.T) {
	t.Parallel()

	f := newTestFixture(15 * time.Minute)
	f.addTrip(t, "trip-1", 40)

	reservation, err := f.coordinator.Reserve(context.Background(), service.ReserveRequest{
		TripID: "trip-1", CustomerID: "cust-1", Quantity: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.coordinator.Cancel(context.Background(), reservation.ID); err != nil {
		t.Fatalf("first cancel should succeed: %v", err)
	}

	// Second cancel loses the guarded transition and must not release twice.
	_, err = f.coordinator.Cancel(context.Background(), reservation.ID)
	if !errors.Is(err, service.ErrReservationNotPending) {
		t.Errorf("expected ErrReservationNotPending, got %v", err)
	}
	if f.capacityRepo.ReleaseHoldCallCount != 1 {
		t.Errorf("expected 1 release call, got %d", f.capacityRepo.ReleaseHoldCallCount)
	}
}

// ──────────────────────────────────────────────
// 4. AVAILABILITY CACHE
// ──────────────────────────────────────────────

func TestAvailable_UsesCacheAndInvalidatesOnReserve(t *testing.T) {
	t.Parallel()

	f := newTestFixture(15 * time.Minute)
	f.addTrip(t, "trip-1", 40)

	// First read misses the cache and populates it.
	if _, err := f.coordinator.Available(context.Background(), "trip-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.cache.SetCallCount != 1 {
		t.Errorf("expected 1 cache set, got %d", f.cache.SetCallCount)
	}

	// Reserving must invalidate so the next read sees the new count.
	if _, err := f.coordinator.Reserve(context.Background(), service.ReserveRequest{
		TripID: "trip-1", CustomerID: "cust-1", Quantity: 2,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.cache.InvalidateCallCount == 0 {
		t.Error("expected cache invalidation after reserve")
	}

	available, err := f.coordinator.Available(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if available != 38 {
		t.Errorf("expected 38 after reserve, got %d", available)
	}
}
