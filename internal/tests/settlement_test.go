package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"busbook/internal/domain"
	"busbook/internal/service"
)

// ──────────────────────────────────────────────
// 7. PAYMENT SETTLEMENT
// ──────────────────────────────────────────────

// settleFixture extends testFixture with a payment repository and Reconciler.
type settleFixture struct {
	*testFixture
	paymentRepo *MockPaymentRepository
	reconciler  *service.Reconciler
}

func newSettleFixture(holdTTL time.Duration) *settleFixture {
	base := newTestFixture(holdTTL)
	f := &settleFixture{
		testFixture: base,
		paymentRepo: NewMockPaymentRepository(),
	}
	f.reconciler = service.NewReconciler(
		base.coordinator, base.tripRepo, base.reservationRepo, f.paymentRepo, nil, newTestLogger(),
	)
	return f
}

// reserve creates a pending reservation for qty seats on trip-1.
func (f *settleFixture) reserve(t *testing.T, customerID string, qty int) *domain.Reservation {
	t.Helper()
	reservation, err := f.coordinator.Reserve(context.Background(), service.ReserveRequest{
		TripID:     "trip-1",
		CustomerID: customerID,
		Quantity:   qty,
	})
	if err != nil {
		t.Fatalf("failed to reserve: %v", err)
	}
	return reservation
}

func TestSettle_SucceededPaymentCommitsSeats(t *testing.T) {
	t.Parallel()

	f := newSettleFixture(15 * time.Minute)
	f.addTrip(t, "trip-1", 40)
	reservation := f.reserve(t, "cust-1", 2)

	result, err := f.reconciler.Settle(context.Background(), service.SettleRequest{
		ReservationID: reservation.ID,
		ExternalTxnID: "txn-1",
		Method:        domain.PaymentMethodCard,
		Outcome:       domain.PaymentStatusSucceeded,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Attempt.Status != domain.PaymentStatusSucceeded {
		t.Errorf("expected SUCCEEDED attempt, got %s", result.Attempt.Status)
	}
	// Amount is quantity times the trip price.
	if result.Attempt.Amount != 2*150000 {
		t.Errorf("expected amount 300000, got %f", result.Attempt.Amount)
	}

	stored := f.reservationRepo.GetReservation(reservation.ID)
	if stored.Status != domain.ReservationStatusPaid {
		t.Errorf("expected PAID, got %s", stored.Status)
	}

	entry := f.capacityRepo.Entry("trip-1")
	if entry.Committed != 2 || entry.Held != 0 {
		t.Errorf("expected committed=2 held=0, got committed=%d held=%d", entry.Committed, entry.Held)
	}
}

func TestSettle_ReplayedTxnReturnsPriorResult(t *testing.T) {
	t.Parallel()

	f := newSettleFixture(15 * time.Minute)
	f.addTrip(t, "trip-1", 40)
	reservation := f.reserve(t, "cust-1", 2)

	req := service.SettleRequest{
		ReservationID: reservation.ID,
		ExternalTxnID: "txn-replay",
		Method:        domain.PaymentMethodBankTransfer,
		Outcome:       domain.PaymentStatusSucceeded,
	}

	first, err := f.reconciler.Settle(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := f.reconciler.Settle(context.Background(), req)
	if err != nil {
		t.Fatalf("replay must not error: %v", err)
	}
	if !second.AlreadySettled {
		t.Error("replay should be acknowledged as already settled")
	}
	if second.Attempt.ID != first.Attempt.ID {
		t.Error("replay should return the original attempt")
	}

	// The ledger moved exactly once.
	entry := f.capacityRepo.Entry("trip-1")
	if entry.Committed != 2 {
		t.Errorf("expected committed=2 after replay, got %d", entry.Committed)
	}
	if f.paymentRepo.CountAttempts() != 1 {
		t.Errorf("expected 1 attempt, got %d", f.paymentRepo.CountAttempts())
	}
}

func TestSettle_TxnIDBoundToOtherReservationConflicts(t *testing.T) {
	t.Parallel()

	f := newSettleFixture(15 * time.Minute)
	f.addTrip(t, "trip-1", 40)
	first := f.reserve(t, "cust-1", 1)
	second := f.reserve(t, "cust-2", 1)

	if _, err := f.reconciler.Settle(context.Background(), service.SettleRequest{
		ReservationID: first.ID,
		ExternalTxnID: "txn-shared",
		Method:        domain.PaymentMethodCash,
		Outcome:       domain.PaymentStatusSucceeded,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.reconciler.Settle(context.Background(), service.SettleRequest{
		ReservationID: second.ID,
		ExternalTxnID: "txn-shared",
		Method:        domain.PaymentMethodCash,
		Outcome:       domain.PaymentStatusSucceeded,
	})
	if !errors.Is(err, service.ErrTxnConflict) {
		t.Errorf("expected ErrTxnConflict, got %v", err)
	}
}

func TestSettle_FailedPaymentKeepsHold(t *testing.T) {
	t.Parallel()

	f := newSettleFixture(15 * time.Minute)
	f.addTrip(t, "trip-1", 40)
	reservation := f.reserve(t, "cust-1", 3)

	result, err := f.reconciler.Settle(context.Background(), service.SettleRequest{
		ReservationID: reservation.ID,
		ExternalTxnID: "txn-fail",
		Method:        domain.PaymentMethodCard,
		Outcome:       domain.PaymentStatusFailed,
		FailureReason: "card declined",
	})
	if err != nil {
		t.Fatalf("a failed payment is a normal outcome: %v", err)
	}
	if result.Attempt.Status != domain.PaymentStatusFailed {
		t.Errorf("expected FAILED, got %s", result.Attempt.Status)
	}
	if result.Attempt.FailureReason != "card declined" {
		t.Errorf("expected gateway reason, got %q", result.Attempt.FailureReason)
	}

	// The reservation stays pending with its hold so the customer can retry.
	stored := f.reservationRepo.GetReservation(reservation.ID)
	if stored.Status != domain.ReservationStatusPendingPayment {
		t.Errorf("expected PENDING_PAYMENT, got %s", stored.Status)
	}
	entry := f.capacityRepo.Entry("trip-1")
	if entry.Held != 3 || entry.Committed != 0 {
		t.Errorf("expected held=3 committed=0, got held=%d committed=%d", entry.Held, entry.Committed)
	}

	// A retry with a fresh transaction ID succeeds.
	retry, err := f.reconciler.Settle(context.Background(), service.SettleRequest{
		ReservationID: reservation.ID,
		ExternalTxnID: "txn-retry",
		Method:        domain.PaymentMethodCard,
		Outcome:       domain.PaymentStatusSucceeded,
	})
	if err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	if retry.Attempt.Status != domain.PaymentStatusSucceeded {
		t.Errorf("expected SUCCEEDED, got %s", retry.Attempt.Status)
	}
	entry = f.capacityRepo.Entry("trip-1")
	if entry.Committed != 3 || entry.Held != 0 {
		t.Errorf("expected committed=3 held=0, got committed=%d held=%d", entry.Committed, entry.Held)
	}
}

func TestSettle_LateSettlementOnResolvedReservation(t *testing.T) {
	t.Parallel()

	f := newSettleFixture(15 * time.Minute)
	f.addTrip(t, "trip-1", 40)
	reservation := f.reserve(t, "cust-1", 2)

	if _, err := f.coordinator.Cancel(context.Background(), reservation.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := f.reconciler.Settle(context.Background(), service.SettleRequest{
		ReservationID: reservation.ID,
		ExternalTxnID: "txn-late",
		Method:        domain.PaymentMethodBankTransfer,
		Outcome:       domain.PaymentStatusSucceeded,
	})
	if !errors.Is(err, service.ErrReservationNotPending) {
		t.Fatalf("expected ErrReservationNotPending, got %v", err)
	}
	// The money is recorded so the operator can refund it.
	if result == nil || result.Attempt.Status != domain.PaymentStatusFailed {
		t.Fatal("late settlement must be recorded as a failed attempt")
	}

	// The cancelled seats stay released.
	entry := f.capacityRepo.Entry("trip-1")
	if entry.Committed != 0 || entry.Held != 0 {
		t.Errorf("ledger must be untouched, committed=%d held=%d", entry.Committed, entry.Held)
	}
}

// ──────────────────────────────────────────────
// 8. SETTLEMENT VS EXPIRY RACE
// ──────────────────────────────────────────────

func TestSettle_RacesSweepToExactlyOneTerminalState(t *testing.T) {
	t.Parallel()

	// Run the race enough times to give both sides a chance to win.
	for i := 0; i < 20; i++ {
		f := newSettleFixture(time.Millisecond)
		f.addTrip(t, "trip-1", 10)
		reservation := f.reserve(t, "cust-1", 2)

		// Let the hold deadline pass so the sweep will claim it.
		time.Sleep(2 * time.Millisecond)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.reconciler.Settle(context.Background(), service.SettleRequest{
				ReservationID: reservation.ID,
				ExternalTxnID: "txn-race",
				Method:        domain.PaymentMethodCard,
				Outcome:       domain.PaymentStatusSucceeded,
			})
		}()
		go func() {
			defer wg.Done()
			_, _ = f.coordinator.SweepExpired(context.Background())
		}()
		wg.Wait()

		stored := f.reservationRepo.GetReservation(reservation.ID)
		entry := f.capacityRepo.Entry("trip-1")

		switch stored.Status {
		case domain.ReservationStatusPaid:
			if entry.Committed != 2 || entry.Held != 0 {
				t.Fatalf("paid winner: expected committed=2 held=0, got committed=%d held=%d", entry.Committed, entry.Held)
			}
		case domain.ReservationStatusExpired:
			if entry.Committed != 0 || entry.Held != 0 {
				t.Fatalf("expired winner: expected committed=0 held=0, got committed=%d held=%d", entry.Committed, entry.Held)
			}
		default:
			t.Fatalf("reservation must be terminal, got %s", stored.Status)
		}

		if f.coordinator.TripQuarantined("trip-1") {
			t.Fatal("a clean race must never quarantine the trip")
		}
	}
}

func TestSettle_ValidatesInput(t *testing.T) {
	t.Parallel()

	f := newSettleFixture(15 * time.Minute)

	cases := []struct {
		name    string
		req     service.SettleRequest
		wantErr error
	}{
		{"missing reservation", service.SettleRequest{ExternalTxnID: "t", Method: domain.PaymentMethodCash, Outcome: domain.PaymentStatusSucceeded}, service.ErrInvalidReservationID},
		{"missing txn id", service.SettleRequest{ReservationID: "r", Method: domain.PaymentMethodCash, Outcome: domain.PaymentStatusSucceeded}, service.ErrInvalidTxnID},
		{"bad method", service.SettleRequest{ReservationID: "r", ExternalTxnID: "t", Method: "IOU", Outcome: domain.PaymentStatusSucceeded}, service.ErrInvalidPaymentMethod},
		{"bad outcome", service.SettleRequest{ReservationID: "r", ExternalTxnID: "t", Method: domain.PaymentMethodCash, Outcome: domain.PaymentStatusPending}, service.ErrInvalidOutcome},
	}

	for _, tc := range cases {
		_, err := f.reconciler.Settle(context.Background(), tc.req)
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}
