package tests

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"busbook/internal/domain"
	"busbook/internal/service"
)

// ──────────────────────────────────────────────
// 11. E-TICKETS
// ──────────────────────────────────────────────

func newTicketService(f *settleFixture, routeRepo *MockRouteRepository, vehicleRepo *MockVehicleRepository, customerRepo *MockCustomerRepository) *service.TicketService {
	return service.NewTicketService(
		f.reservationRepo, f.tripRepo, routeRepo, vehicleRepo, customerRepo, f.paymentRepo,
	)
}

func TestBuildTicket_OnlyForPaidReservations(t *testing.T) {
	t.Parallel()

	f := newSettleFixture(15 * time.Minute)
	f.addTrip(t, "trip-1", 40)
	reservation := f.reserve(t, "cust-1", 2)

	tickets := newTicketService(f, NewMockRouteRepository(), NewMockVehicleRepository(), NewMockCustomerRepository())

	_, err := tickets.BuildTicket(context.Background(), reservation.ID)
	if !errors.Is(err, service.ErrTicketNotPaid) {
		t.Errorf("expected ErrTicketNotPaid for a pending reservation, got %v", err)
	}
}

func TestBuildTicket_AssemblesPaidReservation(t *testing.T) {
	t.Parallel()

	f := newSettleFixture(15 * time.Minute)
	f.addTrip(t, "trip-1", 40)
	reservation := f.reserve(t, "cust-1", 2)

	routeRepo := NewMockRouteRepository()
	routeRepo.AddRoute(&domain.Route{ID: "route-1", Origin: "Hanoi", Destination: "Da Nang"})
	vehicleRepo := NewMockVehicleRepository()
	vehicleRepo.AddVehicle(&domain.Vehicle{ID: "vehicle-1", PlateNumber: "29B-123.45", SeatCount: 40})
	customerRepo := NewMockCustomerRepository()
	customerRepo.AddCustomer(&domain.Customer{ID: "cust-1", Name: "Nguyen Van A"})

	if _, err := f.reconciler.Settle(context.Background(), service.SettleRequest{
		ReservationID: reservation.ID,
		ExternalTxnID: "txn-ticket",
		Method:        domain.PaymentMethodCard,
		Outcome:       domain.PaymentStatusSucceeded,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tickets := newTicketService(f, routeRepo, vehicleRepo, customerRepo)

	ticket, err := tickets.BuildTicket(context.Background(), reservation.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ticket.Origin != "Hanoi" || ticket.Destination != "Da Nang" {
		t.Errorf("unexpected route: %s -> %s", ticket.Origin, ticket.Destination)
	}
	if ticket.CustomerName != "Nguyen Van A" {
		t.Errorf("unexpected customer name: %s", ticket.CustomerName)
	}
	if ticket.TotalAmount != 2*150000 {
		t.Errorf("expected total 300000, got %f", ticket.TotalAmount)
	}
	if ticket.PaymentMethod != domain.PaymentMethodCard {
		t.Errorf("expected CARD, got %s", ticket.PaymentMethod)
	}
	if ticket.ExternalTxnID != "txn-ticket" {
		t.Errorf("expected txn-ticket, got %s", ticket.ExternalTxnID)
	}
}

func TestRenderPDF_ProducesDocument(t *testing.T) {
	t.Parallel()

	f := newSettleFixture(15 * time.Minute)
	f.addTrip(t, "trip-1", 40)
	reservation := f.reserve(t, "cust-1", 1)

	routeRepo := NewMockRouteRepository()
	routeRepo.AddRoute(&domain.Route{ID: "route-1", Origin: "Hue", Destination: "Saigon"})
	vehicleRepo := NewMockVehicleRepository()
	vehicleRepo.AddVehicle(&domain.Vehicle{ID: "vehicle-1", PlateNumber: "51F-678.90"})

	if _, err := f.reconciler.Settle(context.Background(), service.SettleRequest{
		ReservationID: reservation.ID,
		ExternalTxnID: "txn-pdf",
		Method:        domain.PaymentMethodCash,
		Outcome:       domain.PaymentStatusSucceeded,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tickets := newTicketService(f, routeRepo, vehicleRepo, NewMockCustomerRepository())

	pdf, err := tickets.RenderPDF(context.Background(), reservation.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("expected a PDF document")
	}
}
