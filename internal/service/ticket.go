package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"

	"busbook/internal/domain"
	"busbook/internal/repository"
)

// TicketService assembles and renders e-tickets for paid reservations.
type TicketService struct {
	reservationRepo repository.ReservationRepository
	tripRepo        repository.TripRepository
	routeRepo       repository.RouteRepository
	vehicleRepo     repository.VehicleRepository
	customerRepo    repository.CustomerRepository
	paymentRepo     repository.PaymentRepository
}

// NewTicketService creates a new TicketService.
func NewTicketService(
	reservationRepo repository.ReservationRepository,
	tripRepo repository.TripRepository,
	routeRepo repository.RouteRepository,
	vehicleRepo repository.VehicleRepository,
	customerRepo repository.CustomerRepository,
	paymentRepo repository.PaymentRepository,
) *TicketService {
	return &TicketService{
		reservationRepo: reservationRepo,
		tripRepo:        tripRepo,
		routeRepo:       routeRepo,
		vehicleRepo:     vehicleRepo,
		customerRepo:    customerRepo,
		paymentRepo:     paymentRepo,
	}
}

// BuildTicket assembles the printable ticket for a paid reservation.
func (s *TicketService) BuildTicket(ctx context.Context, reservationID string) (*domain.Ticket, error) {
	if reservationID == "" {
		return nil, ErrInvalidReservationID
	}

	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	if reservation.Status != domain.ReservationStatusPaid {
		return nil, ErrTicketNotPaid
	}

	trip, err := s.tripRepo.GetByID(ctx, reservation.TripID)
	if err != nil {
		return nil, err
	}

	route, err := s.routeRepo.GetByID(ctx, trip.RouteID)
	if err != nil {
		return nil, err
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, trip.VehicleID)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		ReservationID: reservation.ID,
		TripID:        trip.ID,
		CustomerID:    reservation.CustomerID,
		Origin:        route.Origin,
		Destination:   route.Destination,
		DepartureAt:   trip.DepartureAt,
		ArrivalAt:     trip.ArrivalAt,
		PlateNumber:   vehicle.PlateNumber,
		Quantity:      reservation.Quantity,
		UnitPrice:     trip.Price,
		TotalAmount:   float64(reservation.Quantity) * trip.Price,
		IssuedAt:      time.Now(),
	}

	if customer, err := s.customerRepo.GetByID(ctx, reservation.CustomerID); err == nil {
		ticket.CustomerName = customer.Name
	}

	if attempt, err := s.paymentRepo.GetByReservationID(ctx, reservation.ID); err == nil && attempt != nil {
		ticket.PaymentMethod = attempt.Method
		ticket.ExternalTxnID = attempt.ExternalTxnID
	}

	return ticket, nil
}

// RenderPDF renders a ticket for a paid reservation as a PDF document.
func (s *TicketService) RenderPDF(ctx context.Context, reservationID string) ([]byte, error) {
	ticket, err := s.BuildTicket(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	return buildTicketPDF(ticket)
}

func buildTicketPDF(t *domain.Ticket) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BUS E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Passenger      : %s", orDash(t.CustomerName)),
		fmt.Sprintf("Route          : %s -> %s", t.Origin, t.Destination),
		fmt.Sprintf("Departure      : %s", t.DepartureAt.Format("Jan 02, 2006 15:04")),
		fmt.Sprintf("Vehicle        : %s", orDash(t.PlateNumber)),
		fmt.Sprintf("Seats          : %d", t.Quantity),
		fmt.Sprintf("Unit Price     : %.2f", t.UnitPrice),
		fmt.Sprintf("Total Paid     : %.2f", t.TotalAmount),
		fmt.Sprintf("Payment Method : %s", orDash(string(t.PaymentMethod))),
		fmt.Sprintf("Transaction    : %s", orDash(t.ExternalTxnID)),
		fmt.Sprintf("Reservation    : %s", t.ReservationID),
		fmt.Sprintf("Issued         : %s", t.IssuedAt.Format("Jan 02, 2006 15:04")),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Present this ticket when boarding. Valid only for the departure shown above.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
