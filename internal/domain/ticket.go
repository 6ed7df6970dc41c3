package domain

import "time"

// Ticket is the printable record of a paid reservation, assembled for
// e-ticket rendering. It is derived data, never persisted.
type Ticket struct {
	ReservationID string
	TripID        string
	CustomerID    string
	CustomerName  string
	Origin        string
	Destination   string
	DepartureAt   time.Time
	ArrivalAt     time.Time
	PlateNumber   string
	Quantity      int
	UnitPrice     float64
	TotalAmount   float64
	PaymentMethod PaymentMethod
	ExternalTxnID string
	IssuedAt      time.Time
}
