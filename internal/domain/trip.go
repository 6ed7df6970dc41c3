package domain

import "time"

// Route represents a fixed origin-destination pair served by the operator.
// Routes are catalog facts maintained upstream; this core only reads them.
type Route struct {
	ID          string
	Origin      string
	Destination string
	DistanceKm  int
}

// Vehicle represents a bus with a fixed seat layout.
type Vehicle struct {
	ID          string
	PlateNumber string
	Model       string
	SeatCount   int
}

// Trip represents a scheduled departure of a vehicle along a route.
// Capacity and price are immutable once reservations exist against the trip.
type Trip struct {
	ID          string
	RouteID     string
	VehicleID   string
	DepartureAt time.Time
	ArrivalAt   time.Time
	Capacity    int
	Price       float64
}

// Departed reports whether the trip's departure time has passed.
func (t *Trip) Departed(now time.Time) bool {
	return !t.DepartureAt.After(now)
}
