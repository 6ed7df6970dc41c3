package domain

// CapacityEntry is the per-trip seat ledger. Committed counts seats backing
// Paid reservations, Held counts seats backing live PendingPayment holds.
// Invariant: Committed + Held <= Total, and no field is ever negative.
type CapacityEntry struct {
	TripID    string
	Total     int
	Committed int
	Held      int
}

// Available returns the number of seats still sellable.
func (e *CapacityEntry) Available() int {
	return e.Total - e.Committed - e.Held
}
