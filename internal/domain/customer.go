package domain

import "time"

// Customer is an account fact supplied by the account subsystem.
// This core only references customers by ID.
type Customer struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}
