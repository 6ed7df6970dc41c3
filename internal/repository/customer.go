package repository

import (
	"context"

	"busbook/internal/domain"
)

// CustomerRepository defines the persistence operations for customers.
// Customers are written by the account subsystem; this core only reads them.
type CustomerRepository interface {
	// Create persists a new customer.
	Create(ctx context.Context, customer *domain.Customer) error

	// GetByID retrieves a customer by ID.
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}
