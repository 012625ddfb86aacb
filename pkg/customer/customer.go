package customer

import (
	"context"
	"errors"
)

// Customer represents a registered buyer.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Repository defines behavior for persisting customers.
type Repository interface {
	Create(ctx context.Context, c Customer) (Customer, error)
	FindByID(ctx context.Context, id string) (Customer, error)
	FindByEmail(ctx context.Context, email string) (Customer, error)
}

// ErrNotFound indicates the requested customer does not exist.
var ErrNotFound = errors.New("customer not found")

// ErrEmailTaken indicates another customer is already registered with the email.
var ErrEmailTaken = errors.New("email already in use")
