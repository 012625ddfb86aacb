// Package memory implements an in-memory customer repository.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"storefront/pkg/customer"
)

// Repository provides an in-memory implementation of customer.Repository.
type Repository struct {
	mu        sync.RWMutex
	customers map[string]customer.Customer
}

// New creates a new in-memory repository.
func New() *Repository {
	return &Repository{customers: make(map[string]customer.Customer)}
}

// Create stores the customer, assigning an id when absent.
func (r *Repository) Create(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.customers {
		if existing.Email == c.Email {
			return customer.Customer{}, customer.ErrEmailTaken
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.customers[c.ID] = c
	return c, nil
}

// FindByID retrieves a customer by id.
func (r *Repository) FindByID(ctx context.Context, id string) (customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.customers[id]
	if !ok {
		return customer.Customer{}, customer.ErrNotFound
	}
	return c, nil
}

// FindByEmail retrieves a customer by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return customer.Customer{}, customer.ErrNotFound
}
