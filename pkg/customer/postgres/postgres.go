package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"storefront/pkg/customer"
	storedb "storefront/pkg/postgres"
)

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

// Repository persists customers in PostgreSQL.
type Repository struct {
	db *storedb.DB
}

// New creates a PostgreSQL repository.
func New(db *storedb.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new customer, assigning an id when absent.
func (r *Repository) Create(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.Querier(ctx).ExecContext(ctx,
		"INSERT INTO customers (id,name,email) VALUES ($1,$2,$3)", c.ID, c.Name, c.Email)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return customer.Customer{}, customer.ErrEmailTaken
	}
	if err != nil {
		return customer.Customer{}, err
	}
	return c, nil
}

// FindByID retrieves a customer by ID.
func (r *Repository) FindByID(ctx context.Context, id string) (customer.Customer, error) {
	var c customer.Customer
	err := r.db.Querier(ctx).QueryRowContext(ctx,
		"SELECT id,name,email FROM customers WHERE id=$1", id).Scan(&c.ID, &c.Name, &c.Email)
	if err == sql.ErrNoRows {
		return customer.Customer{}, customer.ErrNotFound
	}
	return c, err
}

// FindByEmail retrieves a customer by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (customer.Customer, error) {
	var c customer.Customer
	err := r.db.Querier(ctx).QueryRowContext(ctx,
		"SELECT id,name,email FROM customers WHERE email=$1", email).Scan(&c.ID, &c.Name, &c.Email)
	if err == sql.ErrNoRows {
		return customer.Customer{}, customer.ErrNotFound
	}
	return c, err
}
