package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"storefront/pkg/catalog"
	storedb "storefront/pkg/postgres"
)

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

// Repository persists the product catalog in PostgreSQL.
type Repository struct {
	db *storedb.DB
}

// New creates a PostgreSQL repository.
func New(db *storedb.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new product, assigning an id when absent.
func (r *Repository) Create(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.Querier(ctx).ExecContext(ctx,
		"INSERT INTO products (id,name,price,quantity) VALUES ($1,$2,$3,$4)",
		p.ID, p.Name, p.Price, p.Quantity)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return catalog.Product{}, catalog.ErrNameTaken
	}
	if err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}

// FindByName retrieves a product by name.
func (r *Repository) FindByName(ctx context.Context, name string) (catalog.Product, error) {
	var p catalog.Product
	err := r.db.Querier(ctx).QueryRowContext(ctx,
		"SELECT id,name,price,quantity FROM products WHERE name=$1", name).
		Scan(&p.ID, &p.Name, &p.Price, &p.Quantity)
	if err == sql.ErrNoRows {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, err
}

// FindAllByID fetches the products matching the given ids. Missing ids are
// omitted from the result.
func (r *Repository) FindAllByID(ctx context.Context, ids []string) ([]catalog.Product, error) {
	rows, err := r.db.Querier(ctx).QueryContext(ctx,
		"SELECT id,name,price,quantity FROM products WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []catalog.Product
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateQuantity applies the updates in order. Each update only takes
// effect if the stored quantity still equals the Observed one; a mismatch
// yields catalog.ErrConflict. Callers run this inside a transaction so a
// failure on any update leaves no partial change behind.
func (r *Repository) UpdateQuantity(ctx context.Context, updates []catalog.QuantityUpdate) error {
	q := r.db.Querier(ctx)
	for _, u := range updates {
		res, err := q.ExecContext(ctx,
			"UPDATE products SET quantity=$2 WHERE id=$1 AND quantity=$3",
			u.ID, u.Quantity, u.Observed)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var exists bool
			if err := q.QueryRowContext(ctx,
				"SELECT EXISTS (SELECT 1 FROM products WHERE id=$1)", u.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: %s", catalog.ErrNotFound, u.ID)
			}
			return fmt.Errorf("%w: %s", catalog.ErrConflict, u.ID)
		}
	}
	return nil
}
