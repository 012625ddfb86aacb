package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"storefront/pkg/order"
	storedb "storefront/pkg/postgres"
)

// Repository persists orders in PostgreSQL.
type Repository struct {
	db *storedb.DB
}

// New creates a PostgreSQL repository.
func New(db *storedb.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the order and its line items, assigning an id and
// creation timestamp. Line items keep their input position so the stored
// aggregate reads back in the same order it was assembled.
func (r *Repository) Create(ctx context.Context, o order.Order) (order.Order, error) {
	q := r.db.Querier(ctx)
	o.ID = uuid.NewString()
	o.CreatedAt = time.Now().UTC()
	_, err := q.ExecContext(ctx,
		"INSERT INTO orders (id,customer_id,created_at) VALUES ($1,$2,$3)",
		o.ID, o.Customer.ID, o.CreatedAt)
	if err != nil {
		return order.Order{}, err
	}
	for i, item := range o.Items {
		_, err := q.ExecContext(ctx,
			"INSERT INTO order_items (order_id,position,product_id,price,quantity) VALUES ($1,$2,$3,$4,$5)",
			o.ID, i, item.ProductID, item.Price, item.Quantity)
		if err != nil {
			return order.Order{}, err
		}
	}
	return o, nil
}

// Get retrieves an order with its customer and line items.
func (r *Repository) Get(ctx context.Context, id string) (order.Order, error) {
	q := r.db.Querier(ctx)
	var o order.Order
	err := q.QueryRowContext(ctx,
		`SELECT o.id, o.created_at, c.id, c.name, c.email
		 FROM orders o JOIN customers c ON c.id = o.customer_id
		 WHERE o.id=$1`, id).
		Scan(&o.ID, &o.CreatedAt, &o.Customer.ID, &o.Customer.Name, &o.Customer.Email)
	if err == sql.ErrNoRows {
		return order.Order{}, order.ErrNotFound
	}
	if err != nil {
		return order.Order{}, err
	}
	o.Items, err = r.items(ctx, id)
	return o, err
}

// List fetches all orders with their line items.
func (r *Repository) List(ctx context.Context) ([]order.Order, error) {
	q := r.db.Querier(ctx)
	rows, err := q.QueryContext(ctx,
		`SELECT o.id, o.created_at, c.id, c.name, c.email
		 FROM orders o JOIN customers c ON c.id = o.customer_id
		 ORDER BY o.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []order.Order
	for rows.Next() {
		var o order.Order
		if err := rows.Scan(&o.ID, &o.CreatedAt, &o.Customer.ID, &o.Customer.Name, &o.Customer.Email); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].Items, err = r.items(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *Repository) items(ctx context.Context, orderID string) ([]order.LineItem, error) {
	rows, err := r.db.Querier(ctx).QueryContext(ctx,
		"SELECT product_id,price,quantity FROM order_items WHERE order_id=$1 ORDER BY position", orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []order.LineItem
	for rows.Next() {
		var it order.LineItem
		if err := rows.Scan(&it.ProductID, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
