package order

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"storefront/pkg/customer"
)

// LineItem is one (product, price, quantity) entry within an order. The
// price is copied from the catalog when the order is assembled and never
// changes afterward, regardless of later catalog price updates.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Order is the persisted aggregate: who bought, and what, at which price.
type Order struct {
	ID        string            `json:"id"`
	Customer  customer.Customer `json:"customer"`
	Items     []LineItem        `json:"items"`
	CreatedAt time.Time         `json:"created_at"`
}

// Repository defines behavior for persisting orders.
type Repository interface {
	// Create persists the order and returns it with an assigned id and
	// creation timestamp.
	Create(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context) ([]Order, error)
}

// ErrNotFound indicates the requested order does not exist.
var ErrNotFound = errors.New("order not found")
