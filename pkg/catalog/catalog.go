package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry: the authoritative price and stock level
// for one sellable item.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// QuantityUpdate is one stock adjustment: set the product's quantity to
// Quantity, but only if the stored quantity still equals Observed. The
// compare guards against a concurrent order decrementing the same stock
// between our snapshot read and this write.
type QuantityUpdate struct {
	ID       string
	Quantity int
	Observed int
}

// Repository defines behavior for the product catalog.
type Repository interface {
	Create(ctx context.Context, p Product) (Product, error)
	FindByName(ctx context.Context, name string) (Product, error)

	// FindAllByID returns the catalog entries matching the given ids.
	// Missing ids are simply absent from the result.
	FindAllByID(ctx context.Context, ids []string) ([]Product, error)

	// UpdateQuantity applies the updates in order, all or nothing.
	// It returns ErrConflict if any update's Observed quantity no longer
	// matches the stored one, and ErrNotFound if an id does not exist.
	UpdateQuantity(ctx context.Context, updates []QuantityUpdate) error
}

var (
	// ErrNotFound indicates the requested product does not exist.
	ErrNotFound = errors.New("product not found")

	// ErrNameTaken indicates a product with the same name already exists.
	ErrNameTaken = errors.New("product name already in use")

	// ErrConflict indicates a stock level changed since it was read.
	ErrConflict = errors.New("product quantity changed concurrently")
)
