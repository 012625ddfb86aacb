// Package checkout implements order placement: it validates the customer
// and the requested products, checks stock, snapshots prices, decrements
// inventory and persists the resulting order as one operation.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"storefront/pkg/catalog"
	"storefront/pkg/customer"
	"storefront/pkg/order"
)

// Line is one requested (product, quantity) pair.
type Line struct {
	ProductID string `json:"id"`
	Quantity  int    `json:"quantity"`
}

var (
	// ErrCustomerNotFound indicates the customer id does not resolve.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrProductNotFound indicates a requested product is not in the catalog.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock indicates a line requests more than is available.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidQuantity indicates a line requests a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")

	// ErrInventoryUpdate indicates the stock decrement failed after all
	// validation passed.
	ErrInventoryUpdate = errors.New("inventory update failed")

	// ErrOrderPersistence indicates the order write failed after the stock
	// decrement.
	ErrOrderPersistence = errors.New("order persistence failed")
)

// Atomic runs fn as a single all-or-nothing unit. Implementations back it
// with a database transaction; if fn returns an error, nothing fn did
// through the same scope may remain applied.
type Atomic interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NopAtomic runs fn directly, with no transactional scope. It suits the
// in-memory repositories, whose UpdateQuantity is already all-or-nothing.
type NopAtomic struct{}

// RunInTx calls fn with the given context.
func (NopAtomic) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Service orchestrates order placement over injected collaborators.
type Service struct {
	customers customer.Repository
	products  catalog.Repository
	orders    order.Repository
	atomic    Atomic
}

// NewService creates a checkout service.
func NewService(customers customer.Repository, products catalog.Repository, orders order.Repository, atomic Atomic) *Service {
	return &Service{customers: customers, products: products, orders: orders, atomic: atomic}
}

// CreateOrder places an order for the given customer and lines.
//
// It fails fast on the first violated precondition, in line order, before
// any mutation: ErrCustomerNotFound, ErrInvalidQuantity, ErrProductNotFound
// or ErrInsufficientStock. Each line is checked against the catalog
// snapshot read at the start of the call; the snapshot is not decremented
// between lines, so duplicate lines for the same product each see the
// original quantity. The stock decrement and the order write then run in
// one transactional scope, and the decrement compares against the snapshot
// quantity, so a duplicate line or a concurrent order on the same product
// surfaces as ErrInventoryUpdate wrapping catalog.ErrConflict and the whole
// operation rolls back.
func (s *Service) CreateOrder(ctx context.Context, customerID string, lines []Line) (order.Order, error) {
	ctx, span := otel.Tracer("checkout").Start(ctx, "checkout.CreateOrder")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.customer_id", customerID),
		attribute.Int("order.line_count", len(lines)),
	)

	cust, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			err = fmt.Errorf("%w: %s", ErrCustomerNotFound, customerID)
		}
		span.SetStatus(codes.Error, err.Error())
		return order.Order{}, err
	}

	snapshot, err := s.products.FindAllByID(ctx, distinctIDs(lines))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return order.Order{}, err
	}
	byID := make(map[string]catalog.Product, len(snapshot))
	for _, p := range snapshot {
		byID[p.ID] = p
	}

	items := make([]order.LineItem, 0, len(lines))
	updates := make([]catalog.QuantityUpdate, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			err := fmt.Errorf("%w: product %s", ErrInvalidQuantity, l.ProductID)
			span.SetStatus(codes.Error, err.Error())
			return order.Order{}, err
		}
		p, ok := byID[l.ProductID]
		if !ok {
			err := fmt.Errorf("%w: %s", ErrProductNotFound, l.ProductID)
			span.SetStatus(codes.Error, err.Error())
			return order.Order{}, err
		}
		if l.Quantity > p.Quantity {
			err := fmt.Errorf("%w: product %s has %d, requested %d", ErrInsufficientStock, p.ID, p.Quantity, l.Quantity)
			span.SetStatus(codes.Error, err.Error())
			return order.Order{}, err
		}
		updates = append(updates, catalog.QuantityUpdate{
			ID:       p.ID,
			Quantity: p.Quantity - l.Quantity,
			Observed: p.Quantity,
		})
		items = append(items, order.LineItem{
			ProductID: p.ID,
			Price:     p.Price,
			Quantity:  l.Quantity,
		})
	}

	var created order.Order
	err = s.atomic.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.products.UpdateQuantity(ctx, updates); err != nil {
			return fmt.Errorf("%w: %w", ErrInventoryUpdate, err)
		}
		created, err = s.orders.Create(ctx, order.Order{Customer: cust, Items: items})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOrderPersistence, err)
		}
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return order.Order{}, err
	}

	span.SetStatus(codes.Ok, "order placed")
	span.SetAttributes(attribute.String("order.id", created.ID))
	return created, nil
}

// distinctIDs collapses duplicate product ids for the batch lookup while
// leaving the caller's line sequence untouched.
func distinctIDs(lines []Line) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}
