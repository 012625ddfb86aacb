package checkout_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/catalog"
	catmem "storefront/pkg/catalog/memory"
	"storefront/pkg/checkout"
	"storefront/pkg/customer"
	custmem "storefront/pkg/customer/memory"
	"storefront/pkg/order"
	ordmem "storefront/pkg/order/memory"
)

type fixture struct {
	customers *custmem.Repository
	products  *catmem.Repository
	orders    *ordmem.Repository
	svc       *checkout.Service
	customer  customer.Customer
}

func newFixture(t *testing.T, products ...catalog.Product) *fixture {
	t.Helper()
	f := &fixture{
		customers: custmem.New(),
		products:  catmem.New(),
		orders:    ordmem.New(),
	}
	var err error
	f.customer, err = f.customers.Create(context.Background(), customer.Customer{ID: "c1", Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	for _, p := range products {
		_, err := f.products.Create(context.Background(), p)
		require.NoError(t, err)
	}
	f.svc = checkout.NewService(f.customers, f.products, f.orders, checkout.NopAtomic{})
	return f
}

func (f *fixture) quantity(t *testing.T, id string) int {
	t.Helper()
	found, err := f.products.FindAllByID(context.Background(), []string{id})
	require.NoError(t, err)
	require.Len(t, found, 1)
	return found[0].Quantity
}

func widget(qty int) catalog.Product {
	return catalog.Product{ID: "p1", Name: "Widget", Price: decimal.RequireFromString("10.00"), Quantity: qty}
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t, widget(5))

	o, err := f.svc.CreateOrder(context.Background(), "c1", []checkout.Line{{ProductID: "p1", Quantity: 3}})
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.False(t, o.CreatedAt.IsZero())
	assert.Equal(t, f.customer, o.Customer)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "p1", o.Items[0].ProductID)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.True(t, o.Items[0].Price.Equal(decimal.RequireFromString("10.00")), "price snapshot")

	assert.Equal(t, 2, f.quantity(t, "p1"))

	stored, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o, stored)
}

func TestCreateOrderPreservesLineOrder(t *testing.T) {
	f := newFixture(t,
		catalog.Product{ID: "p1", Name: "Widget", Price: decimal.NewFromInt(10), Quantity: 5},
		catalog.Product{ID: "p2", Name: "Gadget", Price: decimal.NewFromInt(20), Quantity: 7},
		catalog.Product{ID: "p3", Name: "Gizmo", Price: decimal.NewFromInt(30), Quantity: 9},
	)

	lines := []checkout.Line{
		{ProductID: "p3", Quantity: 1},
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 3},
	}
	o, err := f.svc.CreateOrder(context.Background(), "c1", lines)
	require.NoError(t, err)

	require.Len(t, o.Items, len(lines))
	for i, l := range lines {
		assert.Equal(t, l.ProductID, o.Items[i].ProductID)
		assert.Equal(t, l.Quantity, o.Items[i].Quantity)
	}
	assert.Equal(t, 3, f.quantity(t, "p1"))
	assert.Equal(t, 4, f.quantity(t, "p2"))
	assert.Equal(t, 8, f.quantity(t, "p3"))
}

func TestCreateOrderCustomerNotFound(t *testing.T) {
	f := newFixture(t, widget(5))

	_, err := f.svc.CreateOrder(context.Background(), "nobody", []checkout.Line{{ProductID: "p1", Quantity: 1}})
	require.ErrorIs(t, err, checkout.ErrCustomerNotFound)
	assert.Equal(t, 5, f.quantity(t, "p1"))

	orders, _ := f.orders.List(context.Background())
	assert.Empty(t, orders)
}

func TestCreateOrderProductNotFound(t *testing.T) {
	f := newFixture(t, widget(5))

	// A valid line ahead of the invalid one must not be applied.
	_, err := f.svc.CreateOrder(context.Background(), "c1", []checkout.Line{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p2", Quantity: 1},
	})
	require.ErrorIs(t, err, checkout.ErrProductNotFound)
	assert.Equal(t, 5, f.quantity(t, "p1"))

	orders, _ := f.orders.List(context.Background())
	assert.Empty(t, orders)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	f := newFixture(t, widget(5))

	_, err := f.svc.CreateOrder(context.Background(), "c1", []checkout.Line{{ProductID: "p1", Quantity: 6}})
	require.ErrorIs(t, err, checkout.ErrInsufficientStock)
	assert.Equal(t, 5, f.quantity(t, "p1"))

	// Same invalid input again fails the same way.
	_, err = f.svc.CreateOrder(context.Background(), "c1", []checkout.Line{{ProductID: "p1", Quantity: 6}})
	require.ErrorIs(t, err, checkout.ErrInsufficientStock)
	assert.Equal(t, 5, f.quantity(t, "p1"))
}

func TestCreateOrderInvalidQuantity(t *testing.T) {
	f := newFixture(t, widget(5))

	for _, qty := range []int{0, -1} {
		_, err := f.svc.CreateOrder(context.Background(), "c1", []checkout.Line{{ProductID: "p1", Quantity: qty}})
		require.ErrorIs(t, err, checkout.ErrInvalidQuantity)
	}
	assert.Equal(t, 5, f.quantity(t, "p1"))
}

// Duplicate lines for the same product each pass the sufficiency check
// against the same snapshot, but the second quantity update then observes
// an already-decremented stock level and the whole operation fails with a
// conflict, leaving quantities untouched.
func TestCreateOrderDuplicateLines(t *testing.T) {
	f := newFixture(t, widget(5))

	_, err := f.svc.CreateOrder(context.Background(), "c1", []checkout.Line{
		{ProductID: "p1", Quantity: 4},
		{ProductID: "p1", Quantity: 4},
	})
	require.ErrorIs(t, err, checkout.ErrInventoryUpdate)
	require.ErrorIs(t, err, catalog.ErrConflict)
	assert.Equal(t, 5, f.quantity(t, "p1"))

	orders, _ := f.orders.List(context.Background())
	assert.Empty(t, orders)
}

func TestCreateOrderNoLines(t *testing.T) {
	f := newFixture(t, widget(5))

	o, err := f.svc.CreateOrder(context.Background(), "c1", nil)
	require.NoError(t, err)
	assert.Empty(t, o.Items)
	assert.Equal(t, 5, f.quantity(t, "p1"))
}

type failingCatalog struct {
	catalog.Repository
	err error
}

func (f failingCatalog) UpdateQuantity(ctx context.Context, updates []catalog.QuantityUpdate) error {
	return f.err
}

func TestCreateOrderInventoryUpdateFailed(t *testing.T) {
	f := newFixture(t, widget(5))
	cause := errors.New("connection reset")
	svc := checkout.NewService(f.customers, failingCatalog{f.products, cause}, f.orders, checkout.NopAtomic{})

	_, err := svc.CreateOrder(context.Background(), "c1", []checkout.Line{{ProductID: "p1", Quantity: 3}})
	require.ErrorIs(t, err, checkout.ErrInventoryUpdate)
	require.ErrorIs(t, err, cause)

	orders, _ := f.orders.List(context.Background())
	assert.Empty(t, orders)
}

type failingOrders struct {
	order.Repository
	err error
}

func (f failingOrders) Create(ctx context.Context, o order.Order) (order.Order, error) {
	return order.Order{}, f.err
}

func TestCreateOrderPersistenceFailed(t *testing.T) {
	f := newFixture(t, widget(5))
	cause := errors.New("disk full")
	svc := checkout.NewService(f.customers, f.products, failingOrders{f.orders, cause}, checkout.NopAtomic{})

	_, err := svc.CreateOrder(context.Background(), "c1", []checkout.Line{{ProductID: "p1", Quantity: 3}})
	require.ErrorIs(t, err, checkout.ErrOrderPersistence)
	require.ErrorIs(t, err, cause)
}

// Concurrent orders against the same stock never oversell: the quantity
// update compares against the snapshot each order read, so at most one of
// the competing orders commits.
func TestCreateOrderConcurrentNoOversell(t *testing.T) {
	f := newFixture(t, widget(5))

	const workers = 4
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateOrder(context.Background(), "c1", []checkout.Line{{ProductID: "p1", Quantity: 3}})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		if !errors.Is(err, checkout.ErrInsufficientStock) && !errors.Is(err, catalog.ErrConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded, "stock of 5 supports exactly one order of 3")
	assert.Equal(t, 2, f.quantity(t, "p1"))
}
