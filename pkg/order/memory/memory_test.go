package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/pkg/customer"
	"storefront/pkg/order"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := New()
	o := order.Order{
		Customer: customer.Customer{ID: "c1", Name: "Ada"},
		Items: []order.LineItem{
			{ProductID: "p1", Price: decimal.NewFromInt(10), Quantity: 2},
		},
	}
	created, err := repo.Create(ctx, o)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned id")
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("expected creation timestamp")
	}
	got, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Customer.ID != "c1" || len(got.Items) != 1 || got.Items[0].ProductID != "p1" {
		t.Fatalf("unexpected order: %+v", got)
	}
	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v len=%d", err, len(list))
	}
	if _, err := repo.Get(ctx, "missing"); err != order.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
