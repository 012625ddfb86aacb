package memory

import (
	"context"
	"testing"

	"storefront/pkg/customer"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := New()
	c, err := repo.Create(ctx, customer.Customer{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected assigned id")
	}
	got, err := repo.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if got.Email != "ada@example.com" {
		t.Fatalf("unexpected email: %s", got.Email)
	}
	if _, err := repo.FindByEmail(ctx, "ada@example.com"); err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if _, err := repo.Create(ctx, customer.Customer{Name: "Other", Email: "ada@example.com"}); err != customer.ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := repo.FindByID(ctx, "missing"); err != customer.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
