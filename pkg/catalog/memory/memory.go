// Package memory implements an in-memory product catalog.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"storefront/pkg/catalog"
)

// Repository provides an in-memory implementation of catalog.Repository.
type Repository struct {
	mu       sync.RWMutex
	products map[string]catalog.Product
}

// New creates a new in-memory repository.
func New() *Repository {
	return &Repository{products: make(map[string]catalog.Product)}
}

// Create stores the product, assigning an id when absent.
func (r *Repository) Create(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.products {
		if existing.Name == p.Name {
			return catalog.Product{}, catalog.ErrNameTaken
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	r.products[p.ID] = p
	return p, nil
}

// FindByName retrieves a product by name.
func (r *Repository) FindByName(ctx context.Context, name string) (catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if p.Name == name {
			return p, nil
		}
	}
	return catalog.Product{}, catalog.ErrNotFound
}

// FindAllByID returns the products matching the given ids, in id order.
// Missing ids are omitted.
func (r *Repository) FindAllByID(ctx context.Context, ids []string) ([]catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// UpdateQuantity applies the updates in order, all or nothing. Each update
// only takes effect if the stored quantity still equals the Observed one;
// on a mismatch every already-applied update is rolled back and
// catalog.ErrConflict is returned.
func (r *Repository) UpdateQuantity(ctx context.Context, updates []catalog.QuantityUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	applied := make([]catalog.QuantityUpdate, 0, len(updates))
	rollback := func() {
		for i := len(applied) - 1; i >= 0; i-- {
			p := r.products[applied[i].ID]
			p.Quantity = applied[i].Observed
			r.products[applied[i].ID] = p
		}
	}

	for _, u := range updates {
		p, ok := r.products[u.ID]
		if !ok {
			rollback()
			return fmt.Errorf("%w: %s", catalog.ErrNotFound, u.ID)
		}
		if p.Quantity != u.Observed {
			rollback()
			return fmt.Errorf("%w: %s", catalog.ErrConflict, u.ID)
		}
		p.Quantity = u.Quantity
		r.products[u.ID] = p
		applied = append(applied, u)
	}
	return nil
}
