// Package store persists fridge products per household owner.
package store

import (
	"context"

	"github.com/abgdnv/fridgekeeper/internal/inventory"
	"github.com/google/uuid"
)

// ProductStore is the durable copy of every owner's inventory.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// FindAll returns the owner's products in insertion order.
	// Returns an empty slice if the owner has none.
	FindAll(ctx context.Context, owner uuid.UUID) ([]*inventory.Product, error)

	// Create stores a new product.
	// Returns ErrDuplicateProduct if the owner already has a product with the same barcode.
	Create(ctx context.Context, owner uuid.UUID, product *inventory.Product) error

	// Delete removes a product by its barcode.
	// Returns ErrProductNotFound if the owner has no such product.
	Delete(ctx context.Context, owner uuid.UUID, barcode string) error

	// MarkUsed flags a product as used. The flag is never cleared.
	// Returns ErrProductNotFound if the owner has no such product.
	MarkUsed(ctx context.Context, owner uuid.UUID, barcode string) error
}
