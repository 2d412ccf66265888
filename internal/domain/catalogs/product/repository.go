package product

import (
	"context"

	"canteenledger/internal/core/id"
	"canteenledger/internal/domain"
)

// Repository defines persistence for the product catalog.
type Repository interface {
	// Create inserts a new product.
	Create(ctx context.Context, p *Product) error

	// GetByID retrieves a product by ID.
	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// GetByCode retrieves a product by its unique code.
	GetByCode(ctx context.Context, code string) (*Product, error)

	// Update modifies an existing product with optimistic locking.
	Update(ctx context.Context, p *Product) error

	// SetDeletionMark toggles the soft-delete flag.
	SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error

	// List returns products matching the filter.
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)
}
