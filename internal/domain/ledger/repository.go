package ledger

import (
	"context"

	"canteenledger/internal/core/id"
)

// Repository defines persistence for stock entries.
// Implementations must return apperror values for not-found and
// concurrent-modification conditions so the service can surface them
// unchanged.
type Repository interface {
	// Create inserts a new entry.
	Create(ctx context.Context, entry *StockEntry) error

	// GetByID retrieves an entry by ID.
	GetByID(ctx context.Context, entryID id.ID) (*StockEntry, error)

	// Update modifies an existing entry with optimistic locking; the
	// entry's Version must match the stored row.
	Update(ctx context.Context, entry *StockEntry) error

	// Delete physically removes an entry so it leaves all future
	// aggregation.
	Delete(ctx context.Context, entryID id.ID) error

	// ListByLedger returns every entry of one (theater, product) ledger
	// ordered by entry_date ascending, id ascending.
	ListByLedger(ctx context.Context, theaterID, productID id.ID) ([]StockEntry, error)

	// ListByTheater returns every entry of a theater across all products,
	// in the same order with product_id as the leading key.
	ListByTheater(ctx context.Context, theaterID id.ID) ([]StockEntry, error)

	// LockLedger acquires the per-ledger mutual-exclusion scope for the
	// duration of the surrounding transaction. Returns a timeout error if
	// the lock cannot be acquired within the implementation's deadline.
	LockLedger(ctx context.Context, theaterID, productID id.ID) error
}
