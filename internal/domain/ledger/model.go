// Package ledger provides the per-product stock ledger for theater canteens:
// an append-only log of stock entries per (theater, product) pair with
// expiry-driven write-offs and calendar-month balance reconstruction.
package ledger

import (
	"context"
	"time"

	"canteenledger/internal/core/apperror"
	"canteenledger/internal/core/id"
	"canteenledger/internal/core/types"
)

// EntryType classifies a stock entry. The log is additive: consumption and
// damage are counters carried on the ADDED entry, not separate entry types.
type EntryType string

const (
	// EntryTypeAdded records stock brought in.
	EntryTypeAdded EntryType = "added"
)

// StockEntry is one stock movement in a ledger.
// UsedStock and DamageStock are mutated in place as sales and damage
// events arrive; the conservation invariant
// usedStock + damageStock <= quantityAdded holds at all times.
type StockEntry struct {
	// ID is the primary key (UUIDv7, time-ordered)
	ID id.ID `db:"id" json:"id"`

	// Ledger dimensions
	TheaterID id.ID `db:"theater_id" json:"theaterId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	// EntryDate is the calendar date the movement is attributed to,
	// not necessarily the creation time.
	EntryDate time.Time `db:"entry_date" json:"entryDate"`

	Type EntryType `db:"entry_type" json:"type"`

	// Resources
	QuantityAdded types.Quantity `db:"quantity_added" json:"quantityAdded"`
	UsedStock     types.Quantity `db:"used_stock" json:"usedStock"`
	DamageStock   types.Quantity `db:"damage_stock" json:"damageStock"`

	// ExpireDate, when set, forces the remaining quantity to be written
	// off once the grace deadline passes (see RemainingExpired).
	ExpireDate *time.Time `db:"expire_date" json:"expireDate,omitempty"`

	// Opaque metadata
	BatchNumber string `db:"batch_number" json:"batchNumber,omitempty"`
	Notes       string `db:"notes" json:"notes,omitempty"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewStockEntry creates a new ADDED entry for the given ledger.
func NewStockEntry(theaterID, productID id.ID, entryDate time.Time, quantity types.Quantity) *StockEntry {
	now := time.Now().UTC()
	return &StockEntry{
		ID:            id.New(),
		TheaterID:     theaterID,
		ProductID:     productID,
		EntryDate:     entryDate,
		Type:          EntryTypeAdded,
		QuantityAdded: quantity,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Remaining returns the unconsumed quantity, floored at 0.
func (e *StockEntry) Remaining() types.Quantity {
	r := e.QuantityAdded - e.UsedStock - e.DamageStock
	if r < 0 {
		return 0
	}
	return r
}

// Touch updates the UpdatedAt timestamp and increments version.
func (e *StockEntry) Touch() {
	e.UpdatedAt = time.Now().UTC()
	e.Version++
}

// Validate checks entry invariants for a create operation.
func (e *StockEntry) Validate(ctx context.Context) error {
	if id.IsNil(e.TheaterID) {
		return apperror.NewValidation("theater is required").WithDetail("field", "theaterId")
	}
	if id.IsNil(e.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if e.EntryDate.IsZero() {
		return apperror.NewValidation("entry date is required").WithDetail("field", "entryDate")
	}
	if !e.QuantityAdded.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", e.QuantityAdded)
	}
	if e.UsedStock.IsNegative() {
		return apperror.NewValidation("used stock cannot be negative").WithDetail("field", "usedStock")
	}
	if e.DamageStock.IsNegative() {
		return apperror.NewValidation("damage stock cannot be negative").WithDetail("field", "damageStock")
	}
	if e.UsedStock+e.DamageStock > e.QuantityAdded {
		return apperror.NewValidation("used and damaged stock exceed quantity added").
			WithDetail("quantityAdded", e.QuantityAdded).
			WithDetail("usedStock", e.UsedStock).
			WithDetail("damageStock", e.DamageStock)
	}
	return nil
}

// CheckIntegrity verifies the stored entry is internally consistent.
// Aggregation fails loudly on a corrupt entry rather than silently
// misstating a balance.
func (e *StockEntry) CheckIntegrity() error {
	switch {
	case id.IsNil(e.ID):
		return apperror.NewDataIntegrity("stock entry", e.ID, "missing id")
	case e.EntryDate.IsZero():
		return apperror.NewDataIntegrity("stock entry", e.ID, "missing entry date")
	case e.QuantityAdded.IsNegative():
		return apperror.NewDataIntegrity("stock entry", e.ID, "negative quantity added")
	case e.UsedStock.IsNegative():
		return apperror.NewDataIntegrity("stock entry", e.ID, "negative used stock")
	case e.DamageStock.IsNegative():
		return apperror.NewDataIntegrity("stock entry", e.ID, "negative damage stock")
	case e.UsedStock+e.DamageStock > e.QuantityAdded:
		return apperror.NewDataIntegrity("stock entry", e.ID, "used and damaged stock exceed quantity added")
	}
	return nil
}
