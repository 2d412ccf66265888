// Package product provides the canteen product catalog: the items a theater
// canteen sells and tracks stock for (snacks, drinks, merchandise).
package product

import (
	"context"
	"time"

	"canteenledger/internal/core/apperror"
	"canteenledger/internal/core/id"
	"canteenledger/internal/core/types"
)

// Product represents one sellable catalog item. Stock ledgers reference
// products by ID; the catalog itself is theater-independent.
type Product struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Code is a human-readable identifier, unique across the catalog
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	// Unit is the unit of measure (pcs, kg, l)
	Unit string `db:"unit" json:"unit"`

	// Price is the current sale price
	Price types.Money `db:"price" json:"price"`

	// MinStock, when positive, is the low-stock alert threshold
	MinStock types.Quantity `db:"min_stock" json:"minStock"`

	// Perishable indicates entries for this product should carry expire dates
	Perishable bool `db:"perishable" json:"perishable"`

	// IsAvailable controls whether the product is offered for sale
	IsAvailable bool `db:"is_available" json:"isAvailable"`

	// DeletionMark is a soft-delete flag; marked products are hidden
	// from listings but keep their ledger history
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	// Version for optimistic locking
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(code, name, unit string) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:          id.New(),
		Code:        code,
		Name:        name,
		Unit:        unit,
		Price:       types.ZeroMoney(),
		IsAvailable: true,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Touch updates the UpdatedAt timestamp and increments version.
func (p *Product) Touch() {
	p.UpdatedAt = time.Now().UTC()
	p.Version++
}

// Validate checks product invariants.
func (p *Product) Validate(ctx context.Context) error {
	if p.Code == "" {
		return apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.Unit == "" {
		return apperror.NewValidation("unit is required").WithDetail("field", "unit")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price").
			WithDetail("value", p.Price)
	}
	if p.MinStock.IsNegative() {
		return apperror.NewValidation("min stock cannot be negative").
			WithDetail("field", "minStock")
	}
	return nil
}
