package dto

import (
	"time"

	"canteenledger/internal/core/types"
	"canteenledger/internal/domain/catalogs/product"
)

// --- Requests ---

// CreateProductRequest creates a catalog product.
type CreateProductRequest struct {
	Code       string         `json:"code" binding:"required"`
	Name       string         `json:"name" binding:"required"`
	Unit       string         `json:"unit" binding:"required"`
	Price      string         `json:"price"`
	MinStock   types.Quantity `json:"minStock"`
	Perishable bool           `json:"perishable"`
}

// UpdateProductRequest is a partial product update.
type UpdateProductRequest struct {
	Code        *string         `json:"code"`
	Name        *string         `json:"name"`
	Unit        *string         `json:"unit"`
	Price       *string         `json:"price"`
	MinStock    *types.Quantity `json:"minStock"`
	Perishable  *bool           `json:"perishable"`
	IsAvailable *bool           `json:"isAvailable"`
}

// ProductFilter contains product list query parameters.
type ProductFilter struct {
	Search         string `form:"search"`
	IncludeDeleted bool   `form:"includeDeleted"`
	OrderBy        string `form:"orderBy"`
	Limit          int    `form:"limit"`
	Offset         int    `form:"offset"`
}

// --- Responses ---

// ProductResponse is the API view of a catalog product.
type ProductResponse struct {
	ID           string         `json:"id"`
	Code         string         `json:"code"`
	Name         string         `json:"name"`
	Unit         string         `json:"unit"`
	Price        types.Money    `json:"price"`
	MinStock     types.Quantity `json:"minStock"`
	Perishable   bool           `json:"perishable"`
	IsAvailable  bool           `json:"isAvailable"`
	DeletionMark bool           `json:"deletionMark"`
	Version      int            `json:"version"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// FromProduct maps a domain product to its API view.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID.String(),
		Code:         p.Code,
		Name:         p.Name,
		Unit:         p.Unit,
		Price:        p.Price,
		MinStock:     p.MinStock,
		Perishable:   p.Perishable,
		IsAvailable:  p.IsAvailable,
		DeletionMark: p.DeletionMark,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// FromProducts maps a slice of products.
func FromProducts(products []*product.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, FromProduct(p))
	}
	return out
}
