package handlers

import (
	"github.com/gin-gonic/gin"

	"canteenledger/internal/core/apperror"
	"canteenledger/internal/core/id"
	"canteenledger/internal/core/types"
	"canteenledger/internal/domain"
	"canteenledger/internal/domain/catalogs/product"
	"canteenledger/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves the product catalog endpoints.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service}
}

func (h *ProductHandler) parseProductID(c *gin.Context) (id.ID, bool) {
	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product ID").WithDetail("productId", c.Param("productId")))
		return id.Nil(), false
	}
	return productID, true
}

// Create adds a product to the catalog.
// POST /catalog/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := product.NewProduct(req.Code, req.Name, req.Unit)
	p.MinStock = req.MinStock
	p.Perishable = req.Perishable
	if req.Price != "" {
		price, err := types.NewMoneyFromString(req.Price)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid price").WithDetail("price", req.Price))
			return
		}
		p.Price = price
	}

	if err := h.service.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromProduct(p))
}

// Get retrieves one product.
// GET /catalog/products/:productId
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.parseProductID(c)
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(p))
}

// Update applies a partial update to a product.
// PUT /catalog/products/:productId
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.parseProductID(c)
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	p, err := h.service.Get(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if req.Code != nil {
		p.Code = *req.Code
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Unit != nil {
		p.Unit = *req.Unit
	}
	if req.Price != nil {
		price, err := types.NewMoneyFromString(*req.Price)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid price").WithDetail("price", *req.Price))
			return
		}
		p.Price = price
	}
	if req.MinStock != nil {
		p.MinStock = *req.MinStock
	}
	if req.Perishable != nil {
		p.Perishable = *req.Perishable
	}
	if req.IsAvailable != nil {
		p.IsAvailable = *req.IsAvailable
	}

	if err := h.service.Update(ctx, p); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(p))
}

// SetDeletionMark marks or unmarks a product for deletion.
// POST /catalog/products/:productId/deletion-mark
func (h *ProductHandler) SetDeletionMark(c *gin.Context) {
	productID, ok := h.parseProductID(c)
	if !ok {
		return
	}

	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetDeletionMark(c.Request.Context(), productID, req.Marked); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "deletion mark updated")
}

// List returns a filtered, paginated product listing.
// GET /catalog/products
func (h *ProductHandler) List(c *gin.Context) {
	var q dto.ProductFilter
	if !h.BindQuery(c, &q) {
		return
	}

	filter := domain.DefaultListFilter()
	filter.Search = q.Search
	filter.IncludeDeleted = q.IncludeDeleted
	if q.OrderBy != "" {
		filter.OrderBy = q.OrderBy
	}
	if q.Limit > 0 {
		filter.Limit = q.Limit
	}
	if q.Offset > 0 {
		filter.Offset = q.Offset
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromProducts(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
