package handlers

import (
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"canteenledger/internal/core/apperror"
	"canteenledger/internal/core/id"
	"canteenledger/internal/domain/catalogs/product"
	"canteenledger/internal/domain/ledger"
	"canteenledger/internal/infrastructure/http/v1/dto"
)

// StockHandler serves the per-(theater, product) stock ledger endpoints.
type StockHandler struct {
	*BaseHandler
	service  *ledger.Service
	products *product.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *ledger.Service, products *product.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
		products:    products,
	}
}

// parseLedgerScope extracts and validates the theater/product path params.
func (h *StockHandler) parseLedgerScope(c *gin.Context) (theaterID, productID id.ID, ok bool) {
	theaterID, err := id.Parse(c.Param("theaterId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid theater ID").WithDetail("theaterId", c.Param("theaterId")))
		return id.Nil(), id.Nil(), false
	}
	productID, err = id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product ID").WithDetail("productId", c.Param("productId")))
		return id.Nil(), id.Nil(), false
	}
	return theaterID, productID, true
}

// Create records new stock in the ledger.
// POST /stock/:theaterId/:productId
func (h *StockHandler) Create(c *gin.Context) {
	theaterID, productID, ok := h.parseLedgerScope(c)
	if !ok {
		return
	}

	var req dto.CreateStockEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entry, err := h.service.AddEntry(c.Request.Context(), ledger.AddEntryInput{
		TheaterID:   theaterID,
		ProductID:   productID,
		EntryDate:   req.Date,
		Quantity:    req.Quantity,
		UsedStock:   req.UsedStock,
		DamageStock: req.DamageStock,
		ExpireDate:  req.ExpireDate,
		BatchNumber: req.BatchNumber,
		Notes:       req.Notes,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromStockEntry(entry))
}

// Update applies a partial update to an existing entry.
// PUT /stock/:theaterId/:productId/:entryId
func (h *StockHandler) Update(c *gin.Context) {
	theaterID, productID, ok := h.parseLedgerScope(c)
	if !ok {
		return
	}
	entryID, err := id.Parse(c.Param("entryId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid entry ID").WithDetail("entryId", c.Param("entryId")))
		return
	}

	var req dto.UpdateStockEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entry, err := h.service.UpdateEntry(c.Request.Context(), theaterID, productID, entryID, ledger.UpdateEntryInput{
		EntryDate:   req.Date,
		Quantity:    req.Quantity,
		UsedStock:   req.UsedStock,
		DamageStock: req.DamageStock,
		ExpireDate:  req.ExpireDate,
		ClearExpire: req.ClearExpireDate,
		BatchNumber: req.BatchNumber,
		Notes:       req.Notes,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockEntry(entry))
}

// Delete removes an entry from a monthly period.
// DELETE /stock/:theaterId/:productId/:entryId?year=&month=
func (h *StockHandler) Delete(c *gin.Context) {
	theaterID, productID, ok := h.parseLedgerScope(c)
	if !ok {
		return
	}
	entryID, err := id.Parse(c.Param("entryId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid entry ID").WithDetail("entryId", c.Param("entryId")))
		return
	}

	year := h.ParseIntQuery(c, "year", 0)
	month := h.ParseIntQuery(c, "month", 0)

	if err := h.service.DeleteEntry(c.Request.Context(), theaterID, productID, entryID, year, month); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "stock entry deleted")
}

// GetLedger returns the monthly view of one ledger: the period's entries,
// quantity on hand, and the derived statistics.
// GET /stock/:theaterId/:productId?year=&month=
func (h *StockHandler) GetLedger(c *gin.Context) {
	theaterID, productID, ok := h.parseLedgerScope(c)
	if !ok {
		return
	}

	var period dto.PeriodQuery
	if !h.BindQuery(c, &period) {
		return
	}
	now := time.Now().UTC()
	if period.Year == 0 {
		period.Year = now.Year()
	}
	if period.Month == 0 {
		period.Month = int(now.Month())
	}

	view, err := h.service.GetMonthlyView(c.Request.Context(), theaterID, productID, period.Year, period.Month)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.LedgerResponse{
		TheaterID:    theaterID.String(),
		ProductID:    productID.String(),
		Period:       view.Summary.Period().String(),
		CurrentStock: view.CurrentStock,
		AsOf:         view.AsOf,
		Entries:      dto.FromStockEntries(view.Entries),
		Statistics:   dto.FromMonthlySummary(view.Summary),
	})
}

// GetTheaterStock lists the current balance of every product the theater
// holds, flagging products below their configured minimum.
// GET /stock/:theaterId
func (h *StockHandler) GetTheaterStock(c *gin.Context) {
	theaterID, err := id.Parse(c.Param("theaterId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid theater ID").WithDetail("theaterId", c.Param("theaterId")))
		return
	}

	var q dto.AsOfQuery
	if !h.BindQuery(c, &q) {
		return
	}
	asOf := time.Now().UTC()
	if q.AsOf != nil {
		asOf = q.AsOf.UTC()
	}

	ctx := c.Request.Context()
	stocks, err := h.service.GetTheaterStock(ctx, theaterID, asOf)
	if err != nil {
		h.Error(c, err)
		return
	}

	products := make([]dto.TheaterProductStock, 0, len(stocks))
	for productID, quantity := range stocks {
		row := dto.TheaterProductStock{
			ProductID:    productID.String(),
			CurrentStock: quantity,
		}
		if p, err := h.products.Get(ctx, productID); err == nil {
			row.ProductCode = p.Code
			row.ProductName = p.Name
			row.Unit = p.Unit
			row.MinStock = p.MinStock
			row.LowStock = p.MinStock.IsPositive() && quantity < p.MinStock
		}
		products = append(products, row)
	}
	sortTheaterStock(products)

	h.OK(c, dto.TheaterStockResponse{
		TheaterID: theaterID.String(),
		AsOf:      asOf,
		Products:  products,
	})
}

// sortTheaterStock orders the listing by product name, falling back to the
// product ID for products missing from the catalog.
func sortTheaterStock(products []dto.TheaterProductStock) {
	sort.Slice(products, func(i, j int) bool {
		if products[i].ProductName != products[j].ProductName {
			return products[i].ProductName < products[j].ProductName
		}
		return products[i].ProductID < products[j].ProductID
	})
}
