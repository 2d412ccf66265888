package dto

import (
	"time"

	"canteenledger/internal/core/types"
	"canteenledger/internal/domain/ledger"
)

// --- Requests ---

// CreateStockEntryRequest records new stock in a (theater, product) ledger.
type CreateStockEntryRequest struct {
	Date        time.Time      `json:"date" binding:"required"`
	Quantity    types.Quantity `json:"quantity" binding:"required"`
	UsedStock   types.Quantity `json:"usedStock"`
	DamageStock types.Quantity `json:"damageStock"`
	ExpireDate  *time.Time     `json:"expireDate"`
	BatchNumber string         `json:"batchNumber"`
	Notes       string         `json:"notes"`
}

// UpdateStockEntryRequest is a partial update; omitted fields keep their
// stored values. ClearExpireDate removes an existing expire date.
type UpdateStockEntryRequest struct {
	Date            *time.Time      `json:"date"`
	Quantity        *types.Quantity `json:"quantity"`
	UsedStock       *types.Quantity `json:"usedStock"`
	DamageStock     *types.Quantity `json:"damageStock"`
	ExpireDate      *time.Time      `json:"expireDate"`
	ClearExpireDate bool            `json:"clearExpireDate"`
	BatchNumber     *string         `json:"batchNumber"`
	Notes           *string         `json:"notes"`
}

// PeriodQuery names a calendar month; both fields default to the current
// month when omitted.
type PeriodQuery struct {
	Year  int `form:"year"`
	Month int `form:"month"`
}

// AsOfQuery optionally overrides the evaluation instant for stock reads.
type AsOfQuery struct {
	AsOf *time.Time `form:"asOf"`
}

// --- Responses ---

// StockEntryResponse is the API view of one stock entry.
type StockEntryResponse struct {
	ID            string         `json:"id"`
	TheaterID     string         `json:"theaterId"`
	ProductID     string         `json:"productId"`
	EntryDate     time.Time      `json:"entryDate"`
	Type          string         `json:"type"`
	QuantityAdded types.Quantity `json:"quantityAdded"`
	UsedStock     types.Quantity `json:"usedStock"`
	DamageStock   types.Quantity `json:"damageStock"`
	Remaining     types.Quantity `json:"remaining"`
	ExpireDate    *time.Time     `json:"expireDate,omitempty"`
	BatchNumber   string         `json:"batchNumber,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	Version       int            `json:"version"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// FromStockEntry maps a domain entry to its API view.
func FromStockEntry(e *ledger.StockEntry) StockEntryResponse {
	return StockEntryResponse{
		ID:            e.ID.String(),
		TheaterID:     e.TheaterID.String(),
		ProductID:     e.ProductID.String(),
		EntryDate:     e.EntryDate,
		Type:          string(e.Type),
		QuantityAdded: e.QuantityAdded,
		UsedStock:     e.UsedStock,
		DamageStock:   e.DamageStock,
		Remaining:     e.Remaining(),
		ExpireDate:    e.ExpireDate,
		BatchNumber:   e.BatchNumber,
		Notes:         e.Notes,
		Version:       e.Version,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// FromStockEntries maps a slice of entries.
func FromStockEntries(entries []ledger.StockEntry) []StockEntryResponse {
	out := make([]StockEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, FromStockEntry(&entries[i]))
	}
	return out
}

// MonthlyStatistics is the derived per-month summary of a ledger.
type MonthlyStatistics struct {
	Year             int            `json:"year"`
	Month            int            `json:"month"`
	OpeningBalance   types.Quantity `json:"openingBalance"`
	TotalAdded       types.Quantity `json:"totalAdded"`
	TotalUsed        types.Quantity `json:"totalUsed"`
	TotalDamaged     types.Quantity `json:"totalDamaged"`
	TotalExpired     types.Quantity `json:"totalExpired"`
	ExpiredCarryover types.Quantity `json:"expiredCarryover"`
	ClosingBalance   types.Quantity `json:"closingBalance"`
}

// FromMonthlySummary maps a domain summary to its API view.
func FromMonthlySummary(s ledger.MonthlySummary) MonthlyStatistics {
	return MonthlyStatistics{
		Year:             s.Year,
		Month:            int(s.Month),
		OpeningBalance:   s.OpeningBalance,
		TotalAdded:       s.TotalAdded,
		TotalUsed:        s.TotalUsed,
		TotalDamaged:     s.TotalDamaged,
		TotalExpired:     s.TotalExpired,
		ExpiredCarryover: s.ExpiredCarryover,
		ClosingBalance:   s.ClosingBalance,
	}
}

// LedgerResponse is the full monthly view of one (theater, product) ledger:
// entries, quantity on hand, and the derived period statistics.
type LedgerResponse struct {
	TheaterID    string               `json:"theaterId"`
	ProductID    string               `json:"productId"`
	Period       string               `json:"period"`
	CurrentStock types.Quantity       `json:"currentStock"`
	AsOf         time.Time            `json:"asOf"`
	Entries      []StockEntryResponse `json:"entries"`
	Statistics   MonthlyStatistics    `json:"statistics"`
}

// TheaterProductStock is one row of a theater-wide stock listing.
type TheaterProductStock struct {
	ProductID    string         `json:"productId"`
	ProductCode  string         `json:"productCode"`
	ProductName  string         `json:"productName"`
	Unit         string         `json:"unit"`
	CurrentStock types.Quantity `json:"currentStock"`
	MinStock     types.Quantity `json:"minStock"`
	LowStock     bool           `json:"lowStock"`
}

// TheaterStockResponse lists current stock for every product of a theater.
type TheaterStockResponse struct {
	TheaterID string                `json:"theaterId"`
	AsOf      time.Time             `json:"asOf"`
	Products  []TheaterProductStock `json:"products"`
}
