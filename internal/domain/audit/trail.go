// Package audit wires the entity lifecycle hooks to an audit trail so every
// stock and catalog mutation leaves a reviewable record.
package audit

import (
	"context"

	"canteenledger/internal/core/id"
	"canteenledger/internal/core/security"
	"canteenledger/internal/domain/catalogs/product"
	"canteenledger/internal/domain/ledger"
)

// Action is the audited operation type.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change is one audited mutation.
type Change struct {
	EntityType string
	EntityID   id.ID
	TheaterID  string
	Action     Action
	Fields     map[string]any
}

// Recorder persists audit changes. The PostgreSQL implementation compresses
// large payloads; tests can use an in-memory recorder.
type Recorder interface {
	Record(ctx context.Context, change Change) error
}

// enabled reports whether the audit trail flag is on; a nil provider leaves
// the trail always on.
func enabled(ctx context.Context, flags security.FeatureFlagProvider) bool {
	if flags == nil {
		return true
	}
	return flags.IsEnabled(ctx, security.FlagAuditTrail)
}

// RegisterStockEntryHooks attaches audit recording to ledger mutations.
// Hooks run after the transaction commits; a recording failure is surfaced
// to the hook runner, which logs it without failing the mutation.
func RegisterStockEntryHooks(svc *ledger.Service, rec Recorder, flags security.FeatureFlagProvider) {
	svc.Hooks().OnAfterCreate(func(ctx context.Context, e *ledger.StockEntry) error {
		if !enabled(ctx, flags) {
			return nil
		}
		return rec.Record(ctx, stockEntryChange(e, ActionCreate))
	})
	svc.Hooks().OnAfterUpdate(func(ctx context.Context, e *ledger.StockEntry) error {
		if !enabled(ctx, flags) {
			return nil
		}
		return rec.Record(ctx, stockEntryChange(e, ActionUpdate))
	})
	svc.Hooks().OnAfterDelete(func(ctx context.Context, e *ledger.StockEntry) error {
		if !enabled(ctx, flags) {
			return nil
		}
		return rec.Record(ctx, stockEntryChange(e, ActionDelete))
	})
}

// RegisterProductHooks attaches audit recording to catalog mutations.
func RegisterProductHooks(svc *product.Service, rec Recorder, flags security.FeatureFlagProvider) {
	svc.Hooks().OnAfterCreate(func(ctx context.Context, p *product.Product) error {
		if !enabled(ctx, flags) {
			return nil
		}
		return rec.Record(ctx, productChange(p, ActionCreate))
	})
	svc.Hooks().OnAfterUpdate(func(ctx context.Context, p *product.Product) error {
		if !enabled(ctx, flags) {
			return nil
		}
		return rec.Record(ctx, productChange(p, ActionUpdate))
	})
}

func stockEntryChange(e *ledger.StockEntry, action Action) Change {
	fields := map[string]any{
		"entryDate":     e.EntryDate,
		"quantityAdded": e.QuantityAdded,
		"usedStock":     e.UsedStock,
		"damageStock":   e.DamageStock,
		"version":       e.Version,
	}
	if e.ExpireDate != nil {
		fields["expireDate"] = *e.ExpireDate
	}
	if e.BatchNumber != "" {
		fields["batchNumber"] = e.BatchNumber
	}
	return Change{
		EntityType: "stock_entry",
		EntityID:   e.ID,
		TheaterID:  e.TheaterID.String(),
		Action:     action,
		Fields:     fields,
	}
}

func productChange(p *product.Product, action Action) Change {
	return Change{
		EntityType: "product",
		EntityID:   p.ID,
		Action:     action,
		Fields: map[string]any{
			"code":         p.Code,
			"name":         p.Name,
			"price":        p.Price,
			"isAvailable":  p.IsAvailable,
			"deletionMark": p.DeletionMark,
			"version":      p.Version,
		},
	}
}
