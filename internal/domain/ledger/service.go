package ledger

import (
	"context"
	"fmt"
	"time"

	"canteenledger/internal/core/apperror"
	"canteenledger/internal/core/id"
	"canteenledger/internal/core/tx"
	"canteenledger/internal/core/types"
	"canteenledger/internal/domain"
	"canteenledger/pkg/logger"
)

// Service orchestrates stock entry mutations and balance queries for one
// tenant database. It is the only ledger component with side effects: all
// mutations are persisted synchronously under the per-ledger lock before the
// call returns, and summaries are derived on read.
type Service struct {
	repo      Repository
	txManager tx.Manager // Optional. If nil, obtained from context.
	hooks     *domain.HookRegistry[*StockEntry]

	// now is the clock source for asOf defaults; overridable in tests.
	now func() time.Time
}

// NewService creates a new ledger service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*StockEntry](),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*StockEntry] {
	return s.hooks
}

// SetClock overrides the service clock. Intended for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return tx.FromContext(ctx)
}

// AddEntryInput carries the fields of a stock-in action.
type AddEntryInput struct {
	TheaterID   id.ID
	ProductID   id.ID
	EntryDate   time.Time
	Quantity    types.Quantity
	UsedStock   types.Quantity
	DamageStock types.Quantity
	ExpireDate  *time.Time
	BatchNumber string
	Notes       string
}

// AddEntry validates and persists a new stock entry.
func (s *Service) AddEntry(ctx context.Context, in AddEntryInput) (*StockEntry, error) {
	entry := NewStockEntry(in.TheaterID, in.ProductID, in.EntryDate, in.Quantity)
	entry.UsedStock = in.UsedStock
	entry.DamageStock = in.DamageStock
	entry.ExpireDate = in.ExpireDate
	entry.BatchNumber = in.BatchNumber
	entry.Notes = in.Notes

	if err := s.hooks.RunBeforeCreate(ctx, entry); err != nil {
		return nil, err
	}
	if err := entry.Validate(ctx); err != nil {
		return nil, err
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.LockLedger(ctx, in.TheaterID, in.ProductID); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, entry); err != nil {
			return fmt.Errorf("create entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.RunAfterCreate(ctx, entry); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "stock entry created",
		"entry_id", entry.ID,
		"theater_id", entry.TheaterID,
		"product_id", entry.ProductID,
		"quantity", entry.QuantityAdded,
	)
	return entry, nil
}

// UpdateEntryInput carries a partial update; nil fields keep their stored
// values.
type UpdateEntryInput struct {
	EntryDate   *time.Time
	Quantity    *types.Quantity
	UsedStock   *types.Quantity
	DamageStock *types.Quantity
	ExpireDate  *time.Time
	ClearExpire bool
	BatchNumber *string
	Notes       *string
}

// UpdateEntry applies a partial update to an entry, re-validating the
// conservation invariant against the possibly changed quantity. The entry
// must belong to the caller's (theater, product) scope.
func (s *Service) UpdateEntry(ctx context.Context, theaterID, productID, entryID id.ID, in UpdateEntryInput) (*StockEntry, error) {
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}

	var entry *StockEntry
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.LockLedger(ctx, theaterID, productID); err != nil {
			return err
		}

		entry, err = s.getScoped(ctx, theaterID, productID, entryID)
		if err != nil {
			return err
		}

		applyPatch(entry, in)

		if err := s.hooks.RunBeforeUpdate(ctx, entry); err != nil {
			return err
		}
		if err := validateUpdated(entry); err != nil {
			return err
		}

		entry.Touch()
		if err := s.repo.Update(ctx, entry); err != nil {
			return fmt.Errorf("update entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.RunAfterUpdate(ctx, entry); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}

	logger.Info(ctx, "stock entry updated", "entry_id", entry.ID, "version", entry.Version)
	return entry, nil
}

func applyPatch(entry *StockEntry, in UpdateEntryInput) {
	if in.EntryDate != nil {
		entry.EntryDate = *in.EntryDate
	}
	if in.Quantity != nil {
		entry.QuantityAdded = *in.Quantity
	}
	if in.UsedStock != nil {
		entry.UsedStock = *in.UsedStock
	}
	if in.DamageStock != nil {
		entry.DamageStock = *in.DamageStock
	}
	if in.ClearExpire {
		entry.ExpireDate = nil
	} else if in.ExpireDate != nil {
		entry.ExpireDate = in.ExpireDate
	}
	if in.BatchNumber != nil {
		entry.BatchNumber = *in.BatchNumber
	}
	if in.Notes != nil {
		entry.Notes = *in.Notes
	}
}

// validateUpdated maps invariant violations on update to conflicts: the
// caller raced another mutation (or its own stale read) and may retry with
// fresh data.
func validateUpdated(entry *StockEntry) error {
	if !entry.QuantityAdded.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", entry.QuantityAdded)
	}
	if entry.UsedStock.IsNegative() || entry.DamageStock.IsNegative() {
		return apperror.NewValidation("stock counters cannot be negative").
			WithDetail("usedStock", entry.UsedStock).
			WithDetail("damageStock", entry.DamageStock)
	}
	if entry.UsedStock+entry.DamageStock > entry.QuantityAdded {
		return apperror.NewConflict("used and damaged stock exceed quantity added").
			WithDetail("quantityAdded", entry.QuantityAdded).
			WithDetail("usedStock", entry.UsedStock).
			WithDetail("damageStock", entry.DamageStock)
	}
	return nil
}

// DeleteEntry removes an entry from the ledger and from all future
// aggregation. The period parameters mirror the admin API: the caller names
// the month whose view triggered the deletion, which also bounds the periods
// whose derived summaries change (the entry's month and later).
func (s *Service) DeleteEntry(ctx context.Context, theaterID, productID, entryID id.ID, year, month int) error {
	if _, err := NewPeriod(year, month); err != nil {
		return err
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}

	var entry *StockEntry
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.LockLedger(ctx, theaterID, productID); err != nil {
			return err
		}

		entry, err = s.getScoped(ctx, theaterID, productID, entryID)
		if err != nil {
			return err
		}
		if err := s.hooks.RunBeforeDelete(ctx, entry); err != nil {
			return err
		}
		return s.repo.Delete(ctx, entryID)
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterDelete(ctx, entry); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "error", err)
	}

	logger.Info(ctx, "stock entry deleted",
		"entry_id", entryID,
		"period", fmt.Sprintf("%04d-%02d", year, month),
	)
	return nil
}

// GetCurrentStock returns the quantity on hand at asOf (zero time means now).
func (s *Service) GetCurrentStock(ctx context.Context, theaterID, productID id.ID, asOf time.Time) (types.Quantity, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	entries, err := s.repo.ListByLedger(ctx, theaterID, productID)
	if err != nil {
		return 0, fmt.Errorf("list entries: %w", err)
	}
	return CurrentBalance(entries, asOf)
}

// GetTheaterStock returns quantity on hand per product for a whole theater
// at asOf (zero time means now).
func (s *Service) GetTheaterStock(ctx context.Context, theaterID id.ID, asOf time.Time) (map[id.ID]types.Quantity, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	entries, err := s.repo.ListByTheater(ctx, theaterID)
	if err != nil {
		return nil, fmt.Errorf("list theater entries: %w", err)
	}

	byProduct := make(map[id.ID][]StockEntry)
	for _, e := range entries {
		byProduct[e.ProductID] = append(byProduct[e.ProductID], e)
	}

	stocks := make(map[id.ID]types.Quantity, len(byProduct))
	for productID, productEntries := range byProduct {
		balance, err := CurrentBalance(productEntries, asOf)
		if err != nil {
			return nil, err
		}
		stocks[productID] = balance
	}
	return stocks, nil
}

// GetMonthlyReport reconstructs the MonthlySummary for the requested period,
// evaluating expiry at the service clock's now. Reading has no side effects;
// repeated calls with no intervening mutation yield identical results.
func (s *Service) GetMonthlyReport(ctx context.Context, theaterID, productID id.ID, year, month int) (MonthlySummary, error) {
	p, err := NewPeriod(year, month)
	if err != nil {
		return MonthlySummary{}, err
	}
	entries, err := s.repo.ListByLedger(ctx, theaterID, productID)
	if err != nil {
		return MonthlySummary{}, fmt.Errorf("list entries: %w", err)
	}
	return Summarize(entries, p.Year, p.Month, s.now())
}

// MonthlyView bundles everything the monthly ledger endpoint renders:
// the period's entries, the derived statistics, and the quantity on hand
// at AsOf. All three are computed from one read of the ledger.
type MonthlyView struct {
	Entries      []StockEntry
	Summary      MonthlySummary
	CurrentStock types.Quantity
	AsOf         time.Time
}

// GetMonthlyView loads the ledger once and derives the monthly view from
// that single scan, so the read path issues one repository query instead
// of one per derived value.
func (s *Service) GetMonthlyView(ctx context.Context, theaterID, productID id.ID, year, month int) (MonthlyView, error) {
	p, err := NewPeriod(year, month)
	if err != nil {
		return MonthlyView{}, err
	}
	entries, err := s.repo.ListByLedger(ctx, theaterID, productID)
	if err != nil {
		return MonthlyView{}, fmt.Errorf("list entries: %w", err)
	}

	now := s.now()
	summary, err := Summarize(entries, p.Year, p.Month, now)
	if err != nil {
		return MonthlyView{}, err
	}
	balance, err := CurrentBalance(entries, now)
	if err != nil {
		return MonthlyView{}, err
	}

	inPeriod := make([]StockEntry, 0, len(entries))
	for _, e := range entries {
		if p.Contains(e.EntryDate) {
			inPeriod = append(inPeriod, e)
		}
	}

	return MonthlyView{
		Entries:      inPeriod,
		Summary:      summary,
		CurrentStock: balance,
		AsOf:         now,
	}, nil
}

// getScoped loads an entry and hides it behind NotFound when it does not
// belong to the caller's ledger scope.
func (s *Service) getScoped(ctx context.Context, theaterID, productID, entryID id.ID) (*StockEntry, error) {
	entry, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.TheaterID != theaterID || entry.ProductID != productID {
		return nil, apperror.NewNotFound("stock entry", entryID.String())
	}
	return entry, nil
}
