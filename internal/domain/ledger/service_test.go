package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canteenledger/internal/core/apperror"
	"canteenledger/internal/core/id"
)

// memoryRepo is an in-memory Repository for service tests.
type memoryRepo struct {
	entries map[id.ID]StockEntry
	locked  int
	lists   int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{entries: make(map[id.ID]StockEntry)}
}

func (r *memoryRepo) Create(ctx context.Context, entry *StockEntry) error {
	r.entries[entry.ID] = *entry
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, entryID id.ID) (*StockEntry, error) {
	e, ok := r.entries[entryID]
	if !ok {
		return nil, apperror.NewNotFound("stock entry", entryID)
	}
	return &e, nil
}

func (r *memoryRepo) Update(ctx context.Context, entry *StockEntry) error {
	stored, ok := r.entries[entry.ID]
	if !ok || stored.Version != entry.Version-1 {
		return apperror.NewConcurrentModification("stock entry", entry.ID)
	}
	r.entries[entry.ID] = *entry
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, entryID id.ID) error {
	if _, ok := r.entries[entryID]; !ok {
		return apperror.NewNotFound("stock entry", entryID)
	}
	delete(r.entries, entryID)
	return nil
}

func (r *memoryRepo) ListByLedger(ctx context.Context, theaterID, productID id.ID) ([]StockEntry, error) {
	r.lists++
	var out []StockEntry
	for _, e := range r.entries {
		if e.TheaterID == theaterID && e.ProductID == productID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListByTheater(ctx context.Context, theaterID id.ID) ([]StockEntry, error) {
	var out []StockEntry
	for _, e := range r.entries {
		if e.TheaterID == theaterID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryRepo) LockLedger(ctx context.Context, theaterID, productID id.ID) error {
	r.locked++
	return nil
}

// noopTxManager runs the callback without a real transaction.
type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(repo *memoryRepo) *Service {
	return NewService(repo, noopTxManager{})
}

func TestService_AddEntry(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	theaterID, productID := id.New(), id.New()

	entry, err := svc.AddEntry(ctx, AddEntryInput{
		TheaterID:   theaterID,
		ProductID:   productID,
		EntryDate:   date(2026, time.January, 5),
		Quantity:    qty(100),
		UsedStock:   qty(20),
		BatchNumber: "B-001",
	})
	require.NoError(t, err)
	assert.False(t, id.IsNil(entry.ID))
	assert.Equal(t, 1, entry.Version)
	assert.Equal(t, EntryTypeAdded, entry.Type)
	assert.Equal(t, 1, repo.locked, "mutation must take the ledger lock")

	stored, err := repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(100), stored.QuantityAdded)
}

func TestService_AddEntry_Validation(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	tests := []struct {
		name string
		in   AddEntryInput
	}{
		{
			name: "zero quantity",
			in: AddEntryInput{
				TheaterID: id.New(), ProductID: id.New(),
				EntryDate: date(2026, time.January, 5),
			},
		},
		{
			name: "missing theater",
			in: AddEntryInput{
				ProductID: id.New(),
				EntryDate: date(2026, time.January, 5),
				Quantity:  qty(10),
			},
		},
		{
			name: "counters exceed quantity",
			in: AddEntryInput{
				TheaterID: id.New(), ProductID: id.New(),
				EntryDate: date(2026, time.January, 5),
				Quantity:  qty(10), UsedStock: qty(8), DamageStock: qty(5),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddEntry(ctx, tt.in)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}

func TestService_UpdateEntry_AdjustsCurrentStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	theaterID, productID := id.New(), id.New()
	entry, err := svc.AddEntry(ctx, AddEntryInput{
		TheaterID: theaterID, ProductID: productID,
		EntryDate: date(2026, time.January, 5),
		Quantity:  qty(50),
	})
	require.NoError(t, err)

	before, err := svc.GetCurrentStock(ctx, theaterID, productID, date(2026, time.January, 10))
	require.NoError(t, err)
	assert.Equal(t, qty(50), before)

	used := qty(20)
	updated, err := svc.UpdateEntry(ctx, theaterID, productID, entry.ID, UpdateEntryInput{
		UsedStock: &used,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	after, err := svc.GetCurrentStock(ctx, theaterID, productID, date(2026, time.January, 10))
	require.NoError(t, err)
	assert.Equal(t, qty(30), after)
}

func TestService_UpdateEntry_ConservationConflict(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	theaterID, productID := id.New(), id.New()
	entry, err := svc.AddEntry(ctx, AddEntryInput{
		TheaterID: theaterID, ProductID: productID,
		EntryDate: date(2026, time.January, 5),
		Quantity:  qty(10),
	})
	require.NoError(t, err)

	used := qty(15)
	_, err = svc.UpdateEntry(ctx, theaterID, productID, entry.ID, UpdateEntryInput{UsedStock: &used})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestService_UpdateEntry_WrongScopeIsNotFound(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	theaterID, productID := id.New(), id.New()
	entry, err := svc.AddEntry(ctx, AddEntryInput{
		TheaterID: theaterID, ProductID: productID,
		EntryDate: date(2026, time.January, 5),
		Quantity:  qty(10),
	})
	require.NoError(t, err)

	// Same entry ID queried through another theater's scope must behave
	// as if the entry does not exist.
	notes := "x"
	_, err = svc.UpdateEntry(ctx, id.New(), productID, entry.ID, UpdateEntryInput{Notes: &notes})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_UpdateEntry_ClearExpireDate(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	theaterID, productID := id.New(), id.New()
	entry, err := svc.AddEntry(ctx, AddEntryInput{
		TheaterID: theaterID, ProductID: productID,
		EntryDate:  date(2026, time.January, 5),
		Quantity:   qty(10),
		ExpireDate: datePtr(2026, time.January, 31),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateEntry(ctx, theaterID, productID, entry.ID, UpdateEntryInput{ClearExpire: true})
	require.NoError(t, err)
	assert.Nil(t, updated.ExpireDate)
}

func TestService_DeleteEntry(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	theaterID, productID := id.New(), id.New()
	entry, err := svc.AddEntry(ctx, AddEntryInput{
		TheaterID: theaterID, ProductID: productID,
		EntryDate: date(2026, time.January, 5),
		Quantity:  qty(10),
	})
	require.NoError(t, err)

	// Invalid period is rejected before anything is touched.
	err = svc.DeleteEntry(ctx, theaterID, productID, entry.ID, 2026, 13)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	require.NoError(t, svc.DeleteEntry(ctx, theaterID, productID, entry.ID, 2026, 1))

	_, err = repo.GetByID(ctx, entry.ID)
	assert.True(t, apperror.IsNotFound(err))

	// Deleting again reports not found.
	err = svc.DeleteEntry(ctx, theaterID, productID, entry.ID, 2026, 1)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_GetMonthlyReport_UsesInjectedClock(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	theaterID, productID := id.New(), id.New()
	_, err := svc.AddEntry(ctx, AddEntryInput{
		TheaterID: theaterID, ProductID: productID,
		EntryDate:  date(2026, time.January, 5),
		Quantity:   qty(100),
		ExpireDate: datePtr(2026, time.January, 31),
	})
	require.NoError(t, err)

	svc.SetClock(func() time.Time { return date(2026, time.January, 20) })
	s, err := svc.GetMonthlyReport(ctx, theaterID, productID, 2026, 1)
	require.NoError(t, err)
	assert.Equal(t, qty(0), s.TotalExpired)
	assert.Equal(t, qty(100), s.ClosingBalance)

	svc.SetClock(func() time.Time { return date(2026, time.February, 2) })
	s, err = svc.GetMonthlyReport(ctx, theaterID, productID, 2026, 1)
	require.NoError(t, err)
	assert.Equal(t, qty(100), s.TotalExpired)
	assert.Equal(t, qty(0), s.ClosingBalance)
}

func TestService_GetMonthlyView_SingleScan(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	theaterID, productID := id.New(), id.New()
	_, err := svc.AddEntry(ctx, AddEntryInput{
		TheaterID: theaterID, ProductID: productID,
		EntryDate: date(2026, time.January, 5),
		Quantity:  qty(100), UsedStock: qty(20),
	})
	require.NoError(t, err)
	_, err = svc.AddEntry(ctx, AddEntryInput{
		TheaterID: theaterID, ProductID: productID,
		EntryDate: date(2026, time.February, 3),
		Quantity:  qty(50),
	})
	require.NoError(t, err)

	svc.SetClock(func() time.Time { return date(2026, time.February, 10) })

	repo.lists = 0
	view, err := svc.GetMonthlyView(ctx, theaterID, productID, 2026, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lists, "view must come from one ledger scan")

	require.Len(t, view.Entries, 1)
	assert.Equal(t, date(2026, time.January, 5), view.Entries[0].EntryDate)
	assert.Equal(t, date(2026, time.February, 10), view.AsOf)
	assert.Equal(t, qty(130), view.CurrentStock)

	// The bundled statistics match the standalone report.
	report, err := svc.GetMonthlyReport(ctx, theaterID, productID, 2026, 1)
	require.NoError(t, err)
	assert.Equal(t, report, view.Summary)

	_, err = svc.GetMonthlyView(ctx, theaterID, productID, 2026, 0)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestService_GetTheaterStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	theaterID := id.New()
	productA, productB := id.New(), id.New()

	_, err := svc.AddEntry(ctx, AddEntryInput{
		TheaterID: theaterID, ProductID: productA,
		EntryDate: date(2026, time.January, 5), Quantity: qty(40), UsedStock: qty(10),
	})
	require.NoError(t, err)
	_, err = svc.AddEntry(ctx, AddEntryInput{
		TheaterID: theaterID, ProductID: productB,
		EntryDate: date(2026, time.January, 6), Quantity: qty(25),
	})
	require.NoError(t, err)

	// Another theater's stock must not leak in.
	_, err = svc.AddEntry(ctx, AddEntryInput{
		TheaterID: id.New(), ProductID: productA,
		EntryDate: date(2026, time.January, 7), Quantity: qty(99),
	})
	require.NoError(t, err)

	stocks, err := svc.GetTheaterStock(ctx, theaterID, date(2026, time.January, 10))
	require.NoError(t, err)
	require.Len(t, stocks, 2)
	assert.Equal(t, qty(30), stocks[productA])
	assert.Equal(t, qty(25), stocks[productB])
}
