package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canteenledger/internal/core/id"
	"canteenledger/internal/core/security"
	"canteenledger/internal/core/types"
	"canteenledger/internal/domain/ledger"
)

type memoryRecorder struct {
	changes []Change
}

func (r *memoryRecorder) Record(ctx context.Context, change Change) error {
	r.changes = append(r.changes, change)
	return nil
}

type memoryEntryRepo struct {
	entries map[id.ID]ledger.StockEntry
}

func newMemoryEntryRepo() *memoryEntryRepo {
	return &memoryEntryRepo{entries: make(map[id.ID]ledger.StockEntry)}
}

func (r *memoryEntryRepo) Create(ctx context.Context, e *ledger.StockEntry) error {
	r.entries[e.ID] = *e
	return nil
}

func (r *memoryEntryRepo) GetByID(ctx context.Context, entryID id.ID) (*ledger.StockEntry, error) {
	e := r.entries[entryID]
	return &e, nil
}

func (r *memoryEntryRepo) Update(ctx context.Context, e *ledger.StockEntry) error {
	r.entries[e.ID] = *e
	return nil
}

func (r *memoryEntryRepo) Delete(ctx context.Context, entryID id.ID) error {
	delete(r.entries, entryID)
	return nil
}

func (r *memoryEntryRepo) ListByLedger(ctx context.Context, theaterID, productID id.ID) ([]ledger.StockEntry, error) {
	return nil, nil
}

func (r *memoryEntryRepo) ListByTheater(ctx context.Context, theaterID id.ID) ([]ledger.StockEntry, error) {
	return nil, nil
}

func (r *memoryEntryRepo) LockLedger(ctx context.Context, theaterID, productID id.ID) error {
	return nil
}

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestRegisterStockEntryHooks_RecordsMutations(t *testing.T) {
	svc := ledger.NewService(newMemoryEntryRepo(), noopTxManager{})
	rec := &memoryRecorder{}
	RegisterStockEntryHooks(svc, rec, nil)
	ctx := context.Background()

	theaterID, productID := id.New(), id.New()
	expire := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)
	entry, err := svc.AddEntry(ctx, ledger.AddEntryInput{
		TheaterID:   theaterID,
		ProductID:   productID,
		EntryDate:   time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
		Quantity:    types.NewQuantityFromInt(100),
		ExpireDate:  &expire,
		BatchNumber: "B-17",
	})
	require.NoError(t, err)

	used := types.NewQuantityFromInt(10)
	_, err = svc.UpdateEntry(ctx, theaterID, productID, entry.ID, ledger.UpdateEntryInput{UsedStock: &used})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEntry(ctx, theaterID, productID, entry.ID, 2026, 1))

	require.Len(t, rec.changes, 3)
	assert.Equal(t, ActionCreate, rec.changes[0].Action)
	assert.Equal(t, ActionUpdate, rec.changes[1].Action)
	assert.Equal(t, ActionDelete, rec.changes[2].Action)

	created := rec.changes[0]
	assert.Equal(t, "stock_entry", created.EntityType)
	assert.Equal(t, entry.ID, created.EntityID)
	assert.Equal(t, theaterID.String(), created.TheaterID)
	assert.Equal(t, "B-17", created.Fields["batchNumber"])
	assert.Equal(t, expire, created.Fields["expireDate"])
}

func TestRegisterStockEntryHooks_FlagDisablesRecording(t *testing.T) {
	svc := ledger.NewService(newMemoryEntryRepo(), noopTxManager{})
	rec := &memoryRecorder{}
	flags := security.NewInMemoryFlags() // audit_trail defaults to off
	RegisterStockEntryHooks(svc, rec, flags)
	ctx := context.Background()

	_, err := svc.AddEntry(ctx, ledger.AddEntryInput{
		TheaterID: id.New(), ProductID: id.New(),
		EntryDate: time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
		Quantity:  types.NewQuantityFromInt(5),
	})
	require.NoError(t, err)
	assert.Empty(t, rec.changes)

	flags.SetFlag(security.FlagAuditTrail, true)
	_, err = svc.AddEntry(ctx, ledger.AddEntryInput{
		TheaterID: id.New(), ProductID: id.New(),
		EntryDate: time.Date(2026, time.January, 6, 0, 0, 0, 0, time.UTC),
		Quantity:  types.NewQuantityFromInt(5),
	})
	require.NoError(t, err)
	assert.Len(t, rec.changes, 1)
}
