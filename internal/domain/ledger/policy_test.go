package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canteenledger/internal/core/apperror"
	"canteenledger/internal/core/id"
	"canteenledger/internal/core/security"
)

func TestRegisterPeriodPolicyHooks_BlocksClosedPeriod(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	closedUntil := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	RegisterPeriodPolicyHooks(svc, security.NewStrictPolicy(closedUntil), nil)

	_, err := svc.AddEntry(ctx, AddEntryInput{
		TheaterID: id.New(), ProductID: id.New(),
		EntryDate: date(2026, time.January, 15),
		Quantity:  qty(10),
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePeriodClosed, appErr.Code)

	_, err = svc.AddEntry(ctx, AddEntryInput{
		TheaterID: id.New(), ProductID: id.New(),
		EntryDate: date(2026, time.February, 15),
		Quantity:  qty(10),
	})
	assert.NoError(t, err)
}

func TestRegisterPeriodPolicyHooks_FlagGate(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	flags := security.NewInMemoryFlags()
	closedUntil := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	RegisterPeriodPolicyHooks(svc, security.NewStrictPolicy(closedUntil), flags)

	backdated := AddEntryInput{
		TheaterID: id.New(), ProductID: id.New(),
		EntryDate: date(2026, time.January, 15),
		Quantity:  qty(10),
	}

	// Flag off: policy not consulted.
	_, err := svc.AddEntry(ctx, backdated)
	assert.NoError(t, err)

	flags.SetFlag(security.FlagStrictPeriodClose, true)
	_, err = svc.AddEntry(ctx, backdated)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePeriodClosed, appErr.Code)
}

func TestRegisterPeriodPolicyHooks_GuardsUpdateAndDelete(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	theaterID, productID := id.New(), id.New()
	entry, err := svc.AddEntry(ctx, AddEntryInput{
		TheaterID: theaterID, ProductID: productID,
		EntryDate: date(2026, time.January, 15),
		Quantity:  qty(10),
	})
	require.NoError(t, err)

	// Period closes after the entry exists.
	closedUntil := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	RegisterPeriodPolicyHooks(svc, security.NewStrictPolicy(closedUntil), nil)

	used := qty(5)
	_, err = svc.UpdateEntry(ctx, theaterID, productID, entry.ID, UpdateEntryInput{UsedStock: &used})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePeriodClosed, appErr.Code)

	err = svc.DeleteEntry(ctx, theaterID, productID, entry.ID, 2026, 1)
	require.Error(t, err)
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePeriodClosed, appErr.Code)
}
