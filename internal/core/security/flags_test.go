package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "canteenledger/internal/core/context"
)

func ctxWithUser(theaterID string, roles ...string) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:     "u-1",
		Roles:      roles,
		TheaterIDs: []string{theaterID},
	})
}

func TestInMemoryFlags(t *testing.T) {
	flags := NewInMemoryFlags()
	ctx := context.Background()

	assert.False(t, flags.IsEnabled(ctx, FlagAuditTrail))

	flags.SetFlag(FlagAuditTrail, true)
	flags.SetVariant(FlagLowStockAlerts, "aggressive")
	flags.SetValue(FlagBatchTracking, 30)

	assert.True(t, flags.IsEnabled(ctx, FlagAuditTrail))
	assert.Equal(t, "aggressive", flags.GetVariant(ctx, FlagLowStockAlerts))
	assert.Equal(t, 30, flags.GetValue(ctx, FlagBatchTracking))
}

func TestConditionalFlags_RuleByTheaterAndRole(t *testing.T) {
	base := NewInMemoryFlags()
	flags, err := NewConditionalFlags(base)
	require.NoError(t, err)

	require.NoError(t, flags.SetRule(FlagStrictPeriodClose,
		`theater_id == "th-main" && "manager" in roles`))

	assert.True(t, flags.IsEnabled(ctxWithUser("th-main", "manager"), FlagStrictPeriodClose))
	assert.False(t, flags.IsEnabled(ctxWithUser("th-main", "cashier"), FlagStrictPeriodClose))
	assert.False(t, flags.IsEnabled(ctxWithUser("th-east", "manager"), FlagStrictPeriodClose))
}

func TestConditionalFlags_FallsThroughToBase(t *testing.T) {
	base := NewInMemoryFlags()
	base.SetFlag(FlagAuditTrail, true)
	base.SetVariant(FlagAuditTrail, "v2")

	flags, err := NewConditionalFlags(base)
	require.NoError(t, err)

	ctx := ctxWithUser("th-main")
	// No rule registered: the wrapped provider decides.
	assert.True(t, flags.IsEnabled(ctx, FlagAuditTrail))
	assert.Equal(t, "v2", flags.GetVariant(ctx, FlagAuditTrail))

	// After removing a rule the base decides again.
	require.NoError(t, flags.SetRule(FlagAuditTrail, `false`))
	assert.False(t, flags.IsEnabled(ctx, FlagAuditTrail))
	flags.RemoveRule(FlagAuditTrail)
	assert.True(t, flags.IsEnabled(ctx, FlagAuditTrail))
}

func TestConditionalFlags_RejectsNonBoolRule(t *testing.T) {
	flags, err := NewConditionalFlags(NewInMemoryFlags())
	require.NoError(t, err)

	assert.Error(t, flags.SetRule(FlagAuditTrail, `theater_id`))
	assert.Error(t, flags.SetRule(FlagAuditTrail, `not valid cel (`))
}

func TestConditionalFlags_AnonymousContextFailsClosed(t *testing.T) {
	flags, err := NewConditionalFlags(NewInMemoryFlags())
	require.NoError(t, err)

	require.NoError(t, flags.SetRule(FlagStrictPeriodClose, `theater_id == "th-main"`))

	// No user in context: theater_id is empty, the rule is false.
	assert.False(t, flags.IsEnabled(context.Background(), FlagStrictPeriodClose))
}
