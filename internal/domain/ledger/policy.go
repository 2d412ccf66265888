package ledger

import (
	"context"

	"canteenledger/internal/core/security"
)

// RegisterPeriodPolicyHooks guards ledger mutations with a period-close
// policy. When flags is non-nil the policy is only consulted while the
// strict-period-close flag is enabled, so accountants can open a closed
// month without a redeploy.
func RegisterPeriodPolicyHooks(svc *Service, policy security.PeriodPolicy, flags security.FeatureFlagProvider) {
	if policy == nil {
		return
	}

	active := func(ctx context.Context) bool {
		if flags == nil {
			return true
		}
		return flags.IsEnabled(ctx, security.FlagStrictPeriodClose)
	}

	svc.Hooks().OnBeforeCreate(func(ctx context.Context, entry *StockEntry) error {
		if !active(ctx) {
			return nil
		}
		return policy.CanRecord(ctx, entry.EntryDate)
	})
	svc.Hooks().OnBeforeUpdate(func(ctx context.Context, entry *StockEntry) error {
		if !active(ctx) {
			return nil
		}
		return policy.CanModify(ctx, entry.EntryDate)
	})
	svc.Hooks().OnBeforeDelete(func(ctx context.Context, entry *StockEntry) error {
		if !active(ctx) {
			return nil
		}
		return policy.CanDelete(ctx, entry.EntryDate)
	})
}
