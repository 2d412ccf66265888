package security

import (
	"context"
	"time"

	"canteenledger/internal/core/apperror"
)

// PeriodPolicy defines rules for backdated ledger mutations.
// Different deployments may have different policies (strict vs flexible).
type PeriodPolicy interface {
	// CanRecord checks if a stock entry can be recorded with given date
	CanRecord(ctx context.Context, entryDate time.Time) error

	// CanModify checks if an existing stock entry can be modified
	CanModify(ctx context.Context, entryDate time.Time) error

	// CanDelete checks if a stock entry can be deleted
	CanDelete(ctx context.Context, entryDate time.Time) error

	// GetClosedPeriod returns the date until which period is closed
	GetClosedPeriod(ctx context.Context) time.Time
}

// StrictPolicy forbids any changes to closed period.
// Used for regulatory compliance.
type StrictPolicy struct {
	closedUntil time.Time
}

// NewStrictPolicy creates policy that forbids changes before closedUntil.
func NewStrictPolicy(closedUntil time.Time) *StrictPolicy {
	return &StrictPolicy{closedUntil: closedUntil}
}

func (p *StrictPolicy) CanRecord(ctx context.Context, entryDate time.Time) error {
	if entryDate.Before(p.closedUntil) {
		return apperror.NewPeriodClosed(p.closedUntil.Format("2006-01"))
	}
	return nil
}

func (p *StrictPolicy) CanModify(ctx context.Context, entryDate time.Time) error {
	return p.CanRecord(ctx, entryDate)
}

func (p *StrictPolicy) CanDelete(ctx context.Context, entryDate time.Time) error {
	return p.CanRecord(ctx, entryDate)
}

func (p *StrictPolicy) GetClosedPeriod(ctx context.Context) time.Time {
	return p.closedUntil
}

// FlexiblePolicy allows backdated changes with warnings.
// Suitable for development and small canteens.
type FlexiblePolicy struct {
	warningThreshold time.Duration // Warn if older than this
	closedUntil      time.Time     // Hard limit
}

// NewFlexiblePolicy creates policy with soft warnings.
func NewFlexiblePolicy(warningThreshold time.Duration, closedUntil time.Time) *FlexiblePolicy {
	return &FlexiblePolicy{
		warningThreshold: warningThreshold,
		closedUntil:      closedUntil,
	}
}

func (p *FlexiblePolicy) CanRecord(ctx context.Context, entryDate time.Time) error {
	if !p.closedUntil.IsZero() && entryDate.Before(p.closedUntil) {
		return apperror.NewPeriodClosed(p.closedUntil.Format("2006-01"))
	}
	// Soft warning would be logged, not returned as error
	return nil
}

func (p *FlexiblePolicy) CanModify(ctx context.Context, entryDate time.Time) error {
	return p.CanRecord(ctx, entryDate)
}

func (p *FlexiblePolicy) CanDelete(ctx context.Context, entryDate time.Time) error {
	return p.CanRecord(ctx, entryDate)
}

func (p *FlexiblePolicy) GetClosedPeriod(ctx context.Context) time.Time {
	return p.closedUntil
}

// IsBackdatedWarning checks if operation deserves a warning.
func (p *FlexiblePolicy) IsBackdatedWarning(entryDate time.Time) bool {
	if p.warningThreshold == 0 {
		return false
	}
	return time.Since(entryDate) > p.warningThreshold
}

// OpenPolicy allows all operations (for development/testing).
type OpenPolicy struct{}

func (OpenPolicy) CanRecord(ctx context.Context, entryDate time.Time) error { return nil }
func (OpenPolicy) CanModify(ctx context.Context, entryDate time.Time) error { return nil }
func (OpenPolicy) CanDelete(ctx context.Context, entryDate time.Time) error { return nil }
func (OpenPolicy) GetClosedPeriod(ctx context.Context) time.Time            { return time.Time{} }
