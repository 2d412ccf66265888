package security

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	appctx "canteenledger/internal/core/context"
)

// FeatureFlagProvider provides feature flag evaluation.
// Abstraction allows different backends: in-memory, conditional rules, etc.
type FeatureFlagProvider interface {
	// IsEnabled checks if feature is enabled for context
	IsEnabled(ctx context.Context, flag string) bool

	// GetVariant returns variant name for A/B tests
	GetVariant(ctx context.Context, flag string) string

	// GetValue returns typed value for feature configuration
	GetValue(ctx context.Context, flag string) any
}

// Feature flag names (constants for type safety)
const (
	FlagStrictPeriodClose = "strict_period_close"
	FlagAuditTrail        = "audit_trail"
	FlagLowStockAlerts    = "low_stock_alerts"
	FlagBatchTracking     = "batch_tracking"
)

// InMemoryFlags is a simple in-memory feature flag provider.
// Suitable for MVP and testing.
type InMemoryFlags struct {
	mu       sync.RWMutex
	flags    map[string]bool
	variants map[string]string
	values   map[string]any
}

// NewInMemoryFlags creates an in-memory flag provider.
func NewInMemoryFlags() *InMemoryFlags {
	return &InMemoryFlags{
		flags:    make(map[string]bool),
		variants: make(map[string]string),
		values:   make(map[string]any),
	}
}

func (f *InMemoryFlags) IsEnabled(ctx context.Context, flag string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.flags[flag]
}

func (f *InMemoryFlags) GetVariant(ctx context.Context, flag string) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.variants[flag]
}

func (f *InMemoryFlags) GetValue(ctx context.Context, flag string) any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values[flag]
}

// SetFlag sets a boolean flag (for testing/admin).
func (f *InMemoryFlags) SetFlag(flag string, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags[flag] = enabled
}

// SetVariant sets a variant (for A/B tests).
func (f *InMemoryFlags) SetVariant(flag, variant string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.variants[flag] = variant
}

// SetValue sets a configuration value.
func (f *InMemoryFlags) SetValue(flag string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[flag] = value
}

// ConditionalFlags evaluates per-flag CEL conditions against the request
// context (theater, user, roles). A flag with no rule falls through to the
// wrapped provider, so rollout rules can be layered over static defaults.
//
// Example rule: `theater_id in ["th-main", "th-east"] && "manager" in roles`
type ConditionalFlags struct {
	base FeatureFlagProvider

	mu    sync.RWMutex
	env   *cel.Env
	rules map[string]cel.Program
}

// NewConditionalFlags creates a CEL-backed conditional provider over base.
func NewConditionalFlags(base FeatureFlagProvider) (*ConditionalFlags, error) {
	env, err := cel.NewEnv(
		cel.Variable("theater_id", cel.StringType),
		cel.Variable("user_id", cel.StringType),
		cel.Variable("roles", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}
	return &ConditionalFlags{
		base:  base,
		env:   env,
		rules: make(map[string]cel.Program),
	}, nil
}

// SetRule compiles and registers a CEL condition for a flag.
// The expression must evaluate to bool.
func (f *ConditionalFlags) SetRule(flag, expr string) error {
	ast, iss := f.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return fmt.Errorf("compile rule for %s: %w", flag, iss.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return fmt.Errorf("rule for %s must evaluate to bool, got %s", flag, ast.OutputType())
	}
	prg, err := f.env.Program(ast)
	if err != nil {
		return fmt.Errorf("build rule program for %s: %w", flag, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[flag] = prg
	return nil
}

// RemoveRule drops the condition for a flag, restoring base behavior.
func (f *ConditionalFlags) RemoveRule(flag string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rules, flag)
}

func (f *ConditionalFlags) IsEnabled(ctx context.Context, flag string) bool {
	f.mu.RLock()
	prg, ok := f.rules[flag]
	f.mu.RUnlock()
	if !ok {
		return f.base.IsEnabled(ctx, flag)
	}

	out, _, err := prg.Eval(activationFrom(ctx))
	if err != nil {
		// Evaluation failure means the rule cannot decide; fail closed.
		return false
	}
	enabled, ok := out.Value().(bool)
	return ok && enabled
}

func (f *ConditionalFlags) GetVariant(ctx context.Context, flag string) string {
	return f.base.GetVariant(ctx, flag)
}

func (f *ConditionalFlags) GetValue(ctx context.Context, flag string) any {
	return f.base.GetValue(ctx, flag)
}

func activationFrom(ctx context.Context) map[string]any {
	theaterID := ""
	userID := ""
	roles := []string{}
	if u := appctx.GetUser(ctx); u != nil {
		userID = u.UserID
		roles = u.Roles
		if len(u.TheaterIDs) == 1 {
			theaterID = u.TheaterIDs[0]
		}
	}
	if scope := GetScope(ctx); scope != nil && len(scope.AllowedTheaterIDs) == 1 {
		theaterID = scope.AllowedTheaterIDs[0]
	}
	return map[string]any{
		"theater_id": theaterID,
		"user_id":    userID,
		"roles":      roles,
	}
}

var _ FeatureFlagProvider = (*InMemoryFlags)(nil)
var _ FeatureFlagProvider = (*ConditionalFlags)(nil)
