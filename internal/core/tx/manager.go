// Package tx provides transaction management abstractions.
// Domain services depend on the Manager interface; the PostgreSQL
// implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
	"errors"
)

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT, ROLLBACK, and nested transaction
// support.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// ErrNoManager is returned when no Manager was injected into the context.
var ErrNoManager = errors.New("transaction manager not found in context")

type managerKey struct{}

// WithManager stores a Manager in the context. The database middleware does
// this once per request so repositories and services share one manager.
func WithManager(ctx context.Context, m Manager) context.Context {
	return context.WithValue(ctx, managerKey{}, m)
}

// FromContext retrieves the Manager from context.
func FromContext(ctx context.Context) (Manager, error) {
	m, ok := ctx.Value(managerKey{}).(Manager)
	if !ok || m == nil {
		return nil, ErrNoManager
	}
	return m, nil
}

// MustFromContext retrieves the Manager or panics.
// Use in places where a missing manager is a programming error.
func MustFromContext(ctx context.Context) Manager {
	m, err := FromContext(ctx)
	if err != nil {
		panic("tx manager not in context: " + err.Error())
	}
	return m
}
