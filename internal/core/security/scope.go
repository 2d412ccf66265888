// Package security provides authorization and access control.
package security

import (
	"context"
	"fmt"

	"canteenledger/internal/core/apperror"
	appctx "canteenledger/internal/core/context"
)

// Permission defines available permissions in the system.
type Permission string

const (
	// CRUD permissions
	PermissionRead   Permission = "read"
	PermissionCreate Permission = "create"
	PermissionUpdate Permission = "update"
	PermissionDelete Permission = "delete"

	// Admin permissions
	PermissionAdmin Permission = "admin"
	PermissionAudit Permission = "audit"
)

// Role defines a set of permissions.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
	RoleViewer  Role = "viewer"
)

// AccessScope defines the boundaries of data visibility for current request.
// Theaters are the tenancy dimension: every stock mutation and report is
// scoped to a theater, and the scope decides which theaters the caller
// may touch. Also used for consistent logging/audit context.
type AccessScope struct {
	// UserID is the authenticated user
	UserID string

	// IsAdmin bypasses theater filtering
	IsAdmin bool

	// AllowedTheaterIDs limits access to specific theaters
	// Empty = no access (unless IsAdmin)
	AllowedTheaterIDs []string

	// Permissions available to user
	Permissions map[string][]Permission
}

// NewAccessScope creates AccessScope from context.
func NewAccessScope(ctx context.Context) *AccessScope {
	user := appctx.GetUser(ctx)
	if user == nil {
		return &AccessScope{}
	}

	return &AccessScope{
		UserID:            user.UserID,
		IsAdmin:           user.IsAdmin,
		AllowedTheaterIDs: user.TheaterIDs,
	}
}

// CanAccessTheater checks if user can access theater.
func (s *AccessScope) CanAccessTheater(theaterID string) bool {
	if s.IsAdmin {
		return true
	}
	for _, id := range s.AllowedTheaterIDs {
		if id == theaterID {
			return true
		}
	}
	return false
}

// HasPermission checks if user has permission on entity.
func (s *AccessScope) HasPermission(entity string, perm Permission) bool {
	if s.IsAdmin {
		return true
	}
	if perms, ok := s.Permissions[entity]; ok {
		for _, p := range perms {
			if p == perm {
				return true
			}
		}
	}
	return false
}

// RequirePermission returns error if permission is missing.
func (s *AccessScope) RequirePermission(entity string, perm Permission) error {
	if !s.HasPermission(entity, perm) {
		return apperror.NewForbidden(
			fmt.Sprintf("permission %s on %s required", perm, entity),
		).WithDetail("entity", entity).WithDetail("permission", perm)
	}
	return nil
}

// FilterTheaterIDs returns intersection of requested and allowed theater IDs.
// Used to safely filter queries by theater.
func (s *AccessScope) FilterTheaterIDs(requested []string) []string {
	if s.IsAdmin {
		return requested
	}

	if len(requested) == 0 {
		return s.AllowedTheaterIDs
	}

	allowed := make(map[string]bool, len(s.AllowedTheaterIDs))
	for _, id := range s.AllowedTheaterIDs {
		allowed[id] = true
	}

	var result []string
	for _, id := range requested {
		if allowed[id] {
			result = append(result, id)
		}
	}
	return result
}

// --- Context-based scope access ---

type scopeKey struct{}

// WithScope adds AccessScope to context.
func WithScope(ctx context.Context, scope *AccessScope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// GetScope returns AccessScope from context.
func GetScope(ctx context.Context) *AccessScope {
	if v, ok := ctx.Value(scopeKey{}).(*AccessScope); ok {
		return v
	}
	return NewAccessScope(ctx)
}
