package auth

import (
	"context"
	"strings"
)

// Role grants access to a group of endpoints.
type Role string

const (
	// RoleViewer reads dashboards
	RoleViewer Role = "viewer"
	// RoleOperator reads dashboards and triggers CRM syncs
	RoleOperator Role = "operator"
	// RoleAdmin has every permission
	RoleAdmin Role = "admin"
)

// Authentication methods recorded on the caller.
const (
	MethodAPIKey = "api_key"
	MethodJWT    = "jwt"
)

// Caller holds the authenticated principal of a request
type Caller struct {
	Subject string
	Name    string
	Email   string
	Roles   []Role
	Method  string
}

type contextKey string

const callerContextKey contextKey = "caller"

// WithCaller adds the caller to the context
func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

// FromContext extracts the caller from the context
func FromContext(ctx context.Context) (*Caller, bool) {
	caller, ok := ctx.Value(callerContextKey).(*Caller)
	return caller, ok
}

// HasRole checks if the caller has a specific role. Admins have every role.
func (c *Caller) HasRole(role Role) bool {
	for _, r := range c.Roles {
		if r == role || r == RoleAdmin {
			return true
		}
	}
	return false
}

// HasAnyRole checks if the caller has any of the specified roles
func (c *Caller) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if c.HasRole(role) {
			return true
		}
	}
	return false
}

// RolesAsStrings returns roles as a slice of strings
func (c *Caller) RolesAsStrings() []string {
	result := make([]string, len(c.Roles))
	for i, role := range c.Roles {
		result[i] = string(role)
	}
	return result
}

// ParseRole normalizes a role name. Unknown names return false.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleViewer, RoleOperator, RoleAdmin:
		return r, true
	default:
		return "", false
	}
}
