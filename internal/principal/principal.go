// Package principal resolves the acting user for a request. Identity is
// deliberately thin: the engine only ever consumes an opaque {id, role} pair.
package principal

import "context"

// Role gates mutations. Admins bypass ownership checks; contributors own what
// they create.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleContributor Role = "contributor"
	RoleOther       Role = "other"
)

// Principal identifies the acting user.
type Principal struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

type contextKey struct{}

// ContextKey is exported so tests can seed authenticated requests.
var ContextKey = contextKey{}

// FromContext retrieves the authenticated principal, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ContextKey).(Principal)
	return p, ok
}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ContextKey, p)
}
