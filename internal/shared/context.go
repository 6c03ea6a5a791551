package shared

import "context"

type principalContextKey struct{}

// Principal identifies the authenticated actor for a request. Kind and
// IsSuperAdmin are loaded from the users table at authentication time,
// never from a cache.
type Principal struct {
	ID           int64
	Email        string
	Kind         string
	IsSuperAdmin bool
}

// Principal kinds known to the platform. Only administrative principals
// hold permissions in the authorization engine.
const (
	PrincipalKindAdmin    = "admin"
	PrincipalKindCustomer = "customer"
)

// IsAdministrative reports whether the principal may hold permissions.
func (p Principal) IsAdministrative() bool {
	return p.Kind == PrincipalKindAdmin
}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context, nil when absent.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
