package authz

import (
	"context"
	"log/slog"

	"github.com/atrium-admin/atrium/internal/shared"
)

// Service is the decision API consumed by the rest of the platform. It
// delegates to the resolver and owns the invalidation entry points that
// role-management code calls after writes.
type Service struct {
	resolver *Resolver
	cache    *PermissionCache
	logger   *slog.Logger
}

// NewService wires the decision facade.
func NewService(resolver *Resolver, permCache *PermissionCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{resolver: resolver, cache: permCache, logger: logger}
}

// Catalog exposes the immutable permission catalog.
func (s *Service) Catalog() *Catalog {
	return s.resolver.catalog
}

// HasPermission reports whether the principal holds the permission,
// optionally inside a call context.
func (s *Service) HasPermission(ctx context.Context, principal shared.Principal, permissionID string, callCtx *CallContext) bool {
	return s.resolver.HasPermission(ctx, principal, permissionID, callCtx, Options{})
}

// HasPermissionOpts is HasPermission with explicit options, e.g. cache
// bypass for read-your-writes after a role mutation.
func (s *Service) HasPermissionOpts(ctx context.Context, principal shared.Principal, permissionID string, callCtx *CallContext, opts Options) bool {
	return s.resolver.HasPermission(ctx, principal, permissionID, callCtx, opts)
}

// HasAnyPermission reports whether the principal holds at least one of
// the given permissions.
func (s *Service) HasAnyPermission(ctx context.Context, principal shared.Principal, permissionIDs ...string) bool {
	for _, id := range permissionIDs {
		if s.resolver.HasPermission(ctx, principal, id, nil, Options{}) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the principal holds every one of the
// given permissions. An empty list is trivially satisfied.
func (s *Service) HasAllPermissions(ctx context.Context, principal shared.Principal, permissionIDs ...string) bool {
	for _, id := range permissionIDs {
		if !s.resolver.HasPermission(ctx, principal, id, nil, Options{}) {
			return false
		}
	}
	return true
}

// GetEffectivePermissions returns the principal's resolved permission set.
func (s *Service) GetEffectivePermissions(ctx context.Context, principal shared.Principal) ([]string, error) {
	return s.resolver.EffectivePermissions(ctx, principal, Options{})
}

// GetEffectivePermissionsOpts is GetEffectivePermissions with options.
func (s *Service) GetEffectivePermissionsOpts(ctx context.Context, principal shared.Principal, opts Options) ([]string, error) {
	return s.resolver.EffectivePermissions(ctx, principal, opts)
}

// InvalidatePrincipal clears the cached artifacts for one principal.
// Role-management code calls this synchronously after any role or
// assignment write, before that write is reported complete.
func (s *Service) InvalidatePrincipal(ctx context.Context, principalID int64) error {
	if err := s.cache.Invalidate(ctx, principalID); err != nil {
		s.logger.Error("authz: invalidate principal",
			slog.Int64("principal_id", principalID),
			slog.Any("error", err))
		return err
	}
	return nil
}

// InvalidateAll clears every cached artifact. Called on catalog-wide
// changes.
func (s *Service) InvalidateAll(ctx context.Context) error {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Error("authz: invalidate all", slog.Any("error", err))
		return err
	}
	return nil
}
