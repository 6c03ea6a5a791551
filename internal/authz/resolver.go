package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/singleflight"

	"github.com/atrium-admin/atrium/internal/platform/cache"
	"github.com/atrium-admin/atrium/internal/shared"
)

// Decision outcome reasons, distinguishable in logs and metrics even
// though every denial looks identical to the caller.
const (
	ReasonSuperAdmin         = "super_admin"
	ReasonNotAdministrative  = "not_administrative"
	ReasonUnknownPermission  = "unknown_permission"
	ReasonSuperAdminRequired = "super_admin_required"
	ReasonContextOverride    = "context_override"
	ReasonMatched            = "matched"
	ReasonNoMatch            = "no_match"
	ReasonStorage            = "storage"
)

// DecisionRecorder receives decision and cache outcome observations.
// Implemented by the observability metrics registry.
type DecisionRecorder interface {
	Decision(granted bool, reason string)
	CacheLookup(artifact string, hit bool)
}

// attachContextOverrides is the fixed allow-list for the context
// override rule: holding the companion permission implicitly grants the
// shared media attach capability inside that resource flow. Deliberately
// not derived from the catalog so catalog edits cannot widen it.
var attachContextOverrides = map[string]map[string]string{
	"blog": {
		"create": shared.PermBlogCreate,
		"update": shared.PermBlogUpdate,
	},
	"portfolio": {
		"create": shared.PermPortfolioCreate,
		"update": shared.PermPortfolioUpdate,
	},
	"realestate": {
		"create": shared.PermRealEstateCreate,
		"update": shared.PermRealEstateUpdate,
	},
	"store": {
		"create": shared.PermStoreCreate,
		"update": shared.PermStoreUpdate,
	},
}

// Resolver owns the permission decision algorithm. It is stateless per
// call; shared state lives behind the cache layer and role store.
type Resolver struct {
	catalog *Catalog
	norm    *Normalizer
	store   RoleStore
	cache   *PermissionCache
	logger  *slog.Logger
	metrics DecisionRecorder

	group singleflight.Group
}

// NewResolver wires the resolution engine. metrics may be nil.
func NewResolver(catalog *Catalog, store RoleStore, permCache *PermissionCache, logger *slog.Logger, metrics DecisionRecorder) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		catalog: catalog,
		norm:    NewNormalizer(catalog),
		store:   store,
		cache:   permCache,
		logger:  logger,
		metrics: metrics,
	}
}

// HasPermission answers a single yes/no decision for a principal. Every
// downstream failure degrades to a deny, never to an error.
func (r *Resolver) HasPermission(ctx context.Context, principal shared.Principal, permissionID string, callCtx *CallContext, opts Options) bool {
	// Super-admin bypass comes before everything else and is never
	// derived from cache.
	if principal.IsSuperAdmin {
		r.record(true, ReasonSuperAdmin)
		return true
	}
	if !principal.IsAdministrative() {
		r.record(false, ReasonNotAdministrative)
		return false
	}
	perm, ok := r.catalog.Get(permissionID)
	if !ok {
		r.record(false, ReasonUnknownPermission)
		return false
	}
	if perm.SuperAdminOnly {
		// Hard deny before any cache interaction.
		r.record(false, ReasonSuperAdminRequired)
		return false
	}

	if callCtx != nil && r.contextOverrideGrants(ctx, principal, perm.ID, *callCtx, opts) {
		r.record(true, ReasonContextOverride)
		return true
	}

	ma, err := r.modulesActions(ctx, principal, opts)
	if err != nil {
		r.logger.Error("authz: resolve modules/actions",
			slog.Int64("principal_id", principal.ID),
			slog.String("permission", perm.ID),
			slog.String("reason", ReasonStorage),
			slog.Any("error", err))
		r.record(false, ReasonStorage)
		return false
	}
	if r.cartesianMatch(ma, perm) {
		r.record(true, ReasonMatched)
		return true
	}
	r.record(false, ReasonNoMatch)
	return false
}

// EffectivePermissions returns the principal's resolved permission set:
// base grant unioned with every active role's normalized grant.
// Super-admins short-circuit to the full catalog.
func (r *Resolver) EffectivePermissions(ctx context.Context, principal shared.Principal, opts Options) ([]string, error) {
	if principal.IsSuperAdmin {
		return r.catalog.IDs(), nil
	}
	if !principal.IsAdministrative() {
		return []string{}, nil
	}

	if !opts.SkipCache {
		perms, err := r.cache.GetPermissions(ctx, principal.ID)
		if err == nil {
			r.lookup("permissions", true)
			return perms, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			// A broken cache tier is a miss, not a failure; the store
			// remains the source of truth.
			r.logger.Warn("authz: permissions cache read",
				slog.Int64("principal_id", principal.ID),
				slog.Any("error", err))
		}
		r.lookup("permissions", false)

		result, err, _ := r.group.Do(fmt.Sprintf("perms:%d", principal.ID), func() (any, error) {
			return r.resolvePermissions(ctx, principal, true)
		})
		if err != nil {
			return nil, err
		}
		return result.([]string), nil
	}
	return r.resolvePermissions(ctx, principal, false)
}

// resolvePermissions derives the permission list from the role store and
// optionally populates the cache.
func (r *Resolver) resolvePermissions(ctx context.Context, principal shared.Principal, populate bool) ([]string, error) {
	records, err := r.store.ListActiveRolesFor(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	granted := make(map[string]struct{})
	for _, id := range BaseGrant() {
		granted[id] = struct{}{}
	}
	for _, rec := range records {
		payload, err := ParsePayload(rec.Payload)
		if err != nil {
			// A corrupt role contributes nothing; the rest of the
			// principal's roles still resolve.
			r.logger.Warn("authz: skipping malformed role payload",
				slog.Int64("principal_id", principal.ID),
				slog.Int64("role_id", rec.ID),
				slog.String("role", rec.Name),
				slog.Any("error", err))
			continue
		}
		for id := range r.norm.NormalizeRole(payload, principal.IsSuperAdmin) {
			granted[id] = struct{}{}
		}
	}

	perms := make([]string, 0, len(granted))
	for id := range granted {
		perms = append(perms, id)
	}
	sort.Strings(perms)

	if populate {
		if err := r.cache.SetPermissions(ctx, principal.ID, perms); err != nil {
			r.logger.Warn("authz: populate permissions cache",
				slog.Int64("principal_id", principal.ID),
				slog.Any("error", err))
		}
	}
	return perms, nil
}

// modulesActions loads the raw pair backing the cartesian membership
// check, through the cache unless bypassed.
func (r *Resolver) modulesActions(ctx context.Context, principal shared.Principal, opts Options) (ModulesActions, error) {
	if !opts.SkipCache {
		ma, err := r.cache.GetModulesActions(ctx, principal.ID)
		if err == nil {
			r.lookup("modules_actions", true)
			return ma, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			r.logger.Warn("authz: modules/actions cache read",
				slog.Int64("principal_id", principal.ID),
				slog.Any("error", err))
		}
		r.lookup("modules_actions", false)

		result, err, _ := r.group.Do(fmt.Sprintf("ma:%d", principal.ID), func() (any, error) {
			return r.resolveModulesActions(ctx, principal, true)
		})
		if err != nil {
			return ModulesActions{}, err
		}
		return result.(ModulesActions), nil
	}
	return r.resolveModulesActions(ctx, principal, false)
}

func (r *Resolver) resolveModulesActions(ctx context.Context, principal shared.Principal, populate bool) (ModulesActions, error) {
	records, err := r.store.ListActiveRolesFor(ctx, principal.ID)
	if err != nil {
		return ModulesActions{}, err
	}

	payloads := make([]RolePayload, 0, len(records))
	enumerated := false
	for _, rec := range records {
		payload, err := ParsePayload(rec.Payload)
		if err != nil {
			r.logger.Warn("authz: skipping malformed role payload",
				slog.Int64("principal_id", principal.ID),
				slog.Int64("role_id", rec.ID),
				slog.String("role", rec.Name),
				slog.Any("error", err))
			continue
		}
		if payload.Enumerated() {
			enumerated = true
		}
		payloads = append(payloads, payload)
	}

	modules := make(map[string]struct{})
	actions := make(map[string]struct{})
	if enumerated {
		// Legacy behavior: once any role uses the enumerated form the
		// cartesian merge is skipped for every role; only enumerated
		// grants feed the modules/actions pair.
		for _, payload := range payloads {
			if !payload.Enumerated() {
				continue
			}
			for id := range r.norm.NormalizeRole(payload, principal.IsSuperAdmin) {
				perm, ok := r.catalog.Get(id)
				if !ok {
					continue
				}
				modules[perm.Module] = struct{}{}
				for _, a := range expandActionAliases([]string{perm.Action}) {
					actions[a] = struct{}{}
				}
			}
		}
	} else {
		for _, payload := range payloads {
			for _, m := range payload.Modules {
				modules[m] = struct{}{}
			}
			for _, a := range payload.Actions {
				actions[a] = struct{}{}
			}
		}
	}

	ma := ModulesActions{Modules: setToSorted(modules), Actions: setToSorted(actions)}
	if populate {
		if err := r.cache.SetModulesActions(ctx, principal.ID, ma); err != nil {
			r.logger.Warn("authz: populate modules/actions cache",
				slog.Int64("principal_id", principal.ID),
				slog.Any("error", err))
		}
	}
	return ma, nil
}

// contextOverrideGrants evaluates the fixed allow-list: only the shared
// media attach capability participates, and only when the principal
// already holds the companion permission for the supplied flow.
func (r *Resolver) contextOverrideGrants(ctx context.Context, principal shared.Principal, permissionID string, callCtx CallContext, opts Options) bool {
	if permissionID != shared.PermMediaAttach {
		return false
	}
	byAction, ok := attachContextOverrides[callCtx.Type]
	if !ok {
		return false
	}
	companion, ok := byAction[callCtx.Action]
	if !ok {
		return false
	}
	perms, err := r.EffectivePermissions(ctx, principal, opts)
	if err != nil {
		r.logger.Error("authz: context override resolution",
			slog.Int64("principal_id", principal.ID),
			slog.String("companion", companion),
			slog.Any("error", err))
		return false
	}
	for _, id := range perms {
		if id == companion {
			return true
		}
	}
	return false
}

func (r *Resolver) cartesianMatch(ma ModulesActions, perm Permission) bool {
	moduleOK := false
	for _, m := range ma.Modules {
		if m == WildcardAll || m == perm.Module {
			moduleOK = true
			break
		}
	}
	if !moduleOK {
		return false
	}
	for _, a := range ma.Actions {
		if a == WildcardAll || a == perm.Action {
			return true
		}
	}
	return false
}

func (r *Resolver) record(granted bool, reason string) {
	if r.metrics != nil {
		r.metrics.Decision(granted, reason)
	}
}

func (r *Resolver) lookup(artifact string, hit bool) {
	if r.metrics != nil {
		r.metrics.CacheLookup(artifact, hit)
	}
}

func setToSorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
