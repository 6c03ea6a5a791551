package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atrium-admin/atrium/internal/platform/cache"
)

const (
	cacheKeyPrefix        = "authz:"
	cacheKeyPermsPrefix   = cacheKeyPrefix + "perms:"
	cacheKeyProfilePrefix = cacheKeyPrefix + "ma:"
)

// ModulesActions is the raw pair backing the legacy cartesian membership
// check, cached alongside the resolved permission list.
type ModulesActions struct {
	Modules []string `json:"modules"`
	Actions []string `json:"actions"`
}

// PermissionCache owns the per-principal cached artifacts: the resolved
// permission list and the modules/actions pair. All invalidation entry
// points live here; the resolver never touches cache keys directly.
type PermissionCache struct {
	store      *cache.Store
	permsTTL   time.Duration
	profileTTL time.Duration
}

// NewPermissionCache wires the cache layer over a key-value store.
// permsTTL bounds the resolved permission list, profileTTL the
// modules/actions bundle.
func NewPermissionCache(store *cache.Store, permsTTL, profileTTL time.Duration) *PermissionCache {
	if permsTTL <= 0 {
		permsTTL = 5 * time.Minute
	}
	if profileTTL <= 0 {
		profileTTL = 10 * time.Minute
	}
	return &PermissionCache{store: store, permsTTL: permsTTL, profileTTL: profileTTL}
}

func permsKey(principalID int64) string {
	return fmt.Sprintf("%s%d", cacheKeyPermsPrefix, principalID)
}

func profileKey(principalID int64) string {
	return fmt.Sprintf("%s%d", cacheKeyProfilePrefix, principalID)
}

// GetPermissions loads the cached permission list, cache.ErrMiss when absent.
func (c *PermissionCache) GetPermissions(ctx context.Context, principalID int64) ([]string, error) {
	payload, err := c.store.Get(ctx, permsKey(principalID))
	if err != nil {
		return nil, err
	}
	var perms []string
	if err := json.Unmarshal(payload, &perms); err != nil {
		// A corrupt entry is indistinguishable from a miss; drop it so
		// the next write replaces it.
		_ = c.store.Delete(ctx, permsKey(principalID))
		return nil, cache.ErrMiss
	}
	return perms, nil
}

// SetPermissions stores the resolved permission list for a principal.
func (c *PermissionCache) SetPermissions(ctx context.Context, principalID int64, perms []string) error {
	payload, err := json.Marshal(perms)
	if err != nil {
		return fmt.Errorf("authz: marshal permissions: %w", err)
	}
	return c.store.Set(ctx, permsKey(principalID), payload, c.permsTTL)
}

// GetModulesActions loads the cached modules/actions pair.
func (c *PermissionCache) GetModulesActions(ctx context.Context, principalID int64) (ModulesActions, error) {
	payload, err := c.store.Get(ctx, profileKey(principalID))
	if err != nil {
		return ModulesActions{}, err
	}
	var ma ModulesActions
	if err := json.Unmarshal(payload, &ma); err != nil {
		_ = c.store.Delete(ctx, profileKey(principalID))
		return ModulesActions{}, cache.ErrMiss
	}
	return ma, nil
}

// SetModulesActions stores the modules/actions pair for a principal.
func (c *PermissionCache) SetModulesActions(ctx context.Context, principalID int64, ma ModulesActions) error {
	payload, err := json.Marshal(ma)
	if err != nil {
		return fmt.Errorf("authz: marshal modules/actions: %w", err)
	}
	return c.store.Set(ctx, profileKey(principalID), payload, c.profileTTL)
}

// Invalidate clears both artifact kinds for one principal. Role and
// assignment writers must call this before reporting success.
func (c *PermissionCache) Invalidate(ctx context.Context, principalID int64) error {
	return c.store.Delete(ctx, permsKey(principalID), profileKey(principalID))
}

// InvalidateAll clears every cached authorization artifact. Used on
// catalog-wide changes.
func (c *PermissionCache) InvalidateAll(ctx context.Context) error {
	return c.store.DeleteByPrefix(ctx, cacheKeyPrefix)
}
