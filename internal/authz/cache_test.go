package authz

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/atrium-admin/atrium/internal/platform/cache"
)

func newTestPermissionCache(t *testing.T) (*PermissionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewPermissionCache(cache.NewStore(client), time.Minute, 2*time.Minute), mr
}

func TestPermissionCacheEntriesArePerPrincipal(t *testing.T) {
	pc, _ := newTestPermissionCache(t)
	ctx := context.Background()

	require.NoError(t, pc.SetPermissions(ctx, 1, []string{"blog.read"}))

	_, err := pc.GetPermissions(ctx, 2)
	require.ErrorIs(t, err, cache.ErrMiss)

	perms, err := pc.GetPermissions(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"blog.read"}, perms)
}

func TestPermissionCacheInvalidateClearsBothArtifacts(t *testing.T) {
	pc, _ := newTestPermissionCache(t)
	ctx := context.Background()

	require.NoError(t, pc.SetPermissions(ctx, 1, []string{"blog.read"}))
	require.NoError(t, pc.SetModulesActions(ctx, 1, ModulesActions{Modules: []string{"blog"}, Actions: []string{"read", "view"}}))
	require.NoError(t, pc.SetPermissions(ctx, 2, []string{"store.read"}))

	require.NoError(t, pc.Invalidate(ctx, 1))

	_, err := pc.GetPermissions(ctx, 1)
	require.ErrorIs(t, err, cache.ErrMiss)
	_, err = pc.GetModulesActions(ctx, 1)
	require.ErrorIs(t, err, cache.ErrMiss)

	// Other principals are untouched.
	perms, err := pc.GetPermissions(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"store.read"}, perms)
}

func TestPermissionCacheTTLs(t *testing.T) {
	pc, mr := newTestPermissionCache(t)
	ctx := context.Background()

	require.NoError(t, pc.SetPermissions(ctx, 1, []string{"blog.read"}))
	require.NoError(t, pc.SetModulesActions(ctx, 1, ModulesActions{Modules: []string{"blog"}, Actions: []string{"read", "view"}}))

	// The permission list expires first; the profile bundle lives longer.
	mr.FastForward(90 * time.Second)

	_, err := pc.GetPermissions(ctx, 1)
	require.ErrorIs(t, err, cache.ErrMiss)

	ma, err := pc.GetModulesActions(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"blog"}, ma.Modules)
}

func TestPermissionCacheDropsCorruptEntries(t *testing.T) {
	pc, mr := newTestPermissionCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("authz:perms:1", "{not json"))

	_, err := pc.GetPermissions(ctx, 1)
	require.ErrorIs(t, err, cache.ErrMiss)
}
