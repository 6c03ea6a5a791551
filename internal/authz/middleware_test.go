package authz

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/atrium-admin/atrium/internal/platform/cache"
	"github.com/atrium-admin/atrium/internal/shared"
)

func newTestMiddleware(t *testing.T) (Middleware, *stubRoleStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	permCache := NewPermissionCache(cache.NewStore(client), 5*time.Minute, 10*time.Minute)
	store := &stubRoleStore{}
	resolver := NewResolver(DefaultCatalog(), store, permCache, slog.Default(), nil)
	svc := NewService(resolver, permCache, slog.Default())
	return Middleware{Service: svc, Logger: slog.Default()}, store
}

func requestWithPrincipal(p *shared.Principal) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if p != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
	}
	return req
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAnyDeniesWithoutPrincipal(t *testing.T) {
	mw, _ := newTestMiddleware(t)
	handler := mw.RequireAny(shared.PermBlogRead)(okHandler())

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithPrincipal(nil))
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequireAnyGrantsMatchingPermission(t *testing.T) {
	mw, store := newTestMiddleware(t)
	store.setRole(1, 10, "editor", `{"modules":["blog"],"actions":["read"]}`)
	handler := mw.RequireAny(shared.PermBlogRead, shared.PermStoreRead)(okHandler())

	p := admin(1)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithPrincipal(&p))
	require.Equal(t, http.StatusOK, res.Code)
}

func TestRequireAllDeniesPartialGrant(t *testing.T) {
	mw, store := newTestMiddleware(t)
	store.setRole(1, 10, "editor", `{"modules":["blog"],"actions":["read"]}`)
	handler := mw.RequireAll(shared.PermBlogRead, shared.PermStoreRead)(okHandler())

	p := admin(1)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithPrincipal(&p))
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequireWithEmptyListPassesThrough(t *testing.T) {
	mw, _ := newTestMiddleware(t)
	handler := mw.RequireAny()(okHandler())

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithPrincipal(nil))
	require.Equal(t, http.StatusOK, res.Code)
}

func TestRequireAnySuperAdminBypass(t *testing.T) {
	mw, _ := newTestMiddleware(t)
	handler := mw.RequireAll(shared.PermAdminManage)(okHandler())

	p := superAdmin(9)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithPrincipal(&p))
	require.Equal(t, http.StatusOK, res.Code)
}
