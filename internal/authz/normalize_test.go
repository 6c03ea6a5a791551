package authz

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := NewCatalog([]PermissionDef{
		{ID: "blog.read"},
		{ID: "blog.create"},
		{ID: "blog.update"},
		{ID: "portfolio.view"},
		{ID: "store.read"},
		{ID: "admin.manage", SuperAdminOnly: true},
	})
	require.NoError(t, err)
	return catalog
}

func mustParse(t *testing.T, raw string) RolePayload {
	t.Helper()
	payload, err := ParsePayload(json.RawMessage(raw))
	require.NoError(t, err)
	return payload
}

func ids(set map[string]struct{}) []string {
	return setToSorted(set)
}

func TestParsePayloadShapes(t *testing.T) {
	payload := mustParse(t, `{"modules":["Blog"],"actions":["READ"]}`)
	require.False(t, payload.Enumerated())
	require.Equal(t, []string{"blog"}, payload.Modules)
	require.Equal(t, []string{"read", "view"}, payload.Actions)

	payload = mustParse(t, `{"specific_permissions":[{"permission_key":"blog.read"}]}`)
	require.True(t, payload.Enumerated())
	require.Len(t, payload.Specific, 1)

	// Presence of the enumerated key selects the enumerated algorithm
	// even when modules/actions are also present.
	payload = mustParse(t, `{"specific_permissions":[],"modules":["blog"],"actions":["read"]}`)
	require.True(t, payload.Enumerated())

	_, err := ParsePayload(json.RawMessage(`"just a string"`))
	require.ErrorIs(t, err, ErrMalformedPayload)

	_, err = ParsePayload(json.RawMessage(`{"modules":"blog"}`))
	require.ErrorIs(t, err, ErrMalformedPayload)

	_, err = ParsePayload(json.RawMessage(`{"specific_permissions":{"x":1}}`))
	require.ErrorIs(t, err, ErrMalformedPayload)

	payload, err = ParsePayload(nil)
	require.NoError(t, err)
	require.False(t, payload.Enumerated())
}

func TestNormalizeEnumeratedRoundTrip(t *testing.T) {
	norm := NewNormalizer(testCatalog(t))

	byKey := norm.NormalizeRole(mustParse(t, `{"specific_permissions":[{"permission_key":"blog.read"}]}`), false)
	byPair := norm.NormalizeRole(mustParse(t, `{"specific_permissions":[{"module":"blog","action":"read"}]}`), false)
	require.Equal(t, ids(byKey), ids(byPair))
	require.Equal(t, []string{"blog.read"}, ids(byKey))
}

func TestNormalizeEnumeratedAliasing(t *testing.T) {
	norm := NewNormalizer(testCatalog(t))

	// portfolio.view is stored with "view"; a payload authored with
	// "read" must still resolve it.
	granted := norm.NormalizeRole(mustParse(t, `{"specific_permissions":[{"module":"portfolio","action":"read"}]}`), false)
	require.Equal(t, []string{"portfolio.view"}, ids(granted))
}

func TestNormalizeEnumeratedWildcardFailsClosed(t *testing.T) {
	catalog := testCatalog(t)
	norm := NewNormalizer(catalog)
	payload := mustParse(t, `{"specific_permissions":[{"module":"all","action":"all"}]}`)

	require.Empty(t, ids(norm.NormalizeRole(payload, false)))

	granted := norm.NormalizeRole(payload, true)
	require.Equal(t, catalog.IDs(), ids(granted))
}

func TestNormalizeEnumeratedSkipsSuperAdminOnly(t *testing.T) {
	norm := NewNormalizer(testCatalog(t))
	payload := mustParse(t, `{"specific_permissions":[{"permission_key":"admin.manage"},{"permission_key":"blog.read"}]}`)

	require.Equal(t, []string{"blog.read"}, ids(norm.NormalizeRole(payload, false)))
	require.Equal(t, []string{"admin.manage", "blog.read"}, ids(norm.NormalizeRole(payload, true)))
}

func TestNormalizeEnumeratedUnknownEntries(t *testing.T) {
	norm := NewNormalizer(testCatalog(t))
	payload := mustParse(t, `{"specific_permissions":[{"permission_key":"ghost.walk"},{"module":"blog"},{"permission_key":"blog.create"}]}`)

	require.Equal(t, []string{"blog.create"}, ids(norm.NormalizeRole(payload, false)))
}

func TestNormalizeCartesian(t *testing.T) {
	norm := NewNormalizer(testCatalog(t))

	granted := norm.NormalizeRole(mustParse(t, `{"modules":["blog"],"actions":["read","update"]}`), false)
	require.Equal(t, []string{"blog.read", "blog.update"}, ids(granted))

	// Empty modules or actions grant nothing.
	require.Empty(t, ids(norm.NormalizeRole(mustParse(t, `{"modules":["blog"]}`), false)))
	require.Empty(t, ids(norm.NormalizeRole(mustParse(t, `{"actions":["read"]}`), false)))
}

func TestNormalizeCartesianWildcards(t *testing.T) {
	catalog := testCatalog(t)
	norm := NewNormalizer(catalog)

	granted := norm.NormalizeRole(mustParse(t, `{"modules":["all"],"actions":["read"]}`), false)
	// read aliases view, so portfolio.view is included; admin.manage is
	// filtered for non-super-admins even under the module wildcard.
	require.Equal(t, []string{"blog.read", "portfolio.view", "store.read"}, ids(granted))

	granted = norm.NormalizeRole(mustParse(t, `{"modules":["all"],"actions":["all"]}`), true)
	require.Equal(t, catalog.IDs(), ids(granted))
}

func TestNormalizeCartesianAliasing(t *testing.T) {
	norm := NewNormalizer(testCatalog(t))

	// A role authored with "view" must match catalog entries stored as
	// "read" and vice versa.
	granted := norm.NormalizeRole(mustParse(t, `{"modules":["blog","portfolio"],"actions":["view"]}`), false)
	require.Equal(t, []string{"blog.read", "portfolio.view"}, ids(granted))
}

func TestNormalizeCartesianSuperAdminFlag(t *testing.T) {
	norm := NewNormalizer(testCatalog(t))

	granted := norm.NormalizeRole(mustParse(t, `{"modules":["admin"],"actions":["manage"]}`), false)
	require.Empty(t, ids(granted))

	granted = norm.NormalizeRole(mustParse(t, `{"modules":["admin"],"actions":["manage"]}`), true)
	require.Equal(t, []string{"admin.manage"}, ids(granted))
}
