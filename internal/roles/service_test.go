package roles

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atrium-admin/atrium/internal/audit"
	"github.com/atrium-admin/atrium/internal/platform/httpx"
	"github.com/atrium-admin/atrium/internal/shared"
)

type memoryRepo struct {
	roles       map[int64]RoleDefinition
	assignments map[int64][]int64 // roleID -> userIDs
	nextID      int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{roles: make(map[int64]RoleDefinition), assignments: make(map[int64][]int64)}
}

func (r *memoryRepo) ListRoles(ctx context.Context) ([]RoleDefinition, error) {
	var defs []RoleDefinition
	for _, def := range r.roles {
		if def.IsActive {
			defs = append(defs, def)
		}
	}
	return defs, nil
}

func (r *memoryRepo) GetRole(ctx context.Context, id int64) (RoleDefinition, error) {
	def, ok := r.roles[id]
	if !ok {
		return RoleDefinition{}, httpx.ErrNotFound
	}
	return def, nil
}

func (r *memoryRepo) CreateRole(ctx context.Context, name, description string, payload json.RawMessage) (RoleDefinition, error) {
	r.nextID++
	def := RoleDefinition{ID: r.nextID, Name: name, Description: description, Payload: payload, IsActive: true}
	r.roles[def.ID] = def
	return def, nil
}

func (r *memoryRepo) UpdateRole(ctx context.Context, id int64, name, description string, payload json.RawMessage) (RoleDefinition, error) {
	def, ok := r.roles[id]
	if !ok {
		return RoleDefinition{}, httpx.ErrNotFound
	}
	def.Name, def.Description, def.Payload = name, description, payload
	r.roles[id] = def
	return def, nil
}

func (r *memoryRepo) DeactivateRole(ctx context.Context, id int64) error {
	def, ok := r.roles[id]
	if !ok || !def.IsActive {
		return httpx.ErrNotFound
	}
	def.IsActive = false
	r.roles[id] = def
	return nil
}

func (r *memoryRepo) AssignRole(ctx context.Context, userID, roleID, assignedBy int64) error {
	for _, existing := range r.assignments[roleID] {
		if existing == userID {
			return nil
		}
	}
	r.assignments[roleID] = append(r.assignments[roleID], userID)
	return nil
}

func (r *memoryRepo) RevokeRole(ctx context.Context, userID, roleID int64) error {
	users := r.assignments[roleID]
	for i, existing := range users {
		if existing == userID {
			r.assignments[roleID] = append(users[:i], users[i+1:]...)
			return nil
		}
	}
	return httpx.ErrNotFound
}

func (r *memoryRepo) ListAssigneeIDs(ctx context.Context, roleID int64) ([]int64, error) {
	out := make([]int64, len(r.assignments[roleID]))
	copy(out, r.assignments[roleID])
	return out, nil
}

type recordingInvalidator struct {
	invalidated []int64
	err         error
}

func (i *recordingInvalidator) InvalidatePrincipal(ctx context.Context, principalID int64) error {
	if i.err != nil {
		return i.err
	}
	i.invalidated = append(i.invalidated, principalID)
	return nil
}

type recordingAuditor struct {
	events []audit.Event
}

func (a *recordingAuditor) Record(ctx context.Context, event audit.Event) error {
	a.events = append(a.events, event)
	return nil
}

func actor() shared.Principal {
	return shared.Principal{ID: 99, Kind: shared.PrincipalKindAdmin}
}

func newTestRolesService() (*Service, *memoryRepo, *recordingInvalidator, *recordingAuditor) {
	repo := newMemoryRepo()
	inv := &recordingInvalidator{}
	auditor := &recordingAuditor{}
	svc := NewService(repo, inv, auditor, nil, nil)
	return svc, repo, inv, auditor
}

func TestCreateRoleValidatesPayload(t *testing.T) {
	svc, _, inv, auditor := newTestRolesService()
	ctx := context.Background()

	_, err := svc.CreateRole(ctx, actor(), "", "", nil)
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateRole(ctx, actor(), "editor", "", json.RawMessage(`{"modules":"blog"}`))
	require.ErrorIs(t, err, httpx.ErrValidation)

	def, err := svc.CreateRole(ctx, actor(), "editor", "content editors", json.RawMessage(`{"modules":["blog"],"actions":["read"]}`))
	require.NoError(t, err)
	require.Equal(t, "editor", def.Name)

	// New roles have no assignees, so nothing to invalidate.
	require.Empty(t, inv.invalidated)
	require.Len(t, auditor.events, 1)
	require.Equal(t, "role.create", auditor.events[0].Action)
}

func TestUpdateRoleInvalidatesEveryAssignee(t *testing.T) {
	svc, repo, inv, _ := newTestRolesService()
	ctx := context.Background()

	def, err := svc.CreateRole(ctx, actor(), "editor", "", json.RawMessage(`{"modules":["blog"],"actions":["read"]}`))
	require.NoError(t, err)
	require.NoError(t, repo.AssignRole(ctx, 7, def.ID, 99))
	require.NoError(t, repo.AssignRole(ctx, 8, def.ID, 99))

	_, err = svc.UpdateRole(ctx, actor(), def.ID, "editor", "", json.RawMessage(`{"modules":["blog"],"actions":["read","update"]}`))
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{7, 8}, inv.invalidated)
}

func TestUpdateRoleFailsWhenInvalidationFails(t *testing.T) {
	svc, repo, inv, _ := newTestRolesService()
	ctx := context.Background()

	def, err := svc.CreateRole(ctx, actor(), "editor", "", json.RawMessage(`{"modules":["blog"],"actions":["read"]}`))
	require.NoError(t, err)
	require.NoError(t, repo.AssignRole(ctx, 7, def.ID, 99))

	// A write whose invalidation cannot be confirmed must not report
	// success: a stale positive grant is a correctness bug.
	inv.err = errors.New("redis down")
	_, err = svc.UpdateRole(ctx, actor(), def.ID, "editor", "", json.RawMessage(`{"modules":["blog"],"actions":["read","update"]}`))
	require.Error(t, err)
}

func TestAssignInvalidatesPrincipal(t *testing.T) {
	svc, _, inv, auditor := newTestRolesService()
	ctx := context.Background()

	def, err := svc.CreateRole(ctx, actor(), "editor", "", json.RawMessage(`{"modules":["blog"],"actions":["read"]}`))
	require.NoError(t, err)

	require.NoError(t, svc.Assign(ctx, actor(), 7, def.ID))
	require.Equal(t, []int64{7}, inv.invalidated)

	require.NoError(t, svc.Revoke(ctx, actor(), 7, def.ID))
	require.Equal(t, []int64{7, 7}, inv.invalidated)

	require.Len(t, auditor.events, 3)
}

func TestAssignUnknownRole(t *testing.T) {
	svc, _, inv, _ := newTestRolesService()
	ctx := context.Background()

	err := svc.Assign(ctx, actor(), 7, 404)
	require.ErrorIs(t, err, httpx.ErrNotFound)
	require.Empty(t, inv.invalidated)
}

func TestDeactivateRoleInvalidatesAssignees(t *testing.T) {
	svc, repo, inv, _ := newTestRolesService()
	ctx := context.Background()

	def, err := svc.CreateRole(ctx, actor(), "editor", "", json.RawMessage(`{"modules":["blog"],"actions":["read"]}`))
	require.NoError(t, err)
	require.NoError(t, repo.AssignRole(ctx, 7, def.ID, 99))

	require.NoError(t, svc.DeactivateRole(ctx, actor(), def.ID))
	require.Equal(t, []int64{7}, inv.invalidated)

	require.ErrorIs(t, svc.DeactivateRole(ctx, actor(), def.ID), httpx.ErrNotFound)
}
