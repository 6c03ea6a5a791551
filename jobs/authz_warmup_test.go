package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/atrium-admin/atrium/internal/auth"
	"github.com/atrium-admin/atrium/internal/shared"
)

type stubUsers struct {
	users map[int64]*auth.User
}

func (s *stubUsers) FindByID(_ context.Context, id int64) (*auth.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

type stubResolver struct {
	resolved []int64
	err      error
}

func (s *stubResolver) GetEffectivePermissions(_ context.Context, principal shared.Principal) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.resolved = append(s.resolved, principal.ID)
	return []string{"dashboard.read"}, nil
}

func warmupTask(t *testing.T, ids ...int64) *asynq.Task {
	t.Helper()
	task, err := NewWarmupTask(WarmupPayload{PrincipalIDs: ids})
	require.NoError(t, err)
	return task
}

func admin(id int64) *auth.User {
	return &auth.User{ID: id, Kind: shared.PrincipalKindAdmin, IsActive: true}
}

func TestWarmupResolvesActiveAdmins(t *testing.T) {
	users := &stubUsers{users: map[int64]*auth.User{
		1: admin(1),
		2: admin(2),
	}}
	resolver := &stubResolver{}
	job := NewAuthzWarmupJob(users, resolver, nil, nil)

	err := job.Handle(context.Background(), warmupTask(t, 1, 2))
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, resolver.resolved)
}

func TestWarmupSkipsSuperAdminsAndInactive(t *testing.T) {
	super := admin(1)
	super.IsSuperAdmin = true
	inactive := admin(2)
	inactive.IsActive = false
	customer := &auth.User{ID: 3, Kind: shared.PrincipalKindCustomer, IsActive: true}

	users := &stubUsers{users: map[int64]*auth.User{1: super, 2: inactive, 3: customer, 4: admin(4)}}
	resolver := &stubResolver{}
	job := NewAuthzWarmupJob(users, resolver, nil, nil)

	err := job.Handle(context.Background(), warmupTask(t, 1, 2, 3, 4))
	require.NoError(t, err)
	require.Equal(t, []int64{4}, resolver.resolved)
}

func TestWarmupSkipsUnknownPrincipals(t *testing.T) {
	users := &stubUsers{users: map[int64]*auth.User{2: admin(2)}}
	resolver := &stubResolver{}
	job := NewAuthzWarmupJob(users, resolver, nil, nil)

	err := job.Handle(context.Background(), warmupTask(t, 999, 2))
	require.NoError(t, err)
	require.Equal(t, []int64{2}, resolver.resolved)
}

func TestWarmupPropagatesResolutionErrors(t *testing.T) {
	users := &stubUsers{users: map[int64]*auth.User{1: admin(1)}}
	resolver := &stubResolver{err: errors.New("redis down")}
	job := NewAuthzWarmupJob(users, resolver, nil, nil)

	err := job.Handle(context.Background(), warmupTask(t, 1))
	require.Error(t, err)
}

func TestWarmupMalformedPayloadSkipsRetry(t *testing.T) {
	job := NewAuthzWarmupJob(&stubUsers{}, &stubResolver{}, nil, nil)

	task := asynq.NewTask(TaskTypeAuthzWarmup, []byte("{not json"))
	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}
