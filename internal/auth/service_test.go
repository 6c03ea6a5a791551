package auth_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/atrium-admin/atrium/internal/auth"
	"github.com/atrium-admin/atrium/internal/platform/cache"
	"github.com/atrium-admin/atrium/internal/shared"
)

type stubRepo struct {
	users map[int64]*auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func newTestService(t *testing.T) (*auth.Service, *stubRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := auth.NewSessionStore(cache.NewStore(client), time.Hour)

	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo := &stubRepo{users: map[int64]*auth.User{
		1: {
			ID:           1,
			Email:        "admin@atrium.local",
			Name:         "Admin",
			PasswordHash: string(hashed),
			Kind:         shared.PrincipalKindAdmin,
			IsActive:     true,
		},
	}}
	return auth.NewService(repo, sessions), repo, mr
}

func TestLoginIssuesResolvableToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	token, user, err := svc.Login(ctx, "admin@atrium.local", "correctpass")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, int64(1), user.ID)

	principal, err := svc.ResolvePrincipal(ctx, token)
	require.NoError(t, err)
	require.Equal(t, int64(1), principal.ID)
	require.True(t, principal.IsAdministrative())
	require.False(t, principal.IsSuperAdmin)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "admin@atrium.local", "wrongpass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "ghost@atrium.local", "correctpass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	repo.users[1].IsActive = false
	_, _, err = svc.Login(ctx, "admin@atrium.local", "correctpass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	token, _, err := svc.Login(ctx, "admin@atrium.local", "correctpass")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, token))

	_, err = svc.ResolvePrincipal(ctx, token)
	require.ErrorIs(t, err, shared.ErrSessionExpired)
}

func TestSessionExpiry(t *testing.T) {
	svc, _, mr := newTestService(t)
	ctx := context.Background()

	token, _, err := svc.Login(ctx, "admin@atrium.local", "correctpass")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = svc.ResolvePrincipal(ctx, token)
	require.ErrorIs(t, err, shared.ErrSessionExpired)
}

func TestSuperAdminFlagReadFresh(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	token, _, err := svc.Login(ctx, "admin@atrium.local", "correctpass")
	require.NoError(t, err)

	// Promoting the account is visible on the very next request.
	repo.users[1].IsSuperAdmin = true
	principal, err := svc.ResolvePrincipal(ctx, token)
	require.NoError(t, err)
	require.True(t, principal.IsSuperAdmin)
}
