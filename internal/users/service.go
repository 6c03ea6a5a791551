package users

import (
	"context"

	"github.com/atrium-admin/atrium/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListAdmins(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error)
	GetUser(ctx context.Context, id int64) (User, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// Invalidator drops cached authorization artifacts for a principal.
type Invalidator interface {
	InvalidatePrincipal(ctx context.Context, principalID int64) error
}

// Service handles user management business logic.
type Service struct {
	repo  RepositoryPort
	authz Invalidator
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, invalidator Invalidator) *Service {
	return &Service{repo: repo, authz: invalidator}
}

// ListAdmins returns administrative accounts.
func (s *Service) ListAdmins(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	return s.repo.ListAdmins(ctx, page, perPage)
}

// GetUser fetches one account.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// SetActive toggles an account. Deactivation also drops the account's
// cached authorization artifacts so revoked access disappears at once.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	if !active {
		return s.authz.InvalidatePrincipal(ctx, id)
	}
	return nil
}
