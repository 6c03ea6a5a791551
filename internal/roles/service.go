package roles

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/atrium-admin/atrium/internal/audit"
	"github.com/atrium-admin/atrium/internal/authz"
	"github.com/atrium-admin/atrium/internal/platform/httpx"
	"github.com/atrium-admin/atrium/internal/shared"
)

// Invalidator clears cached authorization artifacts for a principal.
// Satisfied by the authz service.
type Invalidator interface {
	InvalidatePrincipal(ctx context.Context, principalID int64) error
}

// AuditRecorder persists audit trail events. Satisfied by audit.Recorder.
type AuditRecorder interface {
	Record(ctx context.Context, event audit.Event) error
}

// WarmupEnqueuer schedules background re-resolution of principals whose
// cached artifacts were just dropped.
type WarmupEnqueuer interface {
	EnqueueWarmup(ctx context.Context, principalIDs []int64) error
}

// Service handles role management writes. Every mutation invalidates the
// affected principals' cached authorization artifacts before the write
// is reported complete.
type Service struct {
	repo    RepositoryPort
	authz   Invalidator
	auditor AuditRecorder
	warmups WarmupEnqueuer
	logger  *slog.Logger
}

// NewService builds Service instance. auditor and warmups may be nil.
func NewService(repo RepositoryPort, invalidator Invalidator, auditor AuditRecorder, warmups WarmupEnqueuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, authz: invalidator, auditor: auditor, warmups: warmups, logger: logger}
}

// ListRoles returns all active role definitions.
func (s *Service) ListRoles(ctx context.Context) ([]RoleDefinition, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches one role definition.
func (s *Service) GetRole(ctx context.Context, id int64) (RoleDefinition, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole validates and persists a new role definition. A freshly
// created role has no assignees, so no invalidation is needed.
func (s *Service) CreateRole(ctx context.Context, actor shared.Principal, name, description string, payload json.RawMessage) (RoleDefinition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return RoleDefinition{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}
	if _, err := authz.ParsePayload(payload); err != nil {
		return RoleDefinition{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	def, err := s.repo.CreateRole(ctx, name, strings.TrimSpace(description), payload)
	if err != nil {
		return RoleDefinition{}, err
	}
	s.audit(ctx, actor, "role.create", def.ID, nil)
	return def, nil
}

// UpdateRole persists a role edit and invalidates every assignee before
// returning.
func (s *Service) UpdateRole(ctx context.Context, actor shared.Principal, id int64, name, description string, payload json.RawMessage) (RoleDefinition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return RoleDefinition{}, fmt.Errorf("%w: role name required", httpx.ErrValidation)
	}
	if _, err := authz.ParsePayload(payload); err != nil {
		return RoleDefinition{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	def, err := s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description), payload)
	if err != nil {
		return RoleDefinition{}, err
	}
	if err := s.invalidateAssignees(ctx, id); err != nil {
		return RoleDefinition{}, err
	}
	s.audit(ctx, actor, "role.update", id, nil)
	return def, nil
}

// DeactivateRole soft-deletes a role and invalidates every assignee.
func (s *Service) DeactivateRole(ctx context.Context, actor shared.Principal, id int64) error {
	// Snapshot the assignees first: after deactivation the assignment
	// rows still exist, but collecting them up front keeps the fan-out
	// independent of the delete semantics.
	assignees, err := s.repo.ListAssigneeIDs(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeactivateRole(ctx, id); err != nil {
		return err
	}
	if err := s.invalidatePrincipals(ctx, assignees); err != nil {
		return err
	}
	s.audit(ctx, actor, "role.deactivate", id, nil)
	return nil
}

// Assign links a principal to a role. The principal's cached artifacts
// are dropped before the call returns.
func (s *Service) Assign(ctx context.Context, actor shared.Principal, userID, roleID int64) error {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}
	if err := s.repo.AssignRole(ctx, userID, roleID, actor.ID); err != nil {
		return err
	}
	if err := s.authz.InvalidatePrincipal(ctx, userID); err != nil {
		return err
	}
	s.audit(ctx, actor, "role.assign", roleID, map[string]any{"user_id": userID})
	return nil
}

// Revoke deactivates an assignment and drops the principal's cached
// artifacts before the call returns.
func (s *Service) Revoke(ctx context.Context, actor shared.Principal, userID, roleID int64) error {
	if err := s.repo.RevokeRole(ctx, userID, roleID); err != nil {
		return err
	}
	if err := s.authz.InvalidatePrincipal(ctx, userID); err != nil {
		return err
	}
	s.audit(ctx, actor, "role.revoke", roleID, map[string]any{"user_id": userID})
	return nil
}

func (s *Service) invalidateAssignees(ctx context.Context, roleID int64) error {
	assignees, err := s.repo.ListAssigneeIDs(ctx, roleID)
	if err != nil {
		return err
	}
	return s.invalidatePrincipals(ctx, assignees)
}

func (s *Service) invalidatePrincipals(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		if err := s.authz.InvalidatePrincipal(ctx, id); err != nil {
			return fmt.Errorf("roles: invalidate principal %d: %w", id, err)
		}
	}
	if s.warmups != nil && len(ids) > 0 {
		if err := s.warmups.EnqueueWarmup(ctx, ids); err != nil {
			s.logger.Warn("roles: enqueue warmup", slog.Any("error", err))
		}
	}
	return nil
}

func (s *Service) audit(ctx context.Context, actor shared.Principal, action string, roleID int64, meta map[string]any) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
		Meta:     meta,
	}
	if err := s.auditor.Record(ctx, event); err != nil {
		s.logger.Warn("roles: record audit event",
			slog.String("action", action),
			slog.Any("error", err))
	}
}
