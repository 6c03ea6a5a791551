package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atrium-admin/atrium/internal/auth"
	jobmetrics "github.com/atrium-admin/atrium/internal/jobs"
	"github.com/atrium-admin/atrium/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// PrincipalSource loads accounts so warmup resolves against fresh kind
// and super-admin columns.
type PrincipalSource interface {
	FindByID(ctx context.Context, id int64) (*auth.User, error)
}

// PermissionResolver resolves a principal's effective permission set,
// populating the cache as a side effect of a miss.
type PermissionResolver interface {
	GetEffectivePermissions(ctx context.Context, principal shared.Principal) ([]string, error)
}

// AuthzWarmupJob rebuilds cached permission artifacts for principals
// touched by a role mutation, so the first request after an
// invalidation does not pay the resolution cost.
type AuthzWarmupJob struct {
	Users    PrincipalSource
	Resolver PermissionResolver
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewAuthzWarmupJob wires dependencies for the warmup handler.
func NewAuthzWarmupJob(users PrincipalSource, resolver PermissionResolver, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuthzWarmupJob {
	return &AuthzWarmupJob{Users: users, Resolver: resolver, Logger: logger, Metrics: metrics}
}

// Handle processes authz warmup tasks.
func (j *AuthzWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Users == nil || j.Resolver == nil {
		return errors.New("authz warmup: handler not configured")
	}
	var payload WarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if len(payload.PrincipalIDs) == 0 {
		return nil
	}

	tracker := j.metrics().Track(TaskTypeAuthzWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	warmed := 0
	for _, id := range payload.PrincipalIDs {
		if err := j.warmPrincipal(ctx, id); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				logger.Warn("skip unknown principal", slog.Int64("principal_id", id))
				continue
			}
			resultErr = err
			logger.Error("warm principal", slog.Int64("principal_id", id), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}
	j.metrics().AddWarmed(warmed)
	logger.Info("completed authz warmup", slog.Int("principals", warmed))
	return resultErr
}

func (j *AuthzWarmupJob) warmPrincipal(ctx context.Context, id int64) error {
	warmCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	user, err := j.Users.FindByID(warmCtx, id)
	if err != nil {
		return err
	}
	principal := user.Principal()
	// Super admins bypass the cache entirely and inactive accounts
	// cannot authenticate, so neither needs warming.
	if principal.IsSuperAdmin || !user.IsActive || !principal.IsAdministrative() {
		return nil
	}
	_, err = j.Resolver.GetEffectivePermissions(warmCtx, principal)
	return err
}

func (j *AuthzWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeAuthzWarmup))
	}
	return slog.Default().With(slog.String("job", TaskTypeAuthzWarmup))
}

func (j *AuthzWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
