package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAuthzWarmup re-resolves permission artifacts for a batch
	// of principals after a role mutation invalidated them.
	TaskTypeAuthzWarmup = "authz:warmup"
)

// WarmupPayload lists the principals whose cache entries should be
// rebuilt.
type WarmupPayload struct {
	PrincipalIDs []int64 `json:"principal_ids"`
}

// NewWarmupTask constructs an Asynq task.
func NewWarmupTask(payload WarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuthzWarmup, data), nil
}
