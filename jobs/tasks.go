package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tasklane/tasklane/internal/auth"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionPurge removes expired login session records.
	TaskSessionPurge = "sessions:purge"
)

// SessionPurgePayload configures a purge run. Grace keeps rows around for a
// short window after expiry so recent logouts stay inspectable.
type SessionPurgePayload struct {
	Grace time.Duration `json:"grace"`
}

// NewSessionPurgeTask constructs an Asynq task.
func NewSessionPurgeTask(grace time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(SessionPurgePayload{Grace: grace})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionPurge, data), nil
}

// SessionPurgeJob deletes login session rows whose tokens expired.
type SessionPurgeJob struct {
	service *auth.Service
	logger  *slog.Logger
}

// NewSessionPurgeJob constructs a SessionPurgeJob.
func NewSessionPurgeJob(service *auth.Service, logger *slog.Logger) *SessionPurgeJob {
	return &SessionPurgeJob{service: service, logger: logger}
}

// Handle processes TaskSessionPurge tasks.
func (j *SessionPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SessionPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	cutoff := time.Now().Add(-payload.Grace)
	removed, err := j.service.PurgeExpiredSessions(ctx, cutoff)
	if err != nil {
		return err
	}
	if j.logger != nil {
		j.logger.Info("purged expired sessions",
			slog.Int64("removed", removed),
			slog.Time("cutoff", cutoff))
	}
	return nil
}
