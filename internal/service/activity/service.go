// Package activity records and serves the per-task activity trail.
package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Nizamudheenp/project-collaboration/internal/apperr"
	"github.com/Nizamudheenp/project-collaboration/internal/domain"
	"github.com/Nizamudheenp/project-collaboration/internal/repository"
)

// Service appends and lists task activity entries.
type Service struct {
	activities repository.ActivityRepository
	logger     *slog.Logger
}

// New constructs a Service.
func New(activities repository.ActivityRepository, logger *slog.Logger) Service {
	return Service{activities: activities, logger: logger}
}

// Record appends an entry. Failures are logged and swallowed so a broken
// trail never fails the operation that produced it.
func (s Service) Record(ctx context.Context, taskID, projectID, userID, action, details string) {
	entry := &domain.Activity{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		ProjectID: projectID,
		UserID:    userID,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.activities.InsertActivity(ctx, entry); err != nil {
		s.logger.Warn("activity write failed", "task_id", taskID, "action", action, "error", err)
	}
}

// ListByTask returns a task's activity oldest first.
func (s Service) ListByTask(ctx context.Context, taskID string) ([]domain.ActivityDetail, error) {
	entries, err := s.activities.ListActivitiesByTask(ctx, taskID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return entries, nil
}
