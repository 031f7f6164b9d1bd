// Package comment manages immutable task comments.
package comment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Nizamudheenp/project-collaboration/internal/apperr"
	"github.com/Nizamudheenp/project-collaboration/internal/authz"
	"github.com/Nizamudheenp/project-collaboration/internal/domain"
	"github.com/Nizamudheenp/project-collaboration/internal/repository"
	"github.com/Nizamudheenp/project-collaboration/internal/service/activity"
)

// Service manages task comments.
type Service struct {
	comments   repository.CommentRepository
	tasks      repository.TaskRepository
	projects   repository.ProjectRepository
	teams      repository.TeamRepository
	activities activity.Service
	logger     *slog.Logger
}

// New constructs a Service.
func New(comments repository.CommentRepository, tasks repository.TaskRepository, projects repository.ProjectRepository, teams repository.TeamRepository, activities activity.Service, logger *slog.Logger) Service {
	return Service{comments: comments, tasks: tasks, projects: projects, teams: teams, activities: activities, logger: logger}
}

// Add posts a comment on a task. Any member of the owning team may comment.
func (s Service) Add(ctx context.Context, callerID, taskID, text string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if taskID == "" || text == "" {
		return nil, apperr.Validation("Task and text are required")
	}

	task, err := s.tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Task not found")
		}
		return nil, apperr.Internal(err)
	}
	project, err := s.projects.GetProjectByID(ctx, task.ProjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Project not found")
		}
		return nil, apperr.Internal(err)
	}
	if _, err := s.teams.GetTeamByID(ctx, project.TeamID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Team not found")
		}
		return nil, apperr.Internal(err)
	}
	members, err := s.teams.ListMembers(ctx, project.TeamID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !authz.IsTeamMember(members, callerID) {
		return nil, apperr.Forbidden("Not authorized")
	}

	comment := &domain.Comment{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		UserID:    callerID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, apperr.Internal(err)
	}
	s.activities.Record(ctx, taskID, task.ProjectID, callerID, domain.ActionCommentAdded, "")
	s.logger.Info("comment added", "comment_id", comment.ID, "task_id", taskID, "user_id", callerID)
	return comment, nil
}

// ListByTask returns a task's comments oldest first, author resolved.
func (s Service) ListByTask(ctx context.Context, taskID string) ([]domain.CommentDetail, error) {
	comments, err := s.comments.ListCommentsByTask(ctx, taskID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return comments, nil
}
