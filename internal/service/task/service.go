// Package task manages tasks and their status lifecycle.
package task

import (
	"context"
	"errors"
	"fmt"
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

// Service manages tasks. Every operation re-resolves the task -> project ->
// team chain so membership changes take effect immediately.
type Service struct {
	tasks      repository.TaskRepository
	projects   repository.ProjectRepository
	teams      repository.TeamRepository
	activities activity.Service
	logger     *slog.Logger
}

// New constructs a Service.
func New(tasks repository.TaskRepository, projects repository.ProjectRepository, teams repository.TeamRepository, activities activity.Service, logger *slog.Logger) Service {
	return Service{tasks: tasks, projects: projects, teams: teams, activities: activities, logger: logger}
}

// Create makes a task in a project. Team admins only, and the assignee must
// belong to the team. New tasks always start in todo.
func (s Service) Create(ctx context.Context, callerID, projectID, title, description, assignedTo string, dueDate time.Time) (*domain.Task, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" || projectID == "" || assignedTo == "" || dueDate.IsZero() {
		return nil, apperr.Validation("All fields are required")
	}

	members, err := s.projectTeamMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !authz.IsTeamAdmin(members, callerID) {
		return nil, apperr.Forbidden("Only team admins can create tasks")
	}
	if !authz.IsTeamMember(members, assignedTo) {
		return nil, apperr.Validation("Assigned user is not in the team")
	}

	now := time.Now().UTC()
	task := &domain.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      domain.StatusTodo,
		AssignedTo:  assignedTo,
		DueDate:     dueDate,
		ProjectID:   projectID,
		CreatedBy:   callerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return nil, apperr.Internal(err)
	}
	s.activities.Record(ctx, task.ID, projectID, callerID, domain.ActionTaskCreated, task.Title)
	s.logger.Info("task created", "task_id", task.ID, "project_id", projectID, "created_by", callerID)
	return task, nil
}

// ListByProject lists a project's tasks, newest first. Team members only.
func (s Service) ListByProject(ctx context.Context, callerID, projectID string) ([]domain.Task, error) {
	members, err := s.projectTeamMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !authz.IsTeamMember(members, callerID) {
		return nil, apperr.Forbidden("Not authorized")
	}
	tasks, err := s.tasks.ListTasksByProject(ctx, projectID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return tasks, nil
}

// UpdateStatus moves a task between statuses. Only the task's creator or its
// assignee may do this.
func (s Service) UpdateStatus(ctx context.Context, callerID, taskID, status string) (*domain.Task, error) {
	if !domain.ValidStatus(status) {
		return nil, apperr.Validation("Invalid status")
	}
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projectTeamMembers(ctx, task.ProjectID); err != nil {
		return nil, err
	}
	if !authz.IsTaskActor(task, callerID) {
		return nil, apperr.Forbidden("Task updation only for admin and assigned user")
	}

	previous := task.Status
	now := time.Now().UTC()
	if err := s.tasks.UpdateTaskStatus(ctx, taskID, status, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Task not found")
		}
		return nil, apperr.Internal(err)
	}
	task.Status = status
	task.UpdatedAt = now
	if previous != status {
		s.activities.Record(ctx, task.ID, task.ProjectID, callerID, domain.ActionStatusChanged, fmt.Sprintf("%s -> %s", previous, status))
	}
	s.logger.Info("task status updated", "task_id", taskID, "status", status, "updated_by", callerID)
	return task, nil
}

// Delete removes a task. Admin of the owning team only. The activity trail
// is kept, with a final deletion entry.
func (s Service) Delete(ctx context.Context, callerID, taskID string) error {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return err
	}
	members, err := s.projectTeamMembers(ctx, task.ProjectID)
	if err != nil {
		return err
	}
	if !authz.IsTeamAdmin(members, callerID) {
		return apperr.Forbidden("Only team admins can delete tasks")
	}
	if err := s.tasks.DeleteTask(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Task not found")
		}
		return apperr.Internal(err)
	}
	s.activities.Record(ctx, task.ID, task.ProjectID, callerID, domain.ActionTaskDeleted, task.Title)
	s.logger.Info("task deleted", "task_id", taskID, "deleted_by", callerID)
	return nil
}

// Get resolves one task, for use by the comment routes.
func (s Service) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	return s.getTask(ctx, taskID)
}

func (s Service) getTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := s.tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Task not found")
		}
		return nil, apperr.Internal(err)
	}
	return task, nil
}

func (s Service) projectTeamMembers(ctx context.Context, projectID string) ([]domain.TeamMember, error) {
	project, err := s.projects.GetProjectByID(ctx, projectID)
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
	return members, nil
}
