// Package project manages projects within a team.
package project

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
)

// Service manages projects.
type Service struct {
	projects repository.ProjectRepository
	teams    repository.TeamRepository
	logger   *slog.Logger
}

// New constructs a Service.
func New(projects repository.ProjectRepository, teams repository.TeamRepository, logger *slog.Logger) Service {
	return Service{projects: projects, teams: teams, logger: logger}
}

// Create makes a project inside a team. Admin only.
func (s Service) Create(ctx context.Context, callerID, teamID, name, description string) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" || description == "" || teamID == "" {
		return nil, apperr.Validation("All fields are required")
	}

	members, err := s.teamMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !authz.IsTeamAdmin(members, callerID) {
		return nil, apperr.Forbidden("Only team admins can create projects")
	}

	project := &domain.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		TeamID:      teamID,
		CreatedBy:   callerID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.projects.CreateProject(ctx, project); err != nil {
		return nil, apperr.Internal(err)
	}
	s.logger.Info("project created", "project_id", project.ID, "team_id", teamID, "created_by", callerID)
	return project, nil
}

// ListByTeam lists a team's projects. Any team member may read.
func (s Service) ListByTeam(ctx context.Context, callerID, teamID string) ([]domain.Project, error) {
	members, err := s.teamMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !authz.IsTeamMember(members, callerID) {
		return nil, apperr.Forbidden("Not authorized")
	}
	projects, err := s.projects.ListProjectsByTeam(ctx, teamID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return projects, nil
}

// Delete removes a project. Admin of the owning team only.
func (s Service) Delete(ctx context.Context, callerID, projectID string) error {
	project, err := s.projects.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Project not found")
		}
		return apperr.Internal(err)
	}
	members, err := s.teamMembers(ctx, project.TeamID)
	if err != nil {
		return err
	}
	if !authz.IsTeamAdmin(members, callerID) {
		return apperr.Forbidden("Only team admins can delete projects")
	}
	if err := s.projects.DeleteProject(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Project not found")
		}
		return apperr.Internal(err)
	}
	s.logger.Info("project deleted", "project_id", projectID, "deleted_by", callerID)
	return nil
}

// Get resolves one project, for use by the task routes.
func (s Service) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	project, err := s.projects.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Project not found")
		}
		return nil, apperr.Internal(err)
	}
	return project, nil
}

func (s Service) teamMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error) {
	if _, err := s.teams.GetTeamByID(ctx, teamID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Team not found")
		}
		return nil, apperr.Internal(err)
	}
	members, err := s.teams.ListMembers(ctx, teamID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return members, nil
}
