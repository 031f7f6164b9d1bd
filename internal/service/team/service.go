// Package team manages teams and memberships.
package team

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

// Service manages teams and their members.
type Service struct {
	teams  repository.TeamRepository
	users  repository.UserRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(teams repository.TeamRepository, users repository.UserRepository, logger *slog.Logger) Service {
	return Service{teams: teams, users: users, logger: logger}
}

// Create makes a team with the caller as its first admin and mirrors the
// membership onto the caller's team list.
func (s Service) Create(ctx context.Context, userID, name string) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("Team name is required")
	}

	now := time.Now().UTC()
	team := &domain.Team{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedBy: userID,
		CreatedAt: now,
	}
	if err := s.teams.CreateTeam(ctx, team); err != nil {
		return nil, apperr.Internal(err)
	}
	member := &domain.TeamMember{TeamID: team.ID, UserID: userID, Role: domain.RoleAdmin, CreatedAt: now}
	if err := s.teams.UpsertMember(ctx, member); err != nil {
		return nil, apperr.Internal(err)
	}
	mirror := &domain.UserTeam{UserID: userID, TeamID: team.ID, Role: domain.RoleAdmin}
	if err := s.users.AppendUserTeam(ctx, mirror); err != nil {
		s.logger.Warn("user team mirror write failed", "team_id", team.ID, "user_id", userID, "error", err)
	}

	s.logger.Info("team created", "team_id", team.ID, "created_by", userID)
	return team, nil
}

// MyTeams lists every team the caller belongs to.
func (s Service) MyTeams(ctx context.Context, userID string) ([]domain.Team, error) {
	teams, err := s.teams.ListTeamsByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return teams, nil
}

// Get returns a team together with its member roster.
func (s Service) Get(ctx context.Context, teamID string) (*domain.Team, []domain.TeamMemberDetail, error) {
	team, err := s.teams.GetTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperr.NotFound("Team not found")
		}
		return nil, nil, apperr.Internal(err)
	}
	members, err := s.teams.ListMemberDetails(ctx, teamID)
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}
	return team, members, nil
}

// AddMember adds an existing user to a team directly. Only admins may do
// this, and the target is looked up by email.
func (s Service) AddMember(ctx context.Context, teamID, callerID, email string) (*domain.TeamMember, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.Validation("Email is required")
	}

	members, err := s.requireTeamMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !authz.IsTeamAdmin(members, callerID) {
		return nil, apperr.Forbidden("Only team admins can invite")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal(err)
	}
	if authz.IsTeamMember(members, user.ID) {
		return nil, apperr.Conflict("User already in team")
	}

	member := &domain.TeamMember{TeamID: teamID, UserID: user.ID, Role: domain.RoleMember, CreatedAt: time.Now().UTC()}
	if err := s.teams.UpsertMember(ctx, member); err != nil {
		return nil, apperr.Internal(err)
	}
	s.logger.Info("member added", "team_id", teamID, "user_id", user.ID, "added_by", callerID)
	return member, nil
}

// RemoveMember drops a member from a team. Admin only, and admins cannot
// remove themselves.
func (s Service) RemoveMember(ctx context.Context, teamID, callerID, targetID string) error {
	members, err := s.requireTeamMembers(ctx, teamID)
	if err != nil {
		return err
	}
	if !authz.IsTeamAdmin(members, callerID) {
		return apperr.Forbidden("Only team admins can remove members")
	}
	if targetID == callerID {
		return apperr.Conflict("You can't remove yourself")
	}
	if !authz.IsTeamMember(members, targetID) {
		return apperr.NotFound("User not in team")
	}
	if err := s.teams.RemoveMember(ctx, teamID, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not in team")
		}
		return apperr.Internal(err)
	}
	s.logger.Info("member removed", "team_id", teamID, "user_id", targetID, "removed_by", callerID)
	return nil
}

// Delete removes a team. Projects and tasks that pointed at it are left in
// place and simply become unreachable through the team routes.
func (s Service) Delete(ctx context.Context, teamID, callerID string) error {
	members, err := s.requireTeamMembers(ctx, teamID)
	if err != nil {
		return err
	}
	if !authz.IsTeamAdmin(members, callerID) {
		return apperr.Forbidden("Only team admins can delete the team")
	}
	if err := s.teams.DeleteTeam(ctx, teamID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Team not found")
		}
		return apperr.Internal(err)
	}
	s.logger.Info("team deleted", "team_id", teamID, "deleted_by", callerID)
	return nil
}

// Members exposes the raw membership list for other services.
func (s Service) Members(ctx context.Context, teamID string) ([]domain.TeamMember, error) {
	return s.requireTeamMembers(ctx, teamID)
}

func (s Service) requireTeamMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error) {
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
