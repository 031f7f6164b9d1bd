// Package invite manages team invitations and their responses.
package invite

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
	"github.com/Nizamudheenp/project-collaboration/internal/email"
	"github.com/Nizamudheenp/project-collaboration/internal/repository"
)

// Service manages the invitation lifecycle. Expiry is passive: pending
// invitations older than the ttl are treated as gone rather than mutated.
type Service struct {
	invites repository.InvitationRepository
	teams   repository.TeamRepository
	users   repository.UserRepository
	mailer  *email.Service
	ttl     time.Duration
	logger  *slog.Logger
}

// New constructs a Service.
func New(invites repository.InvitationRepository, teams repository.TeamRepository, users repository.UserRepository, mailer *email.Service, ttl time.Duration, logger *slog.Logger) Service {
	return Service{invites: invites, teams: teams, users: users, mailer: mailer, ttl: ttl, logger: logger}
}

// Invite creates a pending invitation for an email address. Admin only. The
// address does not need a registered account yet. Mail delivery is
// best-effort; the invitation stands either way.
func (s Service) Invite(ctx context.Context, callerID, teamID, address string) (*domain.Invitation, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return nil, apperr.Validation("Email is required")
	}

	team, err := s.teams.GetTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Team not found")
		}
		return nil, apperr.Internal(err)
	}
	members, err := s.teams.ListMembers(ctx, teamID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !authz.IsTeamAdmin(members, callerID) {
		return nil, apperr.Forbidden("Only team admins can invite")
	}

	invitedUser := ""
	user, err := s.users.GetUserByEmail(ctx, address)
	switch {
	case err == nil:
		if authz.IsTeamMember(members, user.ID) {
			return nil, apperr.Conflict("User already in team")
		}
		invitedUser = user.ID
	case errors.Is(err, repository.ErrNotFound):
		// invite by email alone; the account may be created later
	default:
		return nil, apperr.Internal(err)
	}

	if _, err := s.invites.FindPendingInvitation(ctx, teamID, address, s.ttl); err == nil {
		return nil, apperr.Conflict("Invitation already sent")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	invitation := &domain.Invitation{
		ID:          uuid.NewString(),
		TeamID:      teamID,
		InvitedBy:   callerID,
		InvitedUser: invitedUser,
		Email:       address,
		Status:      domain.InviteStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.invites.CreateInvitation(ctx, invitation); err != nil {
		return nil, apperr.Internal(err)
	}

	if s.mailer.IsConfigured() {
		inviter, err := s.users.GetUserByID(ctx, callerID)
		inviterName := callerID
		if err == nil {
			inviterName = inviter.Name
		}
		if err := s.mailer.SendInvitationEmail(address, inviterName, team.Name, invitation.ID); err != nil {
			s.logger.Warn("invitation email failed", "invitation_id", invitation.ID, "error", err)
		}
	}

	s.logger.Info("invitation created", "invitation_id", invitation.ID, "team_id", teamID, "invited_by", callerID)
	return invitation, nil
}

// Respond accepts or rejects an invitation. Only the invited address may
// respond; accepting joins the team as a regular member.
func (s Service) Respond(ctx context.Context, callerID, callerEmail, inviteID, action string) (*domain.Invitation, error) {
	var status string
	switch action {
	case "accept":
		status = domain.InviteStatusAccepted
	case "reject":
		status = domain.InviteStatusRejected
	default:
		return nil, apperr.Validation("Action must be accept or reject")
	}

	invitation, err := s.invites.GetInvitationByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Expired("Invitation expired or not found")
		}
		return nil, apperr.Internal(err)
	}
	if time.Since(invitation.CreatedAt) > s.ttl {
		return nil, apperr.Expired("Invitation expired or not found")
	}
	if invitation.Status != domain.InviteStatusPending {
		return nil, apperr.Conflict("Invitation already responded to")
	}
	if !strings.EqualFold(invitation.Email, callerEmail) {
		return nil, apperr.Forbidden("Not authorized")
	}

	if status == domain.InviteStatusAccepted {
		member := &domain.TeamMember{
			TeamID:    invitation.TeamID,
			UserID:    callerID,
			Role:      domain.RoleMember,
			CreatedAt: time.Now().UTC(),
		}
		// idempotent against a concurrent direct add
		if err := s.teams.UpsertMember(ctx, member); err != nil {
			return nil, apperr.Internal(err)
		}
	}
	if err := s.invites.UpdateInvitationStatus(ctx, inviteID, status); err != nil {
		return nil, apperr.Internal(err)
	}
	invitation.Status = status

	s.logger.Info("invitation responded", "invitation_id", inviteID, "action", action, "user_id", callerID)
	return invitation, nil
}

// MyInvites lists the caller's still-live pending invitations.
func (s Service) MyInvites(ctx context.Context, callerEmail string) ([]domain.InvitationDetail, error) {
	invites, err := s.invites.ListPendingByEmail(ctx, strings.ToLower(callerEmail), s.ttl)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return invites, nil
}
