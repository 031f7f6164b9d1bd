package invite

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Nizamudheenp/project-collaboration/internal/apperr"
	"github.com/Nizamudheenp/project-collaboration/internal/domain"
	"github.com/Nizamudheenp/project-collaboration/internal/email"
	"github.com/Nizamudheenp/project-collaboration/internal/repository"
)

type stubInvitationRepository struct {
	byID map[string]*domain.Invitation
}

func newStubInvitationRepository() *stubInvitationRepository {
	return &stubInvitationRepository{byID: make(map[string]*domain.Invitation)}
}

func (s *stubInvitationRepository) CreateInvitation(ctx context.Context, invite *domain.Invitation) error {
	copied := *invite
	s.byID[invite.ID] = &copied
	return nil
}

func (s *stubInvitationRepository) GetInvitationByID(ctx context.Context, inviteID string) (*domain.Invitation, error) {
	if invite, ok := s.byID[inviteID]; ok {
		copied := *invite
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubInvitationRepository) FindPendingInvitation(ctx context.Context, teamID, address string, ttl time.Duration) (*domain.Invitation, error) {
	for _, invite := range s.byID {
		if invite.TeamID == teamID && invite.Email == address &&
			invite.Status == domain.InviteStatusPending && time.Since(invite.CreatedAt) <= ttl {
			copied := *invite
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubInvitationRepository) ListPendingByEmail(ctx context.Context, address string, ttl time.Duration) ([]domain.InvitationDetail, error) {
	var out []domain.InvitationDetail
	for _, invite := range s.byID {
		if invite.Email == address && invite.Status == domain.InviteStatusPending && time.Since(invite.CreatedAt) <= ttl {
			out = append(out, domain.InvitationDetail{Invitation: *invite})
		}
	}
	return out, nil
}

func (s *stubInvitationRepository) UpdateInvitationStatus(ctx context.Context, inviteID, status string) error {
	invite, ok := s.byID[inviteID]
	if !ok {
		return repository.ErrNotFound
	}
	invite.Status = status
	return nil
}

type stubTeamRepository struct {
	members map[string][]domain.TeamMember
	added   []domain.TeamMember
}

func (s *stubTeamRepository) CreateTeam(ctx context.Context, team *domain.Team) error { return nil }
func (s *stubTeamRepository) GetTeamByID(ctx context.Context, teamID string) (*domain.Team, error) {
	if _, ok := s.members[teamID]; ok {
		return &domain.Team{ID: teamID, Name: "Platform"}, nil
	}
	return nil, repository.ErrNotFound
}
func (s *stubTeamRepository) DeleteTeam(ctx context.Context, teamID string) error { return nil }
func (s *stubTeamRepository) ListTeamsByUser(ctx context.Context, userID string) ([]domain.Team, error) {
	return nil, nil
}
func (s *stubTeamRepository) ListMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error) {
	return append([]domain.TeamMember(nil), s.members[teamID]...), nil
}
func (s *stubTeamRepository) ListMemberDetails(ctx context.Context, teamID string) ([]domain.TeamMemberDetail, error) {
	return nil, nil
}
func (s *stubTeamRepository) UpsertMember(ctx context.Context, member *domain.TeamMember) error {
	for _, existing := range s.members[member.TeamID] {
		if existing.UserID == member.UserID {
			return nil
		}
	}
	s.members[member.TeamID] = append(s.members[member.TeamID], *member)
	s.added = append(s.added, *member)
	return nil
}
func (s *stubTeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	return nil
}

type stubUserRepository struct {
	byEmail map[string]*domain.User
}

func (s *stubUserRepository) CreateUser(ctx context.Context, user *domain.User) error { return nil }
func (s *stubUserRepository) GetUserByEmail(ctx context.Context, address string) (*domain.User, error) {
	if user, ok := s.byEmail[address]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}
func (s *stubUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	for _, user := range s.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}
func (s *stubUserRepository) AppendUserTeam(ctx context.Context, mirror *domain.UserTeam) error {
	return nil
}

type fixture struct {
	svc     Service
	invites *stubInvitationRepository
	teams   *stubTeamRepository
}

func newFixture() fixture {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	invites := newStubInvitationRepository()
	teams := &stubTeamRepository{members: map[string][]domain.TeamMember{
		"team-1": {
			{TeamID: "team-1", UserID: "admin-1", Role: domain.RoleAdmin},
			{TeamID: "team-1", UserID: "member-1", Role: domain.RoleMember},
		},
	}}
	users := &stubUserRepository{byEmail: map[string]*domain.User{
		"admin@example.com":  {ID: "admin-1", Name: "Admin", Email: "admin@example.com"},
		"member@example.com": {ID: "member-1", Name: "Member", Email: "member@example.com"},
		"guest@example.com":  {ID: "guest-1", Name: "Guest", Email: "guest@example.com"},
	}}
	mailer := email.NewService(email.Config{})
	return fixture{
		svc:     New(invites, teams, users, mailer, 7*24*time.Hour, log),
		invites: invites,
		teams:   teams,
	}
}

func TestInviteAdminOnly(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Invite(context.Background(), "member-1", "team-1", "guest@example.com"); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for non-admin, got %v", err)
	}
	invite, err := f.svc.Invite(context.Background(), "admin-1", "team-1", "Guest@Example.com")
	if err != nil {
		t.Fatalf("Invite returned error: %v", err)
	}
	if invite.Email != "guest@example.com" || invite.InvitedUser != "guest-1" {
		t.Fatalf("unexpected invitation: %+v", invite)
	}
	if invite.Status != domain.InviteStatusPending {
		t.Fatalf("expected pending status, got %q", invite.Status)
	}
}

func TestInviteUnregisteredEmail(t *testing.T) {
	f := newFixture()
	invite, err := f.svc.Invite(context.Background(), "admin-1", "team-1", "nobody@example.com")
	if err != nil {
		t.Fatalf("Invite returned error: %v", err)
	}
	if invite.InvitedUser != "" {
		t.Fatalf("expected no linked account, got %q", invite.InvitedUser)
	}
}

func TestInviteConflicts(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Invite(context.Background(), "admin-1", "team-1", "member@example.com"); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict for existing member, got %v", err)
	}
	if _, err := f.svc.Invite(context.Background(), "admin-1", "team-1", "guest@example.com"); err != nil {
		t.Fatalf("first Invite returned error: %v", err)
	}
	_, err := f.svc.Invite(context.Background(), "admin-1", "team-1", "guest@example.com")
	if apperr.KindOf(err) != apperr.KindConflict || apperr.MessageOf(err) != "Invitation already sent" {
		t.Fatalf("expected duplicate-invite conflict, got %v", err)
	}
}

func TestInviteExpiredDuplicateAllowed(t *testing.T) {
	f := newFixture()
	invite, err := f.svc.Invite(context.Background(), "admin-1", "team-1", "guest@example.com")
	if err != nil {
		t.Fatalf("Invite returned error: %v", err)
	}
	f.invites.byID[invite.ID].CreatedAt = time.Now().Add(-8 * 24 * time.Hour)

	if _, err := f.svc.Invite(context.Background(), "admin-1", "team-1", "guest@example.com"); err != nil {
		t.Fatalf("expected expired invite to be re-sendable, got %v", err)
	}
}

func TestRespondAccept(t *testing.T) {
	f := newFixture()
	invite, _ := f.svc.Invite(context.Background(), "admin-1", "team-1", "guest@example.com")

	updated, err := f.svc.Respond(context.Background(), "guest-1", "guest@example.com", invite.ID, "accept")
	if err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	if updated.Status != domain.InviteStatusAccepted {
		t.Fatalf("expected accepted status, got %q", updated.Status)
	}
	if len(f.teams.added) != 1 || f.teams.added[0].UserID != "guest-1" || f.teams.added[0].Role != domain.RoleMember {
		t.Fatalf("expected guest joined as member, got %+v", f.teams.added)
	}
}

func TestRespondGuards(t *testing.T) {
	f := newFixture()
	invite, _ := f.svc.Invite(context.Background(), "admin-1", "team-1", "guest@example.com")

	if _, err := f.svc.Respond(context.Background(), "guest-1", "guest@example.com", invite.ID, "maybe"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for bad action, got %v", err)
	}
	if _, err := f.svc.Respond(context.Background(), "member-1", "member@example.com", invite.ID, "accept"); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for wrong responder, got %v", err)
	}
	if _, err := f.svc.Respond(context.Background(), "guest-1", "guest@example.com", "missing", "accept"); apperr.KindOf(err) != apperr.KindExpired {
		t.Fatalf("expected expired for unknown invitation, got %v", err)
	}

	if _, err := f.svc.Respond(context.Background(), "guest-1", "guest@example.com", invite.ID, "reject"); err != nil {
		t.Fatalf("Respond returned error: %v", err)
	}
	_, err := f.svc.Respond(context.Background(), "guest-1", "guest@example.com", invite.ID, "accept")
	if apperr.KindOf(err) != apperr.KindConflict || apperr.MessageOf(err) != "Invitation already responded to" {
		t.Fatalf("expected already-responded conflict, got %v", err)
	}
}

func TestRespondExpiredInvitation(t *testing.T) {
	f := newFixture()
	invite, _ := f.svc.Invite(context.Background(), "admin-1", "team-1", "guest@example.com")
	f.invites.byID[invite.ID].CreatedAt = time.Now().Add(-8 * 24 * time.Hour)

	_, err := f.svc.Respond(context.Background(), "guest-1", "guest@example.com", invite.ID, "accept")
	if apperr.KindOf(err) != apperr.KindExpired || apperr.MessageOf(err) != "Invitation expired or not found" {
		t.Fatalf("expected expired error, got %v", err)
	}
	if len(f.teams.added) != 0 {
		t.Fatalf("expected no membership from expired accept, got %+v", f.teams.added)
	}
}

func TestMyInvitesFiltersExpired(t *testing.T) {
	f := newFixture()
	live, _ := f.svc.Invite(context.Background(), "admin-1", "team-1", "guest@example.com")
	f.teams.members["team-2"] = []domain.TeamMember{{TeamID: "team-2", UserID: "admin-1", Role: domain.RoleAdmin}}
	stale, _ := f.svc.Invite(context.Background(), "admin-1", "team-2", "guest@example.com")
	f.invites.byID[stale.ID].CreatedAt = time.Now().Add(-8 * 24 * time.Hour)

	invites, err := f.svc.MyInvites(context.Background(), "guest@example.com")
	if err != nil {
		t.Fatalf("MyInvites returned error: %v", err)
	}
	if len(invites) != 1 || invites[0].ID != live.ID {
		t.Fatalf("expected only the live invitation, got %+v", invites)
	}
}
