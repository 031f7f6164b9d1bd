package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Nizamudheenp/project-collaboration/internal/apperr"
	"github.com/Nizamudheenp/project-collaboration/internal/domain"
	"github.com/Nizamudheenp/project-collaboration/internal/repository"
	"github.com/Nizamudheenp/project-collaboration/pkg/config"
)

type stubUserRepository struct {
	byEmail map[string]*domain.User
	byID    map[string]*domain.User
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{
		byEmail: make(map[string]*domain.User),
		byID:    make(map[string]*domain.User),
	}
}

func (s *stubUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	copied := *user
	s.byEmail[user.Email] = &copied
	s.byID[user.ID] = &copied
	return nil
}

func (s *stubUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if user, ok := s.byEmail[email]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if user, ok := s.byID[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubUserRepository) AppendUserTeam(ctx context.Context, mirror *domain.UserTeam) error {
	return nil
}

func testService(users repository.UserRepository) Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.APIConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}
	return New(users, log, cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := testService(newStubUserRepository())

	user, token, err := svc.Register(context.Background(), "Asha", "Asha@Example.com", "hunter22")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "asha@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
	if token == "" {
		t.Fatal("expected a token from Register")
	}

	loggedIn, _, err := svc.Login(context.Background(), "asha@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("Login returned user %q, want %q", loggedIn.ID, user.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := testService(newStubUserRepository())
	if _, _, err := svc.Register(context.Background(), "Asha", "asha@example.com", "hunter22"); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}
	_, _, err := svc.Register(context.Background(), "Other", "asha@example.com", "different")
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := testService(newStubUserRepository())
	if _, _, err := svc.Register(context.Background(), "Asha", "asha@example.com", "hunter22"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	_, _, err := svc.Login(context.Background(), "asha@example.com", "wrong")
	if apperr.KindOf(err) != apperr.KindValidation || apperr.MessageOf(err) != "Invalid credentials" {
		t.Fatalf("expected invalid credentials validation error, got %v", err)
	}
	// unknown account is indistinguishable from a wrong password
	_, _, err = svc.Login(context.Background(), "ghost@example.com", "hunter22")
	if apperr.KindOf(err) != apperr.KindValidation || apperr.MessageOf(err) != "Invalid credentials" {
		t.Fatalf("expected invalid credentials validation error, got %v", err)
	}
}

func TestAuthorizeRoundTrip(t *testing.T) {
	svc := testService(newStubUserRepository())
	user, token, err := svc.Register(context.Background(), "Asha", "asha@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	current, err := svc.Authorize(context.Background(), token)
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if current.ID != user.ID {
		t.Fatalf("Authorize returned user %q, want %q", current.ID, user.ID)
	}

	if _, err := svc.Authorize(context.Background(), token+"tampered"); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}
