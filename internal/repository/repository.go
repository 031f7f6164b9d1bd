package repository

import (
	"context"
	"time"

	"github.com/Nizamudheenp/project-collaboration/internal/domain"
)

// UserRepository persists users and the user-side membership mirror.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	AppendUserTeam(ctx context.Context, mirror *domain.UserTeam) error
}

// TeamRepository manages teams and their member rosters.
type TeamRepository interface {
	CreateTeam(ctx context.Context, team *domain.Team) error
	GetTeamByID(ctx context.Context, teamID string) (*domain.Team, error)
	DeleteTeam(ctx context.Context, teamID string) error
	ListTeamsByUser(ctx context.Context, userID string) ([]domain.Team, error)
	ListMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error)
	ListMemberDetails(ctx context.Context, teamID string) ([]domain.TeamMemberDetail, error)
	UpsertMember(ctx context.Context, member *domain.TeamMember) error
	RemoveMember(ctx context.Context, teamID, userID string) error
}

// ProjectRepository persists projects.
type ProjectRepository interface {
	CreateProject(ctx context.Context, project *domain.Project) error
	GetProjectByID(ctx context.Context, projectID string) (*domain.Project, error)
	ListProjectsByTeam(ctx context.Context, teamID string) ([]domain.Project, error)
	DeleteProject(ctx context.Context, projectID string) error
}

// TaskRepository persists tasks.
type TaskRepository interface {
	CreateTask(ctx context.Context, task *domain.Task) error
	GetTaskByID(ctx context.Context, taskID string) (*domain.Task, error)
	ListTasksByProject(ctx context.Context, projectID string) ([]domain.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID, status string, updatedAt time.Time) error
	DeleteTask(ctx context.Context, taskID string) error
}

// CommentRepository persists immutable task comments.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *domain.Comment) error
	ListCommentsByTask(ctx context.Context, taskID string) ([]domain.CommentDetail, error)
}

// ActivityRepository appends and reads the task activity trail.
type ActivityRepository interface {
	InsertActivity(ctx context.Context, activity *domain.Activity) error
	ListActivitiesByTask(ctx context.Context, taskID string) ([]domain.ActivityDetail, error)
}

// InvitationRepository persists team invitations. Lookups treat rows older
// than the ttl as absent, which is how the passive expiry transition happens.
type InvitationRepository interface {
	CreateInvitation(ctx context.Context, invite *domain.Invitation) error
	GetInvitationByID(ctx context.Context, inviteID string) (*domain.Invitation, error)
	FindPendingInvitation(ctx context.Context, teamID, email string, ttl time.Duration) (*domain.Invitation, error)
	ListPendingByEmail(ctx context.Context, email string, ttl time.Duration) ([]domain.InvitationDetail, error)
	UpdateInvitationStatus(ctx context.Context, inviteID, status string) error
}
