package task

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Nizamudheenp/project-collaboration/internal/apperr"
	"github.com/Nizamudheenp/project-collaboration/internal/domain"
	"github.com/Nizamudheenp/project-collaboration/internal/repository"
	"github.com/Nizamudheenp/project-collaboration/internal/service/activity"
)

type stubTaskRepository struct {
	byID map[string]*domain.Task
}

func newStubTaskRepository() *stubTaskRepository {
	return &stubTaskRepository{byID: make(map[string]*domain.Task)}
}

func (s *stubTaskRepository) CreateTask(ctx context.Context, task *domain.Task) error {
	copied := *task
	s.byID[task.ID] = &copied
	return nil
}

func (s *stubTaskRepository) GetTaskByID(ctx context.Context, taskID string) (*domain.Task, error) {
	if task, ok := s.byID[taskID]; ok {
		copied := *task
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubTaskRepository) ListTasksByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	var out []domain.Task
	for _, task := range s.byID {
		if task.ProjectID == projectID {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (s *stubTaskRepository) UpdateTaskStatus(ctx context.Context, taskID, status string, updatedAt time.Time) error {
	task, ok := s.byID[taskID]
	if !ok {
		return repository.ErrNotFound
	}
	task.Status = status
	task.UpdatedAt = updatedAt
	return nil
}

func (s *stubTaskRepository) DeleteTask(ctx context.Context, taskID string) error {
	if _, ok := s.byID[taskID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, taskID)
	return nil
}

type stubProjectRepository struct {
	byID map[string]*domain.Project
}

func (s *stubProjectRepository) CreateProject(ctx context.Context, project *domain.Project) error {
	return nil
}

func (s *stubProjectRepository) GetProjectByID(ctx context.Context, projectID string) (*domain.Project, error) {
	if project, ok := s.byID[projectID]; ok {
		return project, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubProjectRepository) ListProjectsByTeam(ctx context.Context, teamID string) ([]domain.Project, error) {
	return nil, nil
}

func (s *stubProjectRepository) DeleteProject(ctx context.Context, projectID string) error {
	return nil
}

type stubTeamRepository struct {
	members map[string][]domain.TeamMember
}

func (s *stubTeamRepository) CreateTeam(ctx context.Context, team *domain.Team) error { return nil }
func (s *stubTeamRepository) GetTeamByID(ctx context.Context, teamID string) (*domain.Team, error) {
	if _, ok := s.members[teamID]; ok {
		return &domain.Team{ID: teamID}, nil
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
	return nil
}
func (s *stubTeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	return nil
}

type recordingActivityRepository struct {
	entries []domain.Activity
}

func (s *recordingActivityRepository) InsertActivity(ctx context.Context, entry *domain.Activity) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *recordingActivityRepository) ListActivitiesByTask(ctx context.Context, taskID string) ([]domain.ActivityDetail, error) {
	var out []domain.ActivityDetail
	for _, entry := range s.entries {
		if entry.TaskID == taskID {
			out = append(out, domain.ActivityDetail{Activity: entry})
		}
	}
	return out, nil
}

type fixture struct {
	svc        Service
	tasks      *stubTaskRepository
	projects   *stubProjectRepository
	teams      *stubTeamRepository
	activities *recordingActivityRepository
}

func newFixture() fixture {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tasks := newStubTaskRepository()
	projects := &stubProjectRepository{byID: map[string]*domain.Project{
		"project-1": {ID: "project-1", TeamID: "team-1"},
	}}
	teams := &stubTeamRepository{members: map[string][]domain.TeamMember{
		"team-1": {
			{TeamID: "team-1", UserID: "admin-1", Role: domain.RoleAdmin},
			{TeamID: "team-1", UserID: "assignee-1", Role: domain.RoleMember},
			{TeamID: "team-1", UserID: "member-1", Role: domain.RoleMember},
		},
	}}
	activities := &recordingActivityRepository{}
	activitySvc := activity.New(activities, log)
	return fixture{
		svc:        New(tasks, projects, teams, activitySvc, log),
		tasks:      tasks,
		projects:   projects,
		teams:      teams,
		activities: activities,
	}
}

func (f fixture) createTask(t *testing.T) *domain.Task {
	t.Helper()
	due := time.Now().Add(48 * time.Hour)
	task, err := f.svc.Create(context.Background(), "admin-1", "project-1", "Ship it", "Release prep", "assignee-1", due)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	return task
}

func TestCreateStartsInTodo(t *testing.T) {
	f := newFixture()
	task := f.createTask(t)
	if task.Status != domain.StatusTodo {
		t.Fatalf("expected new task in todo, got %q", task.Status)
	}
	if len(f.activities.entries) != 1 || f.activities.entries[0].Action != domain.ActionTaskCreated {
		t.Fatalf("expected task_created entry, got %+v", f.activities.entries)
	}
}

func TestCreateValidations(t *testing.T) {
	f := newFixture()
	due := time.Now().Add(time.Hour)

	if _, err := f.svc.Create(context.Background(), "admin-1", "project-1", "", "Release prep", "assignee-1", due); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for missing title, got %v", err)
	}
	if _, err := f.svc.Create(context.Background(), "admin-1", "project-1", "Ship it", "  ", "assignee-1", due); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for missing description, got %v", err)
	}
	if _, err := f.svc.Create(context.Background(), "admin-1", "project-1", "Ship it", "Release prep", "assignee-1", time.Time{}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for missing due date, got %v", err)
	}
	if _, err := f.svc.Create(context.Background(), "member-1", "project-1", "Ship it", "Release prep", "assignee-1", due); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for non-admin creator, got %v", err)
	}
	if _, err := f.svc.Create(context.Background(), "admin-1", "project-1", "Ship it", "Release prep", "outsider", due); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for outside assignee, got %v", err)
	}
	if _, err := f.svc.Create(context.Background(), "admin-1", "ghost-project", "Ship it", "Release prep", "assignee-1", due); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found for unknown project, got %v", err)
	}
}

func TestUpdateStatusActorMatrix(t *testing.T) {
	f := newFixture()
	task := f.createTask(t)

	cases := []struct {
		name    string
		caller  string
		allowed bool
	}{
		{name: "creator", caller: "admin-1", allowed: true},
		{name: "assignee", caller: "assignee-1", allowed: true},
		{name: "other member", caller: "member-1", allowed: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.UpdateStatus(context.Background(), tc.caller, task.ID, domain.StatusInProgress)
			if tc.allowed && err != nil {
				t.Fatalf("expected %s to update status, got %v", tc.name, err)
			}
			if !tc.allowed && apperr.KindOf(err) != apperr.KindForbidden {
				t.Fatalf("expected forbidden for %s, got %v", tc.name, err)
			}
		})
	}
}

func TestUpdateStatusRequiresLiveProjectChain(t *testing.T) {
	f := newFixture()
	task := f.createTask(t)

	delete(f.teams.members, "team-1")
	if _, err := f.svc.UpdateStatus(context.Background(), "admin-1", task.ID, domain.StatusDone); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found when owning team is gone, got %v", err)
	}

	delete(f.projects.byID, "project-1")
	if _, err := f.svc.UpdateStatus(context.Background(), "admin-1", task.ID, domain.StatusDone); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found when owning project is gone, got %v", err)
	}
	if got := f.tasks.byID[task.ID].Status; got != domain.StatusTodo {
		t.Fatalf("expected task to stay in todo, got %q", got)
	}
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	f := newFixture()
	task := f.createTask(t)
	_, err := f.svc.UpdateStatus(context.Background(), "admin-1", task.ID, "archived")
	if apperr.KindOf(err) != apperr.KindValidation || apperr.MessageOf(err) != "Invalid status" {
		t.Fatalf("expected invalid status validation error, got %v", err)
	}
}

func TestUpdateStatusRecordsTransition(t *testing.T) {
	f := newFixture()
	task := f.createTask(t)

	if _, err := f.svc.UpdateStatus(context.Background(), "assignee-1", task.ID, domain.StatusDone); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	// repeating the same status is allowed but not logged
	if _, err := f.svc.UpdateStatus(context.Background(), "assignee-1", task.ID, domain.StatusDone); err != nil {
		t.Fatalf("repeat UpdateStatus returned error: %v", err)
	}

	var transitions []domain.Activity
	for _, entry := range f.activities.entries {
		if entry.Action == domain.ActionStatusChanged {
			transitions = append(transitions, entry)
		}
	}
	if len(transitions) != 1 || transitions[0].Details != "todo -> done" {
		t.Fatalf("expected one todo -> done transition, got %+v", transitions)
	}
}

func TestDeleteAdminOnlyKeepsTrail(t *testing.T) {
	f := newFixture()
	task := f.createTask(t)

	if err := f.svc.Delete(context.Background(), "assignee-1", task.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for non-admin delete, got %v", err)
	}
	if err := f.svc.Delete(context.Background(), "admin-1", task.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), task.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found after delete, got %v", err)
	}

	entries, err := f.activities.ListActivitiesByTask(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("ListActivitiesByTask returned error: %v", err)
	}
	last := entries[len(entries)-1]
	if last.Action != domain.ActionTaskDeleted {
		t.Fatalf("expected final task_deleted entry, got %+v", last)
	}
}
