package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Nizamudheenp/project-collaboration/internal/domain"
	"github.com/Nizamudheenp/project-collaboration/internal/repository"
)

// CreateTask inserts a task.
func (r *Repository) CreateTask(ctx context.Context, task *domain.Task) error {
	const query = `INSERT INTO tasks (id, title, description, status, assigned_to, due_date, project_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.pool.Exec(ctx, query,
		task.ID, task.Title, task.Description, task.Status, task.AssignedTo,
		task.DueDate, task.ProjectID, task.CreatedBy, task.CreatedAt, task.UpdatedAt)
	return err
}

// GetTaskByID retrieves a task.
func (r *Repository) GetTaskByID(ctx context.Context, taskID string) (*domain.Task, error) {
	const query = `SELECT id, title, description, status, assigned_to, due_date, project_id, created_by, created_at, updated_at
		FROM tasks WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, taskID)
	var t domain.Task
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.AssignedTo,
		&t.DueDate, &t.ProjectID, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListTasksByProject returns a project's tasks, newest first.
func (r *Repository) ListTasksByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	const query = `SELECT id, title, description, status, assigned_to, due_date, project_id, created_by, created_at, updated_at
		FROM tasks
		WHERE project_id = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.AssignedTo,
			&t.DueDate, &t.ProjectID, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTaskStatus changes a task's status; last write wins.
func (r *Repository) UpdateTaskStatus(ctx context.Context, taskID, status string, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tasks SET status = $2, updated_at = $3 WHERE id = $1`, taskID, status, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteTask removes a task.
func (r *Repository) DeleteTask(ctx context.Context, taskID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CreateComment inserts an immutable comment.
func (r *Repository) CreateComment(ctx context.Context, comment *domain.Comment) error {
	const query = `INSERT INTO comments (id, task_id, user_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, comment.ID, comment.TaskID, comment.UserID, comment.Text, comment.CreatedAt)
	return err
}

// ListCommentsByTask returns a task's comments oldest first with authors resolved.
func (r *Repository) ListCommentsByTask(ctx context.Context, taskID string) ([]domain.CommentDetail, error) {
	const query = `SELECT c.id, c.task_id, c.user_id, c.text, c.created_at, u.name, u.email
		FROM comments c
		INNER JOIN users u ON u.id = c.user_id
		WHERE c.task_id = $1
		ORDER BY c.created_at ASC`
	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]domain.CommentDetail, 0)
	for rows.Next() {
		var c domain.CommentDetail
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Text, &c.CreatedAt, &c.AuthorName, &c.AuthorEmail); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// InsertActivity appends a trail entry.
func (r *Repository) InsertActivity(ctx context.Context, activity *domain.Activity) error {
	const query = `INSERT INTO activities (id, task_id, project_id, user_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		activity.ID, activity.TaskID, activity.ProjectID, activity.UserID,
		activity.Action, activity.Details, activity.CreatedAt)
	return err
}

// ListActivitiesByTask returns a task's trail oldest first with actor names resolved.
func (r *Repository) ListActivitiesByTask(ctx context.Context, taskID string) ([]domain.ActivityDetail, error) {
	const query = `SELECT a.id, a.task_id, a.project_id, a.user_id, a.action, a.details, a.created_at, u.name
		FROM activities a
		INNER JOIN users u ON u.id = a.user_id
		WHERE a.task_id = $1
		ORDER BY a.created_at ASC`
	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.ActivityDetail, 0)
	for rows.Next() {
		var a domain.ActivityDetail
		if err := rows.Scan(&a.ID, &a.TaskID, &a.ProjectID, &a.UserID, &a.Action, &a.Details, &a.CreatedAt, &a.UserName); err != nil {
			return nil, err
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}
