package domain

import "time"

// Activity actions recorded by the task and comment services.
const (
	ActionTaskCreated   = "task_created"
	ActionStatusChanged = "status_changed"
	ActionTaskDeleted   = "task_deleted"
	ActionCommentAdded  = "comment_added"
)

// Activity is an append-only log entry on a task.
type Activity struct {
	ID        string
	TaskID    string
	ProjectID string
	UserID    string
	Action    string
	Details   string
	CreatedAt time.Time
}

// ActivityDetail is an activity entry with the actor name resolved.
type ActivityDetail struct {
	Activity
	UserName string
}
