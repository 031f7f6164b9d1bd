package domain

import "time"

// Task statuses.
const (
	StatusTodo       = "todo"
	StatusInProgress = "inprogress"
	StatusDone       = "done"
)

// ValidStatus reports whether s is one of the three task statuses.
func ValidStatus(s string) bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusDone
}

// Task is an assignable unit of work inside a project.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      string
	AssignedTo  string
	DueDate     time.Time
	ProjectID   string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
