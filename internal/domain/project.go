package domain

import "time"

// Project groups tasks and belongs to exactly one team.
type Project struct {
	ID          string
	Name        string
	Description string
	TeamID      string
	CreatedBy   string
	CreatedAt   time.Time
}
