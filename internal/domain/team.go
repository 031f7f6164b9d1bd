package domain

import "time"

// Membership roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Team is a collaboration unit owning projects.
type Team struct {
	ID        string
	Name      string
	CreatedBy string
	CreatedAt time.Time
}

// TeamMember links a user to a team with a role.
type TeamMember struct {
	TeamID    string
	UserID    string
	Role      string
	CreatedAt time.Time
}

// TeamMemberDetail is a roster entry with the member identity resolved.
type TeamMemberDetail struct {
	UserID string
	Name   string
	Email  string
	Role   string
}
