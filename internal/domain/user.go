package domain

import "time"

// User is a registered account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// UserTeam mirrors a membership on the user side. Written when a team is
// created; the team_members roster stays authoritative for reads.
type UserTeam struct {
	UserID string
	TeamID string
	Role   string
}
