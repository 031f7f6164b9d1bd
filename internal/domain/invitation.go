package domain

import "time"

// Invitation statuses.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusRejected = "rejected"
)

// Invitation is a pending offer of team membership tied to an email.
// Invitations are treated as gone once older than the configured TTL.
type Invitation struct {
	ID          string
	TeamID      string
	InvitedBy   string
	InvitedUser string // empty when the email has no registered account yet
	Email       string
	Status      string
	CreatedAt   time.Time
}

// InvitationDetail is a pending invitation with team and inviter resolved.
type InvitationDetail struct {
	Invitation
	TeamName    string
	InviterName string
}
