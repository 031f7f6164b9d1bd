// Package authz holds the pure authorization predicates. Callers fetch the
// entities first; every mutation re-resolves the Task -> Project -> Team
// chain so roster changes take effect on the next request.
package authz

import "github.com/Nizamudheenp/project-collaboration/internal/domain"

// IsTeamMember reports whether userID appears in the roster.
func IsTeamMember(members []domain.TeamMember, userID string) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// IsTeamAdmin reports whether userID appears in the roster with the admin role.
func IsTeamAdmin(members []domain.TeamMember, userID string) bool {
	for _, m := range members {
		if m.UserID == userID && m.Role == domain.RoleAdmin {
			return true
		}
	}
	return false
}

// IsTaskActor reports whether userID created the task or is assigned to it.
func IsTaskActor(task *domain.Task, userID string) bool {
	if task == nil {
		return false
	}
	return task.CreatedBy == userID || task.AssignedTo == userID
}
