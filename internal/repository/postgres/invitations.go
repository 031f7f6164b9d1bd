package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Nizamudheenp/project-collaboration/internal/domain"
	"github.com/Nizamudheenp/project-collaboration/internal/repository"
)

// CreateInvitation inserts an invitation. InvitedUser may be empty when the
// email has no registered account yet.
func (r *Repository) CreateInvitation(ctx context.Context, invite *domain.Invitation) error {
	const query = `INSERT INTO invitations (id, team_id, invited_by, invited_user, email, status, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		invite.ID, invite.TeamID, invite.InvitedBy, invite.InvitedUser,
		invite.Email, invite.Status, invite.CreatedAt)
	return err
}

// GetInvitationByID retrieves an invitation regardless of age; the service
// decides whether it has passed its window.
func (r *Repository) GetInvitationByID(ctx context.Context, inviteID string) (*domain.Invitation, error) {
	const query = `SELECT id, team_id, invited_by, COALESCE(invited_user, ''), email, status, created_at
		FROM invitations WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, inviteID)
	var inv domain.Invitation
	if err := row.Scan(&inv.ID, &inv.TeamID, &inv.InvitedBy, &inv.InvitedUser, &inv.Email, &inv.Status, &inv.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// FindPendingInvitation locates a live pending invite for (team, email).
func (r *Repository) FindPendingInvitation(ctx context.Context, teamID, email string, ttl time.Duration) (*domain.Invitation, error) {
	const query = `SELECT id, team_id, invited_by, COALESCE(invited_user, ''), email, status, created_at
		FROM invitations
		WHERE team_id = $1 AND email = $2 AND status = 'pending' AND created_at > $3`
	row := r.pool.QueryRow(ctx, query, teamID, email, time.Now().UTC().Add(-ttl))
	var inv domain.Invitation
	if err := row.Scan(&inv.ID, &inv.TeamID, &inv.InvitedBy, &inv.InvitedUser, &inv.Email, &inv.Status, &inv.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// ListPendingByEmail returns live pending invites for an email with team and
// inviter identities resolved.
func (r *Repository) ListPendingByEmail(ctx context.Context, email string, ttl time.Duration) ([]domain.InvitationDetail, error) {
	const query = `SELECT i.id, i.team_id, i.invited_by, COALESCE(i.invited_user, ''), i.email, i.status, i.created_at,
			t.name, u.name
		FROM invitations i
		INNER JOIN teams t ON t.id = i.team_id
		INNER JOIN users u ON u.id = i.invited_by
		WHERE i.email = $1 AND i.status = 'pending' AND i.created_at > $2
		ORDER BY i.created_at DESC`
	rows, err := r.pool.Query(ctx, query, email, time.Now().UTC().Add(-ttl))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := make([]domain.InvitationDetail, 0)
	for rows.Next() {
		var inv domain.InvitationDetail
		if err := rows.Scan(&inv.ID, &inv.TeamID, &inv.InvitedBy, &inv.InvitedUser, &inv.Email, &inv.Status, &inv.CreatedAt,
			&inv.TeamName, &inv.InviterName); err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

// UpdateInvitationStatus moves an invitation to a terminal status.
func (r *Repository) UpdateInvitationStatus(ctx context.Context, inviteID, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE invitations SET status = $2 WHERE id = $1`, inviteID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
