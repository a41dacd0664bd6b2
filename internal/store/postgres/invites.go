package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bandly/bandly/internal/models"
)

// InviteStore implements store.InviteStore using PostgreSQL.
type InviteStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *InviteStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

const inviteColumns = `id, band_id, band_name, inviter_id, inviter_name,
	invitee_email, invitee_email_lower, status, created_at, expires_at,
	accepted_at, accepted_by`

func scanInvite(row interface{ Scan(...any) error }) (*models.Invite, error) {
	inv := &models.Invite{}
	var status string
	var acceptedAt sql.NullTime
	var acceptedBy sql.NullString

	err := row.Scan(
		&inv.ID,
		&inv.BandID,
		&inv.BandName,
		&inv.InviterID,
		&inv.InviterName,
		&inv.InviteeEmail,
		&inv.InviteeEmailLower,
		&status,
		&inv.CreatedAt,
		&inv.ExpiresAt,
		&acceptedAt,
		&acceptedBy,
	)
	if err != nil {
		return nil, err
	}

	inv.Status = models.InviteStatus(status)
	if acceptedAt.Valid {
		inv.AcceptedAt = &acceptedAt.Time
	}
	if acceptedBy.Valid {
		inv.AcceptedBy = acceptedBy.String
	}

	return inv, nil
}

// Create creates a new invitation.
func (s *InviteStore) Create(ctx context.Context, invite *models.Invite) error {
	if invite.ID == "" {
		invite.ID = uuid.New().String()
	}
	if invite.CreatedAt.IsZero() {
		invite.CreatedAt = time.Now().UTC()
	}
	if invite.Status == "" {
		invite.Status = models.InviteStatusPending
	}
	if invite.InviteeEmailLower == "" {
		invite.InviteeEmailLower = models.NormalizeEmail(invite.InviteeEmail)
	}

	query := `
		INSERT INTO band_invites (id, band_id, band_name, inviter_id, inviter_name,
			invitee_email, invitee_email_lower, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.conn().ExecContext(ctx, query,
		invite.ID,
		invite.BandID,
		invite.BandName,
		invite.InviterID,
		invite.InviterName,
		invite.InviteeEmail,
		invite.InviteeEmailLower,
		string(invite.Status),
		invite.CreatedAt,
		invite.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("inserting invite: %w", err)
	}
	return nil
}

// Get retrieves an invitation by ID.
func (s *InviteStore) Get(ctx context.Context, id string) (*models.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM band_invites WHERE id = $1`

	inv, err := scanInvite(s.conn().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying invite: %w", err)
	}
	return inv, nil
}

// GetForUpdate retrieves an invitation by ID with FOR UPDATE, locking the
// row for the remainder of the enclosing transaction. Concurrent consumers
// of the same invitation serialize on this lock, so the pending check that
// follows reads the latest committed status, not a stale snapshot.
func (s *InviteStore) GetForUpdate(ctx context.Context, id string) (*models.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM band_invites WHERE id = $1 FOR UPDATE`

	inv, err := scanInvite(s.conn().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying invite for update: %w", err)
	}
	return inv, nil
}

// Update updates an invitation's status fields.
func (s *InviteStore) Update(ctx context.Context, invite *models.Invite) error {
	query := `
		UPDATE band_invites
		SET status = $1, accepted_at = $2, accepted_by = NULLIF($3, '')
		WHERE id = $4`

	result, err := s.conn().ExecContext(ctx, query,
		string(invite.Status),
		invite.AcceptedAt,
		invite.AcceptedBy,
		invite.ID,
	)
	if err != nil {
		return fmt.Errorf("updating invite: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByBand retrieves all invitations for a band, newest first.
func (s *InviteStore) ListByBand(ctx context.Context, bandID string) ([]*models.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM band_invites
		WHERE band_id = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, bandID)
}

// ListByEmail retrieves all invitations addressed to a lower-cased email, newest first.
func (s *InviteStore) ListByEmail(ctx context.Context, emailLower string) ([]*models.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM band_invites
		WHERE invitee_email_lower = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, emailLower)
}

// GetEffective retrieves the pending, unexpired invitation for a
// (band, lower-cased email) pair, if one exists.
func (s *InviteStore) GetEffective(ctx context.Context, bandID, emailLower string) (*models.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM band_invites
		WHERE band_id = $1 AND invitee_email_lower = $2
		  AND status = 'pending' AND expires_at > NOW()
		ORDER BY created_at DESC LIMIT 1`

	inv, err := scanInvite(s.conn().QueryRowContext(ctx, query, bandID, emailLower))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying effective invite: %w", err)
	}
	return inv, nil
}

func (s *InviteStore) list(ctx context.Context, query string, args ...any) ([]*models.Invite, error) {
	rows, err := s.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying invites: %w", err)
	}
	defer rows.Close()

	var invites []*models.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invite: %w", err)
		}
		invites = append(invites, inv)
	}

	return invites, rows.Err()
}
