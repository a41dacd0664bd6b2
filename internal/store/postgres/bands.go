package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/bandly/bandly/internal/models"
)

// BandStore implements store.BandStore using PostgreSQL.
type BandStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

// conn returns the queryable connection (transaction or database).
func (s *BandStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

const bandColumns = `id, name, region, genres, bio, photo_url, created_at, updated_at`

func scanBand(row interface{ Scan(...any) error }) (*models.Band, error) {
	band := &models.Band{}
	err := row.Scan(
		&band.ID,
		&band.Name,
		&band.Region,
		pq.Array(&band.Genres),
		&band.Bio,
		&band.PhotoURL,
		&band.CreatedAt,
		&band.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return band, nil
}

// Create creates a new band.
func (s *BandStore) Create(ctx context.Context, band *models.Band) error {
	if err := band.Validate(); err != nil {
		return fmt.Errorf("validating band: %w", err)
	}

	if band.ID == "" {
		band.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if band.CreatedAt.IsZero() {
		band.CreatedAt = now
	}
	if band.UpdatedAt.IsZero() {
		band.UpdatedAt = now
	}

	query := `
		INSERT INTO bands (id, name, region, genres, bio, photo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.conn().ExecContext(ctx, query,
		band.ID,
		band.Name,
		band.Region,
		pq.Array(band.Genres),
		band.Bio,
		band.PhotoURL,
		band.CreatedAt,
		band.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("inserting band: %w", err)
	}

	return nil
}

// Get retrieves a band by ID.
func (s *BandStore) Get(ctx context.Context, id string) (*models.Band, error) {
	query := `SELECT ` + bandColumns + ` FROM bands WHERE id = $1`

	band, err := scanBand(s.conn().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying band: %w", err)
	}
	return band, nil
}

// GetForUpdate retrieves a band by ID with FOR UPDATE, locking the row for
// the remainder of the enclosing transaction. Concurrent acceptances into the
// same band serialize on this lock, so the roster checks that follow are
// evaluated against the snapshot that is written.
func (s *BandStore) GetForUpdate(ctx context.Context, id string) (*models.Band, error) {
	query := `SELECT ` + bandColumns + ` FROM bands WHERE id = $1 FOR UPDATE`

	band, err := scanBand(s.conn().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying band for update: %w", err)
	}
	return band, nil
}

// List retrieves all bands.
func (s *BandStore) List(ctx context.Context) ([]*models.Band, error) {
	query := `SELECT ` + bandColumns + ` FROM bands ORDER BY created_at DESC`

	rows, err := s.conn().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying bands: %w", err)
	}
	defer rows.Close()

	var bands []*models.Band
	for rows.Next() {
		band, err := scanBand(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning band: %w", err)
		}
		bands = append(bands, band)
	}

	return bands, rows.Err()
}

// ListForUser retrieves the bands a user is a member of.
func (s *BandStore) ListForUser(ctx context.Context, userID string) ([]*models.Band, error) {
	query := `
		SELECT b.id, b.name, b.region, b.genres, b.bio, b.photo_url, b.created_at, b.updated_at
		FROM bands b
		INNER JOIN band_members m ON b.id = m.band_id
		WHERE m.user_id = $1
		ORDER BY b.created_at ASC`

	rows, err := s.conn().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying bands for user: %w", err)
	}
	defer rows.Close()

	var bands []*models.Band
	for rows.Next() {
		band, err := scanBand(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning band: %w", err)
		}
		bands = append(bands, band)
	}

	return bands, rows.Err()
}

// Update updates a band's mutable fields.
func (s *BandStore) Update(ctx context.Context, band *models.Band) error {
	if err := band.Validate(); err != nil {
		return fmt.Errorf("validating band: %w", err)
	}

	band.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE bands
		SET name = $1, region = $2, genres = $3, bio = $4, photo_url = $5, updated_at = $6
		WHERE id = $7`

	result, err := s.conn().ExecContext(ctx, query,
		band.Name,
		band.Region,
		pq.Array(band.Genres),
		band.Bio,
		band.PhotoURL,
		band.UpdatedAt,
		band.ID,
	)
	if err != nil {
		return fmt.Errorf("updating band: %w", err)
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

// Delete deletes a band. Roster rows and invitations cascade at the schema level.
func (s *BandStore) Delete(ctx context.Context, id string) error {
	result, err := s.conn().ExecContext(ctx, `DELETE FROM bands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting band: %w", err)
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

// AddMember appends a roster row.
func (s *BandStore) AddMember(ctx context.Context, member *models.BandMember) error {
	if err := member.Validate(); err != nil {
		return fmt.Errorf("validating member: %w", err)
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO band_members (band_id, user_id, role, display_name, photo_url, invite_id, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.conn().ExecContext(ctx, query,
		member.BandID,
		member.UserID,
		string(member.Role),
		member.DisplayName,
		member.PhotoURL,
		member.InviteID,
		member.JoinedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("inserting band member: %w", err)
	}

	return nil
}

// RemoveMember deletes a roster row.
func (s *BandStore) RemoveMember(ctx context.Context, bandID, userID string) error {
	query := `DELETE FROM band_members WHERE band_id = $1 AND user_id = $2`

	result, err := s.conn().ExecContext(ctx, query, bandID, userID)
	if err != nil {
		return fmt.Errorf("deleting band member: %w", err)
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

// ListMembers retrieves the roster ordered by join time.
func (s *BandStore) ListMembers(ctx context.Context, bandID string) ([]*models.BandMember, error) {
	query := `
		SELECT band_id, user_id, role, display_name, photo_url, invite_id, joined_at
		FROM band_members
		WHERE band_id = $1
		ORDER BY joined_at ASC`

	rows, err := s.conn().QueryContext(ctx, query, bandID)
	if err != nil {
		return nil, fmt.Errorf("querying band members: %w", err)
	}
	defer rows.Close()

	var members []*models.BandMember
	for rows.Next() {
		member := &models.BandMember{}
		var role string
		var inviteID sql.NullString

		if err := rows.Scan(
			&member.BandID,
			&member.UserID,
			&role,
			&member.DisplayName,
			&member.PhotoURL,
			&inviteID,
			&member.JoinedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning band member: %w", err)
		}

		member.Role = models.MemberRole(role)
		if inviteID.Valid {
			member.InviteID = &inviteID.String
		}

		members = append(members, member)
	}

	return members, rows.Err()
}

// CountMembers returns the roster size.
func (s *BandStore) CountMembers(ctx context.Context, bandID string) (int, error) {
	var count int
	err := s.conn().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM band_members WHERE band_id = $1`, bandID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting band members: %w", err)
	}
	return count, nil
}
