package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/bandly/bandly/internal/models"
)

// ProfileStore implements store.ProfileStore using PostgreSQL.
type ProfileStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *ProfileStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Upsert creates or updates a profile's own fields. The band mirror columns
// are written only by SetBand and ClearBand.
func (s *ProfileStore) Upsert(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now().UTC()
	if profile.Status == "" {
		profile.Status = models.StatusMusician
	}

	query := `
		INSERT INTO profiles (user_id, display_name, photo_url, status, region, instruments, bio, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			photo_url = EXCLUDED.photo_url,
			region = EXCLUDED.region,
			instruments = EXCLUDED.instruments,
			bio = EXCLUDED.bio,
			updated_at = EXCLUDED.updated_at`

	_, err := s.conn().ExecContext(ctx, query,
		profile.UserID,
		profile.DisplayName,
		profile.PhotoURL,
		profile.Status,
		profile.Region,
		pq.Array(profile.Instruments),
		profile.Bio,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

// Get retrieves a profile by user ID.
func (s *ProfileStore) Get(ctx context.Context, userID string) (*models.Profile, error) {
	query := `
		SELECT user_id, display_name, photo_url, status, region, instruments, bio,
		       band_id, band_name, band_logo_url, band_joined_at, updated_at
		FROM profiles
		WHERE user_id = $1`

	profile := &models.Profile{}
	var bandID sql.NullString
	var bandLogoURL string
	var bandJoinedAt sql.NullTime

	err := s.conn().QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.DisplayName,
		&profile.PhotoURL,
		&profile.Status,
		&profile.Region,
		pq.Array(&profile.Instruments),
		&profile.Bio,
		&bandID,
		&profile.BandName,
		&bandLogoURL,
		&bandJoinedAt,
		&profile.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	if bandID.Valid {
		profile.Band = &models.BandRef{
			BandID:  bandID.String,
			Name:    profile.BandName,
			LogoURL: bandLogoURL,
		}
		if bandJoinedAt.Valid {
			profile.Band.JoinedAt = bandJoinedAt.Time
		}
	}

	return profile, nil
}

// SetBand writes the band-membership mirror and flips status to "Band".
// The row is created if the user has no profile yet, matching the merge
// semantics of the acceptance write.
func (s *ProfileStore) SetBand(ctx context.Context, userID string, ref *models.BandRef) error {
	query := `
		INSERT INTO profiles (user_id, status, band_id, band_name, band_logo_url, band_joined_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			status = EXCLUDED.status,
			band_id = EXCLUDED.band_id,
			band_name = EXCLUDED.band_name,
			band_logo_url = EXCLUDED.band_logo_url,
			band_joined_at = EXCLUDED.band_joined_at,
			updated_at = NOW()`

	_, err := s.conn().ExecContext(ctx, query,
		userID,
		models.StatusBand,
		ref.BandID,
		ref.Name,
		ref.LogoURL,
		ref.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("setting profile band: %w", err)
	}
	return nil
}

// ClearBand removes the mirror and restores status to "Musician".
func (s *ProfileStore) ClearBand(ctx context.Context, userID string) error {
	query := `
		UPDATE profiles
		SET status = $1, band_id = NULL, band_name = '', band_logo_url = '',
		    band_joined_at = NULL, updated_at = NOW()
		WHERE user_id = $2`

	_, err := s.conn().ExecContext(ctx, query, models.StatusMusician, userID)
	if err != nil {
		return fmt.Errorf("clearing profile band: %w", err)
	}
	return nil
}
