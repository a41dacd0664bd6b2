// Package store provides database access interfaces and implementations.
//
// Get-style methods return (nil, nil) when the requested record does not
// exist; callers decide whether absence is an error.
package store

import (
	"context"
	"errors"

	"github.com/bandly/bandly/internal/models"
)

// Errors returned by store implementations.
var (
	// ErrDuplicateEmail is returned when registering an email that already
	// has an account.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// BandStore defines operations for bands and their rosters.
//
// There is no stored member count: the roster table is authoritative and
// capacity checks count rows under the band row lock taken by GetForUpdate.
type BandStore interface {
	// Create creates a new band.
	Create(ctx context.Context, band *models.Band) error
	// Get retrieves a band by ID.
	Get(ctx context.Context, id string) (*models.Band, error)
	// GetForUpdate retrieves a band by ID and, inside a transaction, locks
	// its row until commit so roster checks and writes see one snapshot.
	GetForUpdate(ctx context.Context, id string) (*models.Band, error)
	// List retrieves all bands.
	List(ctx context.Context) ([]*models.Band, error)
	// ListForUser retrieves the bands a user is a member of.
	ListForUser(ctx context.Context, userID string) ([]*models.Band, error)
	// Update updates a band's mutable fields.
	Update(ctx context.Context, band *models.Band) error
	// Delete deletes a band. Invitations cascade at the schema level.
	Delete(ctx context.Context, id string) error

	// AddMember appends a roster row.
	AddMember(ctx context.Context, member *models.BandMember) error
	// RemoveMember deletes a roster row.
	RemoveMember(ctx context.Context, bandID, userID string) error
	// ListMembers retrieves the roster ordered by join time.
	ListMembers(ctx context.Context, bandID string) ([]*models.BandMember, error)
	// CountMembers returns the roster size.
	CountMembers(ctx context.Context, bandID string) (int, error)
}

// InviteStore defines operations for band invitations.
type InviteStore interface {
	// Create creates a new invitation.
	Create(ctx context.Context, invite *models.Invite) error
	// Get retrieves an invitation by ID.
	Get(ctx context.Context, id string) (*models.Invite, error)
	// GetForUpdate retrieves an invitation by ID and, inside a transaction,
	// locks its row until commit so the status check and the status write
	// see one snapshot.
	GetForUpdate(ctx context.Context, id string) (*models.Invite, error)
	// Update updates an invitation's status fields.
	Update(ctx context.Context, invite *models.Invite) error
	// ListByBand retrieves all invitations for a band, newest first.
	ListByBand(ctx context.Context, bandID string) ([]*models.Invite, error)
	// ListByEmail retrieves all invitations addressed to a lower-cased
	// email, newest first.
	ListByEmail(ctx context.Context, emailLower string) ([]*models.Invite, error)
	// GetEffective retrieves the pending, unexpired invitation for a
	// (band, lower-cased email) pair, if one exists.
	GetEffective(ctx context.Context, bandID, emailLower string) (*models.Invite, error)
}

// ProfileStore defines operations for musician profiles.
type ProfileStore interface {
	// Upsert creates or updates a profile's own fields, leaving the band
	// mirror columns untouched.
	Upsert(ctx context.Context, profile *models.Profile) error
	// Get retrieves a profile by user ID.
	Get(ctx context.Context, userID string) (*models.Profile, error)
	// SetBand writes the band-membership mirror and flips status to "Band".
	SetBand(ctx context.Context, userID string, ref *models.BandRef) error
	// ClearBand removes the mirror and restores status to "Musician".
	ClearBand(ctx context.Context, userID string) error
}

// UserStore defines operations for account management.
type UserStore interface {
	// Create creates a new user with a hashed password.
	Create(ctx context.Context, email, password, displayName string) (*models.User, error)
	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Authenticate verifies credentials and returns the user on success.
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// Store is the main interface for database operations.
type Store interface {
	// Bands returns the BandStore for band and roster operations.
	Bands() BandStore
	// Invites returns the InviteStore for invitation operations.
	Invites() InviteStore
	// Profiles returns the ProfileStore for profile operations.
	Profiles() ProfileStore
	// Users returns the UserStore for account operations.
	Users() UserStore

	// WithTx executes the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// Otherwise, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error

	// Close closes the database connection.
	Close() error
}
