package band

import "errors"

// Errors returned by the membership service.
var (
	// ErrBandNotFound is returned when the referenced band does not exist.
	ErrBandNotFound = errors.New("band not found")
	// ErrInviteNotFound is returned when the referenced invitation does not exist.
	ErrInviteNotFound = errors.New("invitation not found")
	// ErrInviteNotPending is returned when accepting or revoking an
	// invitation that has already been accepted or revoked.
	ErrInviteNotPending = errors.New("invitation is no longer valid")
	// ErrInviteExpired is returned when an invitation has passed its expiry.
	ErrInviteExpired = errors.New("invitation has expired")
	// ErrBandFull is returned when the roster is at capacity.
	ErrBandFull = errors.New("band is full")
	// ErrAlreadyMember is returned when the accepter is already on the roster.
	ErrAlreadyMember = errors.New("already a member of this band")
	// ErrAlreadyInvited is returned when a pending, unexpired invitation
	// already exists for the same band and email.
	ErrAlreadyInvited = errors.New("email already has a pending invitation")
	// ErrNotAdmin is returned when an admin-only action is attempted by a
	// non-admin.
	ErrNotAdmin = errors.New("requires band admin role")
	// ErrNotMember is returned when the actor is not on the roster.
	ErrNotMember = errors.New("not a member of this band")
	// ErrInvalidEmail is returned when the invitee address fails the
	// syntactic check.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrLastAdmin is returned when the only admin tries to leave a band
	// that still has other members.
	ErrLastAdmin = errors.New("cannot leave as the only admin while the band has other members")
	// ErrLastMember is returned when the sole member tries to leave instead
	// of deleting the band.
	ErrLastMember = errors.New("cannot leave as the last member, delete the band instead")
	// ErrCannotRemoveSelf is returned when an admin tries to remove
	// themselves; leaving is the symmetric path for that.
	ErrCannotRemoveSelf = errors.New("cannot remove yourself, leave the band instead")
	// ErrCannotRemoveAdmin is returned when an admin tries to remove
	// another admin.
	ErrCannotRemoveAdmin = errors.New("cannot remove another admin")
)
