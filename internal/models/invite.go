package models

import (
	"strings"
	"time"
)

// InviteStatus represents the stored status of a band invitation.
type InviteStatus string

const (
	// InviteStatusPending indicates the invitation has not been accepted.
	InviteStatusPending InviteStatus = "pending"
	// InviteStatusAccepted indicates the invitation has been accepted.
	InviteStatusAccepted InviteStatus = "accepted"
	// InviteStatusRevoked indicates the invitation was revoked by a band admin.
	InviteStatusRevoked InviteStatus = "revoked"

	// InviteStatusExpired is never stored. Expiry is evaluated at read time
	// against ExpiresAt; a pending invitation past its expiry is displayed as
	// expired but keeps status "pending" in the store.
	InviteStatusExpired InviteStatus = "expired"
)

// InviteTTL is the validity window of a band invitation, fixed at issuance.
const InviteTTL = 14 * 24 * time.Hour

// Invite represents an invitation for one email address to join one band.
type Invite struct {
	ID                string       `json:"id"`
	BandID            string       `json:"band_id"`
	BandName          string       `json:"band_name"` // Denormalized for display
	InviterID         string       `json:"inviter_id"`
	InviterName       string       `json:"inviter_name"`
	InviteeEmail      string       `json:"invitee_email"`
	InviteeEmailLower string       `json:"-"` // Lookup key
	Status            InviteStatus `json:"status"`
	CreatedAt         time.Time    `json:"created_at"`
	ExpiresAt         time.Time    `json:"expires_at"`
	AcceptedAt        *time.Time   `json:"accepted_at,omitempty"`
	AcceptedBy        string       `json:"accepted_by,omitempty"`
}

// IsExpired returns true if the invitation has passed its expiry timestamp.
func (i *Invite) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// IsValid returns true if the invitation can still be accepted.
func (i *Invite) IsValid() bool {
	return i.Status == InviteStatusPending && !i.IsExpired()
}

// EffectiveStatus returns the status as it should be displayed: a pending
// invitation past its expiry reads as expired regardless of the stored value.
func (i *Invite) EffectiveStatus() InviteStatus {
	if i.Status == InviteStatusPending && i.IsExpired() {
		return InviteStatusExpired
	}
	return i.Status
}

// NormalizeEmail lowercases and trims an email address for lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail performs the minimal syntactic check applied to invitee
// addresses: the address must contain "@" followed by a domain with a dot.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".")
}
