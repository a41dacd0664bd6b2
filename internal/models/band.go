// Package models provides data structures for the Bandly platform.
package models

import (
	"errors"
	"strings"
	"time"
)

// MemberRole represents a user's role within a band.
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"  // Full control, can invite, remove members, delete the band
	RoleMember MemberRole = "member" // Regular member
)

// MaxBandMembers is the hard cap on band roster size.
const MaxBandMembers = 6

// Band represents a band profile.
type Band struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Region    string    `json:"region,omitempty"` // Canton code, e.g. "ZH"
	Genres    []string  `json:"genres,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BandMember is one row of a band's roster.
type BandMember struct {
	BandID      string     `json:"band_id"`
	UserID      string     `json:"user_id"`
	Role        MemberRole `json:"role"`
	DisplayName string     `json:"display_name"`
	PhotoURL    string     `json:"photo_url,omitempty"`
	InviteID    *string    `json:"invite_id,omitempty"` // Invitation that admitted this member, nil for founders
	JoinedAt    time.Time  `json:"joined_at"`
}

// BandDetail is a band together with its full roster.
type BandDetail struct {
	Band
	Members     []*BandMember `json:"members"`
	MemberCount int           `json:"member_count"`
}

// Validation errors for bands.
var (
	ErrBandNameRequired = errors.New("band name is required")
	ErrBandNameTooLong  = errors.New("band name must be 63 characters or less")
	ErrInvalidRole      = errors.New("role must be admin or member")
)

// ValidateName validates the band name.
func (b *Band) ValidateName() error {
	name := strings.TrimSpace(b.Name)
	if name == "" {
		return ErrBandNameRequired
	}
	if len(name) > 63 {
		return ErrBandNameTooLong
	}
	return nil
}

// Validate validates the band fields.
func (b *Band) Validate() error {
	if err := b.ValidateName(); err != nil {
		return err
	}
	b.Region = strings.ToUpper(strings.TrimSpace(b.Region))
	return nil
}

// Validate checks the roster row fields.
func (m *BandMember) Validate() error {
	if m.Role != RoleAdmin && m.Role != RoleMember {
		return ErrInvalidRole
	}
	return nil
}

// HasMember reports whether userID is on the roster.
func (d *BandDetail) HasMember(userID string) bool {
	for _, m := range d.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// RoleOf returns the role of userID on the roster, or "" if not a member.
func (d *BandDetail) RoleOf(userID string) MemberRole {
	for _, m := range d.Members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return ""
}
