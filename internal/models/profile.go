package models

import "time"

// Profile statuses used for search indexing. A profile switches to
// StatusBand when its owner joins a band.
const (
	StatusMusician = "Musician"
	StatusBand     = "Band"
)

// BandRef is the denormalized band-membership snapshot stored on a profile
// for fast badge and search display. It is written only by the membership
// service, in the same transaction as the roster mutation it mirrors.
type BandRef struct {
	BandID   string    `json:"band_id"`
	Name     string    `json:"name"`
	LogoURL  string    `json:"logo_url,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

// Profile represents a musician's public profile.
type Profile struct {
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name"`
	PhotoURL    string   `json:"photo_url,omitempty"`
	Status      string   `json:"status"`
	Region      string   `json:"region,omitempty"`
	Instruments []string `json:"instruments,omitempty"`
	Bio         string   `json:"bio,omitempty"`

	// Band is the membership mirror, nil while the user is not in a band.
	// BandName is flattened alongside for search.
	Band     *BandRef `json:"band,omitempty"`
	BandName string   `json:"band_name,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}
