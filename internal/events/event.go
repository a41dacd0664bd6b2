// Package events provides live roster-change notifications over websockets.
//
// Every successful membership mutation publishes an event on the band's
// channel so subscribed clients reflect roster changes immediately, without
// polling.
package events

import "time"

// Type identifies a roster event.
type Type string

const (
	TypeMemberJoined  Type = "member_joined"
	TypeMemberLeft    Type = "member_left"
	TypeMemberRemoved Type = "member_removed"
	TypeInviteCreated Type = "invite_created"
	TypeInviteRevoked Type = "invite_revoked"
	TypeBandDeleted   Type = "band_deleted"
)

// Event is a single roster change on a band's channel.
type Event struct {
	Type        Type      `json:"type"`
	BandID      string    `json:"band_id"`
	UserID      string    `json:"user_id,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Seq         int64     `json:"seq"`
	At          time.Time `json:"at"`
}

// Publisher is the interface the membership service publishes through.
// Services depend on this interface rather than the Hub so tests can
// substitute a recorder.
type Publisher interface {
	Publish(event Event)
}

// NopPublisher discards all events.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(Event) {}
