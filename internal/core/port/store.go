package port

import "github.com/classmeet/signaling/internal/core/domain"

// RoomStore is the sole source of truth for room membership and host
// assignment. Every method is atomic with respect to a room's state; a room
// exists exactly while it has at least one participant.
type RoomStore interface {
	// AddParticipant appends to the room, creating it on first join. The
	// first joiner becomes host. A duplicate id is a no-op reported by
	// added=false; the returned snapshot reflects current state either way.
	AddParticipant(roomID string, id domain.ConnectionID, name string) (snap domain.RoomSnapshot, added bool)

	// RemoveParticipant removes the participant if present, promoting the
	// next participant by join order when the host departs and deleting the
	// room when it empties. Idempotent: a second removal reports Removed=false.
	RemoveParticipant(roomID string, id domain.ConnectionID) domain.RemoveResult

	// SetHost reassigns the host. Succeeds only when requester is the
	// current host and newHost is a current participant; returns the
	// promoted participant on success.
	SetHost(roomID string, requester, newHost domain.ConnectionID) (domain.Participant, bool)

	// Find returns a snapshot of the room, or ok=false if it does not exist.
	Find(roomID string) (domain.RoomSnapshot, bool)

	// Participant looks up one membership record.
	Participant(roomID string, id domain.ConnectionID) (domain.Participant, bool)

	// IsHost reports whether id currently hosts the room.
	IsHost(roomID string, id domain.ConnectionID) bool

	// RoomsWithParticipant lists every room the connection is a member of.
	RoomsWithParticipant(id domain.ConnectionID) []string

	// Stats counts rooms and participants across the store.
	Stats() (rooms, participants int)
}
