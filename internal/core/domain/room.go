package domain

import (
	"time"
)

// Participant is one connection's membership record within a single room.
// The record never changes after the join; the name is fixed for the life
// of the membership.
type Participant struct {
	ID       ConnectionID `json:"id"`
	Name     string       `json:"name"`
	JoinedAt time.Time    `json:"joinedAt"`
}

// RoomSnapshot is a point-in-time copy of a room's membership and host,
// safe to hand to callers without aliasing store state.
type RoomSnapshot struct {
	RoomID       string        `json:"roomId"`
	Participants []Participant `json:"participants"`
	HostID       ConnectionID  `json:"host"`
}

// Host returns the host's participant record, if the snapshot has one.
func (s RoomSnapshot) Host() (Participant, bool) {
	for _, p := range s.Participants {
		if p.ID == s.HostID {
			return p, true
		}
	}
	return Participant{}, false
}

// MemberIDs lists the ids of every participant in join order.
func (s RoomSnapshot) MemberIDs() []ConnectionID {
	ids := make([]ConnectionID, 0, len(s.Participants))
	for _, p := range s.Participants {
		ids = append(ids, p.ID)
	}
	return ids
}

// RemoveResult reports what a participant removal did to the room.
type RemoveResult struct {
	// Removed is false when the room or the participant was already gone.
	Removed bool
	// NewHost is set when the removed participant was host and the room
	// still has members; the next participant by join order is promoted.
	NewHost *Participant
	// Emptied is true when the removal deleted the room.
	Emptied bool
	// Remaining holds the membership after the removal, in join order.
	Remaining []Participant
}
