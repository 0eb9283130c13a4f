package memory

import (
	"sync"
	"time"

	"github.com/classmeet/signaling/internal/core/domain"
	"github.com/rs/zerolog/log"
)

type room struct {
	// participants keeps join order; host failover walks it front to back.
	participants []domain.Participant
	host         domain.ConnectionID
}

// RoomStore implements port.RoomStore with a mutex-guarded in-memory map.
// Rooms are ephemeral: created on first join, deleted the moment the last
// participant leaves, nothing survives a restart.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*room

	// now is swappable for deterministic join timestamps in tests.
	now func() time.Time
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*room),
		now:   time.Now,
	}
}

// getOrCreate is deliberately unexported: only AddParticipant may create a
// room, which keeps the store free of empty rooms.
func (s *RoomStore) getOrCreate(roomID string) *room {
	r, ok := s.rooms[roomID]
	if !ok {
		r = &room{}
		s.rooms[roomID] = r
	}
	return r
}

func (s *RoomStore) AddParticipant(roomID string, id domain.ConnectionID, name string) (domain.RoomSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.getOrCreate(roomID)
	for _, p := range r.participants {
		if p.ID == id {
			// Repeated join by the same connection: keep the original
			// membership record, just hand back the current snapshot.
			return r.snapshot(roomID), false
		}
	}

	r.participants = append(r.participants, domain.Participant{
		ID:       id,
		Name:     name,
		JoinedAt: s.now(),
	})
	if len(r.participants) == 1 {
		r.host = id
	}

	log.Debug().Str("room_id", roomID).Str("client_id", id).Int("count", len(r.participants)).Msg("Participant joined")
	return r.snapshot(roomID), true
}

func (s *RoomStore) RemoveParticipant(roomID string, id domain.ConnectionID) domain.RemoveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return domain.RemoveResult{}
	}

	idx := -1
	for i, p := range r.participants {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return domain.RemoveResult{}
	}

	r.participants = append(r.participants[:idx], r.participants[idx+1:]...)

	res := domain.RemoveResult{Removed: true}
	if len(r.participants) == 0 {
		delete(s.rooms, roomID)
		res.Emptied = true
		log.Debug().Str("room_id", roomID).Msg("Room removed")
		return res
	}

	if r.host == id {
		promoted := r.participants[0]
		r.host = promoted.ID
		res.NewHost = &promoted
		log.Debug().Str("room_id", roomID).Str("client_id", promoted.ID).Msg("Host reassigned")
	}
	res.Remaining = append(res.Remaining, r.participants...)
	return res
}

func (s *RoomStore) SetHost(roomID string, requester, newHost domain.ConnectionID) (domain.Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok || r.host != requester {
		return domain.Participant{}, false
	}
	for _, p := range r.participants {
		if p.ID == newHost {
			r.host = newHost
			return p, true
		}
	}
	return domain.Participant{}, false
}

func (s *RoomStore) Find(roomID string) (domain.RoomSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return domain.RoomSnapshot{}, false
	}
	return r.snapshot(roomID), true
}

func (s *RoomStore) Participant(roomID string, id domain.ConnectionID) (domain.Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return domain.Participant{}, false
	}
	for _, p := range r.participants {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Participant{}, false
}

func (s *RoomStore) IsHost(roomID string, id domain.ConnectionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	return ok && r.host == id
}

func (s *RoomStore) RoomsWithParticipant(id domain.ConnectionID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var roomIDs []string
	for roomID, r := range s.rooms {
		for _, p := range r.participants {
			if p.ID == id {
				roomIDs = append(roomIDs, roomID)
				break
			}
		}
	}
	return roomIDs
}

func (s *RoomStore) Stats() (rooms, participants int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms = len(s.rooms)
	for _, r := range s.rooms {
		participants += len(r.participants)
	}
	return rooms, participants
}

// snapshot copies room state; callers outside the lock never see live slices.
func (r *room) snapshot(roomID string) domain.RoomSnapshot {
	snap := domain.RoomSnapshot{
		RoomID:       roomID,
		Participants: make([]domain.Participant, len(r.participants)),
		HostID:       r.host,
	}
	copy(snap.Participants, r.participants)
	return snap
}
