package service

import (
	"context"
	"sync"
	"time"

	"github.com/classmeet/signaling/internal/core/domain"
	"github.com/classmeet/signaling/internal/core/port"
	"github.com/rs/zerolog/log"
)

// MeetingService routes every inbound signaling message: it mutates the room
// store, then delivers the resulting events through the gateway. Handling is
// serialized per room so observers see events in mutation order (a join
// before the user-joined it caused, a user-left before the host-changed it
// caused); operations on different rooms never contend.
type MeetingService struct {
	rooms   port.RoomStore
	gateway port.Gateway

	lmu   sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func NewMeetingService(rooms port.RoomStore, gateway port.Gateway) *MeetingService {
	return &MeetingService{
		rooms:   rooms,
		gateway: gateway,
		locks:   make(map[string]*roomLock),
	}
}

// lockRoom acquires the per-room mutex, creating it on demand. The returned
// release drops the refcount and discards the entry once nobody holds or
// waits on it, so the lock map tracks the live room set instead of growing
// with every room id ever seen.
func (s *MeetingService) lockRoom(roomID string) (release func()) {
	s.lmu.Lock()
	l, ok := s.locks[roomID]
	if !ok {
		l = &roomLock{}
		s.locks[roomID] = l
	}
	l.refs++
	s.lmu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.lmu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, roomID)
		}
		s.lmu.Unlock()
	}
}

// Join adds the connection to the room (creating it on first join), replies
// with the full room snapshot and announces the newcomer to everyone else.
// A repeated join by the same connection only re-sends the snapshot.
func (s *MeetingService) Join(ctx context.Context, connID domain.ConnectionID, roomID, name string) {
	release := s.lockRoom(roomID)
	defer release()

	snap, added := s.rooms.AddParticipant(roomID, connID, name)

	joined, err := domain.NewEvent(domain.TypeRoomJoined, domain.RoomJoinedEvent{
		RoomID:       roomID,
		Participants: snap.Participants,
		Host:         snap.HostID,
	})
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("Encoding room-joined failed")
		return
	}
	s.gateway.Unicast(ctx, connID, joined)

	if !added {
		return
	}

	announce, err := domain.NewEvent(domain.TypeUserJoined, domain.UserJoinedEvent{
		ParticipantID: connID,
		Name:          name,
		IsHost:        snap.HostID == connID,
	})
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("Encoding user-joined failed")
		return
	}
	s.gateway.Fanout(ctx, snap.MemberIDs(), connID, announce)
}

// Leave removes the connection from the room and notifies the remaining
// members, promoting a new host first if the departing one held the role.
// Idempotent: leaving a room never joined, or twice, does nothing.
func (s *MeetingService) Leave(ctx context.Context, connID domain.ConnectionID, roomID string) {
	release := s.lockRoom(roomID)
	defer release()

	res := s.rooms.RemoveParticipant(roomID, connID)
	if !res.Removed || res.Emptied {
		return
	}

	remaining := make([]domain.ConnectionID, 0, len(res.Remaining))
	for _, p := range res.Remaining {
		remaining = append(remaining, p.ID)
	}

	left, err := domain.NewEvent(domain.TypeUserLeft, domain.UserLeftEvent{ParticipantID: connID})
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("Encoding user-left failed")
		return
	}
	s.gateway.Fanout(ctx, remaining, connID, left)

	if res.NewHost != nil {
		changed, err := domain.NewEvent(domain.TypeHostChanged, domain.HostChangedEvent{
			HostID:   res.NewHost.ID,
			HostName: res.NewHost.Name,
		})
		if err != nil {
			log.Error().Err(err).Str("room_id", roomID).Msg("Encoding host-changed failed")
			return
		}
		s.gateway.Fanout(ctx, remaining, connID, changed)
	}
}

// Disconnect runs the leave path for every room the connection belonged to.
// This is the only cleanup trigger; there is no heartbeat or idle reaping.
func (s *MeetingService) Disconnect(ctx context.Context, connID domain.ConnectionID) {
	for _, roomID := range s.rooms.RoomsWithParticipant(connID) {
		s.Leave(ctx, connID, roomID)
	}
}

// RelaySignal forwards an opaque signaling blob to one target connection,
// tagged with the sender's id. The payload is never inspected. An unknown
// target is a silent drop: signaling routinely races with disconnects.
func (s *MeetingService) RelaySignal(ctx context.Context, from, target domain.ConnectionID, signal []byte) {
	evt, err := domain.NewEvent(domain.TypeSignal, domain.SignalEvent{
		UserID: from,
		Signal: signal,
	})
	if err != nil {
		log.Error().Err(err).Str("client_id", from).Msg("Encoding signal failed")
		return
	}
	s.gateway.Unicast(ctx, target, evt)
}

// Chat broadcasts a chat line to the room, stamped with the sender's stored
// name and a server-side timestamp. Senders that are not members are ignored.
func (s *MeetingService) Chat(ctx context.Context, connID domain.ConnectionID, roomID, text string) {
	release := s.lockRoom(roomID)
	defer release()

	sender, ok := s.rooms.Participant(roomID, connID)
	if !ok {
		log.Debug().Str("room_id", roomID).Str("client_id", connID).Msg("Chat from non-member dropped")
		return
	}
	s.fanoutRoom(ctx, roomID, connID, domain.TypeChatMessage, domain.ChatMessageEvent{
		SenderID:   connID,
		SenderName: sender.Name,
		Text:       text,
		Timestamp:  time.Now().UnixMilli(),
	})
}

// Reaction broadcasts an ephemeral emoji reaction.
func (s *MeetingService) Reaction(ctx context.Context, connID domain.ConnectionID, roomID, emoji string) {
	release := s.lockRoom(roomID)
	defer release()

	s.fanoutRoom(ctx, roomID, connID, domain.TypeReaction, domain.ReactionEvent{
		ParticipantID: connID,
		Emoji:         emoji,
	})
}

// SetAudioState broadcasts a microphone mute/unmute notice.
func (s *MeetingService) SetAudioState(ctx context.Context, connID domain.ConnectionID, roomID string, enabled bool) {
	release := s.lockRoom(roomID)
	defer release()

	s.fanoutRoom(ctx, roomID, connID, domain.TypeAudioStateChanged, domain.MediaStateEvent{
		ParticipantID: connID,
		Enabled:       enabled,
	})
}

// SetVideoState broadcasts a camera on/off notice.
func (s *MeetingService) SetVideoState(ctx context.Context, connID domain.ConnectionID, roomID string, enabled bool) {
	release := s.lockRoom(roomID)
	defer release()

	s.fanoutRoom(ctx, roomID, connID, domain.TypeVideoStateChanged, domain.MediaStateEvent{
		ParticipantID: connID,
		Enabled:       enabled,
	})
}

// ScreenShare broadcasts a screen-share start or stop notice.
func (s *MeetingService) ScreenShare(ctx context.Context, connID domain.ConnectionID, roomID string, started bool) {
	release := s.lockRoom(roomID)
	defer release()

	t := domain.TypeScreenShareStopped
	if started {
		t = domain.TypeScreenShareStarted
	}
	s.fanoutRoom(ctx, roomID, connID, t, domain.ScreenShareEvent{ParticipantID: connID})
}

// HandRaise broadcasts a hand raised/lowered notice with the display name
// the client supplied.
func (s *MeetingService) HandRaise(ctx context.Context, connID domain.ConnectionID, roomID, name string, raised bool) {
	release := s.lockRoom(roomID)
	defer release()

	t := domain.TypeHandLowered
	if raised {
		t = domain.TypeHandRaised
	}
	s.fanoutRoom(ctx, roomID, connID, t, domain.HandRaiseEvent{
		ParticipantID: connID,
		Name:          name,
	})
}

// TransferHost reassigns the host role. Only the current host may transfer,
// and only to a current member; anything else is silently ignored.
func (s *MeetingService) TransferHost(ctx context.Context, connID domain.ConnectionID, roomID string, newHost domain.ConnectionID) {
	release := s.lockRoom(roomID)
	defer release()

	promoted, ok := s.rooms.SetHost(roomID, connID, newHost)
	if !ok {
		log.Debug().Str("room_id", roomID).Str("client_id", connID).Msg("Rejected set-host")
		return
	}
	s.fanoutRoom(ctx, roomID, connID, domain.TypeHostChanged, domain.HostChangedEvent{
		HostID:   promoted.ID,
		HostName: promoted.Name,
	})
}

// MuteAll broadcasts a host-issued request for everyone to mute. Ignored
// when the requester is not the current host.
func (s *MeetingService) MuteAll(ctx context.Context, connID domain.ConnectionID, roomID, hostName string) {
	release := s.lockRoom(roomID)
	defer release()

	if !s.rooms.IsHost(roomID, connID) {
		log.Debug().Str("room_id", roomID).Str("client_id", connID).Msg("Rejected mute-all")
		return
	}
	s.fanoutRoom(ctx, roomID, connID, domain.TypeMuteAll, domain.MuteAllEvent{
		HostID:   connID,
		HostName: hostName,
	})
}

// Stats reports current room and participant counts for the stats endpoint.
func (s *MeetingService) Stats() (rooms, participants int) {
	return s.rooms.Stats()
}

// fanoutRoom delivers one event to every current member of the room except
// the originator. A nonexistent room is a no-op. Callers hold the room lock.
func (s *MeetingService) fanoutRoom(ctx context.Context, roomID string, exclude domain.ConnectionID, t domain.MessageType, payload any) {
	snap, ok := s.rooms.Find(roomID)
	if !ok {
		return
	}
	evt, err := domain.NewEvent(t, payload)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Str("type", string(t)).Msg("Encoding event failed")
		return
	}
	s.gateway.Fanout(ctx, snap.MemberIDs(), exclude, evt)
}
