package domain

import (
	"encoding/json"
)

// MessageType tags every frame exchanged over the signaling connection.
type MessageType string

// Client to server.
const (
	TypeJoinRoom           MessageType = "join-room"
	TypeLeaveRoom          MessageType = "leave-room"
	TypeSignal             MessageType = "signal"
	TypeChatMessage        MessageType = "chat-message"
	TypeReaction           MessageType = "reaction"
	TypeAudioToggle        MessageType = "audio-toggle"
	TypeVideoToggle        MessageType = "video-toggle"
	TypeScreenShareStarted MessageType = "screen-share-started"
	TypeScreenShareStopped MessageType = "screen-share-stopped"
	TypeHandRaised         MessageType = "hand-raised"
	TypeHandLowered        MessageType = "hand-lowered"
	TypeSetHost            MessageType = "set-host"
	TypeMuteAll            MessageType = "mute-all"
)

// Server to client. Types shared with the client direction (chat-message,
// reaction, screen share, hand raise, mute-all) are reused verbatim.
const (
	TypeConnected         MessageType = "connected"
	TypeRoomJoined        MessageType = "room-joined"
	TypeUserJoined        MessageType = "user-joined"
	TypeUserLeft          MessageType = "user-left"
	TypeHostChanged       MessageType = "host-changed"
	TypeAudioStateChanged MessageType = "audio-state-changed"
	TypeVideoStateChanged MessageType = "video-state-changed"
)

// Envelope is the wire frame: a type tag plus a type-specific JSON payload.
// Signal payloads pass through as raw bytes and are never inspected.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an outbound envelope, marshaling the payload.
func NewEvent(t MessageType, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: t, Payload: raw}, nil
}

// Inbound payloads.

type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
	// UserID is accepted for wire compatibility but ignored; the
	// server-assigned connection id is the participant id.
	UserID   string `json:"userId,omitempty"`
	UserName string `json:"userName"`
}

type LeaveRoomRequest struct {
	RoomID string `json:"roomId"`
}

type SignalRequest struct {
	// UserID is the target connection to relay to.
	UserID ConnectionID    `json:"userId"`
	Signal json.RawMessage `json:"signal"`
}

type ChatRequest struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

type ReactionRequest struct {
	RoomID string `json:"roomId"`
	Emoji  string `json:"emoji"`
}

type MediaToggleRequest struct {
	RoomID  string `json:"roomId"`
	Enabled bool   `json:"enabled"`
}

type ScreenShareRequest struct {
	RoomID string `json:"roomId"`
}

type HandRaiseRequest struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
}

type SetHostRequest struct {
	RoomID string       `json:"roomId"`
	HostID ConnectionID `json:"hostId"`
}

type MuteAllRequest struct {
	RoomID   string `json:"roomId"`
	HostName string `json:"hostName"`
}

// Outbound payloads.

type ConnectedEvent struct {
	ConnectionID ConnectionID `json:"connectionId"`
}

type RoomJoinedEvent struct {
	RoomID       string        `json:"roomId"`
	Participants []Participant `json:"participants"`
	Host         ConnectionID  `json:"host"`
}

type UserJoinedEvent struct {
	ParticipantID ConnectionID `json:"participantId"`
	Name          string       `json:"name"`
	IsHost        bool         `json:"isHost"`
}

type UserLeftEvent struct {
	ParticipantID ConnectionID `json:"participantId"`
}

type HostChangedEvent struct {
	HostID   ConnectionID `json:"hostId"`
	HostName string       `json:"hostName"`
}

type SignalEvent struct {
	// UserID is the sender's connection id.
	UserID ConnectionID    `json:"userId"`
	Signal json.RawMessage `json:"signal"`
}

type ChatMessageEvent struct {
	SenderID   ConnectionID `json:"senderId"`
	SenderName string       `json:"senderName"`
	Text       string       `json:"text"`
	Timestamp  int64        `json:"timestamp"`
}

type ReactionEvent struct {
	ParticipantID ConnectionID `json:"participantId"`
	Emoji         string       `json:"emoji"`
}

type MediaStateEvent struct {
	ParticipantID ConnectionID `json:"participantId"`
	Enabled       bool         `json:"enabled"`
}

type ScreenShareEvent struct {
	ParticipantID ConnectionID `json:"participantId"`
}

type HandRaiseEvent struct {
	ParticipantID ConnectionID `json:"participantId"`
	Name          string       `json:"name"`
}

type MuteAllEvent struct {
	HostID   ConnectionID `json:"hostId"`
	HostName string       `json:"hostName"`
}
