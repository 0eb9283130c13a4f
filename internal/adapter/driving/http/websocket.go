package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/classmeet/signaling/internal/core/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Ping period, must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Large enough for WebRTC SDP blobs.
	maxMessageSize = 64 * 1024

	// Outbound frames queued per connection before sends start failing.
	sendBuffer = 256
)

var errSendBufferFull = errors.New("send buffer full")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// TODO: restrict to the frontend origin before exposing publicly
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSClient implements port.Client over a gorilla connection. All writes go
// through the buffered send channel and a single writePump goroutine, so the
// dispatch path never blocks on a slow peer.
type WSClient struct {
	id   domain.ConnectionID
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newWSClient(id domain.ConnectionID, conn *websocket.Conn) *WSClient {
	return &WSClient{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

func (c *WSClient) ID() domain.ConnectionID {
	return c.id
}

func (c *WSClient) Send(evt domain.Envelope) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *WSClient) Close() error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
	return c.conn.Close()
}

// writePump owns all writes to the connection: queued frames and keepalive
// pings. One goroutine per connection.
func (c *WSClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades the connection, registers it and runs the read loop until
// the transport closes. The deferred cleanup is the only thing that removes a
// participant on disconnect, so it must always run.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Error while upgrading ws")
		return
	}

	client := newWSClient(domain.NewConnectionID(), conn)

	l := log.With().Str("client_id", client.id).Logger()
	l.Info().Msg("New client connected")

	h.Hub.Register(client)
	go client.writePump()

	ctx := r.Context()

	defer func() {
		l.Info().Msg("Client disconnected")
		h.Hub.Unregister(client)
		h.Meeting.Disconnect(ctx, client.id)
	}()

	// Plain WebSockets have no client-visible socket id, so tell the client
	// who it is before anything else.
	if welcome, err := domain.NewEvent(domain.TypeConnected, domain.ConnectedEvent{ConnectionID: client.id}); err == nil {
		if err := client.Send(welcome); err != nil {
			// Without this frame the client never learns its own id.
			l.Warn().Err(err).Msg("Failed to send connected frame")
		}
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l.Error().Err(err).Msg("Unexpected close error")
			}
			break
		}

		// Only transport errors end the session; a garbled frame is
		// dropped and the connection stays up.
		var env domain.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			l.Warn().Err(err).Msg("Invalid frame, dropping")
			continue
		}
		h.dispatch(ctx, client, env, l)
	}
}

// dispatch routes one inbound frame by type. Malformed payloads and unknown
// types are dropped; inputs are trusted but must not take the connection down.
func (h *Handler) dispatch(ctx context.Context, client *WSClient, env domain.Envelope, l zerolog.Logger) {
	switch env.Type {
	case domain.TypeJoinRoom:
		var req domain.JoinRoomRequest
		if !decodePayload(env.Payload, &req, l) {
			return
		}
		h.Meeting.Join(ctx, client.id, req.RoomID, req.UserName)

	case domain.TypeLeaveRoom:
		var req domain.LeaveRoomRequest
		if !decodePayload(env.Payload, &req, l) {
			return
		}
		h.Meeting.Leave(ctx, client.id, req.RoomID)

	case domain.TypeSignal:
		var req domain.SignalRequest
		if !decodePayload(env.Payload, &req, l) {
			return
		}
		h.Meeting.RelaySignal(ctx, client.id, req.UserID, req.Signal)

	case domain.TypeChatMessage:
		var req domain.ChatRequest
		if !decodePayload(env.Payload, &req, l) {
			return
		}
		h.Meeting.Chat(ctx, client.id, req.RoomID, req.Text)

	case domain.TypeReaction:
		var req domain.ReactionRequest
		if !decodePayload(env.Payload, &req, l) {
			return
		}
		h.Meeting.Reaction(ctx, client.id, req.RoomID, req.Emoji)

	case domain.TypeAudioToggle:
		var req domain.MediaToggleRequest
		if !decodePayload(env.Payload, &req, l) {
			return
		}
		h.Meeting.SetAudioState(ctx, client.id, req.RoomID, req.Enabled)

	case domain.TypeVideoToggle:
		var req domain.MediaToggleRequest
		if !decodePayload(env.Payload, &req, l) {
			return
		}
		h.Meeting.SetVideoState(ctx, client.id, req.RoomID, req.Enabled)

	case domain.TypeScreenShareStarted, domain.TypeScreenShareStopped:
		var req domain.ScreenShareRequest
		if !decodePayload(env.Payload, &req, l) {
			return
		}
		h.Meeting.ScreenShare(ctx, client.id, req.RoomID, env.Type == domain.TypeScreenShareStarted)

	case domain.TypeHandRaised, domain.TypeHandLowered:
		var req domain.HandRaiseRequest
		if !decodePayload(env.Payload, &req, l) {
			return
		}
		h.Meeting.HandRaise(ctx, client.id, req.RoomID, req.UserName, env.Type == domain.TypeHandRaised)

	case domain.TypeSetHost:
		var req domain.SetHostRequest
		if !decodePayload(env.Payload, &req, l) {
			return
		}
		h.Meeting.TransferHost(ctx, client.id, req.RoomID, req.HostID)

	case domain.TypeMuteAll:
		var req domain.MuteAllRequest
		if !decodePayload(env.Payload, &req, l) {
			return
		}
		h.Meeting.MuteAll(ctx, client.id, req.RoomID, req.HostName)

	default:
		l.Warn().Str("type", string(env.Type)).Msg("Unknown message type")
	}
}

func decodePayload(raw json.RawMessage, v any, l zerolog.Logger) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		l.Warn().Err(err).Msg("Invalid payload")
		return false
	}
	return true
}
