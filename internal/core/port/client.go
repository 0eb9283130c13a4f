package port

import "github.com/classmeet/signaling/internal/core/domain"

// Client is one live signaling connection as seen by the core. Send must not
// block: implementations queue the frame and deliver asynchronously, returning
// an error when the outbound buffer is full or the connection is gone.
type Client interface {
	ID() domain.ConnectionID
	Send(evt domain.Envelope) error
	Close() error
}
