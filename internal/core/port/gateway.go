package port

import (
	"context"

	"github.com/classmeet/signaling/internal/core/domain"
)

// Gateway delivers outbound events to live connections. It holds no room
// state; callers resolve membership and pass explicit connection ids.
type Gateway interface {
	Register(c Client)
	Unregister(c Client)

	// Unicast delivers to one connection. An unknown id is a silent drop
	// (signaling routinely races with disconnects); the return value only
	// reports whether a live connection was found.
	Unicast(ctx context.Context, to domain.ConnectionID, evt domain.Envelope) bool

	// Fanout delivers best-effort to every listed connection except the
	// excluded one. Ids with no live connection are skipped.
	Fanout(ctx context.Context, to []domain.ConnectionID, exclude domain.ConnectionID, evt domain.Envelope)
}
