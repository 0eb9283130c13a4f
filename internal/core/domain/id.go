package domain

import (
	"github.com/google/uuid"
)

// ConnectionID identifies one live transport connection. It doubles as the
// participant identifier inside every room the connection joins, so it is the
// id clients address signal messages to.
type ConnectionID = string

func NewConnectionID() ConnectionID {
	return uuid.New().String()
}
