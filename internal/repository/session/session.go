package session

import "errors"

// Conn is the transport handle a live session is keyed by. *websocket.Conn
// satisfies it; tests substitute a recording fake.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Session maps a live connection to its room, participant and authority bit.
// Valid only while the connection lives; never persisted.
type Session struct {
	RoomId        string
	ParticipantId string
	IsHost        bool
}

var (
	ErrAlreadyExists = errors.New("session already exists")
	ErrNotFound      = errors.New("session not found")
)
