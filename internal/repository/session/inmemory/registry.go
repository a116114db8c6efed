package inmemory

import (
	"sync"

	"github.com/watchsync/server/internal/repository/session"
)

// registry is the only concurrently-mutated in-process state. Group
// membership is updated together with the session entry under one lock, so a
// removed session can never leave an orphaned group member behind. The lock is
// never held across a store call or a socket write; broadcast callers work on
// the snapshot returned by GetGroupConns.
type registry struct {
	mu       sync.RWMutex
	sessions map[session.Conn]session.Session
	groups   map[string]map[session.Conn]struct{}
}

func NewRegistry() *registry {
	return &registry{
		sessions: make(map[session.Conn]session.Session),
		groups:   make(map[string]map[session.Conn]struct{}),
	}
}

func (r *registry) Add(conn session.Conn, sess session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[conn]; ok {
		return session.ErrAlreadyExists
	}

	r.sessions[conn] = sess

	group, ok := r.groups[sess.RoomId]
	if !ok {
		group = make(map[session.Conn]struct{})
		r.groups[sess.RoomId] = group
	}
	group[conn] = struct{}{}

	return nil
}

func (r *registry) Remove(conn session.Conn) (session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[conn]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}

	delete(r.sessions, conn)

	if group, ok := r.groups[sess.RoomId]; ok {
		delete(group, conn)
		if len(group) == 0 {
			delete(r.groups, sess.RoomId)
		}
	}

	return sess, nil
}

func (r *registry) Get(conn session.Conn) (session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[conn]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}

	return sess, nil
}

// GetGroupConns returns a snapshot of the connections attached to a room.
func (r *registry) GetGroupConns(roomId string) []session.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	group := r.groups[roomId]
	conns := make([]session.Conn, 0, len(group))
	for conn := range group {
		conns = append(conns, conn)
	}

	return conns
}
