package track

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/example/sharego/internal/models"
)

// WSSession is one connected subscriber.
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *WSSession) Send(u models.LocationUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(u)
}

// WSRegistry holds subscriber sessions keyed by party ID.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*WSSession
}

func NewWSRegistry() *WSRegistry { return &WSRegistry{sessions: make(map[string]*WSSession)} }

func (r *WSRegistry) Add(partyID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[partyID] = &WSSession{conn: conn}
}

func (r *WSRegistry) Remove(partyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[partyID]; ok {
		_ = s.conn.Close()
		delete(r.sessions, partyID)
	}
}

func (r *WSRegistry) Send(partyID string, u models.LocationUpdate) error {
	r.mu.RLock()
	s, ok := r.sessions[partyID]
	r.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	return s.Send(u)
}

var ErrNoSession = &NoSessionError{}

type NoSessionError struct{}

func (n *NoSessionError) Error() string { return "no ws session" }
