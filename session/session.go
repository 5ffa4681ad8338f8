// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/buzzroom/network"
)

// Role 连接在房间里的角色
type Role int

const (
	RoleNone Role = iota
	RoleHost
	RolePlayer
)

// Session binds one live connection to at most one room, either as the
// host or as a named player. The connection id is the only identity a
// player has; it does not survive a reconnect.
type Session struct {
	ID         string
	Conn       network.Connection
	Role       Role
	Name       string // player display name, empty for hosts
	RoomCode   string
	CreatedAt  time.Time
	LastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		Role:       RoleNone,
		CreatedAt:  now,
		LastActive: now,
	}
}

// Bind attaches the session to a room. Binding is rejected if the
// session is already bound elsewhere.
func (s *Session) Bind(role Role, roomCode, name string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.Role != RoleNone {
		return false
	}
	s.Role = role
	s.RoomCode = roomCode
	s.Name = name
	return true
}

// Binding returns the current role and room code.
func (s *Session) Binding() (Role, string) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.Role, s.RoomCode
}

func (s *Session) Unbind() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Role = RoleNone
	s.RoomCode = ""
	s.Name = ""
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.mutex.Lock()
	s.LastActive = time.Now()
	s.mutex.Unlock()
	return s.Conn.Send(msgID, data)
}

func (s *Session) Touch() {
	s.mutex.Lock()
	s.LastActive = time.Now()
	s.mutex.Unlock()
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

// Remove drops the session and reports whether it was present, so the
// disconnect path runs at most once per connection.
func (m *Manager) Remove(sessionID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.sessions[sessionID]; !exists {
		return false
	}
	delete(m.sessions, sessionID)
	return true
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// GetByRoom returns every session currently bound to the room.
func (m *Manager) GetByRoom(roomCode string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		role, code := session.Binding()
		if role != RoleNone && code == roomCode {
			result = append(result, session)
		}
	}
	return result
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
