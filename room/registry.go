// room/registry.go
package room

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/wfunc/buzzroom/models"
)

// Manager 管理所有房间。Code generation and insertion are serialized
// here, independently of any single room's lock.
type Manager struct {
	rooms   map[string]*Room
	codegen *CodeGenerator
	clock   clockwork.Clock
	mutex   sync.RWMutex
}

func NewManager(codegen *CodeGenerator, clock clockwork.Clock) *Manager {
	return &Manager{
		rooms:   make(map[string]*Room),
		codegen: codegen,
		clock:   clock,
	}
}

// CreateRoom 生成唯一房间码并创建房间
func (m *Manager) CreateRoom(name string) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var code string
	for {
		code = m.codegen.Next()
		if _, taken := m.rooms[code]; !taken {
			break
		}
	}

	room := NewRoom(code, name, m.clock)
	m.rooms[code] = room
	return room
}

func (m *Manager) GetRoom(code string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[code]
	return room, exists
}

func (m *Manager) RemoveRoom(code string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.rooms, code)
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// ListRooms 返回所有房间概要（管理接口用）
func (m *Manager) ListRooms() []models.RoomInfo {
	m.mutex.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mutex.RUnlock()

	infos := make([]models.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, r.Info())
	}
	return infos
}

// SweepIdle removes rooms that have sat empty and hostless past ttl
// and returns their codes. Candidates are collected first so room
// locks are never taken under the registry lock.
func (m *Manager) SweepIdle(ttl time.Duration) []string {
	m.mutex.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mutex.RUnlock()

	var swept []string
	for _, r := range rooms {
		if r.IsIdle(ttl) {
			swept = append(swept, r.Code)
		}
	}

	if len(swept) > 0 {
		m.mutex.Lock()
		for _, code := range swept {
			delete(m.rooms, code)
		}
		m.mutex.Unlock()
	}
	return swept
}
