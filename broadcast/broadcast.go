// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/buzzroom/room"
	"github.com/wfunc/buzzroom/session"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrSessionNotFound = errors.New("session not found")
)

// Broadcaster 广播接口。Delivery is at-least-once to the connections
// bound at call time; there is no backlog, late joiners get explicit
// snapshots instead.
type Broadcaster interface {
	PublishToRoom(roomCode string, msgID uint16, data []byte) error
	SendToSession(sessionID string, msgID uint16, data []byte) error
}

// RoomBroadcaster fans out over the sessions currently bound to a room.
type RoomBroadcaster struct {
	roomManager    *room.Manager
	sessionManager *session.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager:    roomManager,
		sessionManager: sessionManager,
	}
}

func (b *RoomBroadcaster) PublishToRoom(roomCode string, msgID uint16, data []byte) error {
	if _, exists := b.roomManager.GetRoom(roomCode); !exists {
		return ErrRoomNotFound
	}

	for _, s := range b.sessionManager.GetByRoom(roomCode) {
		if err := s.Send(msgID, data); err != nil {
			// 发送失败的连接交给它自己的读循环去关闭
			continue
		}
	}
	return nil
}

func (b *RoomBroadcaster) SendToSession(sessionID string, msgID uint16, data []byte) error {
	s, exists := b.sessionManager.Get(sessionID)
	if !exists {
		return ErrSessionNotFound
	}
	return s.Send(msgID, data)
}
