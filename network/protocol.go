package network

const (
	MsgTypeHeartbeat = 1

	// client -> server
	MsgTypeJoinAsHost   = 101
	MsgTypeJoinAsPlayer = 102
	MsgTypeStartRound   = 103
	MsgTypeResetRound   = 104
	MsgTypeBuzz         = 105

	// server -> client
	MsgTypeRoomCreated        = 201
	MsgTypeRosterUpdate       = 301
	MsgTypeStateUpdate        = 302
	MsgTypePlayerStatusUpdate = 303
	MsgTypeResultsUpdate      = 304
	MsgTypeHostDisconnected   = 305
	MsgTypeError              = 400
)

// JoinAsHostRequest 空 Code 表示新建房间
type JoinAsHostRequest struct {
	Code     string `json:"code,omitempty"`
	RoomName string `json:"room_name,omitempty"`
}

type JoinAsPlayerRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type RoomCreatedNotice struct {
	Code     string `json:"code"`
	RoomName string `json:"room_name"`
}

type StateUpdateNotice struct {
	Status string `json:"status"`
}

type PlayerStatusNotice struct {
	Status string `json:"status"`
}

type HostDisconnectedNotice struct {
	Message string `json:"message"`
}

type ErrorNotice struct {
	Message string `json:"message"`
}
