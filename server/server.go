package server

import (
	"encoding/json"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/buzzroom/broadcast"
	"github.com/wfunc/buzzroom/logger"
	"github.com/wfunc/buzzroom/models"
	"github.com/wfunc/buzzroom/monitor"
	"github.com/wfunc/buzzroom/network"
	"github.com/wfunc/buzzroom/room"
	buzzroom_rpc "github.com/wfunc/buzzroom/rpc"
	"github.com/wfunc/buzzroom/services"
	"github.com/wfunc/buzzroom/session"
	"github.com/wfunc/buzzroom/timer"
)

const heartbeatInterval = 30 * time.Second

type Options struct {
	HTTPAddress   string
	RPCAddress    string
	SweepInterval time.Duration
	IdleTTL       time.Duration
}

// GameServer ties the transport to the room engine: it resolves every
// incoming command to a room and a role, lets the room apply the
// transition, then broadcasts the returned snapshots.
type GameServer struct {
	opts           Options
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	broadcaster    broadcast.Broadcaster
	recordService  *services.RecordService
	mon            *monitor.Monitor
	timers         *timer.Manager
	rpcServer      *buzzroom_rpc.Server
	shutdownChan   chan struct{}
}

func NewGameServer(opts Options, roomManager *room.Manager, recordService *services.RecordService, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		opts:           opts,
		roomManager:    roomManager,
		sessionManager: session.NewManager(),
		recordService:  recordService,
		mon:            mon,
		timers:         timer.NewManager(),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)

	rpcServer, err := buzzroom_rpc.NewServer(opts.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer
	rpc.Register(buzzroom_rpc.NewAdminService(s.roomManager, s.recordService))

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	if s.opts.SweepInterval > 0 && s.opts.IdleTTL > 0 {
		s.timers.Schedule(s.opts.SweepInterval, s.opts.SweepInterval, s.sweepIdleRooms)
	}

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Buzzer server listening on %s", s.opts.HTTPAddress)
	return http.ListenAndServe(s.opts.HTTPAddress, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
}

func (s *GameServer) sweepIdleRooms() {
	swept := s.roomManager.SweepIdle(s.opts.IdleTTL)
	if len(swept) > 0 {
		logger.Log.Infof("Swept %d idle rooms: %v", len(swept), swept)
		s.mon.AddSweptRooms(len(swept))
	}
	s.mon.SetActiveRooms(s.roomManager.Count())
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(heartbeatInterval)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.mon.IncConnections()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		s.handleDisconnect(sess)
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
	case network.MsgTypeJoinAsHost:
		s.handleJoinAsHost(sess, packet)
	case network.MsgTypeJoinAsPlayer:
		s.handleJoinAsPlayer(sess, packet)
	case network.MsgTypeStartRound:
		s.handleStartRound(sess)
	case network.MsgTypeResetRound:
		s.handleResetRound(sess)
	case network.MsgTypeBuzz:
		s.handleBuzz(sess)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

// handleDisconnect runs at most once per connection; the session
// manager removal is the gate.
func (s *GameServer) handleDisconnect(sess *session.Session) {
	if !s.sessionManager.Remove(sess.GetID()) {
		return
	}
	s.mon.DecConnections()
	logger.Log.Infof("Connection closed, session ID: %s", sess.GetID())

	role, code := sess.Binding()
	if role == session.RoleNone {
		return
	}

	r, exists := s.roomManager.GetRoom(code)
	if !exists {
		return
	}

	switch role {
	case session.RoleHost:
		// 房间降级为无主，不销毁
		if r.UnbindHost(sess.GetID()) {
			s.publishJSON(code, network.MsgTypeHostDisconnected, network.HostDisconnectedNotice{
				Message: "Host has disconnected. Waiting for a new host to take over.",
			})
			logger.Log.Infof("Host left room %s, room is now headless", code)
		}
	case session.RolePlayer:
		if removed, roster := r.RemovePlayer(sess.GetID()); removed {
			s.publishJSON(code, network.MsgTypeRosterUpdate, roster)
		}
	}
}

func (s *GameServer) handleJoinAsHost(sess *session.Session, packet *network.Packet) {
	var req network.JoinAsHostRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "malformed join request")
		return
	}

	if role, _ := sess.Binding(); role != session.RoleNone {
		s.sendError(sess, "connection already bound to a room")
		return
	}

	var r *room.Room
	if req.Code == "" {
		// 空 code 表示建新房间，房名由上游校验
		r = s.roomManager.CreateRoom(req.RoomName)
		s.mon.SetActiveRooms(s.roomManager.Count())
		logger.Log.Infof("Session %s created room %s (%s)", sess.GetID(), r.Code, r.Name)
	} else {
		var exists bool
		r, exists = s.roomManager.GetRoom(req.Code)
		if !exists {
			s.sendError(sess, "room not found")
			return
		}
	}

	roster, err := r.BindHost(sess.GetID())
	if err != nil {
		s.sendError(sess, "room already has a host")
		return
	}
	sess.Bind(session.RoleHost, r.Code, "")

	s.sendJSON(sess, network.MsgTypeRoomCreated, network.RoomCreatedNotice{Code: r.Code, RoomName: r.Name})
	// 房主上线即收到一份名单快照
	s.sendJSON(sess, network.MsgTypeRosterUpdate, roster)
}

func (s *GameServer) handleJoinAsPlayer(sess *session.Session, packet *network.Packet) {
	var req network.JoinAsPlayerRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "malformed join request")
		return
	}

	r, exists := s.roomManager.GetRoom(req.Code)
	if !exists {
		s.sendError(sess, "room not found")
		return
	}

	role, code := sess.Binding()
	if role != session.RoleNone && (role != session.RolePlayer || code != req.Code) {
		s.sendError(sess, "connection already bound to a room")
		return
	}

	// 重名判定和入场在同一把房间锁里完成；对同一连接的重复投递，
	// AddPlayer 会复用已有条目并重发下面的快照。
	roster, status, err := r.AddPlayer(sess.GetID(), req.Name)
	if err != nil {
		s.sendError(sess, err.Error())
		return
	}
	if role == session.RoleNone {
		sess.Bind(session.RolePlayer, r.Code, req.Name)
	}
	logger.Log.Infof("Player %s (%s) joined room %s", req.Name, sess.GetID(), r.Code)

	s.publishJSON(r.Code, network.MsgTypeRosterUpdate, roster)
	// point-in-time snapshot so a late joiner renders a running round
	s.sendJSON(sess, network.MsgTypeStateUpdate, network.StateUpdateNotice{Status: status})
}

func (s *GameServer) handleStartRound(sess *session.Session) {
	r, ok := s.boundRoom(sess)
	if !ok {
		return
	}

	if err := r.Start(sess.GetID()); err != nil {
		s.sendError(sess, err.Error())
		return
	}

	logger.Log.Infof("Round started in room %s", r.Code)
	s.publishJSON(r.Code, network.MsgTypeStateUpdate, network.StateUpdateNotice{Status: room.StatusStarted.String()})
}

func (s *GameServer) handleResetRound(sess *session.Session) {
	r, ok := s.boundRoom(sess)
	if !ok {
		return
	}

	outcome, err := r.Reset(sess.GetID())
	if err != nil {
		s.sendError(sess, err.Error())
		return
	}

	if outcome.FinishedRound != nil {
		s.recordService.ArchiveRound(*outcome.FinishedRound)
	}

	logger.Log.Infof("Round reset in room %s", r.Code)
	s.publishJSON(r.Code, network.MsgTypeStateUpdate, network.StateUpdateNotice{Status: room.StatusWaiting.String()})
	s.publishJSON(r.Code, network.MsgTypeRosterUpdate, outcome.Roster)
	s.publishJSON(r.Code, network.MsgTypeResultsUpdate, []models.ResultEntry{})
}

func (s *GameServer) handleBuzz(sess *session.Session) {
	// a buzz that cannot be resolved to a room is dropped, not errored:
	// it may legitimately race a disconnect or a room sweep
	role, code := sess.Binding()
	if role == session.RoleNone {
		return
	}
	r, exists := s.roomManager.GetRoom(code)
	if !exists {
		return
	}

	outcome := r.Buzz(sess.GetID())
	switch outcome.Kind {
	case room.BuzzFouled:
		s.mon.IncFouls()
		s.sendJSON(sess, network.MsgTypePlayerStatusUpdate, network.PlayerStatusNotice{Status: room.PlayerFouled.String()})
		s.publishJSON(r.Code, network.MsgTypeRosterUpdate, outcome.Roster)
		logger.Log.Infof("Player %s fouled in room %s", outcome.PlayerName, r.Code)
	case room.BuzzScored:
		s.mon.ObserveBuzz(outcome.Reaction)
		s.sendJSON(sess, network.MsgTypePlayerStatusUpdate, network.PlayerStatusNotice{Status: room.PlayerDone.String()})
		s.publishJSON(r.Code, network.MsgTypeRosterUpdate, outcome.Roster)
		s.publishJSON(r.Code, network.MsgTypeResultsUpdate, outcome.Results)
		logger.Log.Infof("Player %s buzzed in %.3fs in room %s", outcome.PlayerName, outcome.Reaction.Seconds(), r.Code)
	case room.BuzzIgnored:
		// terminal player state, ended room, or a buzz that raced a
		// disconnect: no mutation, no broadcast
	}
}

// boundRoom resolves a command to the room the session is bound to.
func (s *GameServer) boundRoom(sess *session.Session) (*room.Room, bool) {
	role, code := sess.Binding()
	if role == session.RoleNone {
		s.sendError(sess, "not joined to any room")
		return nil, false
	}
	r, exists := s.roomManager.GetRoom(code)
	if !exists {
		s.sendError(sess, "room not found")
		return nil, false
	}
	return r, true
}

func (s *GameServer) sendError(sess *session.Session, message string) {
	s.sendJSON(sess, network.MsgTypeError, network.ErrorNotice{Message: message})
}

func (s *GameServer) sendJSON(sess *session.Session, msgID uint16, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("Failed to marshal message %d: %v", msgID, err)
		return
	}
	if err := sess.Send(msgID, data); err != nil {
		logger.Log.Debugf("Send to session %s failed: %v", sess.GetID(), err)
	}
}

func (s *GameServer) publishJSON(roomCode string, msgID uint16, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("Failed to marshal message %d: %v", msgID, err)
		return
	}
	if err := s.broadcaster.PublishToRoom(roomCode, msgID, data); err != nil {
		logger.Log.Debugf("Broadcast to room %s failed: %v", roomCode, err)
	}
}
