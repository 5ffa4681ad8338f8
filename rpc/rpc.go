package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/buzzroom/logger"
	"github.com/wfunc/buzzroom/models"
	"github.com/wfunc/buzzroom/room"
	"github.com/wfunc/buzzroom/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes operator-facing room inspection over net/rpc.
type AdminService struct {
	roomManager   *room.Manager
	recordService *services.RecordService
}

func NewAdminService(roomManager *room.Manager, recordService *services.RecordService) *AdminService {
	return &AdminService{
		roomManager:   roomManager,
		recordService: recordService,
	}
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []models.RoomInfo
}

func (a *AdminService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	reply.Rooms = a.roomManager.ListRooms()
	return nil
}

type RecentRoundsArgs struct {
	RoomCode string
	Limit    int
}

type RecentRoundsReply struct {
	Rounds []models.RoundRecord
}

func (a *AdminService) RecentRounds(args *RecentRoundsArgs, reply *RecentRoundsReply) error {
	rounds, err := a.recordService.RecentRounds(args.RoomCode, args.Limit)
	if err != nil {
		return err
	}
	reply.Rounds = rounds
	return nil
}
