// services/record_service.go
package services

import (
	"errors"

	"github.com/wfunc/buzzroom/logger"
	"github.com/wfunc/buzzroom/models"
	"github.com/wfunc/buzzroom/persistence"
)

// RecordService archives finished rounds. It is write-behind: a nil
// database disables it and an archive failure never affects the room.
type RecordService struct {
	db persistence.Database
}

func NewRecordService(db persistence.Database) *RecordService {
	return &RecordService{db: db}
}

func (s *RecordService) Enabled() bool {
	return s.db != nil
}

// ArchiveRound 异步落库，不阻塞房间命令处理
func (s *RecordService) ArchiveRound(record models.RoundRecord) {
	if s.db == nil {
		return
	}
	go func() {
		if err := s.db.SaveRoundRecord(record); err != nil {
			logger.Log.Errorf("Failed to archive round for room %s: %v", record.RoomCode, err)
		}
	}()
}

// RecentRounds 查询某房间最近的归档轮次。查询不到归档不算错误，
// 返回空列表。
func (s *RecordService) RecentRounds(roomCode string, limit int) ([]models.RoundRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	records, err := s.db.RecentRounds(roomCode, limit)
	if errors.Is(err, persistence.ErrRecordNotFound) {
		return []models.RoundRecord{}, nil
	}
	return records, err
}
