// persistence/interface.go
package persistence

import (
	"errors"

	"github.com/wfunc/buzzroom/models"
)

// Database 数据库接口，只做轮次归档的写入和查询。
// The engine never reads archived rounds back into live state.
type Database interface {
	SaveRoundRecord(record models.RoundRecord) error
	RecentRounds(roomCode string, limit int) ([]models.RoundRecord, error)
	Close() error
}

// ErrRecordNotFound 查询无归档记录时返回，调用方用它区分"没有数据"和查询失败
var ErrRecordNotFound = errors.New("record not found")
