// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormRoundRecord 轮次归档模型
type GormRoundRecord struct {
	gorm.Model
	RoomCode  string                 `gorm:"index;not null"`
	RoomName  string                 `gorm:"not null"`
	StartedAt time.Time              `gorm:"not null"`
	Results   map[string]interface{} `gorm:"type:jsonb;not null"`
	// 本轮最快反应时间(秒)，冗余存储便于查询
	BestTime float64 `gorm:"index"`
}
