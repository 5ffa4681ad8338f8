// persistence/gorm_postgresql.go
package persistence

import (
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/buzzroom/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormRoundRecord{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func (g *GormPostgreSQL) SaveRoundRecord(record models.RoundRecord) error {
	results := make(map[string]interface{}, len(record.Results))
	best := 0.0
	for i, entry := range record.Results {
		results[entry.Name] = entry.ReactionTime
		if i == 0 {
			best = entry.ReactionTime
		}
	}

	row := models.GormRoundRecord{
		RoomCode:  record.RoomCode,
		RoomName:  record.RoomName,
		StartedAt: record.StartedAt,
		Results:   results,
		BestTime:  best,
	}
	return g.db.Create(&row).Error
}

func (g *GormPostgreSQL) RecentRounds(roomCode string, limit int) ([]models.RoundRecord, error) {
	var rows []models.GormRoundRecord
	err := g.db.Where("room_code = ?", roomCode).
		Order("created_at desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrRecordNotFound
	}

	records := make([]models.RoundRecord, 0, len(rows))
	for _, row := range rows {
		record := models.RoundRecord{
			RoomCode:  row.RoomCode,
			RoomName:  row.RoomName,
			StartedAt: row.StartedAt,
			CreatedAt: row.CreatedAt,
		}
		for name, reaction := range row.Results {
			seconds, ok := reaction.(float64)
			if !ok {
				continue
			}
			record.Results = append(record.Results, models.ResultEntry{
				Name:         name,
				ReactionTime: seconds,
			})
		}
		sort.Slice(record.Results, func(i, j int) bool {
			return record.Results[i].ReactionTime < record.Results[j].ReactionTime
		})
		records = append(records, record)
	}
	return records, nil
}

func (g *GormPostgreSQL) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
