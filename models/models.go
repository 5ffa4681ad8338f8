// models/models.go
package models

import (
	"time"
)

// RosterEntry 房间名单中的一个玩家（广播用）
type RosterEntry struct {
	Name   string `json:"name"`
	Status string `json:"status"` // waiting/foul/done
}

// ResultEntry 一条成绩记录，ReactionTime 单位为秒
type ResultEntry struct {
	Name         string  `json:"name"`
	ReactionTime float64 `json:"reaction_time"`
}

// RoundRecord 一轮结束后的归档记录
type RoundRecord struct {
	RoomCode  string        `json:"room_code"`
	RoomName  string        `json:"room_name"`
	StartedAt time.Time     `json:"started_at"`
	Results   []ResultEntry `json:"results"`
	CreatedAt time.Time     `json:"created_at"`
}

// RoomInfo 管理接口返回的房间概要
type RoomInfo struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	PlayerCount int    `json:"player_count"`
	HasHost     bool   `json:"has_host"`
}
