package models

import (
	"time"
)

// PlayerStats 玩家统计表（与用户一一对应）
type PlayerStats struct {
	BaseModel
	UserID         uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	TicketsPlayed  int64      `gorm:"default:0" json:"tickets_played"`
	TotalWinnings  int64      `gorm:"default:0" json:"total_winnings"`
	BiggestWin     int64      `gorm:"default:0" json:"biggest_win"`
	SessionsPlayed int64      `gorm:"default:0" json:"sessions_played"`
	LastPlayedAt   *time.Time `json:"last_played_at,omitempty"`
}

// TableName 指定表名
func (PlayerStats) TableName() string {
	return "player_stats"
}

// RecordTicket 记录一次购票：计数、累计奖金、刷新最大单笔
func (s *PlayerStats) RecordTicket(payout int64) {
	now := time.Now()
	s.TicketsPlayed++
	s.TotalWinnings += payout
	if payout > s.BiggestWin {
		s.BiggestWin = payout
	}
	s.LastPlayedAt = &now
}
