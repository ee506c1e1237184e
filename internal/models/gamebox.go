package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/wfunc/pulltab-game/internal/game/pulltab"
)

// ErrNoTicketsRemaining 奖箱票位已耗尽
var ErrNoTicketsRemaining = errors.New("奖箱票位已耗尽")

// TierCounts 各奖级剩余数量的JSON列类型
type TierCounts map[pulltab.PrizeTier]int

// Value 实现driver.Valuer接口
func (c TierCounts) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	// map键序列化为字符串，保证跨数据库JSON兼容
	out := make(map[string]int, len(c))
	for tier, count := range c {
		out[strconv.Itoa(int(tier))] = count
	}
	return json.Marshal(out)
}

// Scan 实现sql.Scanner接口
func (c *TierCounts) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	data, err := toBytes(value)
	if err != nil {
		return err
	}
	raw := make(map[string]int)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make(TierCounts, len(raw))
	for key, count := range raw {
		tier, err := strconv.Atoi(key)
		if err != nil {
			return err
		}
		result[pulltab.PrizeTier(tier)] = count
	}
	*c = result
	return nil
}

// GameBox 奖箱表：一轮500张票的有限奖池
type GameBox struct {
	BaseModel
	TotalTickets     int        `gorm:"not null" json:"total_tickets"`
	RemainingTickets int        `gorm:"not null;index" json:"remaining_tickets"`
	WinnerCounts     TierCounts `gorm:"type:json;not null" json:"winner_counts"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// TableName 指定表名
func (GameBox) TableName() string {
	return "game_boxes"
}

// NewGameBox 创建固定初始状态的奖箱
func NewGameBox() *GameBox {
	return &GameBox{
		TotalTickets:     pulltab.TotalTicketSlots,
		RemainingTickets: pulltab.TotalTicketSlots,
		WinnerCounts:     TierCounts(pulltab.InitialWinnerCounts()),
	}
}

// IsActive 奖箱是否可售
func (b *GameBox) IsActive() bool {
	return b.CompletedAt == nil && b.RemainingTickets > 0
}

// HasTicketsRemaining 是否还有票位
func (b *GameBox) HasTicketsRemaining() bool {
	return b.RemainingTickets > 0
}

// HasWinnersRemaining 是否还有未发的奖
func (b *GameBox) HasWinnersRemaining() bool {
	for _, count := range b.WinnerCounts {
		if count > 0 {
			return true
		}
	}
	return false
}

// ConsumeTicketSlot 消耗一个票位；减到0时记录完成时间
// 调用方必须先在同一事务内检查HasTicketsRemaining。
func (b *GameBox) ConsumeTicketSlot() error {
	if b.RemainingTickets <= 0 {
		return ErrNoTicketsRemaining
	}
	b.RemainingTickets--
	if b.RemainingTickets == 0 && b.CompletedAt == nil {
		now := time.Now()
		b.CompletedAt = &now
	}
	return nil
}

// ConsumePrize 消耗一个指定奖级；已归零时为空操作
func (b *GameBox) ConsumePrize(tier pulltab.PrizeTier) {
	if b.WinnerCounts[tier] > 0 {
		b.WinnerCounts[tier]--
	}
}

// Snapshot 生成分配决策用的状态快照
func (b *GameBox) Snapshot() pulltab.BoxState {
	winners := make(map[pulltab.PrizeTier]int, len(b.WinnerCounts))
	for tier, count := range b.WinnerCounts {
		winners[tier] = count
	}
	return pulltab.BoxState{
		RemainingTickets: b.RemainingTickets,
		Winners:          winners,
	}
}

// TotalWinnersRemaining 剩余中奖位总数
func (b *GameBox) TotalWinnersRemaining() int {
	total := 0
	for _, count := range b.WinnerCounts {
		total += count
	}
	return total
}
