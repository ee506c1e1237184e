package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/wfunc/pulltab-game/internal/game/pulltab"
)

// SymbolList 15个符号的JSON列类型
type SymbolList []pulltab.Symbol

// Value 实现driver.Valuer接口
func (l SymbolList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan 实现sql.Scanner接口
func (l *SymbolList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	data, err := toBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, l)
}

// WinLineList 中奖线的JSON列类型
type WinLineList []pulltab.WinningLine

// Value 实现driver.Valuer接口
func (l WinLineList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan 实现sql.Scanner接口
func (l *WinLineList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	data, err := toBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, l)
}

// TabList 已刮开的连线序号集合（0-4）
type TabList []int

// Value 实现driver.Valuer接口
func (l TabList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan 实现sql.Scanner接口
func (l *TabList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	data, err := toBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, l)
}

// Contains 判断序号是否已在集合中
func (l TabList) Contains(index int) bool {
	for _, tab := range l {
		if tab == index {
			return true
		}
	}
	return false
}

// Ticket 彩票表：一次购买的完整记录
// 奖金在创建时一次性确定，刮开动作只影响展示进度。
type Ticket struct {
	BaseModel
	TicketNo     string      `gorm:"uniqueIndex;size:64;not null" json:"ticket_no"`
	UserID       uint        `gorm:"not null;index" json:"user_id"`
	BoxID        uint        `gorm:"not null;index" json:"box_id"`
	Symbols      SymbolList  `gorm:"type:json;not null" json:"symbols"`
	WinningLines WinLineList `gorm:"type:json" json:"winning_lines"`
	TotalPayout  int64       `gorm:"default:0" json:"total_payout"`
	IsWinner     bool        `gorm:"default:false" json:"is_winner"`
	RevealedTabs TabList     `gorm:"type:json" json:"revealed_tabs"`

	// 关联
	Box GameBox `gorm:"foreignKey:BoxID" json:"box,omitempty"`
}

// TableName 指定表名
func (Ticket) TableName() string {
	return "tickets"
}

// Grid 还原符号网格
func (t *Ticket) Grid() pulltab.Grid {
	var grid pulltab.Grid
	copy(grid[:], t.Symbols)
	return grid
}

// RevealTab 记录一次刮开；重复刮开为空操作，返回是否发生变化
func (t *Ticket) RevealTab(index int) bool {
	if t.RevealedTabs.Contains(index) {
		return false
	}
	t.RevealedTabs = append(t.RevealedTabs, index)
	return true
}

// TabSymbols 返回第index条线的3个符号
func (t *Ticket) TabSymbols(index int) [pulltab.LineSize]pulltab.Symbol {
	return t.Grid().Line(index)
}

// TabWins 判断第index条线自身是否构成中奖
func (t *Ticket) TabWins(index int) bool {
	return pulltab.IsWinningLine(t.TabSymbols(index))
}
