package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// 道具稀有度
const (
	RarityCommon = "common"
	RarityRare   = "rare"
)

// Tool 背包道具
type Tool struct {
	Name   string `json:"name"`
	Rarity string `json:"rarity"`
}

// ToolList JSON道具数组字段
type ToolList []Tool

// Value 实现driver.Valuer接口
func (l ToolList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现sql.Scanner接口
func (l *ToolList) Scan(value interface{}) error {
	if value == nil {
		*l = ToolList{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("无法将 %T 扫描为 ToolList", value)
	}

	if len(data) == 0 {
		*l = ToolList{}
		return nil
	}
	return json.Unmarshal(data, l)
}

// Inventory 玩家背包表（每用户唯一，首次获得道具时惰性创建）
type Inventory struct {
	BaseModel
	UserID uint     `gorm:"uniqueIndex;not null" json:"user_id"`
	Tools  ToolList `gorm:"type:json" json:"tools"`
}

// AddTool 追加道具
func (i *Inventory) AddTool(name, rarity string) {
	i.Tools = append(i.Tools, Tool{Name: name, Rarity: rarity})
}

// HasRareTool 背包中是否有稀有道具
func (i *Inventory) HasRareTool() bool {
	for _, t := range i.Tools {
		if t.Rarity == RarityRare {
			return true
		}
	}
	return false
}

// CountTool 统计指定道具数量
func (i *Inventory) CountTool(name string) int {
	n := 0
	for _, t := range i.Tools {
		if t.Name == name {
			n++
		}
	}
	return n
}

// RemoveTool 移除一个指定道具，返回是否移除成功
func (i *Inventory) RemoveTool(name string) bool {
	for idx, t := range i.Tools {
		if t.Name == name {
			i.Tools = append(i.Tools[:idx], i.Tools[idx+1:]...)
			return true
		}
	}
	return false
}

// StoreItem 商店商品表
type StoreItem struct {
	BaseModel
	ItemID      string `gorm:"uniqueIndex;size:64;not null" json:"item_id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Type        string `gorm:"size:50" json:"type"` // tool, consumable, cosmetic
	Rarity      string `gorm:"size:20;default:'common'" json:"rarity"`
	Cost        int64  `gorm:"not null" json:"cost"`     // 金币价格
	GemCost     int64  `gorm:"default:0" json:"gem_cost"` // 宝石价格（0表示不支持宝石支付）
	Description string `gorm:"size:500" json:"description"`
}

// LLMQuery LLM问答记录表
type LLMQuery struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	LevelID   int       `gorm:"index" json:"level_id"`
	Type      string    `gorm:"size:50;not null" json:"type"` // hint, explanation, ask
	Query     string    `gorm:"size:2000;not null" json:"query"`
	Response  string    `gorm:"size:4000" json:"response"`
	Fallback  bool      `gorm:"default:false" json:"fallback"` // 是否使用了兜底回答
	CreatedAt time.Time `json:"created_at"`
}
