package models

import (
	"time"
)

// Level 关卡内容表（只读参考数据，由内容管理侧维护）
type Level struct {
	BaseModel
	LevelID       int        `gorm:"uniqueIndex;not null" json:"level_id"`
	Title         string     `gorm:"size:200;not null" json:"title"`
	Question      string     `gorm:"size:2000;not null" json:"question"`
	CorrectAnswer string     `gorm:"size:500;not null" json:"-"`
	Hints         StringList `gorm:"type:json" json:"hints"`
	Explanation   string     `gorm:"size:2000" json:"explanation"`
	Difficulty    string     `gorm:"size:20;default:'easy'" json:"difficulty"` // easy, medium, hard
	CoinsRewarded int64      `gorm:"default:0" json:"coins_rewarded"`
	ExpectedTime  float64    `gorm:"default:60" json:"expected_time"` // 秒
}

// 提交答案的特殊标记
const (
	SubmissionAnswerAuto   = "auto"   // 引擎内部确认的正确提交
	SubmissionAnswerRepeat = "repeat" // 重复通关记录
)

// Submission 答题记录表（只追加，不修改）
type Submission struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index:idx_user_level" json:"user_id"`
	LevelID         int       `gorm:"not null;index:idx_user_level" json:"level_id"`
	RoundID         string    `gorm:"uniqueIndex;size:64;not null" json:"round_id"`
	SubmittedAnswer string    `gorm:"size:500;not null" json:"submitted_answer"`
	IsCorrect       bool      `gorm:"not null;index" json:"is_correct"`
	TimeTaken       float64   `json:"time_taken"` // 秒
	HintsUsed       int       `gorm:"default:0" json:"hints_used"`
	SubmittedAt     time.Time `json:"submitted_at"`
}
