package game

// EventType 游戏事件类型
type EventType string

const (
	EventCompleteLevel   EventType = "complete_level"
	EventPurchaseAttempt EventType = "purchase_attempt"
	EventDailyLogin      EventType = "daily_login"
	EventSpecialEvent    EventType = "special_event"
)

// IsValid 是否为已知事件类型
func (t EventType) IsValid() bool {
	switch t {
	case EventCompleteLevel, EventPurchaseAttempt, EventDailyLogin, EventSpecialEvent:
		return true
	}
	return false
}

// Event 待处理的游戏事件
type Event struct {
	Type   EventType `json:"type" binding:"required"`
	UserID uint      `json:"user_id"`

	// complete_level
	LevelID   int     `json:"level_id,omitempty"`
	TimeTaken float64 `json:"time_taken,omitempty"` // 秒
	HintsUsed int     `json:"hints_used,omitempty"`

	// purchase_attempt
	ItemID string `json:"item_id,omitempty"`

	// special_event
	EventKey string `json:"event_key,omitempty"`
}

// Outcome 事件处理结果
type Outcome struct {
	Changed      bool     `json:"changed"`
	Messages     []string `json:"messages"`
	RetryAfterMs int64    `json:"retry_after_ms,omitempty"`
}

// newOutcome 创建带消息的处理结果
func newOutcome(changed bool, messages ...string) *Outcome {
	return &Outcome{
		Changed:  changed,
		Messages: messages,
	}
}

// PrizeOption 加权奖池选项
type PrizeOption struct {
	Weight float64
	Name   string
	Coins  int64
}
