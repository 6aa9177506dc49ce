package websocket

import (
	"encoding/json"
	"time"

	"github.com/wfunc/physics-game/internal/game"
	"go.uber.org/zap"
)

// OutcomePush 推送给玩家的事件结算消息体
type OutcomePush struct {
	EventType string   `json:"event_type"`
	Changed   bool     `json:"changed"`
	Messages  []string `json:"messages"`
}

// NewOutcomeNotifier 创建事件引擎的结果通知回调
// 引擎结算出状态变更后，把结果实时推给该玩家的所有连接。
func NewOutcomeNotifier(hub *Hub, logger *zap.Logger) game.NotifyFunc {
	return func(userID uint, eventType game.EventType, outcome *game.Outcome) {
		data, err := json.Marshal(&OutcomePush{
			EventType: string(eventType),
			Changed:   outcome.Changed,
			Messages:  outcome.Messages,
		})
		if err != nil {
			logger.Error("序列化结算推送失败", zap.Error(err))
			return
		}

		msg := &Message{
			Type:      MessageTypeEventOutcome,
			UserID:    userID,
			Data:      data,
			Timestamp: time.Now().Unix(),
		}
		if err := hub.SendToUser(userID, msg); err != nil && err != ErrUserNotConnected {
			logger.Warn("结算推送失败",
				zap.Uint("user_id", userID),
				zap.Error(err))
		}
	}
}

// BroadcastBonusStatus 广播全服奖励加成开关状态
func BroadcastBonusStatus(hub *Hub, active bool) {
	data, _ := json.Marshal(map[string]bool{"active": active})
	hub.Broadcast(&Message{
		Type:      MessageTypeBonusStatus,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}
