package game

import (
	"github.com/wfunc/physics-game/internal/config"
	apperrors "github.com/wfunc/physics-game/internal/errors"
	"github.com/wfunc/physics-game/internal/models"
)

// Inspector 反作弊检查器
// 拦截时只返回统一的风控错误，触发了哪条规则不向玩家暴露，
// 具体数值由调用方记录日志。
type Inspector struct {
	cfg config.AntiCheatConfig
}

// NewInspector 创建反作弊检查器
func NewInspector(cfg config.AntiCheatConfig) *Inspector {
	return &Inspector{cfg: cfg}
}

// Inspect 事件进入引擎前的风控检查
func (i *Inspector) Inspect(user *models.User, event *Event) error {
	if event.Type == EventCompleteLevel && event.TimeTaken < i.cfg.MinCompletionSeconds {
		return apperrors.New(apperrors.ErrSuspiciousActivity)
	}

	if user.Coins > i.cfg.CoinCeiling {
		return apperrors.New(apperrors.ErrSuspiciousActivity)
	}

	return nil
}
