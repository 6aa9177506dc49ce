package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/physics-game/internal/errors"
	"github.com/wfunc/physics-game/internal/game"
	"github.com/wfunc/physics-game/internal/middleware"
	ws "github.com/wfunc/physics-game/internal/websocket"
)

// GameHandler 游戏事件处理器
type GameHandler struct {
	processor *game.Processor
	hub       *ws.Hub
}

// NewGameHandler 创建游戏事件处理器
func NewGameHandler(processor *game.Processor, hub *ws.Hub) *GameHandler {
	return &GameHandler{
		processor: processor,
		hub:       hub,
	}
}

// PostEvent 提交游戏事件
// 通关和购买有专门的接口负责校验，这里只接受玩家可以自证的事件。
// @Summary 提交游戏事件
// @Description 上报 daily_login、special_event 等事件并返回结算结果
// @Tags Game
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body game.Event true "事件"
// @Success 200 {object} game.Outcome
// @Failure 429 {object} ErrorResponse
// @Router /api/v1/game/events [post]
func (h *GameHandler) PostEvent(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var event game.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		RespondBindError(c, err)
		return
	}
	event.UserID = userID

	switch event.Type {
	case game.EventDailyLogin, game.EventSpecialEvent:
	default:
		RespondError(c, apperrors.New(apperrors.ErrInvalidParam,
			"该事件类型不支持直接上报"))
		return
	}

	h.handleEvent(c, &event)
}

// PostEventAsAdmin 以任意用户身份注入事件（管理员）
// @Summary 注入游戏事件
// @Description 管理员代任意玩家触发任意事件，用于运营补偿
// @Tags Admin
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body game.Event true "事件"
// @Success 200 {object} game.Outcome
// @Router /api/v1/admin/events [post]
func (h *GameHandler) PostEventAsAdmin(c *gin.Context) {
	var event game.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		RespondBindError(c, err)
		return
	}
	if event.UserID == 0 {
		RespondError(c, apperrors.New(apperrors.ErrInvalidParam, "缺少目标用户ID"))
		return
	}

	h.handleEvent(c, &event)
}

// PostEventsBulk 批量注入事件（管理员）
// 单个事件失败不影响其余事件，逐条返回结果。
// @Summary 批量注入游戏事件
// @Tags Admin
// @Security Bearer
// @Accept json
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /api/v1/admin/events/bulk [post]
func (h *GameHandler) PostEventsBulk(c *gin.Context) {
	var req struct {
		Events []game.Event `json:"events" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	results := make([]gin.H, 0, len(req.Events))
	for i := range req.Events {
		event := &req.Events[i]
		entry := gin.H{"user_id": event.UserID, "type": event.Type}

		if event.UserID == 0 {
			entry["error"] = "缺少目标用户ID"
			results = append(results, entry)
			continue
		}

		outcome, err := h.processor.Process(c.Request.Context(), event)
		if err != nil {
			entry["error"] = err.Error()
			if outcome != nil && outcome.RetryAfterMs > 0 {
				entry["retry_after_ms"] = outcome.RetryAfterMs
			}
			results = append(results, entry)
			continue
		}

		entry["changed"] = outcome.Changed
		entry["messages"] = outcome.Messages
		results = append(results, entry)
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// SetBonus 开关全服奖励加成活动（管理员）
// @Summary 奖励加成开关
// @Tags Admin
// @Security Bearer
// @Accept json
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /api/v1/admin/bonus [put]
func (h *GameHandler) SetBonus(c *gin.Context) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	h.processor.SetBonusActive(req.Active)
	if h.hub != nil {
		ws.BroadcastBonusStatus(h.hub, req.Active)
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "奖励加成状态已更新",
		Data:    gin.H{"active": req.Active},
	})
}

// handleEvent 统一的事件处理与响应
func (h *GameHandler) handleEvent(c *gin.Context, event *game.Event) {
	outcome, err := h.processor.Process(c.Request.Context(), event)
	if err != nil {
		// 限流拒绝在响应里带上重试等待时间
		if apperrors.GetCode(err) == apperrors.ErrRateLimitExceeded && outcome != nil {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":           int(apperrors.ErrRateLimitExceeded),
				"message":        outcome.Messages,
				"retry_after_ms": outcome.RetryAfterMs,
			})
			return
		}
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}
