package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/physics-game/internal/middleware"
	"github.com/wfunc/physics-game/internal/service"
)

// StatsHandler 统计处理器
type StatsHandler struct {
	statsService service.StatsService
}

// NewStatsHandler 创建统计处理器
func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// Leaderboard 排行榜
// @Summary 金币排行榜
// @Tags Stats
// @Param limit query int false "条数，默认10"
// @Success 200 {object} SuccessResponse
// @Router /api/v1/leaderboard [get]
func (h *StatsHandler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries, err := h.statsService.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: entries})
}

// MyStats 当前玩家统计
// @Summary 玩家统计
// @Description 含进度、经济状态和当前奖励倍率预览
// @Tags Stats
// @Security Bearer
// @Success 200 {object} service.PlayerStats
// @Router /api/v1/stats [get]
func (h *StatsHandler) MyStats(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	stats, err := h.statsService.PlayerStats(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
