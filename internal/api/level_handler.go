package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/physics-game/internal/errors"
	"github.com/wfunc/physics-game/internal/middleware"
	"github.com/wfunc/physics-game/internal/service"
)

// LevelHandler 关卡处理器
type LevelHandler struct {
	levelService service.LevelService
}

// NewLevelHandler 创建关卡处理器
func NewLevelHandler(levelService service.LevelService) *LevelHandler {
	return &LevelHandler{
		levelService: levelService,
	}
}

// ListLevels 关卡列表
// @Summary 关卡列表
// @Description 返回全部关卡及当前玩家的解锁状态
// @Tags Level
// @Security Bearer
// @Success 200 {object} SuccessResponse
// @Router /api/v1/levels [get]
func (h *LevelHandler) ListLevels(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	levels, err := h.levelService.ListLevels(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: levels})
}

// GetLevel 关卡详情
// @Summary 关卡详情
// @Description 返回题面和提示，不含正确答案
// @Tags Level
// @Security Bearer
// @Param id path int true "关卡号"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/levels/{id} [get]
func (h *LevelHandler) GetLevel(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	levelID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		RespondError(c, apperrors.New(apperrors.ErrInvalidParam, "关卡号必须是数字"))
		return
	}

	detail, err := h.levelService.GetLevel(c.Request.Context(), userID, levelID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: detail})
}

// SubmitAnswer 提交答案
// @Summary 提交答案
// @Description 答对通过事件引擎结算奖励并推进进度
// @Tags Level
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body service.SubmitRequest true "答题信息"
// @Success 200 {object} service.SubmitResult
// @Failure 429 {object} ErrorResponse
// @Router /api/v1/levels/submit [post]
func (h *LevelHandler) SubmitAnswer(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	result, err := h.levelService.SubmitAnswer(c.Request.Context(), userID, &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListSubmissions 答题历史
// @Summary 答题历史
// @Tags Level
// @Security Bearer
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} SuccessResponse
// @Router /api/v1/levels/submissions [get]
func (h *LevelHandler) ListSubmissions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	submissions, total, err := h.levelService.ListSubmissions(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: gin.H{
		"submissions": submissions,
		"total":       total,
	}})
}
