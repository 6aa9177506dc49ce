package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/physics-game/internal/errors"
	"github.com/wfunc/physics-game/internal/llm"
	"github.com/wfunc/physics-game/internal/middleware"
	"github.com/wfunc/physics-game/internal/service"
)

// LLMHandler 辅导问答处理器
type LLMHandler struct {
	client *llm.Client
	levels service.LevelService
}

// NewLLMHandler 创建辅导问答处理器
func NewLLMHandler(client *llm.Client, levels service.LevelService) *LLMHandler {
	return &LLMHandler{
		client: client,
		levels: levels,
	}
}

// Ask 向辅导助手提问
// 上游不可用时返回兜底回答，不向玩家暴露5xx。
// @Summary 辅导问答
// @Description 提示、讲解或自由提问
// @Tags LLM
// @Security Bearer
// @Accept json
// @Produce json
// @Success 200 {object} llm.AskResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/tutor/ask [post]
func (h *LLMHandler) Ask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		LevelID  int    `json:"level_id"`
		Type     string `json:"type"`
		Question string `json:"question" binding:"required"`
		Context  string `json:"context"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	resp, err := h.client.Ask(c.Request.Context(), &llm.AskRequest{
		UserID:   userID,
		LevelID:  req.LevelID,
		Type:     req.Type,
		Question: req.Question,
		Context:  req.Context,
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Hint 针对某一关卡求提示
// 题面作为上下文随请求一起发给模型，关卡必须已解锁。
// @Summary 关卡提示
// @Tags LLM
// @Security Bearer
// @Accept json
// @Produce json
// @Param id path int true "关卡ID"
// @Success 200 {object} llm.AskResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/tutor/hint/{id} [post]
func (h *LLMHandler) Hint(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	levelID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		RespondError(c, apperrors.New(apperrors.ErrInvalidParam, "无效的关卡ID"))
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondBindError(c, err)
			return
		}
	}
	if req.Question == "" {
		req.Question = "Can you give me a hint for this problem?"
	}

	detail, err := h.levels.GetLevel(c.Request.Context(), userID, levelID)
	if err != nil {
		RespondError(c, err)
		return
	}

	resp, err := h.client.Ask(c.Request.Context(), &llm.AskRequest{
		UserID:   userID,
		LevelID:  levelID,
		Type:     llm.QueryTypeHint,
		Question: req.Question,
		Context:  detail.Question,
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
