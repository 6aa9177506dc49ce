package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/physics-game/internal/middleware"
	"github.com/wfunc/physics-game/internal/service"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register 用户注册
// @Summary 用户注册
// @Description 创建新玩家账号
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body service.RegisterRequest true "注册信息"
// @Success 200 {object} service.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	req.IP = c.ClientIP()

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Login 用户登录
// @Summary 用户登录
// @Description 使用用户名或邮箱登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body service.LoginRequest true "登录信息"
// @Success 200 {object} service.AuthResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	req.IP = c.ClientIP()
	if req.Device == "" {
		req.Device = c.GetHeader("User-Agent")
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logout 用户登出
// @Summary 用户登出
// @Description 吊销当前会话
// @Tags Auth
// @Security Bearer
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Get("token")
	tokenStr, _ := token.(string)

	if err := h.authService.Logout(c.Request.Context(), tokenStr); err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "登出成功"})
}

// RefreshToken 刷新令牌
// @Summary 刷新令牌
// @Description 用刷新令牌换取新的访问令牌
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} service.AuthResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	resp, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Profile 查看当前玩家资料
// @Summary 玩家资料
// @Tags Auth
// @Security Bearer
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	user, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Sessions 查看当前有效会话
// @Summary 有效会话列表
// @Tags Auth
// @Security Bearer
// @Success 200 {object} SuccessResponse
// @Router /api/v1/auth/sessions [get]
func (h *AuthHandler) Sessions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	sessions, err := h.authService.GetActiveSessions(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: sessions})
}

// RevokeAllSessions 吊销全部会话
// @Summary 吊销全部会话
// @Tags Auth
// @Security Bearer
// @Success 200 {object} SuccessResponse
// @Router /api/v1/auth/sessions [delete]
func (h *AuthHandler) RevokeAllSessions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.authService.RevokeAllSessions(c.Request.Context(), userID); err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "已吊销全部会话"})
}
