package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/physics-game/internal/game"
	"github.com/wfunc/physics-game/internal/llm"
	"github.com/wfunc/physics-game/internal/middleware"
	"github.com/wfunc/physics-game/internal/models"
	"github.com/wfunc/physics-game/internal/repository"
	"github.com/wfunc/physics-game/internal/service"
	ws "github.com/wfunc/physics-game/internal/websocket"
	"go.uber.org/zap"
)

// Router API路由器
type Router struct {
	engine         *gin.Engine
	services       *service.Services
	authMiddleware *middleware.AuthMiddleware

	authHandler  *AuthHandler
	levelHandler *LevelHandler
	gameHandler  *GameHandler
	shopHandler  *ShopHandler
	statsHandler *StatsHandler
	llmHandler   *LLMHandler
	wsHandler    *WebSocketHandler

	log *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(
	repos *repository.Manager,
	services *service.Services,
	processor *game.Processor,
	llmClient *llm.Client,
	hub *ws.Hub,
	log *zap.Logger,
) *Router {
	engine := gin.New()

	// 全局中间件
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	router := &Router{
		engine:         engine,
		services:       services,
		authMiddleware: middleware.NewAuthMiddleware(services.Auth, repos.User),
		authHandler:    NewAuthHandler(services.Auth),
		levelHandler:   NewLevelHandler(services.Level),
		gameHandler:    NewGameHandler(processor, hub),
		shopHandler:    NewShopHandler(services.Shop),
		statsHandler:   NewStatsHandler(services.Stats),
		llmHandler:     NewLLMHandler(llmClient, services.Level),
		wsHandler:      NewWebSocketHandler(hub, log),
		log:            log,
	}

	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// API文档
	registerOpenAPIRoutes(r.engine)
	registerSwaggerRoutes(r.engine)

	// 实时推送
	r.engine.GET("/ws/feed", r.authMiddleware.RequireAuth(), r.wsHandler.Feed)

	v1 := r.engine.Group("/api/v1")
	{
		// 认证相关路由（不需要认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/refresh", r.authHandler.RefreshToken)

			authRequired := auth.Group("")
			authRequired.Use(r.authMiddleware.RequireAuth())
			{
				authRequired.POST("/logout", r.authHandler.Logout)
				authRequired.GET("/profile", r.authHandler.Profile)
				authRequired.GET("/sessions", r.authHandler.Sessions)
				authRequired.DELETE("/sessions", r.authHandler.RevokeAllSessions)
			}
		}

		// 关卡路由（需要认证）
		levels := v1.Group("/levels")
		levels.Use(r.authMiddleware.RequireAuth())
		{
			levels.GET("", r.levelHandler.ListLevels)
			levels.GET("/submissions", r.levelHandler.ListSubmissions)
			levels.GET("/:id", r.levelHandler.GetLevel)
			levels.POST("/submit", r.levelHandler.SubmitAnswer)
		}

		// 游戏事件路由（需要认证）
		gameGroup := v1.Group("/game")
		gameGroup.Use(r.authMiddleware.RequireAuth())
		{
			gameGroup.POST("/events", r.gameHandler.PostEvent)
		}

		// 商店路由
		shop := v1.Group("/shop")
		{
			shop.GET("/items", r.shopHandler.ListItems)

			shopAuth := shop.Group("")
			shopAuth.Use(r.authMiddleware.RequireAuth())
			{
				shopAuth.POST("/buy", r.shopHandler.Buy)
				shopAuth.POST("/sell", r.shopHandler.Sell)
				shopAuth.GET("/inventory", r.shopHandler.GetInventory)
			}
		}

		// 统计路由
		v1.GET("/leaderboard", r.statsHandler.Leaderboard)
		v1.GET("/stats", r.authMiddleware.RequireAuth(), r.statsHandler.MyStats)

		// 辅导问答路由（需要认证）
		tutor := v1.Group("/tutor")
		tutor.Use(r.authMiddleware.RequireAuth())
		{
			tutor.POST("/ask", r.llmHandler.Ask)
			tutor.POST("/hint/:id", r.llmHandler.Hint)
		}

		// 管理员路由（需要admin权限）
		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.RequireAuth(), r.authMiddleware.RequirePermission(models.PermAdmin))
		{
			admin.POST("/events", r.gameHandler.PostEventAsAdmin)
			admin.POST("/events/bulk", r.gameHandler.PostEventsBulk)
			admin.PUT("/bonus", r.gameHandler.SetBonus)
		}
	}
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "physics-game",
	})
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Run 启动HTTP服务
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
