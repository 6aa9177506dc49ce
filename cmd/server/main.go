package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/physics-game/internal/api"
	"github.com/wfunc/physics-game/internal/config"
	"github.com/wfunc/physics-game/internal/database"
	apperrors "github.com/wfunc/physics-game/internal/errors"
	"github.com/wfunc/physics-game/internal/game"
	"github.com/wfunc/physics-game/internal/llm"
	"github.com/wfunc/physics-game/internal/logger"
	"github.com/wfunc/physics-game/internal/repository"
	"github.com/wfunc/physics-game/internal/service"
	"github.com/wfunc/physics-game/internal/utils"
	ws "github.com/wfunc/physics-game/internal/websocket"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("physics-game %s (build: %s, commit: %s)\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	log := logger.GetLogger()
	log.Info("正在启动游戏服务器...",
		zap.String("version", Version),
		zap.String("mode", cfg.Server.Mode),
	)

	if err := run(cfg, log); err != nil {
		log.Fatal("服务器运行失败", zap.Error(err))
	}

	log.Info("服务器已安全关闭")
}

// run 初始化组件并运行到收到退出信号
func run(cfg *config.Config, log *zap.Logger) error {
	// 数据库
	database.CleanupStaleLocks()
	if err := database.Init(&cfg.Database); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "初始化数据库连接失败")
	}
	defer database.Close()

	if cfg.Database.AutoMigrate {
		log.Info("执行数据库自动迁移...")
		if err := database.AutoMigrate(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}

	repos := repository.NewManager(database.GetDB())

	// WebSocket推送中心
	hub := ws.NewHub(logger.GetModuleLogger("websocket"))
	go hub.Run()

	// 事件引擎，结算结果实时推给玩家
	processor := game.NewProcessor(repos, cfg.Game,
		game.WithNotifier(ws.NewOutcomeNotifier(hub, logger.GetModuleLogger("game"))),
	)

	// LLM辅导代理
	llmClient := llm.NewClient(cfg.LLM, repos.LLMQuery)

	// 服务与路由
	jwtManager := utils.NewJWTManager(
		cfg.Security.JWT.Secret,
		time.Duration(cfg.Security.JWT.ExpireHours)*time.Hour,
		time.Duration(cfg.Security.JWT.RefreshHours)*time.Hour,
	)
	services := service.NewServices(repos, processor, jwtManager, logger.GetModuleLogger("service"))

	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(repos, services, processor, llmClient, hub, logger.GetModuleLogger("api"))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP服务已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// 过期会话定期清理
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go sessionCleanupLoop(cleanupCtx, repos, log)

	// 监听配置变化（引擎参数在下一次重启生效）
	config.Watch(func(newCfg *config.Config) {
		log.Info("配置已更新", zap.String("mode", newCfg.Server.Mode))
	})

	// 等待退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case sig := <-sigCh:
		log.Info("收到退出信号", zap.String("signal", sig.String()))
	case err := <-errCh:
		return apperrors.Wrap(err, apperrors.ErrUnknown, "HTTP服务异常退出")
	}

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return apperrors.Wrap(err, apperrors.ErrTimeout, "HTTP服务关闭超时")
	}
	return nil
}

// sessionCleanupLoop 周期清理过期会话
func sessionCleanupLoop(ctx context.Context, repos *repository.Manager, log *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repos.UserSession.CleanupExpired(ctx); err != nil {
				log.Warn("清理过期会话失败", zap.Error(err))
			}
		}
	}
}
