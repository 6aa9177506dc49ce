package service

import (
	"github.com/wfunc/physics-game/internal/game"
	"github.com/wfunc/physics-game/internal/repository"
	"github.com/wfunc/physics-game/internal/utils"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Auth  AuthService
	Level LevelService
	Shop  ShopService
	Stats StatsService
}

// NewServices 创建所有服务
func NewServices(repos *repository.Manager, processor *game.Processor, jwtManager *utils.JWTManager, log *zap.Logger) *Services {
	return &Services{
		Auth:  NewAuthService(repos, jwtManager, log),
		Level: NewLevelService(repos, processor, log),
		Shop:  NewShopService(repos, processor, log),
		Stats: NewStatsService(repos, processor, log),
	}
}
