package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/wfunc/physics-game/internal/config"
	"github.com/wfunc/physics-game/internal/game"
	"github.com/wfunc/physics-game/internal/models"
	"github.com/wfunc/physics-game/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StatsServiceTestSuite 统计服务测试套件
type StatsServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	repos     *repository.Manager
	processor *game.Processor
	service   StatsService
	ctx       context.Context
}

// SetupTest 每个测试前初始化
func (suite *StatsServiceTestSuite) SetupTest() {
	suite.db = repository.SetupTestDB()
	suite.repos = repository.NewManager(suite.db)
	suite.processor = game.NewProcessor(suite.repos, config.DefaultGameConfig())
	suite.service = NewStatsService(suite.repos, suite.processor, zap.NewNop())
	suite.ctx = context.Background()
}

// TearDownTest 每个测试后清理
func (suite *StatsServiceTestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

// 测试排行榜按金币降序
func (suite *StatsServiceTestSuite) TestLeaderboard() {
	for _, tc := range []struct {
		name  string
		coins int64
	}{
		{"alice", 500},
		{"bob", 1200},
		{"carol", 80},
	} {
		user := repository.CreateTestUser(suite.T(), suite.db, tc.name)
		user.Coins = tc.coins
		suite.Require().NoError(suite.repos.User.Update(suite.ctx, user))
	}

	// 冻结用户不上榜
	frozen := repository.CreateTestUser(suite.T(), suite.db, "frozen")
	frozen.Coins = 9999
	frozen.Status = "frozen"
	suite.Require().NoError(suite.repos.User.Update(suite.ctx, frozen))

	entries, err := suite.service.Leaderboard(suite.ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 3)
	suite.Equal("bob", entries[0].Username)
	suite.Equal(1, entries[0].Rank)
	suite.Equal("alice", entries[1].Username)
	suite.Equal("carol", entries[2].Username)
}

// 测试玩家统计与奖励倍率预览
func (suite *StatsServiceTestSuite) TestPlayerStats() {
	user := repository.CreateTestUser(suite.T(), suite.db, "alice")
	user.Flags = models.StringList{models.FlagVIP}
	user.LoginStreak.Count = 7
	user.XP = 300
	suite.Require().NoError(suite.repos.User.Update(suite.ctx, user))

	stats, err := suite.service.PlayerStats(suite.ctx, user.ID)
	suite.Require().NoError(err)
	suite.Equal("alice", stats.Username)
	suite.Equal(int64(100), stats.Coins)
	suite.Equal(7, stats.LoginStreak)
	suite.False(stats.BonusActive)

	// VIP x1.5, 连续7天 x1.3
	suite.InDelta(1.95, stats.RewardMultipliers["easy"], 1e-9)
	suite.InDelta(2.34, stats.RewardMultipliers["medium"], 1e-9)
	suite.InDelta(2.925, stats.RewardMultipliers["hard"], 1e-9)
}

// 测试奖励加成活动开启后倍率变化
func (suite *StatsServiceTestSuite) TestPlayerStatsBonusActive() {
	user := repository.CreateTestUser(suite.T(), suite.db, "alice")
	suite.processor.SetBonusActive(true)

	stats, err := suite.service.PlayerStats(suite.ctx, user.ID)
	suite.Require().NoError(err)
	suite.True(stats.BonusActive)
	suite.InDelta(1.25, stats.RewardMultipliers["easy"], 1e-9)
}

func TestStatsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(StatsServiceTestSuite))
}
