package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/wfunc/physics-game/internal/models"
	"gorm.io/gorm"
)

// InventoryRepositoryTestSuite 背包仓储测试套件
type InventoryRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo InventoryRepository
	ctx  context.Context
	user *models.User
}

// SetupTest 每个测试前初始化
func (suite *InventoryRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.repo = NewInventoryRepository(suite.db)
	suite.ctx = context.Background()
	suite.user = CreateTestUser(suite.T(), suite.db, "collector")
}

// TearDownTest 每个测试后清理
func (suite *InventoryRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// 测试背包惰性创建
func (suite *InventoryRepositoryTestSuite) TestGetOrCreate() {
	// 首次访问自动创建空背包
	inventory, err := suite.repo.GetOrCreate(suite.ctx, suite.user.ID)
	suite.NoError(err)
	suite.NotZero(inventory.ID)
	suite.Empty(inventory.Tools)

	// 二次访问返回同一个背包
	again, err := suite.repo.GetOrCreate(suite.ctx, suite.user.ID)
	suite.NoError(err)
	suite.Equal(inventory.ID, again.ID)
}

// 测试道具存取和稀有度判定
func (suite *InventoryRepositoryTestSuite) TestToolsRoundTrip() {
	inventory, err := suite.repo.GetOrCreate(suite.ctx, suite.user.ID)
	suite.NoError(err)

	inventory.AddTool("Magnet", models.RarityCommon)
	inventory.AddTool("Prism", models.RarityRare)
	suite.NoError(suite.repo.Update(suite.ctx, inventory))

	found, err := suite.repo.FindByUserID(suite.ctx, suite.user.ID)
	suite.NoError(err)
	suite.Len(found.Tools, 2)
	suite.True(found.HasRareTool())
	suite.Equal(1, found.CountTool("Magnet"))

	suite.True(found.RemoveTool("Prism"))
	suite.NoError(suite.repo.Update(suite.ctx, found))

	found, err = suite.repo.FindByUserID(suite.ctx, suite.user.ID)
	suite.NoError(err)
	suite.Len(found.Tools, 1)
	suite.False(found.HasRareTool())
	suite.False(found.RemoveTool("Prism"))
}

func TestInventoryRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(InventoryRepositoryTestSuite))
}
