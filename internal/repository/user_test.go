package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	apperrors "github.com/wfunc/physics-game/internal/errors"
	"github.com/wfunc/physics-game/internal/models"
	"gorm.io/gorm"
)

// UserRepositoryTestSuite 用户仓储测试套件
type UserRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo UserRepository
	ctx  context.Context
}

// SetupTest 每个测试前初始化
func (suite *UserRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.repo = NewUserRepository(suite.db)
	suite.ctx = context.Background()
}

// TearDownTest 每个测试后清理
func (suite *UserRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// 测试创建和查找用户
func (suite *UserRepositoryTestSuite) TestCreateAndFind() {
	user := &models.User{
		Username: "alice",
		Email:    "alice@example.com",
		Status:   "active",
		Level:    1,
		Coins:    100,
	}
	err := suite.repo.Create(suite.ctx, user)
	suite.NoError(err)
	suite.NotZero(user.ID)

	found, err := suite.repo.FindByID(suite.ctx, user.ID)
	suite.NoError(err)
	suite.Equal("alice", found.Username)
	suite.Equal(int64(100), found.Coins)

	found, err = suite.repo.FindByUsername(suite.ctx, "alice")
	suite.NoError(err)
	suite.Equal(user.ID, found.ID)

	found, err = suite.repo.FindByEmail(suite.ctx, "alice@example.com")
	suite.NoError(err)
	suite.Equal(user.ID, found.ID)
}

// 测试查找不存在的用户
func (suite *UserRepositoryTestSuite) TestFindNotFound() {
	_, err := suite.repo.FindByID(suite.ctx, 999)
	suite.Error(err)
	suite.True(apperrors.Is(err, apperrors.ErrUserNotFound))

	_, err = suite.repo.FindByUsername(suite.ctx, "ghost")
	suite.Error(err)
	suite.True(apperrors.Is(err, apperrors.ErrUserNotFound))
}

// 测试更新用户进度字段
func (suite *UserRepositoryTestSuite) TestUpdate() {
	user := CreateTestUser(suite.T(), suite.db, "bob")

	user.Level = 3
	user.Coins = 500
	user.XP = 1200
	user.Flags = models.StringList{models.FlagVIP}
	err := suite.repo.Update(suite.ctx, user)
	suite.NoError(err)

	found, err := suite.repo.FindByID(suite.ctx, user.ID)
	suite.NoError(err)
	suite.Equal(3, found.Level)
	suite.Equal(int64(500), found.Coins)
	suite.Equal(int64(1200), found.XP)
	suite.True(found.HasFlag(models.FlagVIP))
}

// 测试金币排行榜查询
func (suite *UserRepositoryTestSuite) TestTopByCoins() {
	names := []string{"p1", "p2", "p3", "p4"}
	coins := []int64{100, 500, 300, 900}
	for i, name := range names {
		user := CreateTestUser(suite.T(), suite.db, name)
		user.Coins = coins[i]
		suite.NoError(suite.repo.Update(suite.ctx, user))
	}

	top, err := suite.repo.TopByCoins(suite.ctx, 3)
	suite.NoError(err)
	suite.Len(top, 3)
	suite.Equal("p4", top[0].Username)
	suite.Equal("p2", top[1].Username)
	suite.Equal("p3", top[2].Username)
}

// 测试更新最后登录信息
func (suite *UserRepositoryTestSuite) TestUpdateLastLogin() {
	user := CreateTestUser(suite.T(), suite.db, "carol")
	suite.Nil(user.LastLoginAt)

	err := suite.repo.UpdateLastLogin(suite.ctx, user.ID, "10.0.0.1")
	suite.NoError(err)

	found, err := suite.repo.FindByID(suite.ctx, user.ID)
	suite.NoError(err)
	suite.NotNil(found.LastLoginAt)
	suite.Equal("10.0.0.1", found.LastLoginIP)
}

func TestUserRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(UserRepositoryTestSuite))
}
