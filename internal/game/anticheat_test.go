package game

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/wfunc/physics-game/internal/config"
	apperrors "github.com/wfunc/physics-game/internal/errors"
	"github.com/wfunc/physics-game/internal/models"
)

// InspectorTestSuite 反作弊测试套件
type InspectorTestSuite struct {
	suite.Suite
	inspector *Inspector
}

// SetupTest 每个测试前初始化
func (suite *InspectorTestSuite) SetupTest() {
	suite.inspector = NewInspector(config.AntiCheatConfig{
		MinCompletionSeconds: 1.0,
		CoinCeiling:          1000000,
	})
}

// 测试秒通关被拦截
func (suite *InspectorTestSuite) TestTooFastCompletion() {
	user := &models.User{Coins: 100}
	event := &Event{Type: EventCompleteLevel, UserID: 1, LevelID: 1, TimeTaken: 0.5}

	err := suite.inspector.Inspect(user, event)
	suite.Error(err)
	suite.True(apperrors.Is(err, apperrors.ErrSuspiciousActivity))

	// 拦截原因不外泄，错误里不带触发数值
	appErr, ok := err.(*apperrors.AppError)
	suite.Require().True(ok)
	suite.Empty(appErr.Details)
	suite.NotContains(appErr.Message, "0.5")
}

// 测试正常用时放行
func (suite *InspectorTestSuite) TestNormalCompletion() {
	user := &models.User{Coins: 100}
	event := &Event{Type: EventCompleteLevel, UserID: 1, LevelID: 1, TimeTaken: 30}

	suite.NoError(suite.inspector.Inspect(user, event))
}

// 测试用时阈值只针对通关事件
func (suite *InspectorTestSuite) TestTimeCheckOnlyForCompleteLevel() {
	user := &models.User{Coins: 100}
	event := &Event{Type: EventDailyLogin, UserID: 1}

	suite.NoError(suite.inspector.Inspect(user, event))
}

// 测试金币超上限被拦截
func (suite *InspectorTestSuite) TestCoinCeiling() {
	user := &models.User{Coins: 1000001}
	event := &Event{Type: EventDailyLogin, UserID: 1}

	err := suite.inspector.Inspect(user, event)
	suite.Error(err)
	suite.True(apperrors.Is(err, apperrors.ErrSuspiciousActivity))

	appErr, ok := err.(*apperrors.AppError)
	suite.Require().True(ok)
	suite.Empty(appErr.Details)
	suite.NotContains(appErr.Message, "1000001")

	// 恰好等于上限不拦截
	user.Coins = 1000000
	suite.NoError(suite.inspector.Inspect(user, event))
}

func TestInspectorTestSuite(t *testing.T) {
	suite.Run(t, new(InspectorTestSuite))
}
