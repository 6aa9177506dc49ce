package game

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/wfunc/physics-game/internal/config"
	apperrors "github.com/wfunc/physics-game/internal/errors"
	"github.com/wfunc/physics-game/internal/models"
	"github.com/wfunc/physics-game/internal/repository"
	"gorm.io/gorm"
)

// ProcessorTestSuite 事件引擎测试套件
type ProcessorTestSuite struct {
	suite.Suite
	db    *gorm.DB
	repos *repository.Manager
	cfg   config.GameConfig
	now   time.Time
	ctx   context.Context
}

// SetupTest 每个测试前初始化
func (suite *ProcessorTestSuite) SetupTest() {
	suite.db = repository.SetupTestDB()
	suite.repos = repository.NewManager(suite.db)
	suite.cfg = config.DefaultGameConfig()
	// 默认关闭随机掉落，需要的测试单独打开
	suite.cfg.Reward.BonusItemChance = 0
	suite.now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	suite.ctx = context.Background()
}

// TearDownTest 每个测试后清理
func (suite *ProcessorTestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

func (suite *ProcessorTestSuite) newProcessor() *Processor {
	return NewProcessor(suite.repos, suite.cfg,
		WithClock(func() time.Time { return suite.now }),
		WithRand(rand.New(rand.NewSource(1))),
	)
}

func (suite *ProcessorTestSuite) createUser(level int, coins int64) *models.User {
	user := &models.User{
		Username: "player",
		Email:    "player@example.com",
		Status:   "active",
		Level:    level,
		Coins:    coins,
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *ProcessorTestSuite) createLevel(levelID int, coins int64, expectedTime float64) *models.Level {
	level := &models.Level{
		LevelID:       levelID,
		Title:         "Test Level",
		Question:      "?",
		CorrectAnswer: "42",
		Difficulty:    "easy",
		CoinsRewarded: coins,
		ExpectedTime:  expectedTime,
	}
	suite.Require().NoError(suite.db.Create(level).Error)
	return level
}

func (suite *ProcessorTestSuite) reload(userID uint) *models.User {
	var user models.User
	suite.Require().NoError(suite.db.First(&user, userID).Error)
	return &user
}

// 测试参数校验
func (suite *ProcessorTestSuite) TestValidation() {
	processor := suite.newProcessor()

	_, err := processor.Process(suite.ctx, nil)
	suite.True(apperrors.Is(err, apperrors.ErrInvalidParam))

	_, err = processor.Process(suite.ctx, &Event{Type: EventDailyLogin})
	suite.True(apperrors.Is(err, apperrors.ErrInvalidParam))

	// 不认识的事件类型不报错，返回无变化的结果
	outcome, err := processor.Process(suite.ctx, &Event{Type: "hack_the_planet", UserID: 1})
	suite.NoError(err)
	suite.Require().NotNil(outcome)
	suite.False(outcome.Changed)
	suite.Equal([]string{"Unhandled event"}, outcome.Messages)
}

// 测试用户不存在
func (suite *ProcessorTestSuite) TestUserNotFound() {
	processor := suite.newProcessor()

	_, err := processor.Process(suite.ctx, &Event{Type: EventDailyLogin, UserID: 999})
	suite.True(apperrors.Is(err, apperrors.ErrUserNotFound))
}

// 测试限流拒绝带等待时间
func (suite *ProcessorTestSuite) TestRateLimitDenied() {
	suite.cfg.RateLimit.MaxEvents = 2
	processor := suite.newProcessor()
	user := suite.createUser(1, 100)

	for i := 0; i < 2; i++ {
		_, err := processor.Process(suite.ctx, &Event{Type: EventDailyLogin, UserID: user.ID})
		suite.NoError(err)
	}

	outcome, err := processor.Process(suite.ctx, &Event{Type: EventDailyLogin, UserID: user.ID})
	suite.True(apperrors.Is(err, apperrors.ErrRateLimitExceeded))
	suite.Require().NotNil(outcome)
	suite.False(outcome.Changed)
	suite.Equal(int64(60000), outcome.RetryAfterMs)
	suite.Contains(outcome.Messages, "Too many events. Slow down.")
}

// 测试秒通关被风控拦截
func (suite *ProcessorTestSuite) TestAntiCheatReject() {
	processor := suite.newProcessor()
	user := suite.createUser(1, 100)
	suite.createLevel(1, 50, 45)

	_, err := processor.Process(suite.ctx, &Event{
		Type: EventCompleteLevel, UserID: user.ID, LevelID: 1, TimeTaken: 0.5,
	})
	suite.True(apperrors.Is(err, apperrors.ErrSuspiciousActivity))

	// 玩家状态未被改动
	suite.Equal(int64(100), suite.reload(user.ID).Coins)
}

// 测试正常通关的完整结算
func (suite *ProcessorTestSuite) TestCompleteLevelEndToEnd() {
	processor := suite.newProcessor()
	user := suite.createUser(3, 0)
	suite.createLevel(3, 100, 60)

	outcome, err := processor.Process(suite.ctx, &Event{
		Type: EventCompleteLevel, UserID: user.ID, LevelID: 3, TimeTaken: 30,
	})
	suite.Require().NoError(err)
	suite.True(outcome.Changed)

	// 100 * 1.4(快速) * 1.0(无提示) * 1.0(无连击) = 140
	reloaded := suite.reload(user.ID)
	suite.Equal(int64(140), reloaded.Coins)
	suite.Equal(4, reloaded.Level)
	// floor(50 * 1.18^3 + 30) = 112
	suite.Equal(int64(112), reloaded.XP)

	var submissions []models.Submission
	suite.NoError(suite.db.Where("user_id = ?", user.ID).Find(&submissions).Error)
	suite.Require().Len(submissions, 1)
	suite.Equal(models.SubmissionAnswerAuto, submissions[0].SubmittedAnswer)
	suite.True(submissions[0].IsCorrect)
}

// 测试提示惩罚与连击倍率参与结算
func (suite *ProcessorTestSuite) TestCompleteLevelWithHintsAndCombo() {
	processor := suite.newProcessor()
	user := suite.createUser(1, 0)
	user.LoginStreak.Count = 5
	suite.Require().NoError(suite.db.Save(user).Error)
	suite.createLevel(1, 100, 60)

	inventory, err := suite.repos.Inventory.GetOrCreate(suite.ctx, user.ID)
	suite.Require().NoError(err)
	inventory.AddTool("Prism", models.RarityRare)
	suite.Require().NoError(suite.repos.Inventory.Update(suite.ctx, inventory))

	outcome, err := processor.Process(suite.ctx, &Event{
		Type: EventCompleteLevel, UserID: user.ID, LevelID: 1, TimeTaken: 30, HintsUsed: 2,
	})
	suite.Require().NoError(err)
	suite.True(outcome.Changed)

	// floor(100 * 1.4 * (1-0.24) * 1.3) = floor(138.32) = 138
	suite.Equal(int64(138), suite.reload(user.ID).Coins)
}

// 测试关卡不存在
func (suite *ProcessorTestSuite) TestCompleteLevelNotFound() {
	processor := suite.newProcessor()
	user := suite.createUser(1, 100)

	outcome, err := processor.Process(suite.ctx, &Event{
		Type: EventCompleteLevel, UserID: user.ID, LevelID: 42, TimeTaken: 30,
	})
	suite.Require().NoError(err)
	suite.False(outcome.Changed)
	suite.Contains(outcome.Messages, "Level not found")
}

// 测试重复通关只给安慰奖
func (suite *ProcessorTestSuite) TestCompleteLevelRepeat() {
	processor := suite.newProcessor()
	user := suite.createUser(2, 100)
	suite.createLevel(1, 50, 45)
	suite.Require().NoError(suite.db.Create(&models.Submission{
		UserID: user.ID, LevelID: 1, RoundID: "seed-round",
		SubmittedAnswer: "42", IsCorrect: true, SubmittedAt: suite.now,
	}).Error)

	outcome, err := processor.Process(suite.ctx, &Event{
		Type: EventCompleteLevel, UserID: user.ID, LevelID: 1, TimeTaken: 30,
	})
	suite.Require().NoError(err)
	suite.True(outcome.Changed)

	// floor(50 * 0.05) = 2，进度不变
	reloaded := suite.reload(user.ID)
	suite.Equal(int64(102), reloaded.Coins)
	suite.Equal(2, reloaded.Level)

	var count int64
	suite.db.Model(&models.Submission{}).
		Where("user_id = ? AND submitted_answer = ?", user.ID, models.SubmissionAnswerRepeat).
		Count(&count)
	suite.Equal(int64(1), count)
}

// 测试重复通关奖励至少1枚金币
func (suite *ProcessorTestSuite) TestCompleteLevelRepeatMinimumReward() {
	processor := suite.newProcessor()
	user := suite.createUser(2, 0)
	suite.createLevel(1, 10, 45) // floor(10*0.05)=0 -> 补到1
	suite.Require().NoError(suite.db.Create(&models.Submission{
		UserID: user.ID, LevelID: 1, RoundID: "seed-round-2",
		SubmittedAnswer: "42", IsCorrect: true, SubmittedAt: suite.now,
	}).Error)

	_, err := processor.Process(suite.ctx, &Event{
		Type: EventCompleteLevel, UserID: user.ID, LevelID: 1, TimeTaken: 30,
	})
	suite.Require().NoError(err)
	suite.Equal(int64(1), suite.reload(user.ID).Coins)
}

// 测试回头重做已过关卡的折扣奖励
func (suite *ProcessorTestSuite) TestCompleteLevelLegacyBonus() {
	processor := suite.newProcessor()
	user := suite.createUser(5, 0)
	suite.createLevel(1, 50, 45)

	outcome, err := processor.Process(suite.ctx, &Event{
		Type: EventCompleteLevel, UserID: user.ID, LevelID: 1, TimeTaken: 40,
	})
	suite.Require().NoError(err)
	suite.True(outcome.Changed)

	// final = floor(50*1.4) = 70, legacy = floor(70*0.15) = 10
	reloaded := suite.reload(user.ID)
	suite.Equal(int64(10), reloaded.Coins)
	suite.Equal(5, reloaded.Level)

	// 不记录答题
	var count int64
	suite.db.Model(&models.Submission{}).Where("user_id = ?", user.ID).Count(&count)
	suite.Zero(count)
}

// 测试越级挑战
func (suite *ProcessorTestSuite) TestCompleteLevelSkip() {
	processor := suite.newProcessor()
	suite.createLevel(3, 100, 60)

	// 无权限: 锁定
	locked := suite.createUser(1, 0)
	outcome, err := processor.Process(suite.ctx, &Event{
		Type: EventCompleteLevel, UserID: locked.ID, LevelID: 3, TimeTaken: 30,
	})
	suite.Require().NoError(err)
	suite.False(outcome.Changed)
	suite.Contains(outcome.Messages, "Level locked")
	suite.Equal(1, suite.reload(locked.ID).Level)

	// 有skip_any权限: 跳到下一关并拿四成奖励
	skipper := &models.User{
		Username: "skipper", Email: "skipper@example.com", Status: "active", Level: 1,
		Permissions: models.StringList{models.PermSkipAny},
	}
	suite.Require().NoError(suite.db.Create(skipper).Error)

	outcome, err = processor.Process(suite.ctx, &Event{
		Type: EventCompleteLevel, UserID: skipper.ID, LevelID: 3, TimeTaken: 30,
	})
	suite.Require().NoError(err)
	suite.True(outcome.Changed)

	// final = 140, skip = floor(140*0.4) = 56
	reloaded := suite.reload(skipper.ID)
	suite.Equal(4, reloaded.Level)
	suite.Equal(int64(56), reloaded.Coins)
}

// 测试通关掉落道具
func (suite *ProcessorTestSuite) TestCompleteLevelBonusItem() {
	suite.cfg.Reward.BonusItemChance = 1.0
	processor := suite.newProcessor()
	user := suite.createUser(1, 0)
	suite.createLevel(1, 50, 45)

	outcome, err := processor.Process(suite.ctx, &Event{
		Type: EventCompleteLevel, UserID: user.ID, LevelID: 1, TimeTaken: 30,
	})
	suite.Require().NoError(err)
	suite.Contains(outcome.Messages, "Bonus item: Lucky Charm")

	inventory, err := suite.repos.Inventory.FindByUserID(suite.ctx, user.ID)
	suite.Require().NoError(err)
	suite.Equal(1, inventory.CountTool("Lucky Charm"))
}

// 测试成就解锁
func (suite *ProcessorTestSuite) TestSeasonedAchievement() {
	processor := suite.newProcessor()
	user := suite.createUser(4, 0)
	user.XP = 1950
	suite.Require().NoError(suite.db.Save(user).Error)
	suite.createLevel(4, 50, 45)

	outcome, err := processor.Process(suite.ctx, &Event{
		Type: EventCompleteLevel, UserID: user.ID, LevelID: 4, TimeTaken: 30,
	})
	suite.Require().NoError(err)
	suite.Contains(outcome.Messages, "Achievement unlocked: seasoned")

	reloaded := suite.reload(user.ID)
	suite.True(reloaded.HasAchievement(models.AchievementSeasoned))
}

// 测试购买的三种支付路径
func (suite *ProcessorTestSuite) TestPurchasePaths() {
	processor := suite.newProcessor()
	suite.Require().NoError(suite.db.Create(&models.StoreItem{
		ItemID: "magnet", Name: "Magnet", Type: "tool",
		Rarity: models.RarityCommon, Cost: 50,
	}).Error)
	suite.Require().NoError(suite.db.Create(&models.StoreItem{
		ItemID: "prism", Name: "Prism", Type: "tool",
		Rarity: models.RarityRare, Cost: 300, GemCost: 10,
	}).Error)

	// 金币支付，扣减额精确
	buyer := suite.createUser(1, 60)
	outcome, err := processor.Process(suite.ctx, &Event{
		Type: EventPurchaseAttempt, UserID: buyer.ID, ItemID: "magnet",
	})
	suite.Require().NoError(err)
	suite.True(outcome.Changed)
	suite.Equal(int64(10), suite.reload(buyer.ID).Coins)

	inventory, err := suite.repos.Inventory.FindByUserID(suite.ctx, buyer.ID)
	suite.Require().NoError(err)
	suite.Equal(1, inventory.CountTool("Magnet"))

	// 金币不足转宝石支付
	gemBuyer := &models.User{Username: "gems", Email: "gems@example.com", Status: "active", Level: 1, Coins: 100, Gems: 25}
	suite.Require().NoError(suite.db.Create(gemBuyer).Error)
	_, err = processor.Process(suite.ctx, &Event{
		Type: EventPurchaseAttempt, UserID: gemBuyer.ID, ItemID: "prism",
	})
	suite.Require().NoError(err)
	reloaded := suite.reload(gemBuyer.ID)
	suite.Equal(int64(100), reloaded.Coins)
	suite.Equal(int64(15), reloaded.Gems)

	// 赊账购买
	borrower := &models.User{
		Username: "loan", Email: "loan@example.com", Status: "active", Level: 1, Coins: 30,
		Permissions: models.StringList{models.PermAllowLoan},
	}
	suite.Require().NoError(suite.db.Create(borrower).Error)
	_, err = processor.Process(suite.ctx, &Event{
		Type: EventPurchaseAttempt, UserID: borrower.ID, ItemID: "prism",
	})
	suite.Require().NoError(err)
	reloaded = suite.reload(borrower.ID)
	suite.Equal(int64(0), reloaded.Coins)
	suite.Equal(int64(270), reloaded.Debt)

	// 无权限且余额不足
	broke := &models.User{Username: "broke", Email: "broke@example.com", Status: "active", Level: 1, Coins: 30}
	suite.Require().NoError(suite.db.Create(broke).Error)
	outcome, err = processor.Process(suite.ctx, &Event{
		Type: EventPurchaseAttempt, UserID: broke.ID, ItemID: "prism",
	})
	suite.Require().NoError(err)
	suite.False(outcome.Changed)
	suite.Contains(outcome.Messages, "Insufficient funds")
	suite.Equal(int64(30), suite.reload(broke.ID).Coins)
}

// 测试购买不存在的商品
func (suite *ProcessorTestSuite) TestPurchaseItemNotFound() {
	processor := suite.newProcessor()
	user := suite.createUser(1, 100)

	outcome, err := processor.Process(suite.ctx, &Event{
		Type: EventPurchaseAttempt, UserID: user.ID, ItemID: "unobtainium",
	})
	suite.Require().NoError(err)
	suite.False(outcome.Changed)
	suite.Contains(outcome.Messages, "Item not found")
}

// 测试每日签到的连续与重置
func (suite *ProcessorTestSuite) TestDailyLoginStreak() {
	processor := suite.newProcessor()
	user := suite.createUser(1, 0)

	// 第一天: count=1, +5
	outcome, err := processor.Process(suite.ctx, &Event{Type: EventDailyLogin, UserID: user.ID})
	suite.Require().NoError(err)
	suite.True(outcome.Changed)
	reloaded := suite.reload(user.ID)
	suite.Equal(1, reloaded.LoginStreak.Count)
	suite.Equal(int64(5), reloaded.Coins)

	// 同一天再领: 拒绝
	outcome, err = processor.Process(suite.ctx, &Event{Type: EventDailyLogin, UserID: user.ID})
	suite.Require().NoError(err)
	suite.False(outcome.Changed)
	suite.Contains(outcome.Messages, "Already claimed")
	suite.Equal(int64(5), suite.reload(user.ID).Coins)

	// 连续第二、三天: 第三天进入档位1, +10
	suite.now = suite.now.AddDate(0, 0, 1)
	_, err = processor.Process(suite.ctx, &Event{Type: EventDailyLogin, UserID: user.ID})
	suite.Require().NoError(err)
	suite.now = suite.now.AddDate(0, 0, 1)
	_, err = processor.Process(suite.ctx, &Event{Type: EventDailyLogin, UserID: user.ID})
	suite.Require().NoError(err)
	reloaded = suite.reload(user.ID)
	suite.Equal(3, reloaded.LoginStreak.Count)
	suite.Equal(int64(20), reloaded.Coins) // 5+5+10

	// 断签后重置
	suite.now = suite.now.AddDate(0, 0, 3)
	_, err = processor.Process(suite.ctx, &Event{Type: EventDailyLogin, UserID: user.ID})
	suite.Require().NoError(err)
	reloaded = suite.reload(user.ID)
	suite.Equal(1, reloaded.LoginStreak.Count)
	suite.Equal(int64(25), reloaded.Coins)
}

// 测试VIP签到奖励
func (suite *ProcessorTestSuite) TestDailyLoginVIP() {
	// 必中头奖
	suite.cfg.Reward.VIPJackpotChance = 1.0
	processor := suite.newProcessor()
	vip := &models.User{
		Username: "vip", Email: "vip@example.com", Status: "active", Level: 1,
		Flags: models.StringList{models.FlagVIP},
	}
	suite.Require().NoError(suite.db.Create(vip).Error)

	outcome, err := processor.Process(suite.ctx, &Event{Type: EventDailyLogin, UserID: vip.ID})
	suite.Require().NoError(err)
	suite.Contains(outcome.Messages[0], "jackpot")
	suite.Equal(int64(50), suite.reload(vip.ID).Coins)

	// 必不中头奖
	suite.cfg.Reward.VIPJackpotChance = 0.0
	processor = suite.newProcessor()
	suite.now = suite.now.AddDate(0, 0, 1)
	_, err = processor.Process(suite.ctx, &Event{Type: EventDailyLogin, UserID: vip.ID})
	suite.Require().NoError(err)
	suite.Equal(int64(70), suite.reload(vip.ID).Coins)
}

// 测试特殊活动奖池
func (suite *ProcessorTestSuite) TestSpecialEvent() {
	processor := suite.newProcessor()

	// 未知活动
	user := suite.createUser(1, 0)
	outcome, err := processor.Process(suite.ctx, &Event{
		Type: EventSpecialEvent, UserID: user.ID, EventKey: "halloween",
	})
	suite.Require().NoError(err)
	suite.False(outcome.Changed)
	suite.Contains(outcome.Messages, "Unknown event")

	// 低经验玩家抽普通奖池
	outcome, err = processor.Process(suite.ctx, &Event{
		Type: EventSpecialEvent, UserID: user.ID, EventKey: "spring_festival",
	})
	suite.Require().NoError(err)
	suite.True(outcome.Changed)
	coins := suite.reload(user.ID).Coins
	suite.Contains([]int64{2, 5}, coins)

	// 高经验玩家抽高级奖池
	veteran := &models.User{Username: "vet", Email: "vet@example.com", Status: "active", Level: 1, XP: 700}
	suite.Require().NoError(suite.db.Create(veteran).Error)
	_, err = processor.Process(suite.ctx, &Event{
		Type: EventSpecialEvent, UserID: veteran.ID, EventKey: "spring_festival",
	})
	suite.Require().NoError(err)
	suite.Contains([]int64{20, 80}, suite.reload(veteran.ID).Coins)
}

// 测试同一用户并发提交被串行化: 恰好一次推进、一次重复奖励
func (suite *ProcessorTestSuite) TestConcurrentDoubleSubmit() {
	processor := suite.newProcessor()
	user := suite.createUser(1, 100)
	suite.createLevel(1, 50, 45)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := processor.Process(suite.ctx, &Event{
				Type: EventCompleteLevel, UserID: user.ID, LevelID: 1, TimeTaken: 30,
			})
			suite.NoError(err)
		}()
	}
	wg.Wait()

	// final = floor(50*1.4) = 70, repeat = max(1, floor(50*0.05)) = 2
	reloaded := suite.reload(user.ID)
	suite.Equal(2, reloaded.Level)
	suite.Equal(int64(172), reloaded.Coins)

	var autoCount, repeatCount int64
	suite.db.Model(&models.Submission{}).
		Where("user_id = ? AND submitted_answer = ?", user.ID, models.SubmissionAnswerAuto).
		Count(&autoCount)
	suite.db.Model(&models.Submission{}).
		Where("user_id = ? AND submitted_answer = ?", user.ID, models.SubmissionAnswerRepeat).
		Count(&repeatCount)
	suite.Equal(int64(1), autoCount)
	suite.Equal(int64(1), repeatCount)
}

// 测试结果通知回调
func (suite *ProcessorTestSuite) TestNotifier() {
	var mu sync.Mutex
	var notified []EventType
	processor := NewProcessor(suite.repos, suite.cfg,
		WithClock(func() time.Time { return suite.now }),
		WithNotifier(func(userID uint, eventType EventType, outcome *Outcome) {
			mu.Lock()
			notified = append(notified, eventType)
			mu.Unlock()
		}),
	)
	user := suite.createUser(1, 0)

	// changed=true 触发通知
	_, err := processor.Process(suite.ctx, &Event{Type: EventDailyLogin, UserID: user.ID})
	suite.Require().NoError(err)
	// changed=false 不触发
	_, err = processor.Process(suite.ctx, &Event{Type: EventDailyLogin, UserID: user.ID})
	suite.Require().NoError(err)

	mu.Lock()
	defer mu.Unlock()
	suite.Equal([]EventType{EventDailyLogin}, notified)
}

func TestProcessorTestSuite(t *testing.T) {
	suite.Run(t, new(ProcessorTestSuite))
}
