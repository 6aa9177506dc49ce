package game

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/physics-game/internal/config"
	apperrors "github.com/wfunc/physics-game/internal/errors"
	"github.com/wfunc/physics-game/internal/logger"
	"github.com/wfunc/physics-game/internal/models"
	"github.com/wfunc/physics-game/internal/repository"
	"go.uber.org/zap"
)

// 玩家可见的结果消息，对外保持英文
const (
	msgLevelNotFound     = "Level not found"
	msgLevelLocked       = "Level locked"
	msgItemNotFound      = "Item not found"
	msgInsufficientFunds = "Insufficient funds"
	msgAlreadyClaimed    = "Already claimed"
	msgUnknownEventKey   = "Unknown event"
	msgUnhandledEvent    = "Unhandled event"
	msgTooManyEvents     = "Too many events. Slow down."
)

// 特殊活动
const eventKeySpringFestival = "spring_festival"

// NotifyFunc 事件结果通知回调（WebSocket推送等）
type NotifyFunc func(userID uint, eventType EventType, outcome *Outcome)

// Processor 游戏事件引擎
// 处理流程: 校验 -> 限流 -> 风控 -> 用户锁 -> 重新加载玩家 -> 按类型分发 -> 持久化。
// 同一用户的事件严格串行，锁的释放由defer保证。
type Processor struct {
	repos *repository.Manager
	cfg   config.GameConfig

	scorer    *Scorer
	limiter   *RateLimiter
	inspector *Inspector
	locks     *UserLocker

	randMu sync.Mutex
	rng    *rand.Rand

	now    func() time.Time
	notify NotifyFunc

	bonusMu     sync.RWMutex
	bonusActive bool
}

// ProcessorOption 引擎可选参数
type ProcessorOption func(*Processor)

// WithClock 注入时钟（测试用）
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		p.now = now
		p.limiter.WithClock(now)
	}
}

// WithRand 注入随机源（测试用）
func WithRand(rng *rand.Rand) ProcessorOption {
	return func(p *Processor) {
		p.rng = rng
	}
}

// WithNotifier 注入结果通知回调
func WithNotifier(fn NotifyFunc) ProcessorOption {
	return func(p *Processor) {
		p.notify = fn
	}
}

// NewProcessor 创建游戏事件引擎
func NewProcessor(repos *repository.Manager, cfg config.GameConfig, opts ...ProcessorOption) *Processor {
	p := &Processor{
		repos:     repos,
		cfg:       cfg,
		scorer:    NewScorer(cfg.Reward),
		limiter:   NewRateLimiter(cfg.RateLimit),
		inspector: NewInspector(cfg.AntiCheat),
		locks:     NewUserLocker(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Scorer 暴露奖励计算器（服务层复用）
func (p *Processor) Scorer() *Scorer {
	return p.scorer
}

// SetBonusActive 开关全局奖励活动
func (p *Processor) SetBonusActive(active bool) {
	p.bonusMu.Lock()
	p.bonusActive = active
	p.bonusMu.Unlock()
}

// BonusActive 奖励活动是否进行中
func (p *Processor) BonusActive() bool {
	p.bonusMu.RLock()
	defer p.bonusMu.RUnlock()
	return p.bonusActive
}

// WithUserLock 在该用户的锁内执行回调
// 引擎之外的余额变更（如商店回售）借此与事件处理串行化。
func (p *Processor) WithUserLock(userID uint, fn func() error) error {
	p.locks.Lock(userID)
	defer p.locks.Unlock(userID)
	return fn()
}

// random 并发安全的随机数
func (p *Processor) random() float64 {
	p.randMu.Lock()
	defer p.randMu.Unlock()
	return p.rng.Float64()
}

// Process 处理一个游戏事件
// 限流拒绝时返回的Outcome带有RetryAfterMs，错误码为ErrRateLimitExceeded。
func (p *Processor) Process(ctx context.Context, event *Event) (outcome *Outcome, err error) {
	if event == nil || event.UserID == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "事件缺少用户ID")
	}
	// 不认识的事件类型不算失败，按无变化处理
	if !event.Type.IsValid() {
		return newOutcome(false, msgUnhandledEvent), nil
	}

	// 限流
	if allowed, retryAfterMs := p.limiter.Allow(event.UserID); !allowed {
		logger.Warn("事件被限流",
			zap.Uint("user_id", event.UserID),
			zap.String("event_type", string(event.Type)),
			zap.Int64("retry_after_ms", retryAfterMs),
		)
		return &Outcome{
			Changed:      false,
			Messages:     []string{msgTooManyEvents},
			RetryAfterMs: retryAfterMs,
		}, apperrors.New(apperrors.ErrRateLimitExceeded)
	}

	// 风控检查基于锁外快照，金额结算以锁内重新加载的数据为准
	user, err := p.repos.User.FindByID(ctx, event.UserID)
	if err != nil {
		return nil, err
	}
	if err := p.inspector.Inspect(user, event); err != nil {
		logger.Warn("事件被风控拦截",
			zap.Uint("user_id", event.UserID),
			zap.String("event_type", string(event.Type)),
			zap.Float64("time_taken", event.TimeTaken),
			zap.Int64("coins", user.Coins),
			zap.Error(err),
		)
		return nil, err
	}

	// 同一用户串行处理
	p.locks.Lock(event.UserID)
	defer p.locks.Unlock(event.UserID)

	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r, debug.Stack())
			outcome = nil
			err = apperrors.Newf(apperrors.ErrUnknown, "事件处理异常: %v", r)
		}
	}()

	// 锁内重新加载，拿到最新进度
	user, err = p.repos.User.FindByID(ctx, event.UserID)
	if err != nil {
		return nil, err
	}

	switch event.Type {
	case EventCompleteLevel:
		outcome, err = p.handleCompleteLevel(ctx, user, event)
	case EventPurchaseAttempt:
		outcome, err = p.handlePurchaseAttempt(ctx, user, event)
	case EventDailyLogin:
		outcome, err = p.handleDailyLogin(ctx, user)
	case EventSpecialEvent:
		outcome, err = p.handleSpecialEvent(ctx, user, event)
	}
	if err != nil {
		return nil, err
	}

	logger.LogGameEvent(string(event.Type), event.UserID, outcome.Changed, outcome.Messages)

	if p.notify != nil && outcome.Changed {
		p.notify(event.UserID, event.Type, outcome)
	}
	return outcome, nil
}

// handleCompleteLevel 通关事件
func (p *Processor) handleCompleteLevel(ctx context.Context, user *models.User, event *Event) (*Outcome, error) {
	level, err := p.repos.Level.FindByLevelID(ctx, event.LevelID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrLevelNotFound) {
			return newOutcome(false, msgLevelNotFound), nil
		}
		return nil, err
	}

	alreadyCleared, err := p.repos.Submission.CorrectExists(ctx, user.ID, event.LevelID)
	if err != nil {
		return nil, err
	}

	// 重复通关只给少量安慰奖，不推进进度
	if alreadyCleared {
		repeatCoins := int64(math.Floor(float64(level.CoinsRewarded) * p.cfg.Reward.RepeatRewardRate))
		if repeatCoins < 1 {
			repeatCoins = 1
		}
		user.Coins += repeatCoins

		if err := p.recordSubmission(ctx, user.ID, event, models.SubmissionAnswerRepeat, true); err != nil {
			return nil, err
		}
		if err := p.repos.User.Update(ctx, user); err != nil {
			return nil, err
		}
		return newOutcome(true, fmt.Sprintf("Repeat completion: +%d coins", repeatCoins)), nil
	}

	hasRareTool := false
	if inventory, invErr := p.repos.Inventory.FindByUserID(ctx, user.ID); invErr == nil {
		hasRareTool = inventory.HasRareTool()
	}

	speed := p.scorer.SpeedMultiplier(event.TimeTaken, level.ExpectedTime)
	penalty := p.scorer.HintPenalty(event.HintsUsed)
	combo := p.scorer.ComboMultiplier(user.LoginStreak.Count, hasRareTool)
	finalCoins := p.scorer.FinalCoins(level.CoinsRewarded, speed, penalty, combo)

	switch {
	case user.Level == event.LevelID:
		// 正常推进
		user.Level++
		user.Coins += finalCoins
		user.XP += p.scorer.XPForLevel(event.LevelID)

		messages := []string{fmt.Sprintf("Level %d complete! +%d coins", event.LevelID, finalCoins)}

		if user.XP > p.cfg.Reward.SeasonedXPThreshold && !user.HasAchievement(models.AchievementSeasoned) {
			user.Achievements = append(user.Achievements, models.AchievementSeasoned)
			messages = append(messages, "Achievement unlocked: seasoned")
		}

		if p.random() < p.cfg.Reward.BonusItemChance {
			if err := p.grantTool(ctx, user.ID, p.cfg.Reward.BonusItemName, models.RarityRare); err != nil {
				return nil, err
			}
			messages = append(messages, fmt.Sprintf("Bonus item: %s", p.cfg.Reward.BonusItemName))
		}

		if err := p.recordSubmission(ctx, user.ID, event, models.SubmissionAnswerAuto, true); err != nil {
			return nil, err
		}
		if err := p.repos.User.Update(ctx, user); err != nil {
			return nil, err
		}
		return newOutcome(true, messages...), nil

	case user.Level > event.LevelID:
		// 回头重做已过关卡，只给折扣奖励
		legacyCoins := int64(math.Floor(float64(finalCoins) * p.cfg.Reward.LegacyBonusRate))
		user.Coins += legacyCoins
		if err := p.repos.User.Update(ctx, user); err != nil {
			return nil, err
		}
		return newOutcome(true, fmt.Sprintf("Replay bonus: +%d coins", legacyCoins)), nil

	default:
		// 越级挑战需要跳关权限
		if !user.HasPermission(models.PermSkipAny) {
			return newOutcome(false, msgLevelLocked), nil
		}
		skipCoins := int64(math.Floor(float64(finalCoins) * p.cfg.Reward.SkipBonusRate))
		user.Level = event.LevelID + 1
		user.Coins += skipCoins
		if err := p.repos.User.Update(ctx, user); err != nil {
			return nil, err
		}
		return newOutcome(true, fmt.Sprintf("Level %d skipped to! +%d coins", event.LevelID, skipCoins)), nil
	}
}

// handlePurchaseAttempt 购买事件
// 支付顺序: 金币 -> 宝石 -> 赊账（需allow_loan权限）。
func (p *Processor) handlePurchaseAttempt(ctx context.Context, user *models.User, event *Event) (*Outcome, error) {
	item, err := p.repos.StoreItem.FindByItemID(ctx, event.ItemID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrItemNotFound) {
			return newOutcome(false, msgItemNotFound), nil
		}
		return nil, err
	}

	var payMessage string
	switch {
	case user.Coins >= item.Cost:
		user.Coins -= item.Cost
		payMessage = fmt.Sprintf("Purchased %s for %d coins", item.Name, item.Cost)
	case item.GemCost > 0 && user.Gems >= item.GemCost:
		user.Gems -= item.GemCost
		payMessage = fmt.Sprintf("Purchased %s for %d gems", item.Name, item.GemCost)
	case user.HasPermission(models.PermAllowLoan):
		user.Debt += item.Cost - user.Coins
		user.Coins = 0
		payMessage = fmt.Sprintf("Purchased %s on credit", item.Name)
	default:
		return newOutcome(false, msgInsufficientFunds), nil
	}

	if err := p.grantTool(ctx, user.ID, item.Name, item.Rarity); err != nil {
		return nil, err
	}
	if err := p.repos.User.Update(ctx, user); err != nil {
		return nil, err
	}
	return newOutcome(true, payMessage), nil
}

// handleDailyLogin 每日签到事件
func (p *Processor) handleDailyLogin(ctx context.Context, user *models.User) (*Outcome, error) {
	now := p.now()
	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")

	if user.LoginStreak.LastDate == today {
		return newOutcome(false, msgAlreadyClaimed), nil
	}

	if user.LoginStreak.LastDate == yesterday {
		user.LoginStreak.Count++
	} else {
		user.LoginStreak.Count = 1
	}
	user.LoginStreak.LastDate = today

	var coins int64
	var message string
	if user.HasFlag(models.FlagVIP) {
		if p.random() < p.cfg.Reward.VIPJackpotChance {
			coins = p.cfg.Reward.VIPJackpotCoins
			message = fmt.Sprintf("Daily jackpot! +%d coins", coins)
		} else {
			coins = p.cfg.Reward.VIPDailyCoins
			message = fmt.Sprintf("Daily reward: +%d coins", coins)
		}
	} else {
		switch {
		case user.LoginStreak.Count >= p.cfg.Reward.StreakTier2Days:
			coins = p.cfg.Reward.DailyTier2Coins
		case user.LoginStreak.Count >= p.cfg.Reward.StreakTier1Days:
			coins = p.cfg.Reward.DailyTier1Coins
		default:
			coins = p.cfg.Reward.DailyBaseCoins
		}
		message = fmt.Sprintf("Daily reward: +%d coins", coins)
	}
	user.Coins += coins

	if err := p.repos.User.Update(ctx, user); err != nil {
		return nil, err
	}
	return newOutcome(true, message, fmt.Sprintf("Login streak: %d", user.LoginStreak.Count)), nil
}

// handleSpecialEvent 特殊活动事件
func (p *Processor) handleSpecialEvent(ctx context.Context, user *models.User, event *Event) (*Outcome, error) {
	if event.EventKey != eventKeySpringFestival {
		return newOutcome(false, msgUnknownEventKey), nil
	}

	// 高经验玩家抽高级奖池
	var pool []PrizeOption
	if user.XP > p.cfg.Reward.FestivalXPThreshold {
		pool = []PrizeOption{
			{Weight: 80, Name: "Bronze Lantern", Coins: 20},
			{Weight: 20, Name: "Silver Lantern", Coins: 80},
		}
	} else {
		pool = []PrizeOption{
			{Weight: 70, Name: "Candy", Coins: 2},
			{Weight: 30, Name: "Sticker", Coins: 5},
		}
	}

	p.randMu.Lock()
	prize := WeightedChoice(pool, p.rng)
	p.randMu.Unlock()
	if prize == nil {
		return newOutcome(false, msgUnknownEventKey), nil
	}

	user.Coins += prize.Coins
	if err := p.repos.User.Update(ctx, user); err != nil {
		return nil, err
	}
	return newOutcome(true, fmt.Sprintf("Festival prize: %s (+%d coins)", prize.Name, prize.Coins)), nil
}

// grantTool 往背包追加道具，背包不存在时惰性创建
func (p *Processor) grantTool(ctx context.Context, userID uint, name, rarity string) error {
	inventory, err := p.repos.Inventory.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	inventory.AddTool(name, rarity)
	return p.repos.Inventory.Update(ctx, inventory)
}

// recordSubmission 追加答题记录
func (p *Processor) recordSubmission(ctx context.Context, userID uint, event *Event, answer string, correct bool) error {
	return p.repos.Submission.Create(ctx, &models.Submission{
		UserID:          userID,
		LevelID:         event.LevelID,
		RoundID:         uuid.New().String(),
		SubmittedAnswer: answer,
		IsCorrect:       correct,
		TimeTaken:       event.TimeTaken,
		HintsUsed:       event.HintsUsed,
		SubmittedAt:     p.now(),
	})
}
