package game

import (
	"math"
	"math/rand"

	"github.com/wfunc/physics-game/internal/config"
	"github.com/wfunc/physics-game/internal/models"
)

// Scorer 奖励计算器，全部系数来自配置
type Scorer struct {
	cfg config.RewardConfig
}

// NewScorer 创建奖励计算器
func NewScorer(cfg config.RewardConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// RewardMultiplier 计算综合奖励倍率
// 难度基数 x 连续登录档位 x 活动加成 x 身份加成，最终夹在 [multiplier_min, multiplier_max] 区间。
// VIP与早期支持者可叠加，内测玩家加成仅在非VIP时生效。
func (s *Scorer) RewardMultiplier(difficulty string, streakCount int, bonusActive bool, flags models.StringList) float64 {
	m := s.cfg.DifficultyEasyMultiplier
	switch difficulty {
	case "medium":
		m = s.cfg.DifficultyMediumMultiplier
	case "hard":
		m = s.cfg.DifficultyHardMultiplier
	}

	// 连续登录取满足条件的最高档
	switch {
	case streakCount >= s.cfg.StreakTier3Days:
		m *= s.cfg.StreakTier3Multiplier
	case streakCount >= s.cfg.StreakTier2Days:
		m *= s.cfg.StreakTier2Multiplier
	case streakCount >= s.cfg.StreakTier1Days:
		m *= s.cfg.StreakTier1Multiplier
	}

	if bonusActive {
		m *= s.cfg.BonusEventMultiplier
	}

	if flags.Contains(models.FlagVIP) {
		m *= s.cfg.VIPMultiplier
		if flags.Contains(models.FlagEarlySupporter) {
			m *= s.cfg.EarlySupporterMultiplier
		}
	} else if flags.Contains(models.FlagBetaTester) {
		m *= s.cfg.BetaTesterMultiplier
	}

	if m < s.cfg.MultiplierMin {
		m = s.cfg.MultiplierMin
	}
	if m > s.cfg.MultiplierMax {
		m = s.cfg.MultiplierMax
	}
	return m
}

// XPForLevel 通过第n关获得的经验值: floor(xp_base * xp_growth^n + n * xp_per_level)
func (s *Scorer) XPForLevel(n int) int64 {
	return int64(math.Floor(s.cfg.XPBase*math.Pow(s.cfg.XPGrowth, float64(n)) + float64(n)*s.cfg.XPPerLevel))
}

// SpeedMultiplier 按用时计算速度倍率
func (s *Scorer) SpeedMultiplier(timeTaken, expectedTime float64) float64 {
	switch {
	case timeTaken <= expectedTime:
		return s.cfg.SpeedFastMultiplier
	case timeTaken <= 2*expectedTime:
		return s.cfg.SpeedNormalMultiplier
	default:
		return s.cfg.SpeedSlowMultiplier
	}
}

// HintPenalty 提示惩罚系数，夹在 [0, hint_penalty_max]
func (s *Scorer) HintPenalty(hintsUsed int) float64 {
	penalty := float64(hintsUsed) * s.cfg.HintPenaltyStep
	if penalty < 0 {
		penalty = 0
	}
	if penalty > s.cfg.HintPenaltyMax {
		penalty = s.cfg.HintPenaltyMax
	}
	return penalty
}

// ComboMultiplier 连击倍率：连续登录达标与持有稀有道具各自叠加
func (s *Scorer) ComboMultiplier(streakCount int, hasRareTool bool) float64 {
	combo := 1.0
	if streakCount >= s.cfg.ComboStreakThreshold {
		combo += s.cfg.ComboStreakBonus
	}
	if hasRareTool {
		combo += s.cfg.ComboRareBonus
	}
	return combo
}

// FinalCoins 通关金币结算: floor(base * speed * (1 - penalty) * combo)
func (s *Scorer) FinalCoins(baseCoins int64, speed, penalty, combo float64) int64 {
	return int64(math.Floor(float64(baseCoins) * speed * (1 - penalty) * combo))
}

// WeightedChoice 加权随机选取，空列表返回nil
// 在 [0, 权重和) 内均匀取值，按顺序扣减权重，余量归零即命中。
func WeightedChoice(options []PrizeOption, rng *rand.Rand) *PrizeOption {
	if len(options) == 0 {
		return nil
	}

	total := 0.0
	for _, option := range options {
		total += option.Weight
	}

	r := rng.Float64() * total
	for i := range options {
		r -= options[i].Weight
		if r <= 0 {
			return &options[i]
		}
	}
	return &options[len(options)-1]
}
