package service

import (
	"context"

	apperrors "github.com/wfunc/physics-game/internal/errors"
	"github.com/wfunc/physics-game/internal/game"
	"github.com/wfunc/physics-game/internal/models"
	"github.com/wfunc/physics-game/internal/repository"
	"go.uber.org/zap"
)

const defaultLeaderboardSize = 10

// statsService 统计服务实现
type statsService struct {
	repos     *repository.Manager
	processor *game.Processor
	log       *zap.Logger
}

// NewStatsService 创建统计服务
func NewStatsService(repos *repository.Manager, processor *game.Processor, log *zap.Logger) StatsService {
	return &statsService{
		repos:     repos,
		processor: processor,
		log:       log,
	}
}

// Leaderboard 金币排行榜
func (s *statsService) Leaderboard(ctx context.Context, limit int) ([]*LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultLeaderboardSize
	}

	users, err := s.repos.User.TopByCoins(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	entries := make([]*LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, &LeaderboardEntry{
			Rank:     i + 1,
			UserID:   u.ID,
			Username: u.Username,
			Nickname: u.Nickname,
			Level:    u.Level,
			Coins:    u.Coins,
		})
	}
	return entries, nil
}

// PlayerStats 玩家统计，含当前状态下各难度的奖励倍率预览
func (s *statsService) PlayerStats(ctx context.Context, userID uint) (*PlayerStats, error) {
	user, err := s.repos.User.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	correct, err := s.repos.Submission.CountCorrectByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	var tools models.ToolList
	if inventory, err := s.repos.Inventory.FindByUserID(ctx, userID); err == nil {
		tools = inventory.Tools
	}

	scorer := s.processor.Scorer()
	bonusActive := s.processor.BonusActive()
	multipliers := make(map[string]float64, 3)
	for _, difficulty := range []string{"easy", "medium", "hard"} {
		multipliers[difficulty] = scorer.RewardMultiplier(
			difficulty, user.LoginStreak.Count, bonusActive, user.Flags)
	}

	return &PlayerStats{
		UserID:             user.ID,
		Username:           user.Username,
		Level:              user.Level,
		Coins:              user.Coins,
		Gems:               user.Gems,
		XP:                 user.XP,
		Debt:               user.Debt,
		LoginStreak:        user.LoginStreak.Count,
		CorrectSubmissions: correct,
		Achievements:       user.Achievements,
		Tools:              tools,
		RewardMultipliers:  multipliers,
		BonusActive:        bonusActive,
	}, nil
}
