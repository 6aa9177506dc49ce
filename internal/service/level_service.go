package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/wfunc/physics-game/internal/errors"
	"github.com/wfunc/physics-game/internal/game"
	"github.com/wfunc/physics-game/internal/models"
	"github.com/wfunc/physics-game/internal/repository"
	"go.uber.org/zap"
)

// levelService 关卡服务实现
// 答案判定在这里完成，判定通过后才把 complete_level 事件交给引擎结算。
type levelService struct {
	repos     *repository.Manager
	processor *game.Processor
	log       *zap.Logger
}

// NewLevelService 创建关卡服务
func NewLevelService(repos *repository.Manager, processor *game.Processor, log *zap.Logger) LevelService {
	return &levelService{
		repos:     repos,
		processor: processor,
		log:       log,
	}
}

// ListLevels 关卡列表，按玩家进度标记解锁与完成状态
func (s *levelService) ListLevels(ctx context.Context, userID uint) ([]*LevelView, error) {
	user, err := s.repos.User.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	levels, err := s.repos.Level.GetAll(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	views := make([]*LevelView, 0, len(levels))
	for _, l := range levels {
		views = append(views, &LevelView{
			LevelID:       l.LevelID,
			Title:         l.Title,
			Difficulty:    l.Difficulty,
			CoinsRewarded: l.CoinsRewarded,
			ExpectedTime:  l.ExpectedTime,
			Unlocked:      l.LevelID <= user.Level,
			Completed:     l.LevelID < user.Level,
		})
	}
	return views, nil
}

// GetLevel 关卡详情，未解锁的关卡不可见
func (s *levelService) GetLevel(ctx context.Context, userID uint, levelID int) (*LevelDetail, error) {
	user, err := s.repos.User.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	level, err := s.repos.Level.FindByLevelID(ctx, levelID)
	if err != nil {
		return nil, err
	}

	if level.LevelID > user.Level && !user.HasPermission(models.PermSkipAny) {
		return nil, apperrors.New(apperrors.ErrLevelLocked)
	}

	return &LevelDetail{
		LevelID:       level.LevelID,
		Title:         level.Title,
		Question:      level.Question,
		Hints:         level.Hints,
		Difficulty:    level.Difficulty,
		CoinsRewarded: level.CoinsRewarded,
		ExpectedTime:  level.ExpectedTime,
	}, nil
}

// SubmitAnswer 提交答案
// 答错只记录提交，答对后通过事件引擎发放奖励并推进进度。
func (s *levelService) SubmitAnswer(ctx context.Context, userID uint, req *SubmitRequest) (*SubmitResult, error) {
	level, err := s.repos.Level.FindByLevelID(ctx, req.LevelID)
	if err != nil {
		return nil, err
	}

	if !answerMatches(req.Answer, level.CorrectAnswer) {
		submission := &models.Submission{
			UserID:          userID,
			LevelID:         req.LevelID,
			RoundID:         uuid.New().String(),
			SubmittedAnswer: req.Answer,
			IsCorrect:       false,
			TimeTaken:       req.TimeTaken,
			HintsUsed:       req.HintsUsed,
			SubmittedAt:     time.Now(),
		}
		if err := s.repos.Submission.Create(ctx, submission); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
		}
		s.log.Debug("答案错误",
			zap.Uint("user_id", userID),
			zap.Int("level_id", req.LevelID),
		)
		return &SubmitResult{
			Correct:  false,
			Messages: []string{"Incorrect answer. Try again!"},
		}, nil
	}

	outcome, err := s.processor.Process(ctx, &game.Event{
		Type:      game.EventCompleteLevel,
		UserID:    userID,
		LevelID:   req.LevelID,
		TimeTaken: req.TimeTaken,
		HintsUsed: req.HintsUsed,
	})
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{
		Correct:  true,
		Messages: outcome.Messages,
	}
	if outcome.Changed {
		result.Explanation = level.Explanation
	}
	return result, nil
}

// ListSubmissions 玩家答题历史（分页）
func (s *levelService) ListSubmissions(ctx context.Context, userID uint, page, pageSize int) ([]*models.Submission, int64, error) {
	pagination := &repository.Pagination{Page: page, PageSize: pageSize}
	submissions, err := s.repos.Submission.ListByUser(ctx, userID, pagination)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return submissions, pagination.Total, nil
}

// answerMatches 答案比对，忽略首尾空白和大小写
func answerMatches(submitted, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct))
}
