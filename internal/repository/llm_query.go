package repository

import (
	"context"

	"github.com/wfunc/physics-game/internal/models"
	"gorm.io/gorm"
)

// LLMQueryRepository LLM问答记录仓储接口
type LLMQueryRepository interface {
	BaseRepository
	Create(ctx context.Context, query *models.LLMQuery) error
	ListByUser(ctx context.Context, userID uint, pagination *Pagination) ([]*models.LLMQuery, error)
	CountFallbacks(ctx context.Context) (int64, error)
}

// llmQueryRepo LLM问答记录仓储实现
type llmQueryRepo struct {
	*BaseRepo
}

// NewLLMQueryRepository 创建LLM问答记录仓储
func NewLLMQueryRepository(db *gorm.DB) LLMQueryRepository {
	return &llmQueryRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 追加问答记录
func (r *llmQueryRepo) Create(ctx context.Context, query *models.LLMQuery) error {
	return r.db.WithContext(ctx).Create(query).Error
}

// ListByUser 查询用户的问答记录（分页）
func (r *llmQueryRepo) ListByUser(ctx context.Context, userID uint, pagination *Pagination) ([]*models.LLMQuery, error) {
	var queries []*models.LLMQuery
	query := r.db.WithContext(ctx).
		Model(&models.LLMQuery{}).
		Where("user_id = ?", userID)

	var total int64
	query.Count(&total)
	pagination.Total = total

	err := query.
		Scopes(Paginate(pagination)).
		Order("created_at DESC").
		Find(&queries).Error
	return queries, err
}

// CountFallbacks 统计兜底回答次数
func (r *llmQueryRepo) CountFallbacks(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LLMQuery{}).
		Where("fallback = ?", true).
		Count(&count).Error
	return count, err
}

// WithTx 使用事务
func (r *llmQueryRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &llmQueryRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
