package repository

import (
	"context"
	"fmt"

	apperrors "github.com/wfunc/physics-game/internal/errors"
	"github.com/wfunc/physics-game/internal/models"
	"gorm.io/gorm"
)

// LevelRepository 关卡仓储接口
type LevelRepository interface {
	BaseRepository
	Create(ctx context.Context, level *models.Level) error
	Update(ctx context.Context, level *models.Level) error
	FindByLevelID(ctx context.Context, levelID int) (*models.Level, error)
	ListUpTo(ctx context.Context, maxLevelID int) ([]*models.Level, error)
	GetAll(ctx context.Context) ([]*models.Level, error)
	Count(ctx context.Context) (int64, error)
}

// levelRepo 关卡仓储实现
type levelRepo struct {
	*BaseRepo
}

// NewLevelRepository 创建关卡仓储
func NewLevelRepository(db *gorm.DB) LevelRepository {
	return &levelRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建关卡
func (r *levelRepo) Create(ctx context.Context, level *models.Level) error {
	return r.db.WithContext(ctx).Create(level).Error
}

// Update 更新关卡
func (r *levelRepo) Update(ctx context.Context, level *models.Level) error {
	return r.db.WithContext(ctx).Save(level).Error
}

// FindByLevelID 根据关卡号查找
func (r *levelRepo) FindByLevelID(ctx context.Context, levelID int) (*models.Level, error) {
	var level models.Level
	err := r.db.WithContext(ctx).Where("level_id = ?", levelID).First(&level).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.ErrLevelNotFound, fmt.Sprintf("levelId=%d", levelID))
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return &level, nil
}

// ListUpTo 列出已解锁的关卡（关卡号不超过maxLevelID）
func (r *levelRepo) ListUpTo(ctx context.Context, maxLevelID int) ([]*models.Level, error) {
	var levels []*models.Level
	err := r.db.WithContext(ctx).
		Where("level_id <= ?", maxLevelID).
		Order("level_id ASC").
		Find(&levels).Error
	return levels, err
}

// GetAll 获取所有关卡
func (r *levelRepo) GetAll(ctx context.Context) ([]*models.Level, error) {
	var levels []*models.Level
	err := r.db.WithContext(ctx).Order("level_id ASC").Find(&levels).Error
	return levels, err
}

// Count 关卡总数
func (r *levelRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Level{}).Count(&count).Error
	return count, err
}

// WithTx 使用事务
func (r *levelRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &levelRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
