package repository

import (
	"context"

	"github.com/wfunc/physics-game/internal/models"
	"gorm.io/gorm"
)

// SubmissionRepository 答题记录仓储接口
type SubmissionRepository interface {
	BaseRepository
	Create(ctx context.Context, submission *models.Submission) error
	CorrectExists(ctx context.Context, userID uint, levelID int) (bool, error)
	ListByUser(ctx context.Context, userID uint, pagination *Pagination) ([]*models.Submission, error)
	ListByUserAndLevel(ctx context.Context, userID uint, levelID int) ([]*models.Submission, error)
	CountCorrectByUser(ctx context.Context, userID uint) (int64, error)
}

// submissionRepo 答题记录仓储实现
type submissionRepo struct {
	*BaseRepo
}

// NewSubmissionRepository 创建答题记录仓储
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 追加答题记录
func (r *submissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

// CorrectExists 是否已有该关卡的正确提交
func (r *submissionRepo) CorrectExists(ctx context.Context, userID uint, levelID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("user_id = ? AND level_id = ? AND is_correct = ?", userID, levelID, true).
		Count(&count).Error
	return count > 0, err
}

// ListByUser 查询用户的答题记录（分页）
func (r *submissionRepo) ListByUser(ctx context.Context, userID uint, pagination *Pagination) ([]*models.Submission, error) {
	var submissions []*models.Submission
	query := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("user_id = ?", userID)

	var total int64
	query.Count(&total)
	pagination.Total = total

	err := query.
		Scopes(Paginate(pagination)).
		Order("submitted_at DESC").
		Find(&submissions).Error
	return submissions, err
}

// ListByUserAndLevel 查询用户在指定关卡的答题记录
func (r *submissionRepo) ListByUserAndLevel(ctx context.Context, userID uint, levelID int) ([]*models.Submission, error) {
	var submissions []*models.Submission
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND level_id = ?", userID, levelID).
		Order("submitted_at ASC").
		Find(&submissions).Error
	return submissions, err
}

// CountCorrectByUser 统计用户的正确提交数
func (r *submissionRepo) CountCorrectByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("user_id = ? AND is_correct = ?", userID, true).
		Count(&count).Error
	return count, err
}

// WithTx 使用事务
func (r *submissionRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &submissionRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
