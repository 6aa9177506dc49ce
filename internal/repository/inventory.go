package repository

import (
	"context"

	apperrors "github.com/wfunc/physics-game/internal/errors"
	"github.com/wfunc/physics-game/internal/models"
	"gorm.io/gorm"
)

// InventoryRepository 背包仓储接口
type InventoryRepository interface {
	BaseRepository
	GetOrCreate(ctx context.Context, userID uint) (*models.Inventory, error)
	FindByUserID(ctx context.Context, userID uint) (*models.Inventory, error)
	Update(ctx context.Context, inventory *models.Inventory) error
}

// inventoryRepo 背包仓储实现
type inventoryRepo struct {
	*BaseRepo
}

// NewInventoryRepository 创建背包仓储
func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// GetOrCreate 获取背包，不存在则惰性创建空背包
func (r *inventoryRepo) GetOrCreate(ctx context.Context, userID uint) (*models.Inventory, error) {
	var inventory models.Inventory
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&inventory).Error
	if err == nil {
		return &inventory, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	inventory = models.Inventory{
		UserID: userID,
		Tools:  models.ToolList{},
	}
	if err := r.db.WithContext(ctx).Create(&inventory).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
	}
	return &inventory, nil
}

// FindByUserID 根据用户ID查找背包
func (r *inventoryRepo) FindByUserID(ctx context.Context, userID uint) (*models.Inventory, error) {
	var inventory models.Inventory
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&inventory).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.ErrNotFound, "背包不存在")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return &inventory, nil
}

// Update 更新背包
func (r *inventoryRepo) Update(ctx context.Context, inventory *models.Inventory) error {
	return r.db.WithContext(ctx).Save(inventory).Error
}

// WithTx 使用事务
func (r *inventoryRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &inventoryRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
