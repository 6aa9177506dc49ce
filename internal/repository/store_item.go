package repository

import (
	"context"

	apperrors "github.com/wfunc/physics-game/internal/errors"
	"github.com/wfunc/physics-game/internal/models"
	"gorm.io/gorm"
)

// StoreItemRepository 商店商品仓储接口
type StoreItemRepository interface {
	BaseRepository
	Create(ctx context.Context, item *models.StoreItem) error
	FindByItemID(ctx context.Context, itemID string) (*models.StoreItem, error)
	FindByName(ctx context.Context, name string) (*models.StoreItem, error)
	GetAll(ctx context.Context) ([]*models.StoreItem, error)
}

// storeItemRepo 商店商品仓储实现
type storeItemRepo struct {
	*BaseRepo
}

// NewStoreItemRepository 创建商店商品仓储
func NewStoreItemRepository(db *gorm.DB) StoreItemRepository {
	return &storeItemRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建商品
func (r *storeItemRepo) Create(ctx context.Context, item *models.StoreItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// FindByItemID 根据商品ID查找
func (r *storeItemRepo) FindByItemID(ctx context.Context, itemID string) (*models.StoreItem, error) {
	var item models.StoreItem
	err := r.db.WithContext(ctx).Where("item_id = ?", itemID).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.ErrItemNotFound, "itemId="+itemID)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return &item, nil
}

// FindByName 根据商品名称查找
func (r *storeItemRepo) FindByName(ctx context.Context, name string) (*models.StoreItem, error) {
	var item models.StoreItem
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.ErrItemNotFound, "name="+name)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return &item, nil
}

// GetAll 获取所有商品
func (r *storeItemRepo) GetAll(ctx context.Context) ([]*models.StoreItem, error) {
	var items []*models.StoreItem
	err := r.db.WithContext(ctx).Order("cost ASC").Find(&items).Error
	return items, err
}

// WithTx 使用事务
func (r *storeItemRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &storeItemRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
