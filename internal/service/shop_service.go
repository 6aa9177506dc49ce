package service

import (
	"context"

	apperrors "github.com/wfunc/physics-game/internal/errors"
	"github.com/wfunc/physics-game/internal/game"
	"github.com/wfunc/physics-game/internal/models"
	"github.com/wfunc/physics-game/internal/repository"
	"go.uber.org/zap"
)

// 回售价为购买价的一半，向下取整
const sellRefundRate = 0.5

// shopService 商店服务实现
// 购买走事件引擎（限流、锁、贷款逻辑都在引擎里），回售是引擎外的直接流程，
// 但仍借用引擎的用户锁与事件处理串行化。
type shopService struct {
	repos     *repository.Manager
	processor *game.Processor
	log       *zap.Logger
}

// NewShopService 创建商店服务
func NewShopService(repos *repository.Manager, processor *game.Processor, log *zap.Logger) ShopService {
	return &shopService{
		repos:     repos,
		processor: processor,
		log:       log,
	}
}

// ListItems 商品列表
func (s *shopService) ListItems(ctx context.Context) ([]*models.StoreItem, error) {
	items, err := s.repos.StoreItem.GetAll(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return items, nil
}

// Buy 购买道具
func (s *shopService) Buy(ctx context.Context, userID uint, itemID string) (*game.Outcome, error) {
	return s.processor.Process(ctx, &game.Event{
		Type:   game.EventPurchaseAttempt,
		UserID: userID,
		ItemID: itemID,
	})
}

// Sell 回售道具，退还一半购买价
func (s *shopService) Sell(ctx context.Context, userID uint, itemID string) (*SellResult, error) {
	item, err := s.repos.StoreItem.FindByItemID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	var result *SellResult
	err = s.processor.WithUserLock(userID, func() error {
		user, err := s.repos.User.FindByID(ctx, userID)
		if err != nil {
			return err
		}

		inventory, err := s.repos.Inventory.FindByUserID(ctx, userID)
		if err != nil {
			return apperrors.New(apperrors.ErrItemNotOwned)
		}
		if !inventory.RemoveTool(item.Name) {
			return apperrors.New(apperrors.ErrItemNotOwned)
		}

		refund := int64(float64(item.Cost) * sellRefundRate)
		user.Coins += refund

		if err := s.repos.Transaction(func(tx *repository.Manager) error {
			if err := tx.Inventory.Update(ctx, inventory); err != nil {
				return err
			}
			return tx.User.Update(ctx, user)
		}); err != nil {
			return apperrors.Wrap(err, apperrors.ErrTransaction)
		}

		result = &SellResult{
			ItemID: itemID,
			Refund: refund,
			Coins:  user.Coins,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("道具回售成功",
		zap.Uint("user_id", userID),
		zap.String("item_id", itemID),
		zap.Int64("refund", result.Refund),
	)
	return result, nil
}

// GetInventory 获取玩家背包
func (s *shopService) GetInventory(ctx context.Context, userID uint) (*models.Inventory, error) {
	return s.repos.Inventory.GetOrCreate(ctx, userID)
}
