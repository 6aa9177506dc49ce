package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/physics-game/internal/middleware"
	"github.com/wfunc/physics-game/internal/service"
)

// ShopHandler 商店处理器
type ShopHandler struct {
	shopService service.ShopService
}

// NewShopHandler 创建商店处理器
func NewShopHandler(shopService service.ShopService) *ShopHandler {
	return &ShopHandler{
		shopService: shopService,
	}
}

// ListItems 商品列表
// @Summary 商品列表
// @Tags Shop
// @Success 200 {object} SuccessResponse
// @Router /api/v1/shop/items [get]
func (h *ShopHandler) ListItems(c *gin.Context) {
	items, err := h.shopService.ListItems(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: items})
}

// Buy 购买道具
// @Summary 购买道具
// @Description 金币不足时尝试宝石支付，有贷款权限的玩家可透支
// @Tags Shop
// @Security Bearer
// @Accept json
// @Produce json
// @Success 200 {object} game.Outcome
// @Failure 429 {object} ErrorResponse
// @Router /api/v1/shop/buy [post]
func (h *ShopHandler) Buy(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		ItemID string `json:"item_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	outcome, err := h.shopService.Buy(c.Request.Context(), userID, req.ItemID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// Sell 回售道具
// @Summary 回售道具
// @Description 退还一半购买价
// @Tags Shop
// @Security Bearer
// @Accept json
// @Produce json
// @Success 200 {object} service.SellResult
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/shop/sell [post]
func (h *ShopHandler) Sell(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		ItemID string `json:"item_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	result, err := h.shopService.Sell(c.Request.Context(), userID, req.ItemID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetInventory 查看背包
// @Summary 背包
// @Tags Shop
// @Security Bearer
// @Success 200 {object} SuccessResponse
// @Router /api/v1/shop/inventory [get]
func (h *ShopHandler) GetInventory(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	inventory, err := h.shopService.GetInventory(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: inventory})
}
