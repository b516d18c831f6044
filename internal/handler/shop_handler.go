package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type customPurchasePayload struct {
	Name string `json:"name"`
	Cost int    `json:"cost"`
}

// ListShop 返回商品目录
func (a *API) ListShop(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": a.shop.Catalog()})
}

// BuyItem 购买目录商品
func (a *API) BuyItem(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	result, err := a.shop.Buy(c.Request.Context(), userID, c.Param("itemId"))
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"item":    inventoryItemToPayload(result.Item),
		"economy": economyToPayload(result.Economy),
	})
}

// BuyCustom 购买自定义奖励
func (a *API) BuyCustom(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var payload customPurchasePayload
	if !bindJSON(c, &payload, "invalid purchase payload") {
		return
	}

	result, err := a.shop.BuyCustom(c.Request.Context(), userID, payload.Name, payload.Cost)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"item":    inventoryItemToPayload(result.Item),
		"economy": economyToPayload(result.Economy),
	})
}

// ListInventory 返回背包
func (a *API) ListInventory(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	items, err := a.shop.Inventory(c.Request.Context(), userID)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": mapPayloads(items, inventoryItemToPayload)})
}
