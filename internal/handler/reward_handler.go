package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/questify/internal/service"
)

type pendingRewardPayload struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Gold  int    `json:"gold"`
	XP    int    `json:"xp"`
}

// 奖励接口沿用 /quests/:id/pr 路径，:id 为用户 ID

// ListPendingRewards 返回待领取奖励
func (a *API) ListPendingRewards(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	rewards, err := a.rewards.List(c.Request.Context(), userID)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewards": mapPayloads(rewards, pendingRewardToPayload)})
}

// AddPendingReward 入队奖励，同 ID 重复入队不生效
func (a *API) AddPendingReward(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var payload pendingRewardPayload
	if !bindJSON(c, &payload, "invalid reward payload") {
		return
	}

	reward, created, err := a.rewards.Add(c.Request.Context(), userID, service.PendingRewardInput{
		ID:    payload.ID,
		Label: payload.Label,
		Gold:  payload.Gold,
		XP:    payload.XP,
	})
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"reward": pendingRewardToPayload(*reward), "created": created})
}

// DiscardPendingReward 丢弃单个奖励
func (a *API) DiscardPendingReward(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	removed, err := a.rewards.Discard(c.Request.Context(), userID, c.Param("prId"))
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": removed})
}

// DiscardPendingRewards 清空奖励队列
func (a *API) DiscardPendingRewards(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	n, err := a.rewards.DiscardAll(c.Request.Context(), userID)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// ClaimPendingReward 领取单个奖励
func (a *API) ClaimPendingReward(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	result, err := a.rewards.Claim(c.Request.Context(), userID, c.Param("prId"))
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, claimToPayload(result))
}

// ClaimAllPendingRewards 领取全部奖励
func (a *API) ClaimAllPendingRewards(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	result, err := a.rewards.ClaimAll(c.Request.Context(), userID)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, claimToPayload(result))
}

func claimToPayload(result *service.ClaimResult) gin.H {
	return gin.H{
		"claimed": len(result.Claimed) > 0,
		"rewards": mapPayloads(result.Claimed, pendingRewardToPayload),
		"items":   mapPayloads(result.Items, inventoryItemToPayload),
		"economy": economyToPayload(result.Economy),
	}
}
