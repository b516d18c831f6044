package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/questify/internal/economy"
	"github.com/questify/internal/service"
)

const (
	idempotencyHeader  = "Idempotency-Key"
	rolloverContextKey = "__rollover_result"
)

type economyDeltaPayload struct {
	economy.Delta
	Reason string `json:"reason"`
}

// GetEconomy 返回经济记录（含等级投影）
func (a *API) GetEconomy(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	view, err := a.ledger.GetEconomy(c.Request.Context(), userID)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"economy": economyToPayload(*view)})
}

// PatchEconomy 应用带符号的增量，支持 Idempotency-Key 去重
func (a *API) PatchEconomy(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var payload economyDeltaPayload
	if !bindJSON(c, &payload, "invalid economy delta") {
		return
	}

	result, err := a.ledger.ApplyDelta(c.Request.Context(), userID, payload.Delta, service.DeltaOptions{
		Reason:         payload.Reason,
		IdempotencyKey: c.GetHeader(idempotencyHeader),
	})
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"economy":  economyToPayload(result.Economy),
		"replayed": result.Replayed,
	})
}

// ListLedger 返回经济日志
func (a *API) ListLedger(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	entries, err := a.ledger.ListEntries(c.Request.Context(), userID, limit)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": mapPayloads(entries, ledgerEntryToPayload)})
}

// RunRollover 执行每日结算并推进水位
// 若中间件在本请求中已完成结算，直接返回其结果
func (a *API) RunRollover(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	result, cached := rolloverFromContext(c)
	if !cached || result.Outcome != service.RolloverApplied {
		var err error
		result, err = a.rollover.AdvanceWatermark(c.Request.Context(), userID)
		if err != nil {
			a.handleServiceError(c, err)
			return
		}
	}

	payload := gin.H{
		"outcome":   result.Outcome,
		"date":      result.Date,
		"penalized": result.Penalized,
		"reset":     result.Reset,
		"penalty":   result.Penalty,
	}
	if result.Economy != nil {
		payload["economy"] = economyToPayload(*result.Economy)
	} else if view, err := a.ledger.GetEconomy(c.Request.Context(), userID); err == nil {
		payload["economy"] = economyToPayload(*view)
	}
	c.JSON(http.StatusOK, payload)
}

func rolloverFromContext(c *gin.Context) (*service.RolloverResult, bool) {
	value, exists := c.Get(rolloverContextKey)
	if !exists {
		return nil, false
	}
	result, ok := value.(*service.RolloverResult)
	return result, ok && result != nil
}
