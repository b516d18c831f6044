package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/questify/internal/service"
	"go.uber.org/zap"
)

const dateFormat = "2006-01-02"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// userIDParam 解析路径中的用户 ID，失败时已写入 400
func userIDParam(c *gin.Context) (uint, bool) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

// parseDueAt 接受 RFC3339 或 YYYY-MM-DD，空字符串返回 nil
func parseDueAt(raw string) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(dateFormat, trimmed, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid due_at")
	}
	return &t, nil
}

func (a *API) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrTaskNotFound):
		respondError(c, http.StatusNotFound, "task not found")
	case errors.Is(err, service.ErrQuestNotFound):
		respondError(c, http.StatusNotFound, "quest not found")
	case errors.Is(err, service.ErrUserQuestNotFound):
		respondError(c, http.StatusNotFound, "user quest not found")
	case errors.Is(err, service.ErrShopItemNotFound):
		respondError(c, http.StatusNotFound, "shop item not found")
	case errors.Is(err, service.ErrUserExists):
		respondError(c, http.StatusConflict, "user already exists")
	case errors.Is(err, service.ErrTaskExists):
		respondError(c, http.StatusConflict, "task already exists")
	case errors.Is(err, service.ErrQuestExists):
		respondError(c, http.StatusConflict, "quest already exists")
	case errors.Is(err, service.ErrInsufficientGold):
		respondError(c, http.StatusConflict, "insufficient gold")
	default:
		a.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}
