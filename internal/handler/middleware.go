package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/questify/internal/service"
	"go.uber.org/zap"
)

// RolloverOnRequest 在用户路由上先行执行当日结算，失败只记录不阻断请求
func (a *API) RolloverOnRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := parseUintParam(c, "id")
		if err != nil {
			c.Next()
			return
		}

		result, err := a.rollover.Run(c.Request.Context(), userID)
		switch {
		case err == nil:
			c.Set(rolloverContextKey, result)
		case errors.Is(err, service.ErrUserNotFound):
		default:
			a.logger.Warn("request rollover failed", zap.Uint("user_id", userID), zap.Error(err))
		}
		c.Next()
	}
}
