package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/questify/internal/handler"
	"github.com/questify/internal/logger"
	"github.com/questify/internal/metrics"
	"go.uber.org/zap"
)

// Options 为路由可选配置
type Options struct {
	MetricsPath string
	Logger      *zap.Logger
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	log := logger.OrNop(opts.Logger)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log), requestMetrics())

	metricsPath := strings.TrimSpace(opts.MetricsPath)
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	r.GET(metricsPath, gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		apiGroup.GET("/users", api.ListUsers)
		apiGroup.POST("/users", api.CreateUser)

		// 用户路由先执行当日结算
		user := apiGroup.Group("/users/:id", api.RolloverOnRequest())
		{
			user.GET("", api.GetUser)

			user.GET("/tasks", api.ListTasks)
			user.POST("/tasks", api.CreateTask)
			user.GET("/tasks/:taskId", api.GetTask)
			user.PUT("/tasks/:taskId", api.ReplaceTask)
			user.PATCH("/tasks/:taskId", api.PatchTask)
			user.DELETE("/tasks/:taskId", api.DeleteTask)
			user.POST("/tasks/:taskId/toggle", api.ToggleTask)
			user.POST("/tasks/:taskId/pomodoro", api.CompletePomodoro)

			user.GET("/economy", api.GetEconomy)
			user.PATCH("/economy", api.PatchEconomy)
			user.GET("/economy/ledger", api.ListLedger)
			user.PATCH("/rollover", api.RunRollover)

			user.GET("/quests", api.ListUserQuests)
			user.POST("/quests", api.AssignQuest)
			user.PATCH("/quests/:userQuestId", api.UpdateUserQuest)
			user.DELETE("/quests/:userQuestId", api.DeleteUserQuest)

			user.POST("/shop/custom", api.BuyCustom)
			user.POST("/shop/:itemId", api.BuyItem)
			user.GET("/inventory", api.ListInventory)
		}

		apiGroup.GET("/quests", api.ListQuests)
		apiGroup.POST("/quests", api.CreateQuest)
		apiGroup.GET("/quests/:id", api.GetQuest)

		// 待领取奖励：:id 为用户 ID
		pr := apiGroup.Group("/quests/:id/pr")
		{
			pr.GET("", api.ListPendingRewards)
			pr.POST("", api.AddPendingReward)
			pr.DELETE("", api.DiscardPendingRewards)
			pr.POST("/claim", api.ClaimAllPendingRewards)
			pr.DELETE("/:prId", api.DiscardPendingReward)
			pr.POST("/:prId/claim", api.ClaimPendingReward)
		}

		apiGroup.GET("/shop", api.ListShop)
	}

	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
