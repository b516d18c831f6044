package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/questify/internal/config"
	"github.com/questify/internal/db"
	"github.com/questify/internal/events"
	"github.com/questify/internal/handler"
	"github.com/questify/internal/lock"
	"github.com/questify/internal/logger"
	"github.com/questify/internal/router"
	"github.com/questify/internal/service"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.GinMode)
	defer log.Sync()
	gin.SetMode(cfg.GinMode)

	log.Info("Starting questify...",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.String("database_path", cfg.DatabasePath),
		zap.String("timezone", cfg.Location().String()),
	)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// 结算锁：进程内标记 + 可选 Redis
	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisAddr != "" {
		rdb := lock.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rdb.Close()
		locker = lock.Chain{locker, lock.NewRedis(rdb, log)}
		log.Info("Redis rollover lock enabled", zap.String("redis_addr", cfg.RedisAddr))
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.MQURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.MQURL)
		if err != nil {
			log.Warn("Event publisher unavailable, continuing without events", zap.Error(err))
		} else {
			defer amqpPublisher.Close()
			publisher = amqpPublisher
			log.Info("Event publisher connected", zap.String("exchange", events.ExchangeName))
		}
	}

	api := handler.NewAPI(db.DB, handler.Options{
		Logger:          log,
		Publisher:       publisher,
		Locker:          locker,
		Location:        cfg.Location(),
		RolloverLockTTL: cfg.RolloverLockTTL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := api.Quests().EnsureStarterQuest(ctx); err != nil {
		log.Fatal("Failed to seed starter quest", zap.Error(err))
	}

	scheduler := service.NewRolloverScheduler(api.Rollover(), cfg.RolloverInterval, log)
	go scheduler.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.SetupRouter(api, router.Options{MetricsPath: cfg.MetricsPath, Logger: log}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down questify...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Server stopped")
}
