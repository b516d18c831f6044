package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/questify/internal/clock"
	"github.com/questify/internal/db"
	"github.com/questify/internal/economy"
	"github.com/questify/internal/events"
	"github.com/questify/internal/lock"
	"github.com/questify/internal/logger"
	"github.com/questify/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RolloverOutcome 描述一次结算的结果
type RolloverOutcome string

const (
	RolloverApplied RolloverOutcome = "applied"
	RolloverSkipped RolloverOutcome = "skipped"
	RolloverBusy    RolloverOutcome = "busy"

	defaultRolloverLockTTL = 30 * time.Second
)

// RolloverService 负责每日结算：惩罚未完成的 Daily 并重置其完成状态
// last_rollover 水位保证同一天只结算一次
type RolloverService struct {
	db        *gorm.DB
	ledger    *LedgerService
	locker    lock.Locker
	clock     clock.Clock
	location  *time.Location
	lockTTL   time.Duration
	publisher events.Publisher
	logger    *zap.Logger
}

// RolloverOptions 为可选依赖，零值使用进程内锁、系统时钟与本地时区
type RolloverOptions struct {
	Locker    lock.Locker
	Clock     clock.Clock
	Location  *time.Location
	LockTTL   time.Duration
	Publisher events.Publisher
	Logger    *zap.Logger
}

// RolloverResult 为单个用户的结算结果
type RolloverResult struct {
	UserID    uint            `json:"user_id"`
	Outcome   RolloverOutcome `json:"outcome"`
	Date      string          `json:"date"`
	Penalized []string        `json:"penalized"`
	Reset     int64           `json:"reset"`
	Penalty   economy.Delta   `json:"penalty"`
	Economy   *EconomyView    `json:"-"`
}

// RolloverSummary 汇总 RunAll 的结果
type RolloverSummary struct {
	Applied int
	Skipped int
	Busy    int
	Failed  int
}

// NewRolloverService 构造 RolloverService
func NewRolloverService(gdb *gorm.DB, ledger *LedgerService, opts RolloverOptions) *RolloverService {
	svc := &RolloverService{
		db:        gdb,
		ledger:    ledger,
		locker:    opts.Locker,
		clock:     opts.Clock,
		location:  opts.Location,
		lockTTL:   opts.LockTTL,
		publisher: opts.Publisher,
		logger:    logger.OrNop(opts.Logger),
	}
	if svc.locker == nil {
		svc.locker = lock.NewLocal()
	}
	if svc.clock == nil {
		svc.clock = clock.Real{}
	}
	if svc.location == nil {
		svc.location = time.Local
	}
	if svc.lockTTL <= 0 {
		svc.lockTTL = defaultRolloverLockTTL
	}
	if svc.publisher == nil {
		svc.publisher = events.Nop{}
	}
	return svc
}

// Today 返回配置时区下的当前日期
func (s *RolloverService) Today() string {
	return clock.Today(s.clock, s.location)
}

// Run 对单个用户执行结算；当天已结算或有结算在进行中时为空操作
func (s *RolloverService) Run(ctx context.Context, userID uint) (*RolloverResult, error) {
	today := s.Today()
	result := &RolloverResult{UserID: userID, Date: today, Penalized: []string{}}

	var user db.User
	if err := s.db.WithContext(ctx).Select("id", "last_rollover").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load rollover watermark: %w", err)
	}
	if user.LastRollover == today {
		result.Outcome = RolloverSkipped
		metrics.IncrementRolloverRun(string(RolloverSkipped))
		return result, nil
	}

	release, ok := s.locker.TryLock(ctx, fmt.Sprintf("rollover:%d", userID), s.lockTTL)
	if !ok {
		result.Outcome = RolloverBusy
		metrics.IncrementRolloverRun(string(RolloverBusy))
		return result, nil
	}
	defer release()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 条件推进水位：并发结算只有一方能生效
		res := tx.Model(&db.User{}).
			Where("id = ? AND (last_rollover IS NULL OR last_rollover <> ?)", userID, today).
			Update("last_rollover", today)
		if res.Error != nil {
			return fmt.Errorf("advance rollover watermark: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			result.Outcome = RolloverSkipped
			return nil
		}

		var dailies []db.Task
		if err := tx.Where("user_id = ? AND type = ? AND done = ?", userID, string(economy.TypeDaily), false).
			Order("position ASC").
			Find(&dailies).Error; err != nil {
			return fmt.Errorf("list missed dailies: %w", err)
		}

		for i := range dailies {
			penalty := economy.PenaltyDelta(dailies[i])
			if _, err := s.ledger.ApplyDeltaTx(tx, userID, penalty, DeltaOptions{Reason: ReasonRolloverPenalty}); err != nil {
				return err
			}
			result.Penalty = result.Penalty.Add(penalty)
			result.Penalized = append(result.Penalized, dailies[i].ID)
		}

		reset := tx.Model(&db.Task{}).
			Where("user_id = ? AND type = ?", userID, string(economy.TypeDaily)).
			Update("done", false)
		if reset.Error != nil {
			return fmt.Errorf("reset dailies: %w", reset.Error)
		}
		result.Reset = reset.RowsAffected

		view, err := loadEconomy(tx, userID)
		if err != nil {
			return err
		}
		result.Economy = view
		result.Outcome = RolloverApplied
		return nil
	})
	if err != nil {
		metrics.IncrementRolloverRun("failed")
		s.logger.Error("rollover failed", zap.Uint("user_id", userID), zap.String("date", today), zap.Error(err))
		return nil, err
	}

	metrics.IncrementRolloverRun(string(result.Outcome))
	if result.Outcome == RolloverApplied {
		metrics.AddRolloverPenalties(len(result.Penalized))
		s.logger.Info("rollover applied",
			zap.Uint("user_id", userID),
			zap.String("date", today),
			zap.Int("penalized", len(result.Penalized)),
			zap.Int64("reset", result.Reset),
		)
		if err := s.publisher.Publish(events.RolloverCompleted, result); err != nil {
			s.logger.Warn("publish event failed", zap.String("routing_key", events.RolloverCompleted), zap.Error(err))
		}
	}
	return result, nil
}

// AdvanceWatermark 供 PATCH /users/:id/rollover 使用，结算并推进水位到今天
func (s *RolloverService) AdvanceWatermark(ctx context.Context, userID uint) (*RolloverResult, error) {
	return s.Run(ctx, userID)
}

// RunAll 依次结算所有用户，单个用户失败只记录不中断
func (s *RolloverService) RunAll(ctx context.Context) (RolloverSummary, error) {
	var summary RolloverSummary

	var ids []uint
	if err := s.db.WithContext(ctx).Model(&db.User{}).
		Where("last_rollover IS NULL OR last_rollover <> ?", s.Today()).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return summary, fmt.Errorf("list users for rollover: %w", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		result, err := s.Run(ctx, id)
		if err != nil {
			summary.Failed++
			continue
		}
		switch result.Outcome {
		case RolloverApplied:
			summary.Applied++
		case RolloverBusy:
			summary.Busy++
		default:
			summary.Skipped++
		}
	}
	return summary, nil
}

// RolloverScheduler 定时触发 RunAll
type RolloverScheduler struct {
	svc      *RolloverService
	interval time.Duration
	logger   *zap.Logger
}

// NewRolloverScheduler 构造调度器，interval<=0 时使用 60s
func NewRolloverScheduler(svc *RolloverService, interval time.Duration, log *zap.Logger) *RolloverScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &RolloverScheduler{svc: svc, interval: interval, logger: logger.OrNop(log)}
}

// Start 立即执行一次，之后按间隔执行，直到 ctx 取消
func (s *RolloverScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("rollover scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *RolloverScheduler) tick(ctx context.Context) {
	summary, err := s.svc.RunAll(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("rollover sweep failed", zap.Error(err))
		return
	}
	if summary.Applied > 0 || summary.Failed > 0 {
		s.logger.Info("rollover sweep finished",
			zap.Int("applied", summary.Applied),
			zap.Int("skipped", summary.Skipped),
			zap.Int("busy", summary.Busy),
			zap.Int("failed", summary.Failed),
		)
	}
}
