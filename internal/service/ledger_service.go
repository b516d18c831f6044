package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/questify/internal/db"
	"github.com/questify/internal/economy"
	"github.com/questify/internal/logger"
	"github.com/questify/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ReasonManual          = "manual"
	ReasonTaskComplete    = "task_complete"
	ReasonTaskRevoke      = "task_revoke"
	ReasonRolloverPenalty = "rollover_penalty"
	ReasonPomodoro        = "pomodoro"
	ReasonRewardClaim     = "reward_claim"
	ReasonShop            = "shop"

	defaultLedgerLimit = 50
	maxLedgerLimit     = 500
)

// LedgerService 负责经济记录的带符号增量写入
// 每次写入都会夹紧到 0 并追加一条 LedgerEntry
type LedgerService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// EconomyView 是经济记录及其等级进度
type EconomyView struct {
	UserID       uint
	Record       economy.Record
	Progress     economy.Progress
	LastRollover string
}

// DeltaOptions 描述一次变动的来源与幂等键
type DeltaOptions struct {
	Reason         string
	IdempotencyKey string
}

// ApplyResult 为 ApplyDelta 的结果；Replayed 表示幂等键已处理过，本次未入账
type ApplyResult struct {
	Economy  EconomyView
	Replayed bool
}

// NewLedgerService 构造 LedgerService
func NewLedgerService(gdb *gorm.DB, log *zap.Logger) *LedgerService {
	return &LedgerService{db: gdb, logger: logger.OrNop(log)}
}

// ApplyDelta 在独立事务中应用变动
func (s *LedgerService) ApplyDelta(ctx context.Context, userID uint, delta economy.Delta, opts DeltaOptions) (*ApplyResult, error) {
	var result *ApplyResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.ApplyDeltaTx(tx, userID, delta, opts)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.logger.Error("apply economy delta failed",
				zap.Uint("user_id", userID),
				zap.String("reason", opts.Reason),
				zap.Error(err),
			)
		}
		return nil, err
	}
	return result, nil
}

// ApplyDeltaTx 在调用方事务中应用变动，供任务、结算、领奖等流程组合使用
func (s *LedgerService) ApplyDeltaTx(tx *gorm.DB, userID uint, delta economy.Delta, opts DeltaOptions) (*ApplyResult, error) {
	reason := strings.TrimSpace(opts.Reason)
	if reason == "" {
		reason = ReasonManual
	}
	key := strings.TrimSpace(opts.IdempotencyKey)

	if key != "" {
		var existing db.LedgerEntry
		err := tx.Where("user_id = ? AND idempotency_key = ?", userID, key).First(&existing).Error
		if err == nil {
			view, err := loadEconomy(tx, userID)
			if err != nil {
				return nil, err
			}
			return &ApplyResult{Economy: *view, Replayed: true}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find ledger entry: %w", err)
		}
	}

	// 原子自增并夹紧，避免读改写丢失并发变动
	res := tx.Model(&db.User{}).Where("id = ?", userID).Updates(map[string]any{
		"xp":           gorm.Expr("MAX(0, xp + ?)", delta.XP),
		"gold":         gorm.Expr("MAX(0, gold + ?)", delta.Gold),
		"strength":     gorm.Expr("MAX(0, strength + ?)", delta.Strength),
		"dexterity":    gorm.Expr("MAX(0, dexterity + ?)", delta.Dexterity),
		"intelligence": gorm.Expr("MAX(0, intelligence + ?)", delta.Intelligence),
		"wisdom":       gorm.Expr("MAX(0, wisdom + ?)", delta.Wisdom),
		"charisma":     gorm.Expr("MAX(0, charisma + ?)", delta.Charisma),
	})
	if res.Error != nil {
		return nil, fmt.Errorf("update economy: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	entry := db.NewLedgerEntry(userID, reason, delta)
	if key != "" {
		entry.IdempotencyKey = &key
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}

	view, err := settleLevel(tx, userID)
	if err != nil {
		return nil, err
	}

	metrics.IncrementLedgerDelta(reason)
	return &ApplyResult{Economy: *view}, nil
}

// GetEconomy 读取经济记录与等级进度
func (s *LedgerService) GetEconomy(ctx context.Context, userID uint) (*EconomyView, error) {
	return loadEconomy(s.db.WithContext(ctx), userID)
}

// ListEntries 按时间倒序返回经济日志
func (s *LedgerService) ListEntries(ctx context.Context, userID uint, limit int) ([]db.LedgerEntry, error) {
	if limit <= 0 {
		limit = defaultLedgerLimit
	}
	if limit > maxLedgerLimit {
		limit = maxLedgerLimit
	}

	var entries []db.LedgerEntry
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return entries, nil
}

func loadEconomy(tx *gorm.DB, userID uint) (*EconomyView, error) {
	var user db.User
	if err := tx.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load economy: %w", err)
	}
	view := economyView(user)
	return &view, nil
}

// settleLevel 把越过阈值的经验折算为升级并落库；之后的扣罚只在当前等级内夹紧到 0
func settleLevel(tx *gorm.DB, userID uint) (*EconomyView, error) {
	var user db.User
	if err := tx.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load economy: %w", err)
	}

	leveled := economy.LevelUp(user.Record())
	if leveled.Level != user.Level || leveled.XP != user.XP || leveled.XPMax != user.XPMax {
		if err := tx.Model(&db.User{}).Where("id = ?", userID).Updates(map[string]any{
			"level":  leveled.Level,
			"xp":     leveled.XP,
			"xp_max": leveled.XPMax,
		}).Error; err != nil {
			return nil, fmt.Errorf("persist level: %w", err)
		}
		user.Level, user.XP, user.XPMax = leveled.Level, leveled.XP, leveled.XPMax
	}

	view := economyView(user)
	return &view, nil
}

func economyView(user db.User) EconomyView {
	record := user.Record()
	return EconomyView{
		UserID:       user.ID,
		Record:       record,
		Progress:     record.Progress(),
		LastRollover: user.LastRollover,
	}
}
