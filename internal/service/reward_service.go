package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/questify/internal/db"
	"github.com/questify/internal/economy"
	"github.com/questify/internal/events"
	"github.com/questify/internal/logger"
	"github.com/questify/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultRewardItemName = "Completed Habit"

// RewardService 管理待领取奖励队列
// 领取时删除队列行、入账并生成背包物品，三者同一事务
type RewardService struct {
	db        *gorm.DB
	ledger    *LedgerService
	publisher events.Publisher
	logger    *zap.Logger
}

// PendingRewardInput 定义手动入队奖励的字段
type PendingRewardInput struct {
	ID     string
	Label  string
	Gold   int
	XP     int
	Source string
}

// ClaimResult 为领取结果；Claimed 为空表示没有可领取的奖励
type ClaimResult struct {
	Claimed []db.PendingReward
	Items   []db.InventoryItem
	Economy EconomyView
}

// RewardEvent 是领取奖励事件的载荷
type RewardEvent struct {
	UserID  uint               `json:"user_id"`
	Rewards []db.PendingReward `json:"rewards"`
	Delta   economy.Delta      `json:"delta"`
}

// NewRewardService 构造 RewardService
func NewRewardService(gdb *gorm.DB, ledger *LedgerService, publisher events.Publisher, log *zap.Logger) *RewardService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &RewardService{db: gdb, ledger: ledger, publisher: publisher, logger: logger.OrNop(log)}
}

// List 返回用户待领取奖励
func (s *RewardService) List(ctx context.Context, userID uint) ([]db.PendingReward, error) {
	gdb := s.db.WithContext(ctx)
	if err := ensureUserExists(gdb, userID); err != nil {
		return nil, err
	}

	var rewards []db.PendingReward
	if err := gdb.
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&rewards).Error; err != nil {
		return nil, fmt.Errorf("list pending rewards: %w", err)
	}
	return rewards, nil
}

// Add 入队奖励；同一 ID 已存在时保持原记录，created=false
func (s *RewardService) Add(ctx context.Context, userID uint, input PendingRewardInput) (*db.PendingReward, bool, error) {
	if input.Gold < 0 || input.XP < 0 {
		return nil, false, fmt.Errorf("%w: rewards must not be negative", ErrInvalidInput)
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}
	source := strings.TrimSpace(input.Source)
	if source == "" {
		source = rewardSourceQuest
	}

	reward := db.PendingReward{
		ID:     id,
		UserID: userID,
		Label:  sanitizeTitle(input.Label),
		Gold:   input.Gold,
		XP:     input.XP,
		Source: source,
	}

	var (
		stored  db.PendingReward
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUserExists(tx, userID); err != nil {
			return err
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&reward)
		if res.Error != nil {
			return fmt.Errorf("enqueue pending reward: %w", res.Error)
		}
		created = res.RowsAffected > 0
		if err := tx.Where("user_id = ? AND id = ?", userID, id).First(&stored).Error; err != nil {
			return fmt.Errorf("load pending reward: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &stored, created, nil
}

// Discard 丢弃单个奖励，返回是否删除了记录
func (s *RewardService) Discard(ctx context.Context, userID uint, rewardID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, strings.TrimSpace(rewardID)).
		Delete(&db.PendingReward{})
	if res.Error != nil {
		return false, fmt.Errorf("discard pending reward: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DiscardAll 清空用户奖励队列
func (s *RewardService) DiscardAll(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&db.PendingReward{})
	if res.Error != nil {
		return 0, fmt.Errorf("discard pending rewards: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Claim 领取单个奖励；重复领取为空操作
func (s *RewardService) Claim(ctx context.Context, userID uint, rewardID string) (*ClaimResult, error) {
	id := strings.TrimSpace(rewardID)
	return s.claim(ctx, userID, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ? AND id = ?", userID, id)
	})
}

// ClaimAll 领取全部奖励
func (s *RewardService) ClaimAll(ctx context.Context, userID uint) (*ClaimResult, error) {
	return s.claim(ctx, userID, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ?", userID)
	})
}

func (s *RewardService) claim(ctx context.Context, userID uint, scope func(*gorm.DB) *gorm.DB) (*ClaimResult, error) {
	result := &ClaimResult{Claimed: []db.PendingReward{}, Items: []db.InventoryItem{}}
	var total economy.Delta

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rewards []db.PendingReward
		if err := scope(tx).Order("created_at ASC, id ASC").Find(&rewards).Error; err != nil {
			return fmt.Errorf("list pending rewards: %w", err)
		}

		for _, reward := range rewards {
			// 删除成功者才入账，保证每条奖励只领取一次
			res := tx.Where("user_id = ? AND id = ?", userID, reward.ID).Delete(&db.PendingReward{})
			if res.Error != nil {
				return fmt.Errorf("claim pending reward: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				continue
			}

			// 领取只入账金币，奖励上的 xp 仅作展示
			delta := economy.Delta{Gold: reward.Gold}
			if _, err := s.ledger.ApplyDeltaTx(tx, userID, delta, DeltaOptions{Reason: ReasonRewardClaim}); err != nil {
				return err
			}

			name := strings.TrimSpace(reward.Label)
			if name == "" || name == untitled {
				name = defaultRewardItemName
			}
			item := db.InventoryItem{
				UserID:    userID,
				Name:      name,
				Source:    rewardSourceQuest,
				GoldValue: reward.Gold,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("add inventory item: %w", err)
			}

			total = total.Add(delta)
			result.Claimed = append(result.Claimed, reward)
			result.Items = append(result.Items, item)
		}

		view, err := loadEconomy(tx, userID)
		if err != nil {
			return err
		}
		result.Economy = *view
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.logger.Error("claim rewards failed", zap.Uint("user_id", userID), zap.Error(err))
		}
		return nil, err
	}

	if n := len(result.Claimed); n > 0 {
		metrics.IncrementRewardClaimed(n)
		if err := s.publisher.Publish(events.RewardClaimed, RewardEvent{UserID: userID, Rewards: result.Claimed, Delta: total}); err != nil {
			s.logger.Warn("publish event failed", zap.String("routing_key", events.RewardClaimed), zap.Error(err))
		}
	}
	return result, nil
}

// Inventory 返回用户背包，最新在前
func (s *RewardService) Inventory(ctx context.Context, userID uint) ([]db.InventoryItem, error) {
	return listInventory(s.db.WithContext(ctx), userID)
}

// listInventory 对未知用户返回 ErrUserNotFound，而非空背包
func listInventory(tx *gorm.DB, userID uint) ([]db.InventoryItem, error) {
	if err := ensureUserExists(tx, userID); err != nil {
		return nil, err
	}

	var items []db.InventoryItem
	if err := tx.Where("user_id = ?", userID).Order("id DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return items, nil
}
