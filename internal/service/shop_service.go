package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/questify/internal/db"
	"github.com/questify/internal/economy"
	"github.com/questify/internal/events"
	"github.com/questify/internal/logger"
	"github.com/questify/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	shopSourceCatalog = "shop"
	shopSourceCustom  = "custom"

	maxCustomCost = 100000
)

// ShopItem 是公会大厅的商品
type ShopItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
}

var defaultShopItems = []ShopItem{
	{ID: "potion-small", Name: "Small Potion", Description: "Restores a little focus.", Cost: 20},
	{ID: "potion-large", Name: "Large Potion", Description: "Restores a lot of focus.", Cost: 40},
	{ID: "focus-scroll", Name: "Focus Scroll", Description: "One distraction-free session.", Cost: 35},
	{ID: "guild-banner", Name: "Guild Banner", Description: "Hang it in the Hall of Habits.", Cost: 60},
}

// ShopService 负责金币消费，扣款与入库同一事务
type ShopService struct {
	db        *gorm.DB
	ledger    *LedgerService
	publisher events.Publisher
	logger    *zap.Logger
	items     []ShopItem
}

// PurchaseResult 为一次购买结果
type PurchaseResult struct {
	Item    db.InventoryItem
	Economy EconomyView
}

// PurchaseEvent 是购买事件的载荷
type PurchaseEvent struct {
	UserID uint   `json:"user_id"`
	ItemID string `json:"item_id,omitempty"`
	Name   string `json:"name"`
	Cost   int    `json:"cost"`
	Source string `json:"source"`
}

// NewShopService 构造 ShopService，使用内置商品目录
func NewShopService(gdb *gorm.DB, ledger *LedgerService, publisher events.Publisher, log *zap.Logger) *ShopService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &ShopService{
		db:        gdb,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger.OrNop(log),
		items:     defaultShopItems,
	}
}

// Catalog 返回商品目录副本
func (s *ShopService) Catalog() []ShopItem {
	return append([]ShopItem(nil), s.items...)
}

func (s *ShopService) find(itemID string) (ShopItem, bool) {
	id := strings.ToLower(strings.TrimSpace(itemID))
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return ShopItem{}, false
}

// Buy 购买目录商品
func (s *ShopService) Buy(ctx context.Context, userID uint, itemID string) (*PurchaseResult, error) {
	item, ok := s.find(itemID)
	if !ok {
		return nil, ErrShopItemNotFound
	}
	return s.purchase(ctx, userID, PurchaseEvent{UserID: userID, ItemID: item.ID, Name: item.Name, Cost: item.Cost, Source: shopSourceCatalog})
}

// BuyCustom 购买用户自定义奖励
func (s *ShopService) BuyCustom(ctx context.Context, userID uint, name string, cost int) (*PurchaseResult, error) {
	cleaned := sanitizePlain(name)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if cost < 0 || cost > maxCustomCost {
		return nil, fmt.Errorf("%w: cost must be between 0 and %d", ErrInvalidInput, maxCustomCost)
	}
	return s.purchase(ctx, userID, PurchaseEvent{UserID: userID, Name: cleaned, Cost: cost, Source: shopSourceCustom})
}

func (s *ShopService) purchase(ctx context.Context, userID uint, order PurchaseEvent) (*PurchaseResult, error) {
	var result PurchaseResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user db.User
		if err := tx.Select("id", "gold").First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("load user gold: %w", err)
		}
		if user.Gold < order.Cost {
			return ErrInsufficientGold
		}

		applied, err := s.ledger.ApplyDeltaTx(tx, userID, economy.Delta{Gold: -order.Cost}, DeltaOptions{Reason: ReasonShop})
		if err != nil {
			return err
		}

		item := db.InventoryItem{
			UserID: userID,
			Name:   order.Name,
			Source: order.Source,
			Cost:   order.Cost,
		}
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("add inventory item: %w", err)
		}

		result = PurchaseResult{Item: item, Economy: applied.Economy}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncrementShopPurchase(order.Source)
	if err := s.publisher.Publish(events.ShopPurchased, order); err != nil {
		s.logger.Warn("publish event failed", zap.String("routing_key", events.ShopPurchased), zap.Error(err))
	}
	return &result, nil
}

// Inventory 返回用户背包
func (s *ShopService) Inventory(ctx context.Context, userID uint) ([]db.InventoryItem, error) {
	return listInventory(s.db.WithContext(ctx), userID)
}
