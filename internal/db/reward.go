package db

import "time"

// PendingReward 为任务完成后待领取的奖励
// (UserID, ID) 复合主键，保证同一奖励只入队一次
type PendingReward struct {
	ID        string `gorm:"primaryKey;size:128"`
	UserID    uint   `gorm:"primaryKey;index"`
	Label     string
	Gold      int    `gorm:"not null;default:0"`
	XP        int    `gorm:"not null;default:0"`
	Source    string `gorm:"size:32"`
	CreatedAt time.Time
}

// InventoryItem 记录领取奖励或商店购买得到的物品
// Source: quest/shop/custom
type InventoryItem struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	Name      string `gorm:"not null"`
	Source    string `gorm:"size:16;not null"`
	GoldValue int
	Cost      int
	CreatedAt time.Time
}
