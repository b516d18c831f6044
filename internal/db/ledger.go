package db

import (
	"time"

	"github.com/questify/internal/economy"
)

// LedgerEntry 是经济变动的追加日志
// IdempotencyKey 可为空；非空时 UserID + IdempotencyKey 唯一，重放同一 key 不会重复入账
type LedgerEntry struct {
	ID                uint    `gorm:"primaryKey"`
	UserID            uint    `gorm:"index;uniqueIndex:idx_ledger_idempotency;not null"`
	IdempotencyKey    *string `gorm:"size:128;uniqueIndex:idx_ledger_idempotency"`
	Reason            string  `gorm:"size:64"`
	XPDelta           int
	GoldDelta         int
	StrengthDelta     int
	DexterityDelta    int
	IntelligenceDelta int
	WisdomDelta       int
	CharismaDelta     int
	CreatedAt         time.Time
}

// TableName 固定表名
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// Delta 还原本条记录的变动
func (e LedgerEntry) Delta() economy.Delta {
	return economy.Delta{
		XP:           e.XPDelta,
		Gold:         e.GoldDelta,
		Strength:     e.StrengthDelta,
		Dexterity:    e.DexterityDelta,
		Intelligence: e.IntelligenceDelta,
		Wisdom:       e.WisdomDelta,
		Charisma:     e.CharismaDelta,
	}
}

// NewLedgerEntry 按变动构造日志行
func NewLedgerEntry(userID uint, reason string, d economy.Delta) LedgerEntry {
	return LedgerEntry{
		UserID:            userID,
		Reason:            reason,
		XPDelta:           d.XP,
		GoldDelta:         d.Gold,
		StrengthDelta:     d.Strength,
		DexterityDelta:    d.Dexterity,
		IntelligenceDelta: d.Intelligence,
		WisdomDelta:       d.Wisdom,
		CharismaDelta:     d.Charisma,
	}
}
