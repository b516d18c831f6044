package db

import (
	"errors"
	"strings"
	"time"

	"github.com/questify/internal/economy"
	"gorm.io/gorm"
)

// User 定义了冒险者模型，经济字段直接存放在用户行上
// XP 为当前等级内的经验，越过 XPMax 时由账本写入升级
// LastRollover 为每日结算水位，格式 2006-01-02，空值表示从未结算
type User struct {
	ID           uint `gorm:"primaryKey"`
	DisplayName  string
	Email        string `gorm:"uniqueIndex;not null"`
	Gold         int    `gorm:"not null;default:0"`
	XP           int    `gorm:"not null;default:0"`
	XPMax        int    `gorm:"not null;default:100"`
	Level        int    `gorm:"not null;default:1"`
	Strength     int    `gorm:"not null;default:0"`
	Dexterity    int    `gorm:"not null;default:0"`
	Intelligence int    `gorm:"not null;default:0"`
	Wisdom       int    `gorm:"not null;default:0"`
	Charisma     int    `gorm:"not null;default:0"`
	LastRollover string `gorm:"size:10"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Record 将用户行转换为经济记录
func (u User) Record() economy.Record {
	return economy.Record{
		Gold:         u.Gold,
		XP:           u.XP,
		XPMax:        u.XPMax,
		Level:        u.Level,
		Strength:     u.Strength,
		Dexterity:    u.Dexterity,
		Intelligence: u.Intelligence,
		Wisdom:       u.Wisdom,
		Charisma:     u.Charisma,
	}
}

// EnsureUser 按邮箱查找冒险者，不存在则以初始等级创建；created 表示本次新建
func EnsureUser(gdb *gorm.DB, displayName, email string) (user *User, created bool, err error) {
	trimmedEmail := strings.ToLower(strings.TrimSpace(email))
	if trimmedEmail == "" {
		return nil, false, errors.New("email is required")
	}
	if gdb == nil {
		return nil, false, errors.New("database not initialized")
	}

	var existing User
	if err := gdb.Where("email = ?", trimmedEmail).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}

		name := strings.TrimSpace(displayName)
		if name == "" {
			name = "New Adventurer"
		}
		fresh := User{DisplayName: name, Email: trimmedEmail, XPMax: economy.BaseXPMax, Level: 1}
		if err := gdb.Create(&fresh).Error; err != nil {
			return nil, false, err
		}
		return &fresh, true, nil
	}

	return &existing, false, nil
}
