package db

import (
	"time"

	"github.com/questify/internal/economy"
)

// Task 定义了任务模型（Habit/Daily/To-Do）
// Type/Category/Difficulty 写入前已规范化为固定枚举
// Position 记录插入顺序，List 按其排序
// (ID, UserID) 复合主键，任务 ID 只需在用户内唯一
type Task struct {
	ID           string `gorm:"primaryKey;size:64"`
	UserID       uint   `gorm:"primaryKey;index"`
	Title        string `gorm:"not null"`
	Type         string `gorm:"size:16;index;not null"`
	Category     string `gorm:"size:8;not null"`
	Difficulty   string `gorm:"size:16;not null"`
	DueAt        *time.Time
	Done         bool `gorm:"not null;default:false"`
	PomsDone     int  `gorm:"not null;default:0"`
	PomsEstimate int  `gorm:"not null;default:0"`
	Position     int  `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RewardDifficulty 实现 economy.Subject
func (t Task) RewardDifficulty() economy.Difficulty {
	return economy.ParseDifficulty(t.Difficulty)
}

// RewardCategory 实现 economy.Subject
func (t Task) RewardCategory() economy.Category {
	return economy.ParseCategory(t.Category)
}
