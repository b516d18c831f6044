package db

import "time"

// StarterQuestID 为默认的新手任务
const StarterQuestID = "starter-quest-first-habit"

// Quest 定义了中心化维护的任务模板
// Description 支持 Markdown，读取时渲染为安全 HTML
type Quest struct {
	ID                string `gorm:"primaryKey;size:128"`
	Label             string `gorm:"not null"`
	Description       string `gorm:"type:text"`
	RewardXP          int    `gorm:"not null;default:0"`
	RewardGold        int    `gorm:"not null;default:0"`
	CompletionMessage string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// UserQuest 记录任务分配给用户后的完成状态
// UserID + QuestID 唯一，重复分配返回已有记录
type UserQuest struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index;uniqueIndex:idx_user_quest_unique;not null"`
	QuestID     string `gorm:"size:128;uniqueIndex:idx_user_quest_unique;not null"`
	Quest       Quest  `gorm:"foreignKey:QuestID;constraint:OnDelete:CASCADE"`
	IsDone      bool   `gorm:"not null;default:false"`
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName 固定表名
func (UserQuest) TableName() string {
	return "user_quests"
}

// StarterQuest 返回内置新手任务定义
func StarterQuest() Quest {
	return Quest{
		ID:                StarterQuestID,
		Label:             "Starter Quest: Complete your first habit",
		Description:       "Check off **any** habit on your board to defend the Hall of Habits.",
		RewardXP:          10,
		RewardGold:        5,
		CompletionMessage: "You defended the Hall of Habits. The smog retreats… for now.",
	}
}
