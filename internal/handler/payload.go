package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/questify/internal/db"
	"github.com/questify/internal/service"
)

func formatTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}

func userToPayload(user db.User) gin.H {
	return gin.H{
		"id":           user.ID,
		"display_name": user.DisplayName,
		"email":        user.Email,
		"created_at":   user.CreatedAt.Format(time.RFC3339),
	}
}

func taskToPayload(task db.Task) gin.H {
	return gin.H{
		"id":            task.ID,
		"title":         task.Title,
		"type":          task.Type,
		"category":      task.Category,
		"difficulty":    task.Difficulty,
		"due_at":        formatTime(task.DueAt),
		"done":          task.Done,
		"poms_done":     task.PomsDone,
		"poms_estimate": task.PomsEstimate,
		"position":      task.Position,
		"created_at":    task.CreatedAt.Format(time.RFC3339),
		"updated_at":    task.UpdatedAt.Format(time.RFC3339),
	}
}

// economyToPayload 中 xp 为当前等级内的经验
func economyToPayload(view service.EconomyView) gin.H {
	return gin.H{
		"user_id":       view.UserID,
		"gold":          view.Record.Gold,
		"xp":            view.Progress.XP,
		"xp_max":        view.Progress.XPMax,
		"level":         view.Progress.Level,
		"strength":      view.Record.Strength,
		"dexterity":     view.Record.Dexterity,
		"intelligence":  view.Record.Intelligence,
		"wisdom":        view.Record.Wisdom,
		"charisma":      view.Record.Charisma,
		"last_rollover": view.LastRollover,
	}
}

func ledgerEntryToPayload(entry db.LedgerEntry) gin.H {
	payload := gin.H{
		"id":         entry.ID,
		"reason":     entry.Reason,
		"delta":      entry.Delta(),
		"created_at": entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.IdempotencyKey != nil {
		payload["idempotency_key"] = *entry.IdempotencyKey
	}
	return payload
}

func questToPayload(quest db.Quest) gin.H {
	return gin.H{
		"id":                 quest.ID,
		"label":              quest.Label,
		"description":        quest.Description,
		"description_html":   service.RenderMarkdown(quest.Description),
		"reward_xp":          quest.RewardXP,
		"reward_gold":        quest.RewardGold,
		"completion_message": quest.CompletionMessage,
	}
}

func userQuestToPayload(uq db.UserQuest) gin.H {
	return gin.H{
		"id":           uq.ID,
		"user_id":      uq.UserID,
		"quest_id":     uq.QuestID,
		"is_done":      uq.IsDone,
		"completed_at": formatTime(uq.CompletedAt),
		"quest":        questToPayload(uq.Quest),
	}
}

func pendingRewardToPayload(reward db.PendingReward) gin.H {
	return gin.H{
		"id":     reward.ID,
		"label":  reward.Label,
		"gold":   reward.Gold,
		"xp":     reward.XP,
		"source": reward.Source,
	}
}

func inventoryItemToPayload(item db.InventoryItem) gin.H {
	return gin.H{
		"id":         item.ID,
		"name":       item.Name,
		"source":     item.Source,
		"gold_value": item.GoldValue,
		"cost":       item.Cost,
		"created_at": item.CreatedAt.Format(time.RFC3339),
	}
}

func mapPayloads[T any](items []T, fn func(T) gin.H) []gin.H {
	out := make([]gin.H, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
