package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/questify/internal/service"
)

type questPayload struct {
	ID                string `json:"id"`
	Label             string `json:"label"`
	Description       string `json:"description"`
	RewardXP          int    `json:"reward_xp"`
	RewardGold        int    `json:"reward_gold"`
	CompletionMessage string `json:"completion_message"`
}

func (p questPayload) input() service.QuestInput {
	return service.QuestInput{
		ID:                p.ID,
		Label:             p.Label,
		Description:       p.Description,
		RewardXP:          p.RewardXP,
		RewardGold:        p.RewardGold,
		CompletionMessage: p.CompletionMessage,
	}
}

type assignQuestPayload struct {
	QuestID string        `json:"quest_id"`
	Quest   *questPayload `json:"quest"`
}

// ListQuests 返回任务模板
func (a *API) ListQuests(c *gin.Context) {
	quests, err := a.quests.ListQuests(c.Request.Context())
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quests": mapPayloads(quests, questToPayload)})
}

// CreateQuest 新建任务模板
func (a *API) CreateQuest(c *gin.Context) {
	var payload questPayload
	if !bindJSON(c, &payload, "invalid quest payload") {
		return
	}

	quest, err := a.quests.CreateQuest(c.Request.Context(), payload.input())
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"quest": questToPayload(*quest)})
}

// GetQuest 返回任务模板，description_html 为渲染后的 Markdown
func (a *API) GetQuest(c *gin.Context) {
	quest, err := a.quests.GetQuest(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quest": questToPayload(*quest)})
}

// ListUserQuests 返回用户的任务分配
func (a *API) ListUserQuests(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	items, err := a.quests.ListUserQuests(c.Request.Context(), userID)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quests": mapPayloads(items, userQuestToPayload)})
}

// AssignQuest 为用户分配任务；已分配时返回 200 与原记录
func (a *API) AssignQuest(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var payload assignQuestPayload
	if !bindJSON(c, &payload, "invalid quest assignment") {
		return
	}

	input := service.QuestAssignInput{QuestID: payload.QuestID}
	if payload.Quest != nil {
		def := payload.Quest.input()
		input.Quest = &def
	}

	uq, created, err := a.quests.AssignQuest(c.Request.Context(), userID, input)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"quest": userQuestToPayload(*uq), "created": created})
}

// UpdateUserQuest 通过 ?is_done= 完成任务；完成不可撤销
func (a *API) UpdateUserQuest(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	userQuestID, err := parseUintParam(c, "userQuestId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid user quest id")
		return
	}
	isDone, err := strconv.ParseBool(c.Query("is_done"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "is_done must be true or false")
		return
	}

	result, err := a.quests.SetUserQuestDone(c.Request.Context(), userID, userQuestID, isDone)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	payload := gin.H{
		"quest":     userQuestToPayload(result.UserQuest),
		"completed": result.Completed,
	}
	if result.Reward != nil {
		payload["pending_reward"] = pendingRewardToPayload(*result.Reward)
		payload["message"] = result.UserQuest.Quest.CompletionMessage
	}
	c.JSON(http.StatusOK, payload)
}

// DeleteUserQuest 删除用户任务分配
func (a *API) DeleteUserQuest(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	userQuestID, err := parseUintParam(c, "userQuestId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid user quest id")
		return
	}

	if err := a.quests.DeleteUserQuest(c.Request.Context(), userID, userQuestID); err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
