package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/questify/internal/service"
)

type taskPayload struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Type         string `json:"type"`
	Category     string `json:"category"`
	Difficulty   string `json:"difficulty"`
	DueAt        string `json:"due_at"`
	Done         bool   `json:"done"`
	PomsDone     int    `json:"poms_done"`
	PomsEstimate int    `json:"poms_estimate"`
}

// taskPatchPayload 中 due_at 为空字符串表示清除截止时间；done 不在可修改字段内
type taskPatchPayload struct {
	Title        *string `json:"title"`
	Type         *string `json:"type"`
	Category     *string `json:"category"`
	Difficulty   *string `json:"difficulty"`
	DueAt        *string `json:"due_at"`
	PomsDone     *int    `json:"poms_done"`
	PomsEstimate *int    `json:"poms_estimate"`
}

type pomodoroPayload struct {
	FocusMinutes int `json:"focus_minutes"`
}

// ListTasks 返回用户的任务列表
func (a *API) ListTasks(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	tasks, err := a.tasks.List(c.Request.Context(), userID)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": mapPayloads(tasks, taskToPayload)})
}

// CreateTask 新建任务
func (a *API) CreateTask(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	input, ok := a.parseTaskInput(c)
	if !ok {
		return
	}

	task, err := a.tasks.Create(c.Request.Context(), userID, input)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": taskToPayload(*task)})
}

// GetTask 返回单个任务
func (a *API) GetTask(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	task, err := a.tasks.Get(c.Request.Context(), userID, c.Param("taskId"))
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": taskToPayload(*task)})
}

// ReplaceTask 整体替换任务，不触发经济变动，也不改变完成状态
func (a *API) ReplaceTask(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	input, ok := a.parseTaskInput(c)
	if !ok {
		return
	}

	task, err := a.tasks.Replace(c.Request.Context(), userID, c.Param("taskId"), input)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": taskToPayload(*task)})
}

// PatchTask 局部更新任务，不触发经济变动
func (a *API) PatchTask(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var payload taskPatchPayload
	if !bindJSON(c, &payload, "invalid task payload") {
		return
	}

	patch := service.TaskPatch{
		Title:        payload.Title,
		Type:         payload.Type,
		Category:     payload.Category,
		Difficulty:   payload.Difficulty,
		PomsDone:     payload.PomsDone,
		PomsEstimate: payload.PomsEstimate,
	}
	if payload.DueAt != nil {
		dueAt, err := parseDueAt(*payload.DueAt)
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		patch.DueAt = dueAt
		patch.ClearDueAt = dueAt == nil
	}

	task, err := a.tasks.Patch(c.Request.Context(), userID, c.Param("taskId"), patch)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": taskToPayload(*task)})
}

// DeleteTask 删除任务
func (a *API) DeleteTask(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	if err := a.tasks.Remove(c.Request.Context(), userID, c.Param("taskId")); err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ToggleTask 切换完成状态并结算奖励
func (a *API) ToggleTask(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	result, err := a.tasks.ToggleDone(c.Request.Context(), userID, c.Param("taskId"))
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task":    taskToPayload(result.Task),
		"economy": economyToPayload(result.Economy),
		"delta":   result.Delta,
	})
}

// CompletePomodoro 记录一次专注
func (a *API) CompletePomodoro(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var payload pomodoroPayload
	if c.Request.ContentLength > 0 && !bindJSON(c, &payload, "invalid pomodoro payload") {
		return
	}

	result, err := a.tasks.CompletePomodoro(c.Request.Context(), userID, c.Param("taskId"), payload.FocusMinutes)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task":    taskToPayload(result.Task),
		"economy": economyToPayload(result.Economy),
		"delta":   result.Delta,
	})
}

func (a *API) parseTaskInput(c *gin.Context) (service.TaskInput, bool) {
	var payload taskPayload
	if !bindJSON(c, &payload, "invalid task payload") {
		return service.TaskInput{}, false
	}

	dueAt, err := parseDueAt(payload.DueAt)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return service.TaskInput{}, false
	}

	return service.TaskInput{
		ID:           payload.ID,
		Title:        payload.Title,
		Type:         payload.Type,
		Category:     payload.Category,
		Difficulty:   payload.Difficulty,
		DueAt:        dueAt,
		Done:         payload.Done,
		PomsDone:     payload.PomsDone,
		PomsEstimate: payload.PomsEstimate,
	}, true
}
