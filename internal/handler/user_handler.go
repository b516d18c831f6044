package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/questify/internal/service"
)

type userPayload struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// CreateUser 创建冒险者
func (a *API) CreateUser(c *gin.Context) {
	var payload userPayload
	if !bindJSON(c, &payload, "invalid user payload") {
		return
	}

	user, err := a.users.Create(c.Request.Context(), service.UserInput{
		DisplayName: payload.DisplayName,
		Email:       payload.Email,
	})
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": userToPayload(*user)})
}

// ListUsers 返回用户列表
func (a *API) ListUsers(c *gin.Context) {
	users, err := a.users.List(c.Request.Context())
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": mapPayloads(users, userToPayload)})
}

// GetUser 返回用户及其经济记录
func (a *API) GetUser(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	user, err := a.users.Get(c.Request.Context(), userID)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}
	view, err := a.ledger.GetEconomy(c.Request.Context(), userID)
	if err != nil {
		a.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userToPayload(*user), "economy": economyToPayload(*view)})
}
