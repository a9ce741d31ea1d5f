package api

import (
	"net/http"

	u "go-cord/internal/user"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandlers struct {
	service *u.UserService
}

func NewUserHandlers(db *gorm.DB) *UserHandlers {
	return &UserHandlers{
		service: u.NewUserService(db),
	}
}

type AvatarInput struct {
	Avatar string `json:"avatar" binding:"required"`
}

func (h *UserHandlers) UpdateAvatarHandler(c *gin.Context) {
	userID := c.GetString("user_id")

	var input AvatarInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No avatar provided"})
		return
	}

	user, err := h.service.UpdateAvatar(c.Request.Context(), userID, input.Avatar)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update avatar"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
