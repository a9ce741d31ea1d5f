package api

import (
	"net/http"

	. "go-cord/internal/auth"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandlers struct {
	authService *AuthService
}

func NewAuthHandlers(db *gorm.DB) *AuthHandlers {
	return &AuthHandlers{
		authService: NewAuthService(db),
	}
}

type UserCredentialsInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandlers) RegisterHandler(c *gin.Context) {
	var input UserCredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(input.Username, input.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := GenerateToken(user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User created but token generation failed"})
		return
	}

	c.SetCookie("token", token, 3600*24*7, "/", "", false, true)

	c.JSON(http.StatusCreated, gin.H{
		"message":  "OK",
		"token":    token,
		"id":       user.ID,
		"username": user.Username,
	})
}

func (h *AuthHandlers) LoginHandler(c *gin.Context) {
	var input UserCredentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Login(input.Username, input.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := GenerateToken(user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
		return
	}

	refreshToken, err := h.authService.CreateRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Refresh token generation failed"})
		return
	}

	c.SetCookie("token", token, 3600*24*7, "/", "", false, true)
	c.SetCookie("refresh_token", refreshToken, 3600*24*30, "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"message":  "OK",
		"token":    token,
		"id":       user.ID,
		"username": user.Username,
		"avatar":   user.Avatar,
	})
}

func (h *AuthHandlers) LogoutHandler(c *gin.Context) {
	refreshToken, err := c.Cookie("refresh_token")
	if err == nil && refreshToken != "" {
		h.authService.RevokeRefreshToken(refreshToken)
	}

	c.SetCookie("token", "", -1, "/", "", false, true)
	c.SetCookie("refresh_token", "", -1, "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandlers) RefreshTokenHandler(c *gin.Context) {
	refreshToken, err := c.Cookie("refresh_token")
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No refresh token"})
		return
	}

	user, err := h.authService.ValidateRefreshToken(refreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	newJWT, err := GenerateToken(user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.SetCookie("token", newJWT, 3600*24*7, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Token refreshed", "token": newJWT})
}
