package api

import (
	"errors"
	"net/http"

	g "go-cord/internal/guild"
	"go-cord/internal/presence"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type GuildHandlers struct {
	service  *g.GuildService
	presence *presence.Tracker
}

func NewGuildHandlers(db *gorm.DB, tracker *presence.Tracker) *GuildHandlers {
	return &GuildHandlers{
		service:  g.NewGuildService(db),
		presence: tracker,
	}
}

type CreateServerInput struct {
	Name string `json:"name" binding:"required"`
}

type JoinServerInput struct {
	Invite string `json:"invite" binding:"required"`
}

type MemberInfo struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Avatar   *string `json:"avatar"`
	Status   string  `json:"status"`
}

func (h *GuildHandlers) CreateServerHandler(c *gin.Context) {
	userID := c.GetString("user_id")

	var input CreateServerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	server, defaultChannel, err := h.service.CreateServer(c.Request.Context(), userID, input.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create server"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"server": server, "defaultChannel": defaultChannel})
}

func (h *GuildHandlers) JoinServerHandler(c *gin.Context) {
	userID := c.GetString("user_id")

	var input JoinServerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	server, channels, err := h.service.JoinByInvite(c.Request.Context(), userID, input.Invite)
	if err != nil {
		if errors.Is(err, g.ErrInvalidInvite) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invalid invite"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join server"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"server": server, "channels": channels})
}

func (h *GuildHandlers) GetServerHandler(c *gin.Context) {
	server, channels, err := h.service.GetServer(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, g.ErrServerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Server not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load server"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"server": server, "channels": channels})
}

func (h *GuildHandlers) UserServersHandler(c *gin.Context) {
	userID := c.GetString("user_id")

	servers, err := h.service.UserServers(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load servers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"servers": servers})
}

// MembersHandler lists a server's members with presence resolved
// through the tracker's read path: fast store first, durable fallback,
// offline by default.
func (h *GuildHandlers) MembersHandler(c *gin.Context) {
	ctx := c.Request.Context()

	users, err := h.service.Members(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load members"})
		return
	}

	userIDs := make([]string, 0, len(users))
	for _, u := range users {
		userIDs = append(userIDs, u.ID)
	}
	statuses := h.presence.Resolve(ctx, userIDs)

	members := make([]MemberInfo, 0, len(users))
	for _, u := range users {
		members = append(members, MemberInfo{
			ID:       u.ID,
			Username: u.Username,
			Avatar:   u.Avatar,
			Status:   statuses[u.ID],
		})
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}
