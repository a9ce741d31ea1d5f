package api

import (
	"net/http"

	m "go-cord/internal/message"

	"github.com/gin-gonic/gin"
)

type MessageHandlers struct {
	service *m.MessageService
}

func NewMessageHandlers(service *m.MessageService) *MessageHandlers {
	return &MessageHandlers{service: service}
}

// ChannelMessagesHandler returns a channel's history in chronological
// order, members only.
func (h *MessageHandlers) ChannelMessagesHandler(c *gin.Context) {
	userID := c.GetString("user_id")
	serverID := c.Param("id")
	channelID := c.Param("channelId")

	messages, err := h.service.History(c.Request.Context(), userID, serverID, channelID)
	if err != nil {
		if err.Error() == "not a member of this server" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not a member of this server"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
