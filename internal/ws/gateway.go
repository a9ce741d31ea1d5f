package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"go-cord/pkg/chat"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// VerifyFunc is the externally supplied identity-verification
// capability: token in, verified identity out.
type VerifyFunc func(token string) (chat.Identity, error)

// StatusTracker is the presence side of the gateway. Set ignores
// values outside the enumerated states.
type StatusTracker interface {
	Set(userID, status string)
}

// MessageStore runs the message and edit pipelines.
type MessageStore interface {
	Create(ctx context.Context, identity chat.Identity, serverID, channelID, content string, repliedToID *string) (*chat.Message, error)
	Edit(ctx context.Context, identity chat.Identity, messageID, newContent string) (*chat.Message, error)
}

type handlerFunc func(c *Client, data json.RawMessage)

// Gateway authenticates new connections and routes every inbound event
// through an explicit dispatch table.
type Gateway struct {
	hub      *Hub
	verify   VerifyFunc
	presence StatusTracker
	messages MessageStore

	handlers map[string]handlerFunc
	upgrader websocket.Upgrader
}

func NewGateway(hub *Hub, verify VerifyFunc, presence StatusTracker, messages MessageStore) *Gateway {
	g := &Gateway{
		hub:      hub,
		verify:   verify,
		presence: presence,
		messages: messages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict origins once the web client's host is pinned
				return true
			},
		},
	}

	g.handlers = map[string]handlerFunc{
		chat.EventJoinChannel:  g.handleJoinChannel,
		chat.EventLeaveChannel: g.handleLeaveChannel,
		chat.EventChatMessage:  g.handleChatMessage,
		chat.EventEditMessage:  g.handleEditMessage,
		chat.EventTyping:       g.handleTyping,
		chat.EventChangeStatus: g.handleChangeStatus,
	}

	return g
}

// HandleWebSocket is the connection gate. The bearer token comes from
// the token query parameter, falling back to the login cookie. A
// missing token and a failed verification refuse the connection with
// distinct reasons; there is no retry.
func (g *Gateway) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if cookie, err := c.Cookie("token"); err == nil {
			token = cookie
		}
	}

	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
		return
	}

	identity, err := g.verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	client := NewClient(g.hub, conn, identity)
	g.hub.Register(client)
	g.presence.Set(identity.UserID, chat.StatusOnline)

	go client.WritePump()

	client.ReadPump(g.dispatch)

	// Read pump returned: the connection is gone, graceful or not.
	g.hub.Unregister(client)
	g.presence.Set(identity.UserID, chat.StatusOffline)
}

// dispatch routes one inbound frame. Each event is handled in its own
// goroutine so store calls and enrichment never block the read pump;
// an operation already in flight when its sender disconnects still
// completes and fans out to the remaining members.
func (g *Gateway) dispatch(c *Client, raw []byte) {
	var env chat.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("malformed event from %s: %v", c.identity.UserID, err)
		return
	}

	handler, ok := g.handlers[env.Type]
	if !ok {
		log.Printf("unknown event type %q from %s", env.Type, c.identity.UserID)
		return
	}

	go handler(c, env.Data)
}

func (g *Gateway) handleJoinChannel(c *Client, data json.RawMessage) {
	var p chat.JoinChannelPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ServerID == "" || p.ChannelID == "" {
		return
	}
	g.hub.Join(c, p.ServerID, p.ChannelID)
}

func (g *Gateway) handleLeaveChannel(c *Client, data json.RawMessage) {
	var p chat.LeaveChannelPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ServerID == "" || p.ChannelID == "" {
		return
	}
	g.hub.Leave(c, p.ServerID, p.ChannelID)
}

func (g *Gateway) handleChatMessage(c *Client, data json.RawMessage) {
	var p chat.ChatMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	msg, err := g.messages.Create(context.Background(), c.identity, p.ServerID, p.ChannelID, p.Content, p.RepliedToID)
	if err != nil {
		// Empty content and persistence failures are both swallowed
		// here; neither produces a user-visible signal.
		if chat.KindOf(err) != chat.KindValidation {
			log.Printf("chat message from %s dropped: %v", c.identity.UserID, err)
		}
		return
	}

	g.hub.BroadcastRoom(msg.ServerID, msg.ChannelID, chat.Event{
		Type: chat.EventChatMessage,
		Data: msg,
	}, nil)
}

func (g *Gateway) handleEditMessage(c *Client, data json.RawMessage) {
	var p chat.EditMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	msg, err := g.messages.Edit(context.Background(), c.identity, p.MessageID, p.NewContent)
	if err != nil {
		if chat.KindOf(err) == chat.KindAuthorization {
			c.Send(chat.Event{
				Type: chat.EventError,
				Data: chat.ErrorPayload{Message: err.Error()},
			})
			return
		}
		log.Printf("edit of %s by %s failed: %v", p.MessageID, c.identity.UserID, err)
		return
	}

	g.hub.BroadcastRoom(msg.ServerID, msg.ChannelID, chat.Event{
		Type: chat.EventMessageUpdated,
		Data: msg,
	}, nil)
}

func (g *Gateway) handleTyping(c *Client, data json.RawMessage) {
	var p chat.TypingPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ServerID == "" || p.ChannelID == "" {
		return
	}

	g.hub.BroadcastRoom(p.ServerID, p.ChannelID, chat.Event{
		Type: chat.EventUserTyping,
		Data: chat.UserTypingPayload{Username: c.identity.Username},
	}, c)
}

func (g *Gateway) handleChangeStatus(c *Client, data json.RawMessage) {
	var p chat.ChangeStatusPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	g.presence.Set(c.identity.UserID, p.NewStatus)
}
