package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go-cord/pkg/chat"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTracker struct {
	calls []string
}

func (f *fakeTracker) Set(userID, status string) {
	f.calls = append(f.calls, userID+"="+status)
}

type fakeMessages struct {
	createErr error
	editErr   error
	created   *chat.Message
	edited    *chat.Message
	createN   int
	editN     int
}

func (f *fakeMessages) Create(ctx context.Context, identity chat.Identity, serverID, channelID, content string, repliedToID *string) (*chat.Message, error) {
	f.createN++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.created, nil
}

func (f *fakeMessages) Edit(ctx context.Context, identity chat.Identity, messageID, newContent string) (*chat.Message, error) {
	f.editN++
	if f.editErr != nil {
		return nil, f.editErr
	}
	return f.edited, nil
}

func newTestGateway(verify VerifyFunc, messages MessageStore) (*Gateway, *Hub, *fakeTracker) {
	hub := NewHub()
	tracker := &fakeTracker{}
	if verify == nil {
		verify = func(token string) (chat.Identity, error) {
			return chat.Identity{UserID: "user1", Username: "alice"}, nil
		}
	}
	if messages == nil {
		messages = &fakeMessages{}
	}
	return NewGateway(hub, verify, tracker, messages), hub, tracker
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestGateway_HandshakeRefusals(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		query      string
		wantReason string
	}{
		{name: "missing token", query: "", wantReason: "token required"},
		{name: "invalid token", query: "?token=bad", wantReason: "authentication failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, hub, _ := newTestGateway(func(token string) (chat.Identity, error) {
				return chat.Identity{}, errors.New("verification failed")
			}, nil)

			router := gin.New()
			router.GET("/ws", g.HandleWebSocket)

			req := httptest.NewRequest(http.MethodGet, "/ws"+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.wantReason))
			assert.Equal(t, 0, hub.ClientCount())
		})
	}
}

func TestGateway_JoinAndLeave(t *testing.T) {
	g, hub, _ := newTestGateway(nil, nil)
	client := newTestClient(hub, "user1", "alice")
	hub.Register(client)

	g.handleJoinChannel(client, raw(t, chat.JoinChannelPayload{ServerID: "s1", ChannelID: "c1"}))
	assert.True(t, hub.InRoom(client, "s1", "c1"))

	g.handleLeaveChannel(client, raw(t, chat.LeaveChannelPayload{ServerID: "s1", ChannelID: "c1"}))
	assert.False(t, hub.InRoom(client, "s1", "c1"))
}

func TestGateway_JoinIgnoresMalformedPayload(t *testing.T) {
	g, hub, _ := newTestGateway(nil, nil)
	client := newTestClient(hub, "user1", "alice")
	hub.Register(client)

	g.handleJoinChannel(client, json.RawMessage(`{"serverId":""}`))
	g.handleJoinChannel(client, json.RawMessage(`not json`))
	assert.Equal(t, 0, hub.RoomCount("", ""))
}

func TestGateway_ChatMessageFansOutPersistedRow(t *testing.T) {
	persisted := &chat.Message{
		ID:        "msg1",
		ServerID:  "s1",
		ChannelID: "c1",
		UserID:    "user1",
		Username:  "alice",
		Content:   "hello",
	}
	messages := &fakeMessages{created: persisted}
	g, hub, _ := newTestGateway(nil, messages)

	sender := newTestClient(hub, "user1", "alice")
	member := newTestClient(hub, "user2", "bob")
	hub.Register(sender)
	hub.Register(member)
	hub.Join(sender, "s1", "c1")
	hub.Join(member, "s1", "c1")

	g.handleChatMessage(sender, raw(t, chat.ChatMessagePayload{
		ServerID: "s1", ChannelID: "c1", Content: "hello",
	}))

	// The sender is a room member too and gets its own message back.
	for _, c := range []*Client{sender, member} {
		env := received(c)
		assert.NotNil(t, env)
		assert.Equal(t, chat.EventChatMessage, env.Type)

		var msg chat.Message
		assert.NoError(t, json.Unmarshal(env.Data, &msg))
		assert.Equal(t, "msg1", msg.ID)
		assert.Equal(t, "hello", msg.Content)
		assert.Nil(t, msg.OGSiteName)
	}
}

func TestGateway_EmptyContentIsSilentlyDropped(t *testing.T) {
	messages := &fakeMessages{createErr: chat.NewError(chat.KindValidation, "empty message content")}
	g, hub, _ := newTestGateway(nil, messages)

	sender := newTestClient(hub, "user1", "alice")
	hub.Register(sender)
	hub.Join(sender, "s1", "c1")

	g.handleChatMessage(sender, raw(t, chat.ChatMessagePayload{ServerID: "s1", ChannelID: "c1", Content: "   "}))

	assert.Nil(t, received(sender))
}

func TestGateway_PersistenceFailureSendsNothing(t *testing.T) {
	messages := &fakeMessages{createErr: chat.NewError(chat.KindPersistence, "insert failed")}
	g, hub, _ := newTestGateway(nil, messages)

	sender := newTestClient(hub, "user1", "alice")
	hub.Register(sender)
	hub.Join(sender, "s1", "c1")

	g.handleChatMessage(sender, raw(t, chat.ChatMessagePayload{ServerID: "s1", ChannelID: "c1", Content: "hello"}))

	assert.Nil(t, received(sender))
}

func TestGateway_EditAuthorizationFailureGoesToRequesterOnly(t *testing.T) {
	messages := &fakeMessages{editErr: chat.NewError(chat.KindAuthorization, "you cannot edit this message")}
	g, hub, _ := newTestGateway(nil, messages)

	requester := newTestClient(hub, "user2", "bob")
	member := newTestClient(hub, "user1", "alice")
	hub.Register(requester)
	hub.Register(member)
	hub.Join(requester, "s1", "c1")
	hub.Join(member, "s1", "c1")

	g.handleEditMessage(requester, raw(t, chat.EditMessagePayload{
		ServerID: "s1", ChannelID: "c1", MessageID: "msg1", NewContent: "hacked",
	}))

	env := received(requester)
	assert.NotNil(t, env)
	assert.Equal(t, chat.EventError, env.Type)

	var p chat.ErrorPayload
	assert.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "you cannot edit this message", p.Message)

	assert.Nil(t, received(member))
}

func TestGateway_EditBroadcastsUpdatedRow(t *testing.T) {
	updated := &chat.Message{ID: "msg1", ServerID: "s1", ChannelID: "c1", UserID: "user1", Content: "edited"}
	messages := &fakeMessages{edited: updated}
	g, hub, _ := newTestGateway(nil, messages)

	author := newTestClient(hub, "user1", "alice")
	member := newTestClient(hub, "user2", "bob")
	hub.Register(author)
	hub.Register(member)
	hub.Join(author, "s1", "c1")
	hub.Join(member, "s1", "c1")

	g.handleEditMessage(author, raw(t, chat.EditMessagePayload{
		ServerID: "s1", ChannelID: "c1", MessageID: "msg1", NewContent: "edited",
	}))

	for _, c := range []*Client{author, member} {
		env := received(c)
		assert.NotNil(t, env)
		assert.Equal(t, chat.EventMessageUpdated, env.Type)
	}
}

func TestGateway_TypingExcludesSender(t *testing.T) {
	g, hub, _ := newTestGateway(nil, nil)

	sender := newTestClient(hub, "user1", "alice")
	other := newTestClient(hub, "user2", "bob")
	hub.Register(sender)
	hub.Register(other)
	hub.Join(sender, "s1", "c1")
	hub.Join(other, "s1", "c1")

	g.handleTyping(sender, raw(t, chat.TypingPayload{ServerID: "s1", ChannelID: "c1"}))

	assert.Nil(t, received(sender))

	env := received(other)
	assert.NotNil(t, env)
	assert.Equal(t, chat.EventUserTyping, env.Type)

	var p chat.UserTypingPayload
	assert.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "alice", p.Username)
}

func TestGateway_ChangeStatusReachesTracker(t *testing.T) {
	g, hub, tracker := newTestGateway(nil, nil)
	client := newTestClient(hub, "user1", "alice")
	hub.Register(client)

	g.handleChangeStatus(client, raw(t, chat.ChangeStatusPayload{NewStatus: chat.StatusIdle}))

	assert.Equal(t, []string{"user1=idle"}, tracker.calls)
}

// broadcastingTracker mirrors the presence tracker's contract: every
// accepted transition fans out to all connected clients.
type broadcastingTracker struct {
	hub *Hub

	mu    sync.Mutex
	calls []string
}

func (f *broadcastingTracker) Set(userID, status string) {
	f.mu.Lock()
	f.calls = append(f.calls, userID+"="+status)
	f.mu.Unlock()

	f.hub.BroadcastAll(chat.Event{
		Type: chat.EventUserStatusChanged,
		Data: chat.StatusChangedPayload{UserID: userID, Status: status},
	})
}

func (f *broadcastingTracker) transitions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type statusChange struct {
	UserID string
	Status string
}

// readStatusChange blocks until the next user-status-changed frame,
// skipping anything else on the wire.
func readStatusChange(t *testing.T, conn *websocket.Conn) statusChange {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var env chat.Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		if env.Type != chat.EventUserStatusChanged {
			continue
		}

		var p chat.StatusChangedPayload
		require.NoError(t, json.Unmarshal(env.Data, &p))
		return statusChange{UserID: p.UserID, Status: p.Status}
	}
}

func TestGateway_ConnectionLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	tracker := &broadcastingTracker{hub: hub}
	verify := func(token string) (chat.Identity, error) {
		switch token {
		case "token-a":
			return chat.Identity{UserID: "userA", Username: "alice"}, nil
		case "token-b":
			return chat.Identity{UserID: "userB", Username: "bob"}, nil
		}
		return chat.Identity{}, errors.New("unknown token")
	}
	g := NewGateway(hub, verify, tracker, &fakeMessages{})

	router := gin.New()
	router.GET("/ws", g.HandleWebSocket)
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token="

	observer, _, err := websocket.DefaultDialer.Dial(wsURL+"token-b", nil)
	require.NoError(t, err)
	defer observer.Close()

	// The observer is registered before its own transition fires, so
	// it sees itself come online.
	assert.Equal(t, statusChange{UserID: "userB", Status: chat.StatusOnline}, readStatusChange(t, observer))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"token-a", nil)
	require.NoError(t, err)

	assert.Equal(t, statusChange{UserID: "userA", Status: chat.StatusOnline}, readStatusChange(t, observer))

	frame, err := json.Marshal(chat.Event{
		Type: chat.EventJoinChannel,
		Data: chat.JoinChannelPayload{ServerID: "s1", ChannelID: "c1"},
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
	require.Eventually(t, func() bool {
		return hub.RoomCount("s1", "c1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	// Dropping the connection unregisters the client, empties its
	// rooms and pushes the offline transition to everyone left.
	assert.Equal(t, statusChange{UserID: "userA", Status: chat.StatusOffline}, readStatusChange(t, observer))
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1 && hub.RoomCount("s1", "c1") == 0
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{
		"userB=online",
		"userA=online",
		"userA=offline",
	}, tracker.transitions())
}

func TestGateway_UnknownEventIsIgnored(t *testing.T) {
	g, hub, tracker := newTestGateway(nil, nil)
	client := newTestClient(hub, "user1", "alice")
	hub.Register(client)

	g.dispatch(client, []byte(`{"type":"no-such-event","data":{}}`))
	g.dispatch(client, []byte(`not json at all`))

	assert.Nil(t, received(client))
	assert.Empty(t, tracker.calls)
}
