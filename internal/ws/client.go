package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"go-cord/pkg/chat"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

// Client is one authenticated connection. The identity is attached at
// the handshake and never changes afterwards.
type Client struct {
	conn *websocket.Conn
	hub  *Hub

	// Buffered channel of outbound frames.
	send chan []byte

	identity chat.Identity

	// Room keys this client has joined, maintained by the hub. The
	// hub reads them back on unregister to undo the memberships.
	mu    sync.RWMutex
	rooms map[string]bool
}

func NewClient(hub *Hub, conn *websocket.Conn, identity chat.Identity) *Client {
	return &Client{
		conn:     conn,
		hub:      hub,
		send:     make(chan []byte, 256),
		identity: identity,
		rooms:    make(map[string]bool),
	}
}

func (c *Client) Identity() chat.Identity {
	return c.identity
}

// Rooms returns a copy of the joined room keys.
func (c *Client) Rooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.rooms))
	for key := range c.rooms {
		keys = append(keys, key)
	}
	return keys
}

func (c *Client) trackJoin(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[key] = true
}

func (c *Client) trackLeave(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, key)
}

// Send delivers an event to this client alone. Authorization failures
// on edits go through here, never to the room.
func (c *Client) Send(event chat.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	c.enqueue(data)
	return nil
}

// enqueue hands a frame to the write pump without blocking. A client
// that cannot drain its buffer loses frames rather than stalling the
// hub.
func (c *Client) enqueue(data []byte) {
	defer func() {
		// Send channel may be closed by Unregister while a broadcast
		// is in flight.
		recover()
	}()

	select {
	case c.send <- data:
	default:
		log.Printf("dropping frame for slow client %s", c.identity.UserID)
	}
}

// ReadPump pumps frames from the connection to the dispatcher. It runs
// in the connection's goroutine and owns all reads.
func (c *Client) ReadPump(dispatch func(*Client, []byte)) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			return
		}
		dispatch(c, data)
	}
}

// WritePump pumps frames from the send channel to the connection. It
// runs in its own goroutine and owns all writes.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
