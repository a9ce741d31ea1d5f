package ws

import (
	"encoding/json"
	"log"
	"sync"

	"go-cord/pkg/chat"
)

// Hub is the room registry: it owns the membership sets and is the only
// way handlers reach other connections. Rooms are keyed by
// serverId:channelId, created lazily on first join and removed when
// empty. Nothing here is persisted; state is rebuilt from live joins.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		rooms:   make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

// Unregister drops the client and removes it from every room it was a
// member of, as if an explicit leave had been issued for each.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	delete(h.clients, client)

	for _, key := range client.Rooms() {
		members := h.rooms[key]
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, key)
		}
		client.trackLeave(key)
	}

	close(client.send)
}

// Join is idempotent: joining a room twice yields one membership.
func (h *Hub) Join(client *Client, serverID, channelID string) {
	key := chat.RoomKey(serverID, channelID)

	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[key]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[key] = members
	}
	members[client] = true
	client.trackJoin(key)
}

// Leave of a room not joined is a no-op.
func (h *Hub) Leave(client *Client, serverID, channelID string) {
	key := chat.RoomKey(serverID, channelID)

	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[key]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, key)
	}
	client.trackLeave(key)
}

func (h *Hub) MembersOf(serverID, channelID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := h.rooms[chat.RoomKey(serverID, channelID)]
	out := make([]*Client, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}

func (h *Hub) InRoom(client *Client, serverID, channelID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[chat.RoomKey(serverID, channelID)][client]
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) RoomCount(serverID, channelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chat.RoomKey(serverID, channelID)])
}

// BroadcastRoom fans an event out to the current membership of one
// room, optionally excluding a client (the typing indicator excludes
// its sender).
func (h *Hub) BroadcastRoom(serverID, channelID string, event chat.Event, exclude *Client) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	h.mu.RLock()
	members := h.rooms[chat.RoomKey(serverID, channelID)]
	targets := make([]*Client, 0, len(members))
	for c := range members {
		if c != exclude {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(data)
	}
}

// BroadcastAll fans an event out to every connected client, whatever
// rooms it is in. Presence changes are global, not room-scoped.
func (h *Hub) BroadcastAll(event chat.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(data)
	}
}
