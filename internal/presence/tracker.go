// Package presence maintains per-user status dual-homed across a fast
// shared store and a best-effort durable copy. The fast store is
// authoritative while a user is connected; the durable copy is what
// survives restarts.
package presence

import (
	"context"
	"log"
	"time"

	"go-cord/pkg/chat"

	"gorm.io/gorm"
)

// FastStore is the low-latency presence store, a single hash keyed by
// user id. Writes are last-write-wins with no ordering across racing
// updates.
type FastStore interface {
	SetStatus(ctx context.Context, userID, status string) error
	GetStatus(ctx context.Context, userID string) (string, error)
}

// Broadcaster delivers a status change to every connected client.
type Broadcaster interface {
	BroadcastAll(event chat.Event)
}

type Tracker struct {
	fast FastStore
	db   *gorm.DB
	bus  Broadcaster
}

func NewTracker(fast FastStore, db *gorm.DB, bus Broadcaster) *Tracker {
	return &Tracker{fast: fast, db: db, bus: bus}
}

// Set applies a presence transition: fast-store write, asynchronous
// durable write, global broadcast. Values outside the enumerated set
// are ignored outright, with no write and no broadcast. The durable
// write is best-effort; its failure is logged and never suppresses the
// broadcast, which leaves a temporary divergence between cache and
// durable truth.
func (t *Tracker) Set(userID, status string) {
	if !chat.ValidStatus(status) {
		return
	}

	ctx := context.Background()

	if err := t.fast.SetStatus(ctx, userID, status); err != nil {
		log.Printf("presence fast-store write for %s failed: %v", userID, err)
	}

	go func() {
		now := time.Now()
		err := t.db.Model(&chat.User{}).Where("id = ?", userID).
			Updates(map[string]any{"status": status, "last_seen": now}).Error
		if err != nil {
			log.Printf("presence durable write for %s failed: %v", userID, err)
		}
	}()

	t.bus.BroadcastAll(chat.Event{
		Type: chat.EventUserStatusChanged,
		Data: chat.StatusChangedPayload{UserID: userID, Status: status},
	})
}

// Resolve reads presence for a set of users: fast store first, durable
// row on a miss, offline when neither has a record.
func (t *Tracker) Resolve(ctx context.Context, userIDs []string) map[string]string {
	statuses := make(map[string]string, len(userIDs))

	for _, id := range userIDs {
		status, err := t.fast.GetStatus(ctx, id)
		if err != nil {
			log.Printf("presence fast-store read for %s failed: %v", id, err)
		}
		if status == "" {
			var user chat.User
			if err := t.db.WithContext(ctx).Select("status").First(&user, "id = ?", id).Error; err == nil {
				status = user.Status
			}
		}
		if status == "" {
			status = chat.StatusOffline
		}
		statuses[id] = status
	}

	return statuses
}
