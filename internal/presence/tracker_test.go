package presence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-cord/pkg/chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type memStore struct {
	mu       sync.Mutex
	statuses map[string]string
	setErr   error
	getErr   error
}

func newMemStore() *memStore {
	return &memStore{statuses: make(map[string]string)}
}

func (m *memStore) SetStatus(ctx context.Context, userID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.statuses[userID] = status
	return nil
}

func (m *memStore) GetStatus(ctx context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	return m.statuses[userID], nil
}

type memBus struct {
	mu     sync.Mutex
	events []chat.Event
}

func (b *memBus) BroadcastAll(event chat.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *memBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func (b *memBus) last() chat.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.events[len(b.events)-1]
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&chat.User{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id, status string) {
	t.Helper()
	user := chat.User{ID: id, Username: "user-" + id, Password: "hashed", Status: status}
	require.NoError(t, db.Create(&user).Error)
}

func TestTracker_SetWritesBothStoresAndBroadcasts(t *testing.T) {
	store := newMemStore()
	bus := &memBus{}
	db := setupTestDB(t)
	seedUser(t, db, "user1", chat.StatusOffline)

	tracker := NewTracker(store, db, bus)
	tracker.Set("user1", chat.StatusIdle)

	got, err := store.GetStatus(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, chat.StatusIdle, got)

	assert.Equal(t, 1, bus.count())
	payload := bus.last().Data.(chat.StatusChangedPayload)
	assert.Equal(t, "user1", payload.UserID)
	assert.Equal(t, chat.StatusIdle, payload.Status)

	// The durable write runs off the hot path.
	require.Eventually(t, func() bool {
		var user chat.User
		if err := db.First(&user, "id = ?", "user1").Error; err != nil {
			return false
		}
		return user.Status == chat.StatusIdle && user.LastSeen != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTracker_SetRejectsUnknownStatus(t *testing.T) {
	store := newMemStore()
	bus := &memBus{}
	db := setupTestDB(t)
	seedUser(t, db, "user1", chat.StatusOnline)

	tracker := NewTracker(store, db, bus)
	tracker.Set("user1", "invisible-ninja")

	got, err := store.GetStatus(context.Background(), "user1")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, bus.count())
}

func TestTracker_FastStoreFailureStillBroadcasts(t *testing.T) {
	store := newMemStore()
	store.setErr = errors.New("connection refused")
	bus := &memBus{}
	db := setupTestDB(t)
	seedUser(t, db, "user1", chat.StatusOffline)

	tracker := NewTracker(store, db, bus)
	tracker.Set("user1", chat.StatusDnd)

	assert.Equal(t, 1, bus.count())
}

func TestTracker_DurableWriteFailureStillBroadcasts(t *testing.T) {
	store := newMemStore()
	bus := &memBus{}
	db := setupTestDB(t)
	require.NoError(t, db.Migrator().DropTable(&chat.User{}))

	tracker := NewTracker(store, db, bus)
	tracker.Set("user1", chat.StatusOnline)

	// The durable copy is best-effort: with no users table to write
	// to, the fast store and the broadcast still see the transition.
	got, err := store.GetStatus(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, chat.StatusOnline, got)
	assert.Equal(t, 1, bus.count())
}

func TestTracker_ResolvePrefersFastStore(t *testing.T) {
	store := newMemStore()
	bus := &memBus{}
	db := setupTestDB(t)
	seedUser(t, db, "user1", chat.StatusOffline)

	require.NoError(t, store.SetStatus(context.Background(), "user1", chat.StatusOnline))

	tracker := NewTracker(store, db, bus)
	statuses := tracker.Resolve(context.Background(), []string{"user1"})

	assert.Equal(t, chat.StatusOnline, statuses["user1"])
}

func TestTracker_ResolveFallsBackToDurableRow(t *testing.T) {
	store := newMemStore()
	bus := &memBus{}
	db := setupTestDB(t)
	seedUser(t, db, "user1", chat.StatusIdle)

	tracker := NewTracker(store, db, bus)
	statuses := tracker.Resolve(context.Background(), []string{"user1"})

	assert.Equal(t, chat.StatusIdle, statuses["user1"])
}

func TestTracker_ResolveDefaultsToOffline(t *testing.T) {
	store := newMemStore()
	bus := &memBus{}
	db := setupTestDB(t)

	tracker := NewTracker(store, db, bus)
	statuses := tracker.Resolve(context.Background(), []string{"ghost"})

	assert.Equal(t, chat.StatusOffline, statuses["ghost"])
}

func TestTracker_ResolveSurvivesFastStoreErrors(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("connection refused")
	bus := &memBus{}
	db := setupTestDB(t)
	seedUser(t, db, "user1", chat.StatusDnd)

	tracker := NewTracker(store, db, bus)
	statuses := tracker.Resolve(context.Background(), []string{"user1"})

	assert.Equal(t, chat.StatusDnd, statuses["user1"])
}
