package chat

import (
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

type User struct {
	ID       string  `gorm:"primaryKey" json:"id"`
	Username string  `gorm:"uniqueIndex;not null" json:"username"`
	Password string  `gorm:"not null" json:"-"`
	Avatar   *string `json:"avatar"`

	// Presence: durable copy only. The authoritative copy while a user
	// is connected lives in the fast store.
	Status   string     `gorm:"default:offline" json:"status"`
	LastSeen *time.Time `json:"last_seen,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type Server struct {
	ID         string `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"not null" json:"name"`
	OwnerID    string `gorm:"not null" json:"owner_id"`
	InviteCode string `gorm:"uniqueIndex;not null" json:"invite_code"`

	CreatedAt time.Time `json:"created_at"`
}

type Channel struct {
	ID       string `gorm:"primaryKey" json:"id"`
	ServerID string `gorm:"index;not null" json:"server_id"`
	Name     string `gorm:"not null" json:"name"`
	Type     string `gorm:"default:text" json:"type"`

	CreatedAt time.Time `json:"created_at"`
}

type ServerMember struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ServerID string `gorm:"uniqueIndex:idx_server_user;not null" json:"server_id"`
	UserID   string `gorm:"uniqueIndex:idx_server_user;not null" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}

// Message is append-created and mutable only through the edit pipeline:
// just Content and UpdatedAt ever change. Username and Avatar are
// snapshots taken at send time, not live references to the author.
type Message struct {
	ID        string  `gorm:"primaryKey" json:"id"`
	ServerID  string  `gorm:"index:idx_room;not null" json:"server_id"`
	ChannelID string  `gorm:"index:idx_room;not null" json:"channel_id"`
	UserID    string  `gorm:"not null" json:"user_id"`
	Username  string  `gorm:"not null" json:"username"`
	Avatar    *string `json:"avatar"`
	Content   string  `gorm:"not null" json:"content"`

	RepliedToID *string `json:"replied_to_id"`

	OGSiteName    *string `json:"og_site_name"`
	OGTitle       *string `json:"og_title"`
	OGDescription *string `json:"og_description"`
	OGImage       *string `json:"og_image"`
	OGURL         *string `json:"og_url"`

	CreatedAt time.Time  `gorm:"index:idx_room" json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"index;not null"`
	TokenHash string `gorm:"not null"`
	ExpiresAt int64  `gorm:"not null"`

	CreatedAt time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID, err = nanoid.New(8)
	}
	return
}

func (s *Server) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID, err = nanoid.New(6)
	}
	return
}

func (c *Channel) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID, err = nanoid.New(6)
	}
	return
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID, err = nanoid.New(12)
	}
	return
}
