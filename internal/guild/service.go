// Package guild manages chat servers: creation, invites, membership
// and their channels.
package guild

import (
	"context"
	"errors"

	. "go-cord/pkg/chat"

	nanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

var ErrInvalidInvite = errors.New("invalid invite")
var ErrServerNotFound = errors.New("server not found")

type GuildService struct {
	db *gorm.DB
}

func NewGuildService(db *gorm.DB) *GuildService {
	return &GuildService{db: db}
}

// ServerSummary is a server plus the channel a client should open
// first.
type ServerSummary struct {
	Server
	DefaultChannelID *string `json:"defaultChannelId"`
}

// CreateServer creates a server with a random invite code, adds the
// owner as its first member and creates the default text channel.
func (s *GuildService) CreateServer(ctx context.Context, ownerID, name string) (*Server, *Channel, error) {
	if name == "" {
		return nil, nil, errors.New("server name cannot be empty")
	}

	inviteCode, err := nanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", 7)
	if err != nil {
		return nil, nil, err
	}

	server := Server{
		Name:       name,
		OwnerID:    ownerID,
		InviteCode: inviteCode,
	}

	db := s.db.WithContext(ctx)
	if err := db.Create(&server).Error; err != nil {
		return nil, nil, err
	}

	member := ServerMember{ServerID: server.ID, UserID: ownerID}
	if err := db.Create(&member).Error; err != nil {
		return nil, nil, err
	}

	channel := Channel{ServerID: server.ID, Name: "general", Type: "text"}
	if err := db.Create(&channel).Error; err != nil {
		return nil, nil, err
	}

	return &server, &channel, nil
}

// JoinByInvite adds the user to the server behind an invite code.
// Joining a server already joined is a no-op.
func (s *GuildService) JoinByInvite(ctx context.Context, userID, invite string) (*Server, []Channel, error) {
	db := s.db.WithContext(ctx)

	var server Server
	if err := db.First(&server, "invite_code = ?", invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidInvite
		}
		return nil, nil, err
	}

	var existing ServerMember
	err := db.Where("server_id = ? AND user_id = ?", server.ID, userID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		member := ServerMember{ServerID: server.ID, UserID: userID}
		if err := db.Create(&member).Error; err != nil {
			return nil, nil, err
		}
	} else if err != nil {
		return nil, nil, err
	}

	channels, err := s.channelsOf(ctx, server.ID)
	if err != nil {
		return nil, nil, err
	}

	return &server, channels, nil
}

func (s *GuildService) GetServer(ctx context.Context, serverID string) (*Server, []Channel, error) {
	var server Server
	if err := s.db.WithContext(ctx).First(&server, "id = ?", serverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrServerNotFound
		}
		return nil, nil, err
	}

	channels, err := s.channelsOf(ctx, serverID)
	if err != nil {
		return nil, nil, err
	}

	return &server, channels, nil
}

// UserServers lists the servers a user belongs to, each with its
// default channel id.
func (s *GuildService) UserServers(ctx context.Context, userID string) ([]ServerSummary, error) {
	db := s.db.WithContext(ctx)

	var memberships []ServerMember
	if err := db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, err
	}

	summaries := make([]ServerSummary, 0, len(memberships))
	for _, m := range memberships {
		var server Server
		if err := db.First(&server, "id = ?", m.ServerID).Error; err != nil {
			continue
		}

		summary := ServerSummary{Server: server}
		var channel Channel
		if err := db.Where("server_id = ?", server.ID).Order("created_at ASC").First(&channel).Error; err == nil {
			summary.DefaultChannelID = &channel.ID
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// Members returns the user rows for every member of a server.
func (s *GuildService) Members(ctx context.Context, serverID string) ([]User, error) {
	db := s.db.WithContext(ctx)

	var memberships []ServerMember
	if err := db.Where("server_id = ?", serverID).Find(&memberships).Error; err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		userIDs = append(userIDs, m.UserID)
	}
	if len(userIDs) == 0 {
		return []User{}, nil
	}

	var users []User
	if err := db.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

func (s *GuildService) channelsOf(ctx context.Context, serverID string) ([]Channel, error) {
	var channels []Channel
	err := s.db.WithContext(ctx).Where("server_id = ?", serverID).Order("created_at ASC").Find(&channels).Error
	return channels, err
}
