package message

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"go-cord/internal/linkpreview"
	. "go-cord/pkg/chat"

	"gorm.io/gorm"
)

// Enricher is the external link-preview fetch capability.
type Enricher interface {
	Fetch(ctx context.Context, url string) (*linkpreview.Preview, error)
}

type MessageService struct {
	db       *gorm.DB
	previews Enricher
}

func NewMessageService(db *gorm.DB, previews Enricher) *MessageService {
	return &MessageService{db: db, previews: previews}
}

// Create runs the message pipeline: validate, snapshot the author's
// avatar, enrich, persist. A ValidationFailure on empty content and a
// PersistenceFailure on the insert both mean nothing reaches the room;
// enrichment failure only means the row carries no preview.
func (s *MessageService) Create(ctx context.Context, identity Identity, serverID, channelID, content string, repliedToID *string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, NewError(KindValidation, "empty message content")
	}

	var author User
	if err := s.db.WithContext(ctx).Select("avatar").First(&author, "id = ?", identity.UserID).Error; err != nil {
		return nil, NewError(KindPersistence, "author lookup failed: "+err.Error())
	}

	msg := Message{
		ServerID:    serverID,
		ChannelID:   channelID,
		UserID:      identity.UserID,
		Username:    identity.Username,
		Avatar:      author.Avatar,
		Content:     content,
		RepliedToID: repliedToID,
	}

	if url := linkpreview.FirstURL(content); url != "" && !linkpreview.SkipEnrichment(url) {
		preview, err := s.previews.Fetch(ctx, url)
		if err != nil {
			// The insert still happens; the message just ships bare.
			log.Printf("link preview for %s failed: %v", url, err)
		} else {
			msg.OGSiteName = optional(preview.SiteName)
			msg.OGTitle = optional(preview.Title)
			msg.OGDescription = optional(preview.Description)
			msg.OGImage = optional(preview.Image)
			msg.OGURL = optional(preview.URL)
		}
	}

	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, NewError(KindPersistence, "message insert failed: "+err.Error())
	}

	return &msg, nil
}

// Edit applies an in-place edit. Only the author may edit, and only
// content and updated_at ever change. The author check and the update
// are two store calls; two edits by the legitimate author racing each
// other resolve last-write-wins.
func (s *MessageService) Edit(ctx context.Context, identity Identity, messageID, newContent string) (*Message, error) {
	var msg Message
	err := s.db.WithContext(ctx).First(&msg, "id = ?", messageID).Error
	if err != nil || msg.UserID != identity.UserID {
		return nil, NewError(KindAuthorization, "you cannot edit this message")
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Model(&Message{}).Where("id = ?", messageID).
		Updates(map[string]any{"content": newContent, "updated_at": now}).Error
	if err != nil {
		return nil, NewError(KindPersistence, "message update failed: "+err.Error())
	}

	msg.Content = newContent
	msg.UpdatedAt = &now
	return &msg, nil
}

// History returns a channel's messages in chronological order. Callers
// must be members of the server.
func (s *MessageService) History(ctx context.Context, userID, serverID, channelID string) ([]Message, error) {
	var membership ServerMember
	err := s.db.WithContext(ctx).
		Where("server_id = ? AND user_id = ?", serverID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("not a member of this server")
		}
		return nil, err
	}

	var messages []Message
	err = s.db.WithContext(ctx).
		Where("server_id = ? AND channel_id = ?", serverID, channelID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
