package user

import (
	"context"
	"errors"
	"fmt"

	"go-cord/pkg/chat"

	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetByID(ctx context.Context, userID string) (*chat.User, error) {
	var user chat.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// UpdateAvatar replaces the user's avatar URL. Messages sent before
// the change keep their old snapshot.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, avatar string) (*chat.User, error) {
	if avatar == "" {
		return nil, errors.New("no avatar provided")
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(user).Update("avatar", avatar).Error; err != nil {
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}

	user.Avatar = &avatar
	return user, nil
}
