package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"chat_sync_service/internal/chat/domain"
	"chat_sync_service/internal/chat/repository"
	"chat_sync_service/pkg/logger"
)

// UserUseCase 這裡封裝了身份目錄對外提供的應用服務
type UserUseCase interface {
	// UpsertUser sync the identity-provider profile after every sign-in
	UpsertUser(ctx context.Context, externalID, displayName, email, avatarURL string) (string, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	// ListOtherUsers everyone except the caller, joined with presence
	ListOtherUsers(ctx context.Context, excludingExternalID string) ([]domain.UserWithPresence, error)
}

type userUseCase struct {
	userRepo     repository.UserRepository
	presenceRepo repository.PresenceRepository
}

// NewUserUseCase 建立一個新的 UserUseCase
func NewUserUseCase(userRepo repository.UserRepository, presenceRepo repository.PresenceRepository) UserUseCase {
	return &userUseCase{
		userRepo:     userRepo,
		presenceRepo: presenceRepo,
	}
}

func (u *userUseCase) UpsertUser(ctx context.Context, externalID, displayName, email, avatarURL string) (string, error) {
	if strings.TrimSpace(externalID) == "" {
		return "", fmt.Errorf("%w: external id required", domain.ErrValidation)
	}

	user := domain.User{
		UserID:      uuid.New().String(), // 已存在時被既有 user_id 取代
		ExternalID:  externalID,
		DisplayName: displayName,
		Email:       email,
		AvatarURL:   avatarURL,
	}

	userID, err := u.userRepo.Upsert(ctx, &user)
	if err != nil {
		return "", err
	}

	logger.Log.Info(fmt.Sprintf("usecase UpsertUser : %s -> %s", externalID, userID))
	return userID, nil
}

func (u *userUseCase) GetUserByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	return u.userRepo.FindByUser(ctx, &domain.UserQuery{ExternalID: &externalID})
}

func (u *userUseCase) ListOtherUsers(ctx context.Context, excludingExternalID string) ([]domain.UserWithPresence, error) {
	current, err := u.userRepo.FindByUser(ctx, &domain.UserQuery{ExternalID: &excludingExternalID})
	if err != nil {
		return nil, err
	}
	if current == nil {
		return []domain.UserWithPresence{}, nil
	}

	users, err := u.userRepo.ListExcept(ctx, current.UserID)
	if err != nil {
		return nil, err
	}

	presenceRows, err := u.presenceRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	presenceByUser := make(map[string]domain.Presence, len(presenceRows))
	for _, p := range presenceRows {
		presenceByUser[p.UserID] = p
	}

	result := make([]domain.UserWithPresence, 0, len(users))
	for _, user := range users {
		row := domain.UserWithPresence{User: user}
		if p, ok := presenceByUser[user.UserID]; ok {
			row.IsOnline = p.IsOnline
			row.LastSeen = p.LastSeen
		}
		result = append(result, row)
	}
	return result, nil
}
