package app

import (
	"context"
	"time"

	"chat_sync_service/internal/chat/domain"
	"chat_sync_service/internal/chat/repository"
	"chat_sync_service/pkg/database"
	"chat_sync_service/pkg/logger"

	"go.uber.org/zap"
)

// PresenceUseCase 負責處理 online/typing 狀態
type PresenceUseCase interface {
	// UpdatePresence heartbeat / typing upsert; always stamps last_seen
	UpdatePresence(ctx context.Context, userID string, isOnline, isTyping bool, conversationID string) error
	GetPresence(ctx context.Context, userID string) (*domain.Presence, error)
	// ListTypingUsers participants currently typing in the conversation
	ListTypingUsers(ctx context.Context, conversationID string) ([]domain.User, error)
	// IsUserOnline online-badge projection, applies the staleness window
	IsUserOnline(ctx context.Context, userID string) (bool, error)
}

type presenceUseCase struct {
	presenceRepo repository.PresenceRepository
	userRepo     repository.UserRepository
	convRepo     repository.ConversationRepository
	cache        database.RedisRepository[domain.Presence]
	pubSub       repository.EventPublisher
}

// NewPresenceUseCase 建立一個新的 PresenceUseCase
func NewPresenceUseCase(
	presenceRepo repository.PresenceRepository,
	userRepo repository.UserRepository,
	convRepo repository.ConversationRepository,
	cache database.RedisRepository[domain.Presence],
	pubSub repository.EventPublisher,
) PresenceUseCase {
	return &presenceUseCase{
		presenceRepo: presenceRepo,
		userRepo:     userRepo,
		convRepo:     convRepo,
		cache:        cache,
		pubSub:       pubSub,
	}
}

func (uc *presenceUseCase) UpdatePresence(ctx context.Context, userID string, isOnline, isTyping bool, conversationID string) error {
	p := &domain.Presence{
		UserID:         userID,
		IsOnline:       isOnline,
		IsTyping:       isTyping,
		ConversationID: conversationID,
		LastSeen:       time.Now().UnixMilli(),
	}

	if err := uc.presenceRepo.Upsert(ctx, p); err != nil {
		return err
	}

	// cache key 的 TTL 即是 staleness window：心跳一停 key 就過期
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, p.UserID, *p, domain.OnlineStaleThreshold); err != nil {
			logger.Log.Warn("presence cache set failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	// typing 變化需要推給同一對話的其他人
	if uc.pubSub != nil && conversationID != "" {
		uc.fanOutTyping(ctx, p)
	}
	return nil
}

func (uc *presenceUseCase) fanOutTyping(ctx context.Context, p *domain.Presence) {
	conv, err := uc.convRepo.FindByID(ctx, p.ConversationID)
	if err != nil || conv == nil {
		return
	}
	event := domain.Event{
		Type:           domain.EventTyping,
		ConversationID: conv.ID,
		ActorID:        p.UserID,
		Presence:       p,
	}
	for _, memberID := range conv.Participants {
		if memberID == p.UserID {
			continue
		}
		if err := uc.pubSub.Publish(repository.UserChannel(memberID), event); err != nil {
			logger.Log.Errorf("Publish error:", err)
		}
	}
}

func (uc *presenceUseCase) GetPresence(ctx context.Context, userID string) (*domain.Presence, error) {
	if uc.cache != nil {
		if p, err := uc.cache.Get(ctx, userID); err == nil {
			return &p, nil
		}
	}
	return uc.presenceRepo.FindByUser(ctx, userID)
}

func (uc *presenceUseCase) ListTypingUsers(ctx context.Context, conversationID string) ([]domain.User, error) {
	rows, err := uc.presenceRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(rows))
	for _, p := range rows {
		if !p.IsTyping || !p.IsOnline {
			continue
		}
		userID := p.UserID
		user, err := uc.userRepo.FindByUser(ctx, &domain.UserQuery{UserID: &userID})
		if err != nil {
			return nil, err
		}
		if user != nil {
			users = append(users, *user)
		}
	}
	return users, nil
}

func (uc *presenceUseCase) IsUserOnline(ctx context.Context, userID string) (bool, error) {
	// cache 命中即表示 staleness window 內有心跳
	if uc.cache != nil {
		if p, err := uc.cache.Get(ctx, userID); err == nil {
			return p.IsOnline, nil
		}
	}

	p, err := uc.presenceRepo.FindByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, nil
	}
	return p.IsFresh(time.Now()), nil
}
