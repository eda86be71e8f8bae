package app

import (
	"context"
	"time"

	"chat_sync_service/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

// Upsert moke upsert user
func (m *MockUserRepository) Upsert(ctx context.Context, user *domain.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

// FindByUser moke find user
func (m *MockUserRepository) FindByUser(ctx context.Context, userQuery *domain.UserQuery) (*domain.User, error) {
	args := m.Called(ctx, userQuery)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// ListExcept moke list users except one
func (m *MockUserRepository) ListExcept(ctx context.Context, userID string) ([]domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// EnsureSchema moke ensure schema
func (m *MockUserRepository) EnsureSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPresenceRepository Mock PresenceRepository
type MockPresenceRepository struct {
	mock.Mock
}

// Upsert moke upsert presence
func (m *MockPresenceRepository) Upsert(ctx context.Context, p *domain.Presence) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// FindByUser moke find presence by user id
func (m *MockPresenceRepository) FindByUser(ctx context.Context, userID string) (*domain.Presence, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Presence), args.Error(1)
	}
	return nil, args.Error(1)
}

// ListByConversation moke list presence by conversation
func (m *MockPresenceRepository) ListByConversation(ctx context.Context, conversationID string) ([]domain.Presence, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Presence), args.Error(1)
	}
	return nil, args.Error(1)
}

// ListAll moke list all presence rows
func (m *MockPresenceRepository) ListAll(ctx context.Context) ([]domain.Presence, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Presence), args.Error(1)
	}
	return nil, args.Error(1)
}

// EnsureIndexes moke ensure indexes
func (m *MockPresenceRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockConversationRepository Mock ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// Create moke create conversation
func (m *MockConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}

// FindByID moke find conversation by id
func (m *MockConversationRepository) FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByDedupKey moke find conversation by dedup key
func (m *MockConversationRepository) FindByDedupKey(ctx context.Context, key string) (*domain.Conversation, error) {
	args := m.Called(ctx, key)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// SetPinned moke set pinned state
func (m *MockConversationRepository) SetPinned(ctx context.Context, conversationID string, pinned bool) error {
	args := m.Called(ctx, conversationID, pinned)
	return args.Error(0)
}

// ListByParticipant moke list conversations for user
func (m *MockConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// EnsureIndexes moke ensure indexes
func (m *MockConversationRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// InsertWithPreview moke insert msg with preview update
func (m *MockMessageRepository) InsertWithPreview(ctx context.Context, msg *domain.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindByID moke find msg by id
func (m *MockMessageRepository) FindByID(ctx context.Context, messageID string) (*domain.ChatMessage, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// ListByConversation moke list msg by conversation
func (m *MockMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// SetDeleted moke soft delete msg
func (m *MockMessageRepository) SetDeleted(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

// SetBody moke overwrite msg body
func (m *MockMessageRepository) SetBody(ctx context.Context, messageID, body string, editedAt int64) error {
	args := m.Called(ctx, messageID, body, editedAt)
	return args.Error(0)
}

// MarkAllRead moke mark conversation read
func (m *MockMessageRepository) MarkAllRead(ctx context.Context, conversationID, userID string) (int64, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Get(0).(int64), args.Error(1)
}

// PullReaction moke remove reaction
func (m *MockMessageRepository) PullReaction(ctx context.Context, messageID string, reaction domain.Reaction) (bool, error) {
	args := m.Called(ctx, messageID, reaction)
	return args.Bool(0), args.Error(1)
}

// PushReaction moke add reaction
func (m *MockMessageRepository) PushReaction(ctx context.Context, messageID string, reaction domain.Reaction) error {
	args := m.Called(ctx, messageID, reaction)
	return args.Error(0)
}

// CountUnreadByConversation moke count unread per conversation
func (m *MockMessageRepository) CountUnreadByConversation(ctx context.Context, userID string) (map[string]int, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).(map[string]int), args.Error(1)
	}
	return nil, args.Error(1)
}

// EnsureIndexes moke ensure indexes
func (m *MockMessageRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockEventPublisher Mock EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

// Publish moke publish event
func (m *MockEventPublisher) Publish(channel string, event domain.Event) error {
	args := m.Called(channel, event)
	return args.Error(0)
}

// MockPresenceCache Mock RedisRepository[domain.Presence]
type MockPresenceCache struct {
	mock.Mock
}

// Set moke cache set
func (m *MockPresenceCache) Set(ctx context.Context, key string, value domain.Presence, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Get moke cache get
func (m *MockPresenceCache) Get(ctx context.Context, key string) (domain.Presence, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.Presence), args.Error(1)
}

// Del moke cache del
func (m *MockPresenceCache) Del(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// GetTTL moke cache ttl
func (m *MockPresenceCache) GetTTL(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

// ExtendTTL moke cache extend ttl
func (m *MockPresenceCache) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	args := m.Called(ctx, key, ttl)
	return args.Error(0)
}
