package app

import (
	"context"
	"testing"

	"chat_sync_service/internal/chat/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"
)

// 測試 CreateOrGetDirect 建立新聊天室
func TestConversationUseCase_CreateOrGetDirect(t *testing.T) {
	ctx := context.Background()

	mockConvRepo := new(MockConversationRepository)
	mockMsgRepo := new(MockMessageRepository)
	mockPub := new(MockEventPublisher)

	key := domain.DirectDedupKey(domain.CanonicalParticipants("user-a", "user-b"))
	mockConvRepo.On("FindByDedupKey", ctx, key).Return(nil, nil)
	mockConvRepo.On("Create", ctx, mock.MatchedBy(func(c *domain.Conversation) bool {
		return c.DedupKey == key && !c.IsGroup && len(c.Participants) == 2
	})).Return(nil)
	mockPub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	uc := NewConversationUseCase(mockConvRepo, mockMsgRepo, mockPub)
	convID, err := uc.CreateOrGetDirect(ctx, "user-a", "user-b")

	assert.NoError(t, err)
	assert.NotEmpty(t, convID)
	mockConvRepo.AssertExpectations(t)
}

// (A,B) 與 (B,A) 必須解析到同一間聊天室
func TestConversationUseCase_CreateOrGetDirect_OrderInsensitive(t *testing.T) {
	ctx := context.Background()

	mockConvRepo := new(MockConversationRepository)

	existing := &domain.Conversation{ID: "conv-1", Participants: []string{"user-a", "user-b"}}
	key := domain.DirectDedupKey(domain.CanonicalParticipants("user-b", "user-a"))
	mockConvRepo.On("FindByDedupKey", ctx, key).Return(existing, nil)

	uc := NewConversationUseCase(mockConvRepo, new(MockMessageRepository), new(MockEventPublisher))
	convID, err := uc.CreateOrGetDirect(ctx, "user-b", "user-a")

	assert.NoError(t, err)
	assert.Equal(t, "conv-1", convID)
	// Create 不應被呼叫
	mockConvRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// 跟自己開 1對1 是 validation error
func TestConversationUseCase_CreateOrGetDirect_SelfChat(t *testing.T) {
	ctx := context.Background()

	uc := NewConversationUseCase(new(MockConversationRepository), new(MockMessageRepository), new(MockEventPublisher))
	_, err := uc.CreateOrGetDirect(ctx, "user-a", "user-a")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// 兩個請求同時建立, insert 輸家改讀贏家的聊天室
func TestConversationUseCase_CreateOrGetDirect_LostCreationRace(t *testing.T) {
	ctx := context.Background()

	mockConvRepo := new(MockConversationRepository)
	mockPub := new(MockEventPublisher)

	key := domain.DirectDedupKey(domain.CanonicalParticipants("user-a", "user-b"))
	winner := &domain.Conversation{ID: "conv-winner", DedupKey: key}

	dupErr := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	mockConvRepo.On("FindByDedupKey", ctx, key).Return(nil, nil).Once()
	mockConvRepo.On("Create", ctx, mock.Anything).Return(dupErr)
	mockConvRepo.On("FindByDedupKey", ctx, key).Return(winner, nil).Once()

	uc := NewConversationUseCase(mockConvRepo, new(MockMessageRepository), mockPub)
	convID, err := uc.CreateOrGetDirect(ctx, "user-a", "user-b")

	assert.NoError(t, err)
	assert.Equal(t, "conv-winner", convID)
	// 輸家不該替贏家的聊天室發通知
	mockPub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

// 測試群組建立與成員數下限
func TestConversationUseCase_CreateOrGetGroup(t *testing.T) {
	ctx := context.Background()

	mockConvRepo := new(MockConversationRepository)
	mockPub := new(MockEventPublisher)

	mockConvRepo.On("FindByDedupKey", ctx, mock.Anything).Return(nil, nil)
	mockConvRepo.On("Create", ctx, mock.MatchedBy(func(c *domain.Conversation) bool {
		return c.IsGroup && c.GroupName == "team" && len(c.Participants) == 3
	})).Return(nil)
	mockPub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	uc := NewConversationUseCase(mockConvRepo, new(MockMessageRepository), mockPub)
	convID, err := uc.CreateOrGetGroup(ctx, "user-a", []string{"user-b", "user-c"}, "team")

	assert.NoError(t, err)
	assert.NotEmpty(t, convID)
	// 建立者以外的每個成員各收到一則通知
	mockPub.AssertNumberOfCalls(t, "Publish", 2)
}

func TestConversationUseCase_CreateOrGetGroup_TooFewMembers(t *testing.T) {
	ctx := context.Background()

	uc := NewConversationUseCase(new(MockConversationRepository), new(MockMessageRepository), new(MockEventPublisher))

	// 成員含重複, 正規化後不足 3 人
	_, err := uc.CreateOrGetGroup(ctx, "user-a", []string{"user-a", "user-b"}, "team")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = uc.CreateOrGetGroup(ctx, "user-a", []string{"user-b", "user-c"}, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// 測試 TogglePin 狀態翻轉
func TestConversationUseCase_TogglePin(t *testing.T) {
	ctx := context.Background()

	mockConvRepo := new(MockConversationRepository)

	conv := &domain.Conversation{ID: "conv-1", Participants: []string{"user-a", "user-b"}, IsPinned: false}
	mockConvRepo.On("FindByID", ctx, "conv-1").Return(conv, nil)
	mockConvRepo.On("SetPinned", ctx, "conv-1", true).Return(nil)

	uc := NewConversationUseCase(mockConvRepo, new(MockMessageRepository), new(MockEventPublisher))
	pinned, err := uc.TogglePin(ctx, "conv-1", "user-a")

	assert.NoError(t, err)
	assert.True(t, pinned)
	mockConvRepo.AssertExpectations(t)
}

func TestConversationUseCase_TogglePin_NotFound(t *testing.T) {
	ctx := context.Background()

	mockConvRepo := new(MockConversationRepository)
	mockConvRepo.On("FindByID", ctx, "missing").Return(nil, nil)

	uc := NewConversationUseCase(mockConvRepo, new(MockMessageRepository), new(MockEventPublisher))
	_, err := uc.TogglePin(ctx, "missing", "user-a")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationUseCase_TogglePin_NotParticipant(t *testing.T) {
	ctx := context.Background()

	mockConvRepo := new(MockConversationRepository)
	conv := &domain.Conversation{ID: "conv-1", Participants: []string{"user-a", "user-b"}}
	mockConvRepo.On("FindByID", ctx, "conv-1").Return(conv, nil)

	uc := NewConversationUseCase(mockConvRepo, new(MockMessageRepository), new(MockEventPublisher))
	_, err := uc.TogglePin(ctx, "conv-1", "user-z")

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// 測試清單排序: pinned 在前, 其餘依 last_message_at desc, 同分維持插入序
func TestConversationUseCase_ListForUser_SortContract(t *testing.T) {
	ctx := context.Background()

	mockConvRepo := new(MockConversationRepository)
	mockMsgRepo := new(MockMessageRepository)

	mockConvRepo.On("ListByParticipant", ctx, "user-a").Return([]domain.Conversation{
		{ID: "conv-old", LastMessageAt: 100},
		{ID: "conv-tie-1", LastMessageAt: 200},
		{ID: "conv-tie-2", LastMessageAt: 200},
		{ID: "conv-pinned", LastMessageAt: 50, IsPinned: true},
		{ID: "conv-new", LastMessageAt: 300},
	}, nil)
	mockMsgRepo.On("CountUnreadByConversation", ctx, "user-a").Return(map[string]int{
		"conv-new": 2,
	}, nil)

	uc := NewConversationUseCase(mockConvRepo, mockMsgRepo, new(MockEventPublisher))
	convs, err := uc.ListForUser(ctx, "user-a")

	assert.NoError(t, err)
	ids := make([]string, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"conv-pinned", "conv-new", "conv-tie-1", "conv-tie-2", "conv-old"}, ids)
	assert.Equal(t, 2, convs[1].UnreadCount)
	assert.Equal(t, 0, convs[0].UnreadCount)
}
