package app

import (
	"context"
	"errors"
	"testing"

	"chat_sync_service/internal/chat/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// 測試 UpsertUser 回傳 repository 決定的 user_id
func TestUserUseCase_UpsertUser(t *testing.T) {
	ctx := context.Background()

	mockUserRepo := new(MockUserRepository)
	mockPresenceRepo := new(MockPresenceRepository)

	mockUserRepo.On("Upsert", ctx, mock.Anything).Return("user-id-1", nil)

	uc := NewUserUseCase(mockUserRepo, mockPresenceRepo)
	userID, err := uc.UpsertUser(ctx, "auth0|abc", "Alice", "alice@example.com", "https://img/a.png")

	assert.NoError(t, err)
	assert.Equal(t, "user-id-1", userID)
	mockUserRepo.AssertExpectations(t)
}

// 再次 UpsertUser 只更新 profile, user_id 不變
func TestUserUseCase_UpsertUser_SecondLoginKeepsID(t *testing.T) {
	ctx := context.Background()

	mockUserRepo := new(MockUserRepository)
	mockPresenceRepo := new(MockPresenceRepository)

	mockUserRepo.On("Upsert", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.ExternalID == "auth0|abc" && u.DisplayName == "Alice Cooper"
	})).Return("user-id-1", nil)

	uc := NewUserUseCase(mockUserRepo, mockPresenceRepo)
	userID, err := uc.UpsertUser(ctx, "auth0|abc", "Alice Cooper", "alice@example.com", "")

	assert.NoError(t, err)
	assert.Equal(t, "user-id-1", userID)
}

// external id 空白直接打回
func TestUserUseCase_UpsertUser_BlankExternalID(t *testing.T) {
	ctx := context.Background()

	uc := NewUserUseCase(new(MockUserRepository), new(MockPresenceRepository))
	_, err := uc.UpsertUser(ctx, "   ", "Alice", "", "")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// 測試 ListOtherUsers 排除自己並帶上 presence
func TestUserUseCase_ListOtherUsers(t *testing.T) {
	ctx := context.Background()

	mockUserRepo := new(MockUserRepository)
	mockPresenceRepo := new(MockPresenceRepository)

	me := &domain.User{UserID: "user-1", ExternalID: "auth0|me"}
	mockUserRepo.On("FindByUser", ctx, mock.Anything).Return(me, nil)
	mockUserRepo.On("ListExcept", ctx, "user-1").Return([]domain.User{
		{UserID: "user-2", DisplayName: "Bob"},
		{UserID: "user-3", DisplayName: "Carol"},
	}, nil)
	mockPresenceRepo.On("ListAll", ctx).Return([]domain.Presence{
		{UserID: "user-2", IsOnline: true, LastSeen: 1000},
	}, nil)

	uc := NewUserUseCase(mockUserRepo, mockPresenceRepo)
	users, err := uc.ListOtherUsers(ctx, "auth0|me")

	assert.NoError(t, err)
	assert.Len(t, users, 2)
	assert.True(t, users[0].IsOnline)
	assert.Equal(t, int64(1000), users[0].LastSeen)
	// 沒有 presence 紀錄視為離線
	assert.False(t, users[1].IsOnline)
}

// 呼叫者不存在時回傳空清單而不是錯誤
func TestUserUseCase_ListOtherUsers_UnknownCaller(t *testing.T) {
	ctx := context.Background()

	mockUserRepo := new(MockUserRepository)
	mockUserRepo.On("FindByUser", ctx, mock.Anything).Return(nil, nil)

	uc := NewUserUseCase(mockUserRepo, new(MockPresenceRepository))
	users, err := uc.ListOtherUsers(ctx, "auth0|ghost")

	assert.NoError(t, err)
	assert.Empty(t, users)
}

// repository 錯誤要往上傳
func TestUserUseCase_ListOtherUsers_RepoError(t *testing.T) {
	ctx := context.Background()

	mockUserRepo := new(MockUserRepository)
	mockUserRepo.On("FindByUser", ctx, mock.Anything).Return(nil, errors.New("db down"))

	uc := NewUserUseCase(mockUserRepo, new(MockPresenceRepository))
	_, err := uc.ListOtherUsers(ctx, "auth0|me")

	assert.Error(t, err)
}
