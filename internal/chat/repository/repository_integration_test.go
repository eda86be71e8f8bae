package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"chat_sync_service/internal/chat/domain"
	"chat_sync_service/pkg/database"
	"chat_sync_service/pkg/logger"
	testtool "chat_sync_service/pkg/test_tool"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	testMongo    *database.MongoDB
	testUserRepo UserRepository
)

// **TestMain 初始化測試環境**
// CHAT_INTEGRATION=1 才會啟動容器
func TestMain(m *testing.M) {
	logger.SetNewNop()

	if os.Getenv("CHAT_INTEGRATION") != "1" {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	// **啟動 MongoDB** (single node replica set, 交易需要)
	mongoContainer, mongoHost, mongoPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mongo:latest",
		ExposedPorts: []string{"27017/tcp"},
		Cmd:          []string{"--replSet", "rs0", "--bind_ip_all"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start MongoDB container: %v", err)
	}
	if _, _, err := mongoContainer.Exec(ctx, []string{"mongosh", "--eval", "rs.initiate()"}); err != nil {
		log.Fatalf("❌ Failed to init replica set: %v", err)
	}

	// **啟動 PostgreSQL**
	pgContainer, pgHost, pgPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "chat",
			"POSTGRES_PASSWORD": "chat",
			"POSTGRES_DB":       "chat_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start PostgreSQL container: %v", err)
	}

	testMongo, err = database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    fmt.Sprintf("mongodb://%s:%s/?directConnection=true", mongoHost, mongoPort),
		RetryCount:    5,
		RetryInterval: 5,
	}, "test_repo_db")
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}

	pgPool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    fmt.Sprintf("postgres://chat:chat@%s:%s/chat_test", pgHost, pgPort),
		RetryCount:    5,
		RetryInterval: 5,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}

	testUserRepo = NewUserRepository(pgPool)
	if err := testUserRepo.EnsureSchema(ctx); err != nil {
		log.Fatalf("❌ Failed to create schema: %v", err)
	}

	code := m.Run()

	testMongo.Close(ctx)
	_ = mongoContainer.Terminate(ctx)
	_ = pgContainer.Terminate(ctx)

	os.Exit(code)
}

func requireIntegration(t *testing.T) {
	if os.Getenv("CHAT_INTEGRATION") != "1" {
		t.Skip("set CHAT_INTEGRATION=1 to run container tests")
	}
}

// 同一個 external_id 重複 upsert 不會長出第二筆
func TestUserRepositoryUpsertIdempotent(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()

	first := &domain.User{
		UserID:      uuid.New().String(),
		ExternalID:  "it|upsert",
		DisplayName: "Alice",
		Email:       "alice@example.com",
	}
	id1, err := testUserRepo.Upsert(ctx, first)
	assert.NoError(t, err)

	second := &domain.User{
		UserID:      uuid.New().String(), // 新的 uuid 必須被忽略
		ExternalID:  "it|upsert",
		DisplayName: "Alice Cooper",
		Email:       "alice@example.com",
	}
	id2, err := testUserRepo.Upsert(ctx, second)
	assert.NoError(t, err)
	assert.Equal(t, id1, id2)

	stored, err := testUserRepo.FindByUser(ctx, &domain.UserQuery{UserID: &id1})
	assert.NoError(t, err)
	assert.NotNil(t, stored)
	assert.Equal(t, "Alice Cooper", stored.DisplayName)
}

// dedup_key 的唯一索引擋下同時建立
func TestConversationRepositoryDedupIndex(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()

	repo := NewMongoConversationRepository(testMongo.Database)
	assert.NoError(t, repo.EnsureIndexes(ctx))

	participants := domain.CanonicalParticipants("it-user-a", "it-user-b")
	key := domain.DirectDedupKey(participants)

	first := &domain.Conversation{
		ID:           uuid.New().String(),
		Participants: participants,
		DedupKey:     key,
		CreatedBy:    "it-user-a",
	}
	assert.NoError(t, repo.Create(ctx, first))

	second := &domain.Conversation{
		ID:           uuid.New().String(),
		Participants: participants,
		DedupKey:     key,
		CreatedBy:    "it-user-b",
	}
	err := repo.Create(ctx, second)
	assert.Error(t, err)
	assert.True(t, IsDuplicateKey(err))
}

// 訊息寫入與聊天室預覽更新同生共死
func TestMessageRepositoryInsertWithPreview(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()

	convRepo := NewMongoConversationRepository(testMongo.Database)
	msgRepo := NewMongoMessageRepository(testMongo.Database)

	conv := &domain.Conversation{
		ID:           uuid.New().String(),
		Participants: []string{"it-a", "it-b"},
		DedupKey:     "direct:" + uuid.New().String(),
		CreatedBy:    "it-a",
	}
	assert.NoError(t, convRepo.Create(ctx, conv))

	msg := &domain.ChatMessage{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       "it-a",
		Body:           "preview me",
		CreatedAt:      time.Now().UnixMilli(),
		ReadBy:         []string{"it-a"},
		Reactions:      []domain.Reaction{},
	}
	assert.NoError(t, msgRepo.InsertWithPreview(ctx, msg))

	stored, err := convRepo.FindByID(ctx, conv.ID)
	assert.NoError(t, err)
	assert.Equal(t, "preview me", stored.LastMessage)
	assert.Equal(t, "it-a", stored.LastMessageSenderID)
	assert.Equal(t, msg.CreatedAt, stored.LastMessageAt)

	// 不存在的聊天室整筆交易回滾, 訊息不落地
	ghost := &domain.ChatMessage{
		ID:             uuid.New().String(),
		ConversationID: "no-such-conversation",
		SenderID:       "it-a",
		Body:           "orphan",
		CreatedAt:      time.Now().UnixMilli(),
	}
	assert.Error(t, msgRepo.InsertWithPreview(ctx, ghost))
	orphan, err := msgRepo.FindByID(ctx, ghost.ID)
	assert.NoError(t, err)
	assert.Nil(t, orphan)
}

// MarkAllRead 冪等且單調
func TestMessageRepositoryMarkAllRead(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()

	convRepo := NewMongoConversationRepository(testMongo.Database)
	msgRepo := NewMongoMessageRepository(testMongo.Database)

	conv := &domain.Conversation{
		ID:           uuid.New().String(),
		Participants: []string{"it-a", "it-b"},
		DedupKey:     "direct:" + uuid.New().String(),
		CreatedBy:    "it-a",
	}
	assert.NoError(t, convRepo.Create(ctx, conv))

	for i := 0; i < 3; i++ {
		msg := &domain.ChatMessage{
			ID:             uuid.New().String(),
			ConversationID: conv.ID,
			SenderID:       "it-a",
			Body:           fmt.Sprintf("msg %d", i),
			CreatedAt:      time.Now().UnixMilli(),
			ReadBy:         []string{"it-a"},
			Reactions:      []domain.Reaction{},
		}
		assert.NoError(t, msgRepo.InsertWithPreview(ctx, msg))
	}

	unread, err := msgRepo.CountUnreadByConversation(ctx, "it-b")
	assert.NoError(t, err)
	assert.Equal(t, 3, unread[conv.ID])

	modified, err := msgRepo.MarkAllRead(ctx, conv.ID, "it-b")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), modified)

	// 第二次沒有東西可標
	modified, err = msgRepo.MarkAllRead(ctx, conv.ID, "it-b")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), modified)

	unread, err = msgRepo.CountUnreadByConversation(ctx, "it-b")
	assert.NoError(t, err)
	assert.Equal(t, 0, unread[conv.ID])
}

// reaction pull/push 在 DB 層的往返
func TestMessageRepositoryReactionRoundTrip(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()

	convRepo := NewMongoConversationRepository(testMongo.Database)
	msgRepo := NewMongoMessageRepository(testMongo.Database)

	conv := &domain.Conversation{
		ID:           uuid.New().String(),
		Participants: []string{"it-a", "it-b"},
		DedupKey:     "direct:" + uuid.New().String(),
		CreatedBy:    "it-a",
	}
	assert.NoError(t, convRepo.Create(ctx, conv))

	msg := &domain.ChatMessage{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       "it-a",
		Body:           "react to me",
		CreatedAt:      time.Now().UnixMilli(),
		ReadBy:         []string{"it-a"},
		Reactions:      []domain.Reaction{},
	}
	assert.NoError(t, msgRepo.InsertWithPreview(ctx, msg))

	reaction := domain.Reaction{UserID: "it-b", Emoji: "👍"}

	// 還沒反應過, pull 不到
	removed, err := msgRepo.PullReaction(ctx, msg.ID, reaction)
	assert.NoError(t, err)
	assert.False(t, removed)

	assert.NoError(t, msgRepo.PushReaction(ctx, msg.ID, reaction))
	// push 兩次也只留一筆 ($addToSet)
	assert.NoError(t, msgRepo.PushReaction(ctx, msg.ID, reaction))

	stored, err := msgRepo.FindByID(ctx, msg.ID)
	assert.NoError(t, err)
	assert.True(t, stored.HasReaction("it-b", "👍"))
	assert.Len(t, stored.Reactions, 1)

	removed, err = msgRepo.PullReaction(ctx, msg.ID, reaction)
	assert.NoError(t, err)
	assert.True(t, removed)

	stored, err = msgRepo.FindByID(ctx, msg.ID)
	assert.NoError(t, err)
	assert.False(t, stored.HasReaction("it-b", "👍"))
}

// presence 同一使用者只有一筆紀錄
func TestPresenceRepositorySingleRow(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()

	repo := NewMongoPresenceRepository(testMongo.Database)
	assert.NoError(t, repo.EnsureIndexes(ctx))

	for i := 0; i < 3; i++ {
		assert.NoError(t, repo.Upsert(ctx, &domain.Presence{
			UserID:   "it-presence",
			IsOnline: true,
			LastSeen: time.Now().UnixMilli(),
		}))
	}

	all, err := repo.ListAll(ctx)
	assert.NoError(t, err)
	count := 0
	for _, p := range all {
		if p.UserID == "it-presence" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
