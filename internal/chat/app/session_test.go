package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"chat_sync_service/internal/chat/domain"

	"github.com/stretchr/testify/assert"
)

// recordingPresenceUC 記錄每次 UpdatePresence 的狀態
type recordingPresenceUC struct {
	mu     sync.Mutex
	writes []domain.Presence
}

func (r *recordingPresenceUC) UpdatePresence(ctx context.Context, userID string, isOnline, isTyping bool, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, domain.Presence{
		UserID:         userID,
		IsOnline:       isOnline,
		IsTyping:       isTyping,
		ConversationID: conversationID,
	})
	return nil
}

func (r *recordingPresenceUC) GetPresence(ctx context.Context, userID string) (*domain.Presence, error) {
	return nil, nil
}

func (r *recordingPresenceUC) ListTypingUsers(ctx context.Context, conversationID string) ([]domain.User, error) {
	return nil, nil
}

func (r *recordingPresenceUC) IsUserOnline(ctx context.Context, userID string) (bool, error) {
	return false, nil
}

func (r *recordingPresenceUC) snapshot() []domain.Presence {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Presence, len(r.writes))
	copy(out, r.writes)
	return out
}

// Start 先寫 online, Stop 一定補上 offline
func TestPresenceSession_StartStop(t *testing.T) {
	rec := &recordingPresenceUC{}
	session := NewPresenceSession(rec, "user-1")

	err := session.Start(context.Background())
	assert.NoError(t, err)
	session.Stop()

	writes := rec.snapshot()
	assert.GreaterOrEqual(t, len(writes), 2)
	assert.True(t, writes[0].IsOnline)
	last := writes[len(writes)-1]
	assert.False(t, last.IsOnline)
	assert.False(t, last.IsTyping)
}

// 心跳期間持續刷新 last_seen
func TestPresenceSession_Heartbeat(t *testing.T) {
	rec := &recordingPresenceUC{}
	session := NewPresenceSession(rec, "user-1")
	session.heartbeat = 20 * time.Millisecond

	err := session.Start(context.Background())
	assert.NoError(t, err)

	time.Sleep(90 * time.Millisecond)
	session.Stop()

	writes := rec.snapshot()
	// 初始 online + 至少兩次心跳 + 離線
	assert.GreaterOrEqual(t, len(writes), 4)
	for _, w := range writes[:len(writes)-1] {
		assert.True(t, w.IsOnline)
	}
}

// typing 標記在 idle timeout 後自動歸零
func TestPresenceSession_TypingAutoReset(t *testing.T) {
	rec := &recordingPresenceUC{}
	session := NewPresenceSession(rec, "user-1")
	session.typingIdle = 30 * time.Millisecond

	err := session.Start(context.Background())
	assert.NoError(t, err)

	err = session.Typing(context.Background(), "conv-1")
	assert.NoError(t, err)

	time.Sleep(80 * time.Millisecond)
	session.Stop()

	writes := rec.snapshot()
	var sawTyping, sawReset bool
	for _, w := range writes {
		if w.IsTyping && w.ConversationID == "conv-1" {
			sawTyping = true
		}
		if sawTyping && !w.IsTyping {
			sawReset = true
		}
	}
	assert.True(t, sawTyping)
	assert.True(t, sawReset)
}

// 連續輸入會展延 reset 計時
func TestPresenceSession_TypingKeepAlive(t *testing.T) {
	rec := &recordingPresenceUC{}
	session := NewPresenceSession(rec, "user-1")
	session.typingIdle = 50 * time.Millisecond

	err := session.Start(context.Background())
	assert.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.NoError(t, session.Typing(context.Background(), "conv-1"))
		time.Sleep(20 * time.Millisecond)
	}
	// 20ms 間隔 < 50ms idle, 期間不應出現 reset
	writes := rec.snapshot()
	for _, w := range writes {
		if w.ConversationID == "conv-1" {
			assert.True(t, w.IsTyping)
		}
	}
	session.Stop()
}
