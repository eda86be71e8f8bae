package app

import (
	"context"
	"sync"
	"time"

	"chat_sync_service/internal/chat/domain"
	"chat_sync_service/pkg/logger"
)

// PresenceSession 綁定一條 websocket 連線的在線狀態生命週期:
// Start 標記上線並啟動心跳, Typing 短暫標記輸入中, Stop 保證寫入離線
type PresenceSession struct {
	presenceUC PresenceUseCase
	userID     string

	heartbeat  time.Duration
	typingIdle time.Duration

	mu             sync.Mutex
	typing         bool
	conversationID string
	typingTimer    *time.Timer
	cancel         context.CancelFunc
}

// NewPresenceSession one session per websocket connection
func NewPresenceSession(presenceUC PresenceUseCase, userID string) *PresenceSession {
	return &PresenceSession{
		presenceUC: presenceUC,
		userID:     userID,
		heartbeat:  domain.HeartbeatInterval,
		typingIdle: domain.TypingIdleTimeout,
	}
}

// Start marks the user online and keeps the record fresh until Stop
func (s *PresenceSession) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	if err := s.write(runCtx, true, false, ""); err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				typing, convID := s.typing, s.conversationID
				s.mu.Unlock()
				if err := s.write(runCtx, true, typing, convID); err != nil {
					logger.Log.Errorf("presence heartbeat error:", err)
				}
			}
		}
	}()
	return nil
}

// Typing marks typing in the given conversation; auto resets after the idle timeout
func (s *PresenceSession) Typing(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	s.typing = true
	s.conversationID = conversationID
	if s.typingTimer != nil {
		s.typingTimer.Stop()
	}
	s.typingTimer = time.AfterFunc(s.typingIdle, s.resetTyping)
	s.mu.Unlock()

	return s.write(ctx, true, true, conversationID)
}

// resetTyping 2 秒沒有再輸入就自動取消 typing 標記
func (s *PresenceSession) resetTyping() {
	s.mu.Lock()
	if !s.typing {
		s.mu.Unlock()
		return
	}
	s.typing = false
	convID := s.conversationID
	s.conversationID = ""
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.write(ctx, true, false, convID); err != nil {
		logger.Log.Errorf("presence typing reset error:", err)
	}
}

// Stop cancels the heartbeat and always writes the offline record
func (s *PresenceSession) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	s.typing = false
	s.conversationID = ""
	s.mu.Unlock()

	// 斷線時不依賴外部 ctx, 保證離線紀錄寫得進去
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.write(ctx, false, false, ""); err != nil {
		logger.Log.Errorf("presence offline write error:", err)
	}
}

func (s *PresenceSession) write(ctx context.Context, online, typing bool, conversationID string) error {
	return s.presenceUC.UpdatePresence(ctx, s.userID, online, typing, conversationID)
}
