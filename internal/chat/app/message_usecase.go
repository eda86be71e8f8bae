package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"chat_sync_service/internal/chat/domain"
	"chat_sync_service/internal/chat/repository"
	"chat_sync_service/pkg/logger"
)

// MessageUseCase - 訊息的發送/編輯/刪除/已讀/反應
type MessageUseCase interface {
	Send(ctx context.Context, conversationID, senderID, body string) (string, error)
	ListMessages(ctx context.Context, conversationID, userID string) ([]domain.ChatMessage, error)
	// SoftDelete keeps the row, blanks the body on read side
	SoftDelete(ctx context.Context, messageID, userID string) error
	Edit(ctx context.Context, messageID, userID, body string) error
	// MarkRead idempotent; returns how many messages became read
	MarkRead(ctx context.Context, conversationID, userID string) (int64, error)
	// ToggleReaction returns true when the reaction is present after the call
	ToggleReaction(ctx context.Context, messageID, userID, emoji string) (bool, error)
}

type messageUseCase struct {
	msgRepo  repository.MessageRepository
	convRepo repository.ConversationRepository
	pubSub   repository.EventPublisher
}

// NewMessageUseCase init message use case
func NewMessageUseCase(
	msgRepo repository.MessageRepository,
	convRepo repository.ConversationRepository,
	pubSub repository.EventPublisher,
) MessageUseCase {
	return &messageUseCase{
		msgRepo:  msgRepo,
		convRepo: convRepo,
		pubSub:   pubSub,
	}
}

func (uc *messageUseCase) Send(ctx context.Context, conversationID, senderID, body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", fmt.Errorf("%w: message body required", domain.ErrValidation)
	}

	conv, err := uc.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return "", err
	}
	if conv == nil {
		return "", fmt.Errorf("%w: conversation %s", domain.ErrNotFound, conversationID)
	}
	if !conv.HasParticipant(senderID) {
		return "", fmt.Errorf("%w: not a participant", domain.ErrForbidden)
	}

	msg := &domain.ChatMessage{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		CreatedAt:      time.Now().UnixMilli(),
		ReadBy:         []string{senderID}, // 發送者一律視為已讀
		Reactions:      []domain.Reaction{},
	}
	if err := uc.msgRepo.InsertWithPreview(ctx, msg); err != nil {
		return "", err
	}

	uc.notify(conv, domain.Event{
		Type:           domain.EventMessageSent,
		ConversationID: conversationID,
		ActorID:        senderID,
		MessageID:      msg.ID,
		Message:        msg,
	})
	return msg.ID, nil
}

func (uc *messageUseCase) ListMessages(ctx context.Context, conversationID, userID string) ([]domain.ChatMessage, error) {
	conv, err := uc.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, conversationID)
	}
	if !conv.HasParticipant(userID) {
		return nil, fmt.Errorf("%w: not a participant", domain.ErrForbidden)
	}

	msgs, err := uc.msgRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	// 已刪除的訊息保留位置但不回傳內容
	for i := range msgs {
		if msgs[i].IsDeleted {
			msgs[i].Body = ""
			msgs[i].Reactions = []domain.Reaction{}
		}
	}
	return msgs, nil
}

func (uc *messageUseCase) SoftDelete(ctx context.Context, messageID, userID string) error {
	msg, conv, err := uc.findOwnMessage(ctx, messageID, userID)
	if err != nil {
		return err
	}

	if err := uc.msgRepo.SetDeleted(ctx, messageID); err != nil {
		return err
	}

	uc.notify(conv, domain.Event{
		Type:           domain.EventMessageDeleted,
		ConversationID: msg.ConversationID,
		ActorID:        userID,
		MessageID:      messageID,
	})
	return nil
}

func (uc *messageUseCase) Edit(ctx context.Context, messageID, userID, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return fmt.Errorf("%w: message body required", domain.ErrValidation)
	}

	msg, conv, err := uc.findOwnMessage(ctx, messageID, userID)
	if err != nil {
		return err
	}
	if msg.IsDeleted {
		return fmt.Errorf("%w: message %s", domain.ErrNotFound, messageID)
	}

	if err := uc.msgRepo.SetBody(ctx, messageID, body, time.Now().UnixMilli()); err != nil {
		return err
	}

	uc.notify(conv, domain.Event{
		Type:           domain.EventMessageEdited,
		ConversationID: msg.ConversationID,
		ActorID:        userID,
		MessageID:      messageID,
	})
	return nil
}

// findOwnMessage 查訊息並確認操作者為發送者 (編輯/刪除僅限本人)
func (uc *messageUseCase) findOwnMessage(ctx context.Context, messageID, userID string) (*domain.ChatMessage, *domain.Conversation, error) {
	msg, err := uc.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		return nil, nil, err
	}
	if msg == nil {
		return nil, nil, fmt.Errorf("%w: message %s", domain.ErrNotFound, messageID)
	}
	if msg.SenderID != userID {
		return nil, nil, fmt.Errorf("%w: only the sender may modify a message", domain.ErrForbidden)
	}
	conv, err := uc.convRepo.FindByID(ctx, msg.ConversationID)
	if err != nil {
		return nil, nil, err
	}
	return msg, conv, nil
}

func (uc *messageUseCase) MarkRead(ctx context.Context, conversationID, userID string) (int64, error) {
	conv, err := uc.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if conv == nil {
		return 0, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, conversationID)
	}
	if !conv.HasParticipant(userID) {
		return 0, fmt.Errorf("%w: not a participant", domain.ErrForbidden)
	}

	modified, err := uc.msgRepo.MarkAllRead(ctx, conversationID, userID)
	if err != nil {
		return 0, err
	}
	if modified > 0 {
		uc.notify(conv, domain.Event{
			Type:           domain.EventMessagesRead,
			ConversationID: conversationID,
			ActorID:        userID,
		})
	}
	return modified, nil
}

func (uc *messageUseCase) ToggleReaction(ctx context.Context, messageID, userID, emoji string) (bool, error) {
	if emoji == "" {
		return false, fmt.Errorf("%w: emoji required", domain.ErrValidation)
	}

	msg, err := uc.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		return false, err
	}
	if msg == nil || msg.IsDeleted {
		return false, fmt.Errorf("%w: message %s", domain.ErrNotFound, messageID)
	}

	conv, err := uc.convRepo.FindByID(ctx, msg.ConversationID)
	if err != nil {
		return false, err
	}
	if conv == nil {
		return false, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, msg.ConversationID)
	}
	if !conv.HasParticipant(userID) {
		return false, fmt.Errorf("%w: not a participant", domain.ErrForbidden)
	}

	// 先嘗試 pull, 拉不到東西代表尚未反應過 → push ($addToSet, 同時 toggle 也不會重複)
	removed, err := uc.msgRepo.PullReaction(ctx, messageID, domain.Reaction{UserID: userID, Emoji: emoji})
	if err != nil {
		return false, err
	}
	present := false
	if !removed {
		if err := uc.msgRepo.PushReaction(ctx, messageID, domain.Reaction{UserID: userID, Emoji: emoji}); err != nil {
			return false, err
		}
		present = true
	}

	uc.notify(conv, domain.Event{
		Type:           domain.EventReactionToggled,
		ConversationID: msg.ConversationID,
		ActorID:        userID,
		MessageID:      messageID,
	})
	return present, nil
}

// notify fan-out to every participant except the actor
func (uc *messageUseCase) notify(conv *domain.Conversation, event domain.Event) {
	if uc.pubSub == nil || conv == nil {
		return
	}
	for _, memberID := range conv.Participants {
		if memberID == event.ActorID {
			continue
		}
		if err := uc.pubSub.Publish(repository.UserChannel(memberID), event); err != nil {
			logger.Log.Errorf("Publish error:", err)
		}
	}
}
