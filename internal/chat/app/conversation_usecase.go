package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"chat_sync_service/internal/chat/domain"
	"chat_sync_service/internal/chat/repository"
	errprocess "chat_sync_service/pkg/err"
	"chat_sync_service/pkg/logger"
)

// minGroupParticipants creator + at least 2 other members
const minGroupParticipants = 3

// ConversationUseCase - 用於建立/查詢聊天室 (群組或 1對1)
type ConversationUseCase interface {
	// CreateOrGetDirect order safe: (A,B) and (B,A) resolve to the same conversation
	CreateOrGetDirect(ctx context.Context, userA, userB string) (string, error)
	CreateOrGetGroup(ctx context.Context, creatorID string, memberIDs []string, groupName string) (string, error)
	// TogglePin flips the flag and returns the new state
	TogglePin(ctx context.Context, conversationID, userID string) (bool, error)
	// ListForUser sidebar projection: pinned first, then last_message_at desc
	ListForUser(ctx context.Context, userID string) ([]domain.ConversationWithUnread, error)
}

type conversationUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	pubSub   repository.EventPublisher
}

// NewConversationUseCase init conversation use case
func NewConversationUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	pubSub repository.EventPublisher,
) ConversationUseCase {
	return &conversationUseCase{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		pubSub:   pubSub,
	}
}

func (uc *conversationUseCase) CreateOrGetDirect(ctx context.Context, userA, userB string) (string, error) {
	if userA == "" || userB == "" {
		return "", fmt.Errorf("%w: both participants required", domain.ErrValidation)
	}
	if userA == userB {
		return "", fmt.Errorf("%w: direct conversation needs two distinct users", domain.ErrValidation)
	}

	participants := domain.CanonicalParticipants(userA, userB)
	key := domain.DirectDedupKey(participants)

	conv := &domain.Conversation{
		ID:            uuid.New().String(),
		Participants:  participants,
		IsGroup:       false,
		CreatedBy:     userA,
		LastMessage:   "",
		LastMessageAt: time.Now().UnixMilli(),
		IsPinned:      false,
		DedupKey:      key,
		CreatedAt:     time.Now().UnixMilli(),
	}
	return uc.createOrGet(ctx, conv)
}

func (uc *conversationUseCase) CreateOrGetGroup(ctx context.Context, creatorID string, memberIDs []string, groupName string) (string, error) {
	groupName = strings.TrimSpace(groupName)
	if groupName == "" {
		return "", fmt.Errorf("%w: group name required", domain.ErrValidation)
	}

	participants := domain.CanonicalParticipants(append(memberIDs, creatorID)...)
	if len(participants) < minGroupParticipants {
		return "", fmt.Errorf("%w: group needs at least %d participants", domain.ErrValidation, minGroupParticipants)
	}

	conv := &domain.Conversation{
		ID:            uuid.New().String(),
		Participants:  participants,
		IsGroup:       true,
		GroupName:     groupName,
		CreatedBy:     creatorID,
		LastMessage:   "",
		LastMessageAt: time.Now().UnixMilli(),
		IsPinned:      false,
		DedupKey:      domain.GroupDedupKey(participants, groupName),
		CreatedAt:     time.Now().UnixMilli(),
	}
	return uc.createOrGet(ctx, conv)
}

// createOrGet 先查 dedup key；insert 撞到唯一索引表示輸掉建立競賽，改讀贏家
func (uc *conversationUseCase) createOrGet(ctx context.Context, conv *domain.Conversation) (string, error) {
	existing, err := uc.convRepo.FindByDedupKey(ctx, conv.DedupKey)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}

	if err := uc.convRepo.Create(ctx, conv); err != nil {
		if repository.IsDuplicateKey(err) {
			winner, findErr := uc.convRepo.FindByDedupKey(ctx, conv.DedupKey)
			if findErr != nil {
				return "", findErr
			}
			if winner != nil {
				return winner.ID, nil
			}
			return "", errprocess.Set(fmt.Sprintf("conversation vanished after duplicate insert: %s", conv.DedupKey))
		}
		return "", err
	}

	uc.notifyCreated(conv)
	return conv.ID, nil
}

func (uc *conversationUseCase) notifyCreated(conv *domain.Conversation) {
	if uc.pubSub == nil {
		return
	}
	event := domain.Event{
		Type:           domain.EventConversationCreated,
		ConversationID: conv.ID,
		ActorID:        conv.CreatedBy,
		Conversation:   conv,
	}
	for _, memberID := range conv.Participants {
		if memberID == conv.CreatedBy {
			continue
		}
		if err := uc.pubSub.Publish(repository.UserChannel(memberID), event); err != nil {
			logger.Log.Errorf("Publish error:", err)
		}
	}
}

func (uc *conversationUseCase) TogglePin(ctx context.Context, conversationID, userID string) (bool, error) {
	conv, err := uc.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return false, err
	}
	if conv == nil {
		return false, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, conversationID)
	}
	if !conv.HasParticipant(userID) {
		return false, fmt.Errorf("%w: not a participant", domain.ErrForbidden)
	}

	newState := !conv.IsPinned
	if err := uc.convRepo.SetPinned(ctx, conversationID, newState); err != nil {
		return false, err
	}
	return newState, nil
}

func (uc *conversationUseCase) ListForUser(ctx context.Context, userID string) ([]domain.ConversationWithUnread, error) {
	convs, err := uc.convRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	unread, err := uc.msgRepo.CountUnreadByConversation(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.ConversationWithUnread, 0, len(convs))
	for _, conv := range convs {
		result = append(result, domain.ConversationWithUnread{
			Conversation: conv,
			UnreadCount:  unread[conv.ID],
		})
	}

	// stable sort 保留 store 的插入順序作為平手時的次序
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].IsPinned != result[j].IsPinned {
			return result[i].IsPinned
		}
		return result[i].LastMessageAt > result[j].LastMessageAt
	})
	return result, nil
}
