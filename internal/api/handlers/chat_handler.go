package handlers

import (
	"fmt"

	"chat_sync_service/internal/chat/app"
	"chat_sync_service/internal/chat/domain"
	"chat_sync_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// ChatHandler 处理聊天相关的 HTTP 请求
type ChatHandler struct {
	userUC     app.UserUseCase
	convUC     app.ConversationUseCase
	messageUC  app.MessageUseCase
	presenceUC app.PresenceUseCase
}

// NewChatHandler 创建新的 ChatHandler
func NewChatHandler(
	userUC app.UserUseCase,
	convUC app.ConversationUseCase,
	messageUC app.MessageUseCase,
	presenceUC app.PresenceUseCase,
) *ChatHandler {
	return &ChatHandler{
		userUC:     userUC,
		convUC:     convUC,
		messageUC:  messageUC,
		presenceUC: presenceUC,
	}
}

// currentUserID token 的 external id 換成內部 user id
func (h *ChatHandler) currentUserID(c *fiber.Ctx) (string, error) {
	externalID, _ := c.Locals(middlewares.TokenExternalID).(string)
	user, err := h.userUC.GetUserByExternalID(c.Context(), externalID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", fmt.Errorf("%w: user for token", domain.ErrNotFound)
	}
	return user.UserID, nil
}

// CreateDirect 建立 1對1 聊天室
// @Summary 建立 1對1 聊天室
// @Description 已存在時回傳同一間, (A,B) 與 (B,A) 視為相同
// @Tags Conversations
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "conversation_id"
// @Failure 400 {object} string "请求错误"
// @Router /conversation/direct [post]
func (h *ChatHandler) CreateDirect(c *fiber.Ctx) error {
	type request struct {
		OtherUserID string `json:"other_user_id"`
	}
	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	userID, err := h.currentUserID(c)
	if err != nil {
		return errorResponse(c, err)
	}

	convID, err := h.convUC.CreateOrGetDirect(c.Context(), userID, req.OtherUserID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"conversation_id": convID})
}

// CreateGroup 建立群組聊天室
// @Summary 建立群組聊天室
// @Description 成員含建立者至少 3 人, 同名同成員回傳同一間
// @Tags Conversations
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "conversation_id"
// @Failure 400 {object} string "请求错误"
// @Router /conversation/group [post]
func (h *ChatHandler) CreateGroup(c *fiber.Ctx) error {
	type request struct {
		Members   []string `json:"members"`
		GroupName string   `json:"group_name"`
	}
	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	userID, err := h.currentUserID(c)
	if err != nil {
		return errorResponse(c, err)
	}

	convID, err := h.convUC.CreateOrGetGroup(c.Context(), userID, req.Members, req.GroupName)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"conversation_id": convID})
}

// ListConversations 聊天室清單
// @Summary 聊天室清單
// @Description 釘選優先, 其餘依最後訊息時間排序, 附帶未讀數
// @Tags Conversations
// @Produce json
// @Success 200 {array} domain.ConversationWithUnread
// @Router /conversation/list [get]
func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	userID, err := h.currentUserID(c)
	if err != nil {
		return errorResponse(c, err)
	}

	convs, err := h.convUC.ListForUser(c.Context(), userID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(convs)
}

// TogglePin 釘選/取消釘選
// @Summary 釘選/取消釘選聊天室
// @Tags Conversations
// @Param conversation_id path string true "Conversation ID"
// @Produce json
// @Success 200 {object} map[string]bool "is_pinned"
// @Failure 403 {object} string "非成員"
// @Failure 404 {object} string "聊天室不存在"
// @Router /conversation/{conversation_id}/pin [post]
func (h *ChatHandler) TogglePin(c *fiber.Ctx) error {
	userID, err := h.currentUserID(c)
	if err != nil {
		return errorResponse(c, err)
	}

	pinned, err := h.convUC.TogglePin(c.Context(), c.Params("conversation_id"), userID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"is_pinned": pinned})
}

// SendMessage 發送訊息
// @Summary 發送訊息
// @Description 寫入訊息並更新聊天室預覽, 推播給其他成員
// @Tags Messages
// @Accept json
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Success 200 {object} map[string]string "message_id"
// @Failure 400 {object} string "请求错误"
// @Failure 403 {object} string "非成員"
// @Router /conversation/{conversation_id}/message [post]
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	type request struct {
		Body string `json:"body"`
	}
	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	userID, err := h.currentUserID(c)
	if err != nil {
		return errorResponse(c, err)
	}

	msgID, err := h.messageUC.Send(c.Context(), c.Params("conversation_id"), userID, req.Body)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message_id": msgID})
}

// ListMessages 聊天室訊息
// @Summary 聊天室訊息
// @Description 依時間升冪, 已刪除訊息保留位置但不含內容
// @Tags Messages
// @Param conversation_id path string true "Conversation ID"
// @Produce json
// @Success 200 {array} domain.ChatMessage
// @Failure 403 {object} string "非成員"
// @Router /conversation/{conversation_id}/messages [get]
func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	userID, err := h.currentUserID(c)
	if err != nil {
		return errorResponse(c, err)
	}

	msgs, err := h.messageUC.ListMessages(c.Context(), c.Params("conversation_id"), userID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(msgs)
}

// EditMessage 編輯訊息
// @Summary 編輯訊息
// @Description 僅限發送者本人, 會標記 edited_at
// @Tags Messages
// @Accept json
// @Param message_id path string true "Message ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} string "非發送者"
// @Router /message/{message_id} [put]
func (h *ChatHandler) EditMessage(c *fiber.Ctx) error {
	type request struct {
		Body string `json:"body"`
	}
	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	userID, err := h.currentUserID(c)
	if err != nil {
		return errorResponse(c, err)
	}

	if err := h.messageUC.Edit(c.Context(), c.Params("message_id"), userID, req.Body); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "edit success"})
}

// DeleteMessage 刪除訊息
// @Summary 刪除訊息 (soft delete)
// @Description 僅限發送者本人, 訊息保留位置但內容清空
// @Tags Messages
// @Param message_id path string true "Message ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} string "非發送者"
// @Router /message/{message_id} [delete]
func (h *ChatHandler) DeleteMessage(c *fiber.Ctx) error {
	userID, err := h.currentUserID(c)
	if err != nil {
		return errorResponse(c, err)
	}

	if err := h.messageUC.SoftDelete(c.Context(), c.Params("message_id"), userID); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "delete success"})
}

// MarkRead 標記聊天室已讀
// @Summary 標記聊天室所有訊息已讀
// @Description 冪等, 回傳本次實際標記的訊息數
// @Tags Messages
// @Param conversation_id path string true "Conversation ID"
// @Produce json
// @Success 200 {object} map[string]int "marked"
// @Failure 403 {object} string "非成員"
// @Router /conversation/{conversation_id}/read [post]
func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := h.currentUserID(c)
	if err != nil {
		return errorResponse(c, err)
	}

	marked, err := h.messageUC.MarkRead(c.Context(), c.Params("conversation_id"), userID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"marked": marked})
}

// ToggleReaction 切換訊息反應
// @Summary 切換訊息反應
// @Description 同一 (user, emoji) 再按一次即取消
// @Tags Messages
// @Accept json
// @Param message_id path string true "Message ID"
// @Produce json
// @Success 200 {object} map[string]bool "reacted"
// @Failure 404 {object} string "訊息不存在"
// @Router /message/{message_id}/reaction [post]
func (h *ChatHandler) ToggleReaction(c *fiber.Ctx) error {
	type request struct {
		Emoji string `json:"emoji"`
	}
	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	userID, err := h.currentUserID(c)
	if err != nil {
		return errorResponse(c, err)
	}

	present, err := h.messageUC.ToggleReaction(c.Context(), c.Params("message_id"), userID, req.Emoji)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"reacted": present})
}

// ListTyping 輸入中的成員
// @Summary 聊天室內輸入中的成員
// @Tags Presence
// @Param conversation_id path string true "Conversation ID"
// @Produce json
// @Success 200 {array} domain.User
// @Router /conversation/{conversation_id}/typing [get]
func (h *ChatHandler) ListTyping(c *fiber.Ctx) error {
	users, err := h.presenceUC.ListTypingUsers(c.Context(), c.Params("conversation_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(users)
}
