package handlers

import (
	"fmt"

	"chat_sync_service/internal/chat/app"
	"chat_sync_service/pkg/logger"
	"chat_sync_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// UserHandler 处理用户相关的 HTTP 请求
type UserHandler struct {
	userUC     app.UserUseCase
	presenceUC app.PresenceUseCase
}

// NewUserHandler 创建新的 UserHandler
func NewUserHandler(userUC app.UserUseCase, presenceUC app.PresenceUseCase) *UserHandler {
	return &UserHandler{
		userUC:     userUC,
		presenceUC: presenceUC,
	}
}

// Sync 登入後同步使用者資料
// @Summary 同步使用者資料
// @Description 依 token 內的身份資訊建立或更新使用者, 重複登入不會產生第二筆
// @Tags Users
// @Produce json
// @Success 200 {object} map[string]string "user_id"
// @Failure 400 {object} string "请求错误"
// @Router /user/sync [post]
func (h *UserHandler) Sync(c *fiber.Ctx) error {
	externalID, _ := c.Locals(middlewares.TokenExternalID).(string)
	displayName, _ := c.Locals(middlewares.TokenDisplayName).(string)
	email, _ := c.Locals(middlewares.TokenEmail).(string)
	avatarURL, _ := c.Locals(middlewares.TokenAvatarURL).(string)

	userID, err := h.userUC.UpsertUser(c.Context(), externalID, displayName, email, avatarURL)
	if err != nil {
		return errorResponse(c, err)
	}

	logger.Log.Info(fmt.Sprintf("user sync %s -> %s", externalID, userID))
	return c.JSON(fiber.Map{"user_id": userID})
}

// List 其他使用者清單
// @Summary 其他使用者清單
// @Description 回傳自己以外的所有使用者, 附帶在線狀態
// @Tags Users
// @Produce json
// @Success 200 {array} domain.UserWithPresence
// @Router /user/list [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	externalID, _ := c.Locals(middlewares.TokenExternalID).(string)

	users, err := h.userUC.ListOtherUsers(c.Context(), externalID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(users)
}

// Online 單一使用者是否在線
// @Summary 使用者在線狀態
// @Description 30 秒內有心跳才算在線
// @Tags Users
// @Param user_id path string true "User ID"
// @Produce json
// @Success 200 {object} map[string]bool "is_online"
// @Router /user/{user_id}/online [get]
func (h *UserHandler) Online(c *fiber.Ctx) error {
	online, err := h.presenceUC.IsUserOnline(c.Context(), c.Params("user_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"is_online": online})
}
