package router

import (
	"context"

	"chat_sync_service/internal/api/handlers"
	"chat_sync_service/internal/chat/app"
	"chat_sync_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes 注册聊天相关的路由
// @title Chat Sync Service API
// @version 1.0
// @description API documentation for Chat Sync Service
// @host localhost:8080
// @BasePath /
func RegisterRoutes(
	r *fiber.App,
	userHandler *handlers.UserHandler,
	chatHandler *handlers.ChatHandler,
	chatWebsocket *app.ChatWebsocketHandler,
) {
	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/", handlers.ConnectCheck)
	r.Post("/debug", handlers.DebugLogFlag)

	r.Use(middlewares.JWTMiddleware())

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		// 這裡可以建立一個「執行個體」，將 UseCase 等注入
		chatWebsocket.HandleConnection(context.Background(), c)
	}))

	userRoutes := r.Group("/user")
	userRoutes.Post("/sync", userHandler.Sync)
	userRoutes.Get("/list", userHandler.List)
	userRoutes.Get("/:user_id/online", userHandler.Online)

	convRoutes := r.Group("/conversation")
	convRoutes.Post("/direct", chatHandler.CreateDirect)
	convRoutes.Post("/group", chatHandler.CreateGroup)
	convRoutes.Get("/list", chatHandler.ListConversations)
	convRoutes.Post("/:conversation_id/pin", chatHandler.TogglePin)
	convRoutes.Post("/:conversation_id/message", chatHandler.SendMessage)
	convRoutes.Get("/:conversation_id/messages", chatHandler.ListMessages)
	convRoutes.Post("/:conversation_id/read", chatHandler.MarkRead)
	convRoutes.Get("/:conversation_id/typing", chatHandler.ListTyping)

	msgRoutes := r.Group("/message")
	msgRoutes.Put("/:message_id", chatHandler.EditMessage)
	msgRoutes.Delete("/:message_id", chatHandler.DeleteMessage)
	msgRoutes.Post("/:message_id/reaction", chatHandler.ToggleReaction)
}
