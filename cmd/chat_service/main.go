package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"chat_sync_service/internal/api/handlers"
	"chat_sync_service/internal/api/router"
	"chat_sync_service/internal/chat/app"
	"chat_sync_service/internal/chat/domain"
	"chat_sync_service/internal/chat/repository"
	"chat_sync_service/pkg/config"
	"chat_sync_service/pkg/database"
	"chat_sync_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)

	// 2. 建立 Mongo 連線 (聊天室 / 訊息 / presence)
	ctx := context.Background()
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.MongoSQL.User, cfg.MongoSQL.Password, cfg.MongoSQL.Host, cfg.MongoSQL.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    uri,
			RetryCount:    cfg.MongoSQL.RetryCount,
			RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval),
		},
		cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB database after retries",
			zap.String("address", fmt.Sprintf("[%s]", uri)),
			zap.Error(err),
		)
	}
	defer mongo.Close(ctx)

	// 3. 建立 PostgreSQL 連線 (使用者目錄)
	sqlParams := fmt.Sprintf("postgres://%s:%s@%s:%d/%s", cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.Database)
	pool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    sqlParams,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s]", sqlParams)),
			zap.Error(err),
		)
	}
	defer pool.Close()

	// 4. 建立 Redis 連線 (Pub/Sub + presence cache)
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	// 5. 初始化 Repository
	userRepo := repository.NewUserRepository(pool)                        // PostgreSQL
	presenceRepo := repository.NewMongoPresenceRepository(mongo.Database) // MongoDB
	convRepo := repository.NewMongoConversationRepository(mongo.Database) // MongoDB
	msgRepo := repository.NewMongoMessageRepository(mongo.Database)       // MongoDB
	pub := repository.NewRedisPubSub(redisClient)
	presenceCache := database.NewRedisRepository[domain.Presence](redisClient)

	if err := userRepo.EnsureSchema(ctx); err != nil {
		logger.Log.Fatal(fmt.Sprintf("ensure user schema err : %v", err))
	}
	if err := presenceRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal(fmt.Sprintf("ensure presence indexes err : %v", err))
	}
	if err := convRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal(fmt.Sprintf("ensure conversation indexes err : %v", err))
	}
	if err := msgRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal(fmt.Sprintf("ensure message indexes err : %v", err))
	}

	// 6. 初始化 UseCases
	userUC := app.NewUserUseCase(userRepo, presenceRepo)
	presenceUC := app.NewPresenceUseCase(presenceRepo, userRepo, convRepo, presenceCache, pub)
	convUC := app.NewConversationUseCase(convRepo, msgRepo, pub)
	messageUC := app.NewMessageUseCase(msgRepo, convRepo, pub)

	// 7. 啟動 Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	// 注册路由
	router.RegisterRoutes(r,
		handlers.NewUserHandler(userUC, presenceUC),
		handlers.NewChatHandler(userUC, convUC, messageUC, presenceUC),
		app.NewChatWebsocketHandler(userUC, convUC, messageUC, presenceUC, pub),
	)

	// Listen
	port := ":" + cfg.Port
	log.Printf("Chat Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
