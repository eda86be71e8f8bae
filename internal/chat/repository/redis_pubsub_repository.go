package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"chat_sync_service/internal/chat/domain"
	"chat_sync_service/pkg/logger"
)

// EventPublisher fan out a committed mutation to one user's channel
type EventPublisher interface {
	Publish(channel string, event domain.Event) error
}

// UserChannel pub/sub channel carrying one user's events
func UserChannel(userID string) string {
	return "chat:user:" + userID
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{
		client: client,
		ctx:    context.Background(),
	}
}

// Publish 將 event 序列化後，發布到指定 channel
func (r *RedisPubSub) Publish(channel string, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(r.ctx, channel, data).Err()
}

// Subscribe 訂閱指定 channel，收到事件後呼叫 handler 處理
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(event domain.Event)) error {
	sub := r.client.Subscribe(r.ctx, channel)
	go func() {
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}

				var event domain.Event
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					logger.Log.Error("event unmarshal err :", zap.String("err", err.Error()))
					continue
				}
				handler(event)
			case <-ctx.Done():
				logger.Log.Info(fmt.Sprintf("%s , sub close", channel))
				sub.Close()
				return
			}
		}
	}()
	return nil
}
