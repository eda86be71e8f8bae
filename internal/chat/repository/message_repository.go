package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chat_sync_service/internal/chat/domain"
)

// MessageRepository definition message log storage
type MessageRepository interface {
	// InsertWithPreview insert the message AND refresh the parent
	// conversation's preview fields in one transaction. A subscriber can
	// never observe one write without the other.
	InsertWithPreview(ctx context.Context, msg *domain.ChatMessage) error
	FindByID(ctx context.Context, messageID string) (*domain.ChatMessage, error)
	// ListByConversation created_at ascending, soft-deleted rows included
	ListByConversation(ctx context.Context, conversationID string) ([]domain.ChatMessage, error)
	SetDeleted(ctx context.Context, messageID string) error
	SetBody(ctx context.Context, messageID, body string, editedAt int64) error
	// MarkAllRead add userID to read_by on every message that lacks it;
	// returns how many rows changed
	MarkAllRead(ctx context.Context, conversationID, userID string) (int64, error)
	// PullReaction remove one matching (user, emoji) entry, reporting whether one existed
	PullReaction(ctx context.Context, messageID string, reaction domain.Reaction) (bool, error)
	PushReaction(ctx context.Context, messageID string, reaction domain.Reaction) error
	// CountUnreadByConversation unread (non-deleted, not read by user) per conversation id
	CountUnreadByConversation(ctx context.Context, userID string) (map[string]int, error)
	EnsureIndexes(ctx context.Context) error
}

type messageRepository struct {
	client   *mongo.Client
	msgColl  *mongo.Collection
	convColl *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		client:   db.Client(),
		msgColl:  db.Collection("messages"),
		convColl: db.Collection("conversations"),
	}
}

func (r *messageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.msgColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}},
		},
	})
	return err
}

func (r *messageRepository) InsertWithPreview(ctx context.Context, msg *domain.ChatMessage) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	// 兩筆寫入必須同生共死
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.msgColl.InsertOne(sc, msg); err != nil {
			return nil, err
		}
		filter := bson.M{"_id": msg.ConversationID}
		update := bson.M{"$set": bson.M{
			"last_message":           msg.Body,
			"last_message_at":        msg.CreatedAt,
			"last_message_sender_id": msg.SenderID,
		}}
		res, err := r.convColl.UpdateOne(sc, filter, update)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, domain.ErrNotFound
		}
		return nil, nil
	})
	return err
}

func (r *messageRepository) FindByID(ctx context.Context, messageID string) (*domain.ChatMessage, error) {
	var msg domain.ChatMessage
	err := r.msgColl.FindOne(ctx, bson.M{"_id": messageID}).Decode(&msg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID string) ([]domain.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.msgColl.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	var msgs []domain.ChatMessage
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepository) SetDeleted(ctx context.Context, messageID string) error {
	res, err := r.msgColl.UpdateOne(ctx,
		bson.M{"_id": messageID},
		bson.M{"$set": bson.M{"is_deleted": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *messageRepository) SetBody(ctx context.Context, messageID, body string, editedAt int64) error {
	res, err := r.msgColl.UpdateOne(ctx,
		bson.M{"_id": messageID},
		bson.M{"$set": bson.M{"body": body, "edited_at": editedAt}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkAllRead $addToSet 天生冪等：read_by 只增不減
func (r *messageRepository) MarkAllRead(ctx context.Context, conversationID, userID string) (int64, error) {
	filter := bson.M{
		"conversation_id": conversationID,
		"read_by":         bson.M{"$ne": userID},
	}
	update := bson.M{"$addToSet": bson.M{"read_by": userID}}
	res, err := r.msgColl.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *messageRepository) PullReaction(ctx context.Context, messageID string, reaction domain.Reaction) (bool, error) {
	filter := bson.M{"_id": messageID}
	update := bson.M{"$pull": bson.M{"reactions": bson.M{
		"user_id": reaction.UserID,
		"emoji":   reaction.Emoji,
	}}}
	res, err := r.msgColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, domain.ErrNotFound
	}
	return res.ModifiedCount > 0, nil
}

// PushReaction $addToSet: 同時按下同一個 reaction 也只會留下一筆
func (r *messageRepository) PushReaction(ctx context.Context, messageID string, reaction domain.Reaction) error {
	filter := bson.M{"_id": messageID}
	update := bson.M{"$addToSet": bson.M{"reactions": reaction}}
	res, err := r.msgColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *messageRepository) CountUnreadByConversation(ctx context.Context, userID string) (map[string]int, error) {
	pipeline := mongo.Pipeline{
		// 1. 過濾出未讀且未刪除的訊息
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "is_deleted", Value: bson.D{{Key: "$ne", Value: true}}},
			{Key: "read_by", Value: bson.D{{Key: "$ne", Value: userID}}},
		}}},
		// 2. 按 conversation_id 分組計數
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$conversation_id"},
			{Key: "unread_count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cur, err := r.msgColl.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate error: %w", err)
	}

	var results []struct {
		ConversationID string `bson:"_id"`
		UnreadCount    int    `bson:"unread_count"`
	}
	if err := cur.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("cursor All error: %w", err)
	}

	counts := make(map[string]int, len(results))
	for _, res := range results {
		counts[res.ConversationID] = res.UnreadCount
	}
	return counts, nil
}
