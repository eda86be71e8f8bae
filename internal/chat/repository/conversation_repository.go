package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chat_sync_service/internal/chat/domain"
)

// ConversationRepository definition conversation registry storage
type ConversationRepository interface {
	// Create inserts a new conversation; duplicate dedup_key inserts fail
	// with a duplicate-key error the caller resolves by re-reading
	Create(ctx context.Context, conv *domain.Conversation) error
	FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error)
	FindByDedupKey(ctx context.Context, key string) (*domain.Conversation, error)
	SetPinned(ctx context.Context, conversationID string, pinned bool) error
	// ListByParticipant natural (insertion) order, the sort contract is applied upstream
	ListByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error)
	EnsureIndexes(ctx context.Context) error
}

// IsDuplicateKey report whether an insert lost a creation race
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

type conversationRepository struct {
	coll *mongo.Collection
}

// NewMongoConversationRepository create a ConversationRepository
func NewMongoConversationRepository(db *mongo.Database) ConversationRepository {
	return &conversationRepository{
		coll: db.Collection("conversations"),
	}
}

// EnsureIndexes 唯一 dedup_key 防止併發建立同一組對話
func (r *conversationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "dedup_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "participants", Value: 1}},
		},
	})
	return err
}

func (r *conversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	_, err := r.coll.InsertOne(ctx, conv)
	return err
}

func (r *conversationRepository) FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.coll.FindOne(ctx, bson.M{"_id": conversationID}).Decode(&conv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) FindByDedupKey(ctx context.Context, key string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.coll.FindOne(ctx, bson.M{"dedup_key": key}).Decode(&conv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) SetPinned(ctx context.Context, conversationID string, pinned bool) error {
	filter := bson.M{"_id": conversationID}
	update := bson.M{"$set": bson.M{"is_pinned": pinned}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *conversationRepository) ListByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	cur, err := r.coll.Find(ctx, bson.M{"participants": userID})
	if err != nil {
		return nil, err
	}
	var convs []domain.Conversation
	if err := cur.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}
