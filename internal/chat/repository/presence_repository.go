package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chat_sync_service/internal/chat/domain"
)

// PresenceRepository definition per-user presence row
type PresenceRepository interface {
	// Upsert overwrite-in-place keyed by user_id; never appends a second row
	Upsert(ctx context.Context, p *domain.Presence) error
	FindByUser(ctx context.Context, userID string) (*domain.Presence, error)
	ListByConversation(ctx context.Context, conversationID string) ([]domain.Presence, error)
	ListAll(ctx context.Context) ([]domain.Presence, error)
	EnsureIndexes(ctx context.Context) error
}

type presenceRepository struct {
	coll *mongo.Collection
}

// NewMongoPresenceRepository create a PresenceRepository
func NewMongoPresenceRepository(db *mongo.Database) PresenceRepository {
	return &presenceRepository{
		coll: db.Collection("presence"),
	}
}

// EnsureIndexes unique user_id keeps the one-row-per-user invariant at the store
func (r *presenceRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "conversation_id", Value: 1}},
		},
	})
	return err
}

func (r *presenceRepository) Upsert(ctx context.Context, p *domain.Presence) error {
	filter := bson.M{"user_id": p.UserID}
	opts := options.Replace().SetUpsert(true)
	_, err := r.coll.ReplaceOne(ctx, filter, p, opts)
	return err
}

func (r *presenceRepository) FindByUser(ctx context.Context, userID string) (*domain.Presence, error) {
	var p domain.Presence
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *presenceRepository) ListByConversation(ctx context.Context, conversationID string) ([]domain.Presence, error) {
	cur, err := r.coll.Find(ctx, bson.M{"conversation_id": conversationID})
	if err != nil {
		return nil, err
	}
	var rows []domain.Presence
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *presenceRepository) ListAll(ctx context.Context) ([]domain.Presence, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var rows []domain.Presence
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
