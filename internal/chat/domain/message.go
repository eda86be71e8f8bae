package domain

// Reaction at most one per (user, emoji, message)
type Reaction struct {
	UserID string `bson:"user_id" json:"user_id"`
	Emoji  string `bson:"emoji" json:"emoji"`
}

// ChatMessage append-only; delete is a tombstone, edit is a lossy overwrite
type ChatMessage struct {
	ID             string     `bson:"_id,omitempty" json:"id"`
	ConversationID string     `bson:"conversation_id" json:"conversation_id"`
	SenderID       string     `bson:"sender_id" json:"sender_id"`
	Body           string     `bson:"body" json:"body"`
	CreatedAt      int64      `bson:"created_at" json:"created_at"` // unix millis
	EditedAt       int64      `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
	IsDeleted      bool       `bson:"is_deleted" json:"is_deleted"`
	ReadBy         []string   `bson:"read_by" json:"read_by"` // starts containing only the sender
	Reactions      []Reaction `bson:"reactions" json:"reactions"`
}

// HasReaction check the (user, emoji) pair already reacted
func (m *ChatMessage) HasReaction(userID, emoji string) bool {
	for _, r := range m.Reactions {
		if r.UserID == userID && r.Emoji == emoji {
			return true
		}
	}
	return false
}

// ReadByUser check message already read by user
func (m *ChatMessage) ReadByUser(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}
