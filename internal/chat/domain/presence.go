package domain

import "time"

const (
	// HeartbeatInterval client session heartbeat period
	HeartbeatInterval = 15 * time.Second
	// TypingIdleTimeout typing flag resets after this much input inactivity
	TypingIdleTimeout = 2 * time.Second
	// OnlineStaleThreshold a presence row older than this no longer counts as online
	OnlineStaleThreshold = 30 * time.Second
)

// Presence per-user online/typing state, one row per user, overwritten in place
type Presence struct {
	UserID         string `bson:"user_id" json:"user_id"`
	IsOnline       bool   `bson:"is_online" json:"is_online"`
	IsTyping       bool   `bson:"is_typing" json:"is_typing"`
	ConversationID string `bson:"conversation_id,omitempty" json:"conversation_id,omitempty"`
	LastSeen       int64  `bson:"last_seen" json:"last_seen"` // unix millis
}

// IsFresh reports whether the row still counts for the online badge.
// 過期判斷只在查詢端計算，不寫回 DB
func (p *Presence) IsFresh(now time.Time) bool {
	return p.IsOnline && now.UnixMilli()-p.LastSeen < OnlineStaleThreshold.Milliseconds()
}
