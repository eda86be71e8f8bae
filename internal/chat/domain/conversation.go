package domain

import (
	"sort"
	"strings"

	"chat_sync_service/pkg"
)

// Conversation direct (2 people) or group chat
type Conversation struct {
	ID                  string   `bson:"_id,omitempty" json:"id"`
	Participants        []string `bson:"participants" json:"participants"` // canonical sorted order
	IsGroup             bool     `bson:"is_group" json:"is_group"`
	GroupName           string   `bson:"group_name,omitempty" json:"group_name,omitempty"`
	CreatedBy           string   `bson:"created_by" json:"created_by"`
	LastMessage         string   `bson:"last_message" json:"last_message"`
	LastMessageAt       int64    `bson:"last_message_at" json:"last_message_at"`
	LastMessageSenderID string   `bson:"last_message_sender_id,omitempty" json:"last_message_sender_id,omitempty"`
	IsPinned            bool     `bson:"is_pinned" json:"is_pinned"`
	DedupKey            string   `bson:"dedup_key" json:"-"` // unique index, prevents duplicate creation races
	CreatedAt           int64    `bson:"created_at" json:"created_at"`
}

// ConversationWithUnread sidebar projection
type ConversationWithUnread struct {
	Conversation
	UnreadCount int `json:"unread_count"`
}

// HasParticipant check user in conversation
func (c *Conversation) HasParticipant(userID string) bool {
	return pkg.Contains(c.Participants, userID)
}

// CanonicalParticipants dedupes and sorts ids so one participant set maps to one key.
func CanonicalParticipants(ids ...string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// DirectDedupKey creation key for a 1對1 conversation
func DirectDedupKey(participants []string) string {
	return "direct:" + strings.Join(participants, ",")
}

// GroupDedupKey creation key for a group conversation (participant set + name)
func GroupDedupKey(participants []string, groupName string) string {
	return "group:" + strings.Join(participants, ",") + "|" + groupName
}
