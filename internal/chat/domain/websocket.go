package domain

// Action websocket request action
type Action string

const (
	// CreateDirect websocket action create_direct
	CreateDirect Action = "create_direct"
	// CreateGroup websocket action create_group
	CreateGroup Action = "create_group"
	// TogglePin websocket action toggle_pin
	TogglePin Action = "toggle_pin"
	// ListConversations websocket action list_conversations
	ListConversations Action = "list_conversations"

	// SendMessage websocket action send_message
	SendMessage Action = "send_message"
	// EditMessage websocket action edit_message
	EditMessage Action = "edit_message"
	// DeleteMessage websocket action delete_message
	DeleteMessage Action = "delete_message"
	// ListMessages websocket action list_messages
	ListMessages Action = "list_messages"
	// MarkRead websocket action mark_read
	MarkRead Action = "mark_read"
	// ToggleReaction websocket action toggle_reaction
	ToggleReaction Action = "toggle_reaction"

	// Typing websocket action typing
	Typing Action = "typing"
	// ListTyping websocket action list_typing
	ListTyping Action = "list_typing"
	// ListUsers websocket action list_users
	ListUsers Action = "list_users"

	// NotifyEvent websocket action notify_event (server push)
	NotifyEvent Action = "notify_event"
)

// EventType pub/sub event fanned out to each affected user's channel
type EventType string

const (
	// EventMessageSent a new message was committed
	EventMessageSent EventType = "message_sent"
	// EventMessageEdited a message body was overwritten
	EventMessageEdited EventType = "message_edited"
	// EventMessageDeleted a message was tombstoned
	EventMessageDeleted EventType = "message_deleted"
	// EventMessagesRead a reader caught up on a conversation
	EventMessagesRead EventType = "messages_read"
	// EventReactionToggled a reaction was added or removed
	EventReactionToggled EventType = "reaction_toggled"
	// EventConversationCreated a conversation now includes the subscriber
	EventConversationCreated EventType = "conversation_created"
	// EventTyping a participant's typing state changed
	EventTyping EventType = "typing"
)

// Event payload published on "chat:user:<id>" after every committed mutation
type Event struct {
	Type           EventType     `json:"type"`
	ConversationID string        `json:"conversation_id,omitempty"`
	ActorID        string        `json:"actor_id,omitempty"`
	MessageID      string        `json:"message_id,omitempty"`
	Message        *ChatMessage  `json:"message,omitempty"`
	Conversation   *Conversation `json:"conversation,omitempty"`
	Presence       *Presence     `json:"presence,omitempty"`
}

// WSRequest websocket Request
type WSRequest struct {
	Action         string   `json:"action"`
	ConversationID string   `json:"conversation_id"`
	OtherUserID    string   `json:"other_user_id"`
	Members        []string `json:"members"`
	GroupName      string   `json:"group_name"`
	MessageID      string   `json:"message_id"`
	Body           string   `json:"body"`
	Emoji          string   `json:"emoji"`
}

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
