package models

import "time"

// Message is a single direct message between two participants.
// IsRead is meaningful from the receiver's perspective only.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
	IsRead         bool      `json:"is_read"`
	SenderName     string    `json:"sender_name,omitempty"` // denormalized for display, may be stale
}

// ConversationSnippet is a per-viewer summary of a conversation, derived
// from its messages. It is never stored; two viewers of the same
// conversation get different unread counts and "other user" framing.
type ConversationSnippet struct {
	ConversationID       string    `json:"conversation_id"`
	OtherUserID          string    `json:"other_user_id"`
	OtherUserName        string    `json:"other_user_name"`
	LastMessageText      string    `json:"last_message_text"`
	LastMessageTimestamp time.Time `json:"last_message_timestamp"`
	UnreadCount          int       `json:"unread_count"`
}

// SendMessageRequest carries a send operation. ConversationID may be empty
// for a conversation that does not exist yet.
type SendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	ReceiverID     string `json:"receiver_id"`
	Text           string `json:"text"`
}
