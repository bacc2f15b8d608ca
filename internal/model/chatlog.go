package model

import "time"

type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

type MessageStatus string

const (
	MessageStatusReceived MessageStatus = "received"
	MessageStatusAnswered MessageStatus = "answered"
	MessageStatusFailed   MessageStatus = "failed"
)

// Conversation is one persisted chat with an external user, keyed by the
// channel sender id.
type Conversation struct {
	ID            string     `db:"id" json:"id"`
	SenderID      string     `db:"sender_id" json:"senderId"`
	Channel       string     `db:"channel" json:"channel"`
	ThreadID      *string    `db:"thread_id" json:"threadId,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	LastMessageAt *time.Time `db:"last_message_at" json:"lastMessageAt,omitempty"`
}

// ChatMessage is one message in either direction.
type ChatMessage struct {
	ID             string           `db:"id" json:"id"`
	ConversationID string           `db:"conversation_id" json:"conversationId"`
	Direction      MessageDirection `db:"direction" json:"direction"`
	Body           string           `db:"body" json:"body"`
	Status         MessageStatus    `db:"status" json:"status"`
	ErrorMessage   *string          `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
}

type CreateChatMessageParams struct {
	ConversationID string
	Direction      MessageDirection
	Body           string
	Status         MessageStatus
	ErrorMessage   *string
}
