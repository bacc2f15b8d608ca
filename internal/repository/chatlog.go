package repository

import (
	"context"
	"time"

	"github.com/inmobica/assistant-server/internal/database"
	"github.com/inmobica/assistant-server/internal/model"
)

type ChatLogRepository interface {
	EnsureConversation(ctx context.Context, senderID, channel string) (*model.Conversation, error)
	FindConversation(ctx context.Context, senderID string) (*model.Conversation, error)
	SetThreadID(ctx context.Context, conversationID, threadID string) error
	CreateMessage(ctx context.Context, params model.CreateChatMessageParams) (*model.ChatMessage, error)
	FindMessages(ctx context.Context, conversationID string, limit, offset int) ([]model.ChatMessage, error)
	DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type chatLogRepo struct {
	db database.DBTX
}

func NewChatLogRepository(db database.DBTX) ChatLogRepository {
	return &chatLogRepo{db: db}
}

func (r *chatLogRepo) EnsureConversation(ctx context.Context, senderID, channel string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `
		INSERT INTO conversations (sender_id, channel, last_message_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (sender_id) DO UPDATE SET last_message_at = NOW()
		RETURNING *
	`, senderID, channel)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *chatLogRepo) FindConversation(ctx context.Context, senderID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT * FROM conversations WHERE sender_id = $1`, senderID)
	return HandleNotFound(&conv, err)
}

func (r *chatLogRepo) SetThreadID(ctx context.Context, conversationID, threadID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET thread_id = $2 WHERE id = $1
	`, conversationID, threadID)
	return err
}

func (r *chatLogRepo) CreateMessage(ctx context.Context, params model.CreateChatMessageParams) (*model.ChatMessage, error) {
	var msg model.ChatMessage
	err := r.db.GetContext(ctx, &msg, `
		INSERT INTO chat_messages (conversation_id, direction, body, status, error_message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.ConversationID, params.Direction, params.Body, params.Status, params.ErrorMessage)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *chatLogRepo) FindMessages(ctx context.Context, conversationID string, limit, offset int) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM chat_messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	return msgs, err
}

func (r *chatLogRepo) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM chat_messages WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
