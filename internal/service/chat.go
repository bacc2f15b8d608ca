package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/inmobica/assistant-server/internal/extract"
	"github.com/inmobica/assistant-server/internal/model"
	"github.com/inmobica/assistant-server/internal/repository"
	"github.com/inmobica/assistant-server/internal/session"
)

// assistantBridge is the assistant surface the chat flow needs.
type assistantBridge interface {
	UsesThreads() bool
	CreateThread(ctx context.Context) (string, error)
	Reply(ctx context.Context, threadID, text string) (string, error)
}

// ChatService drives one inbound message through extraction, session update,
// and either the booking pipeline or the assistant bridge.
type ChatService struct {
	sessions  session.Store
	extractor *extract.Extractor
	bridge    assistantBridge
	booking   Booker                       // nil when no CRM is configured
	chatLog   repository.ChatLogRepository // nil when no database is configured
}

func NewChatService(
	sessions session.Store,
	extractor *extract.Extractor,
	bridge assistantBridge,
	booking Booker,
	chatLog repository.ChatLogRepository,
) *ChatService {
	return &ChatService{
		sessions:  sessions,
		extractor: extractor,
		bridge:    bridge,
		booking:   booking,
		chatLog:   chatLog,
	}
}

// HandleMessage processes one user message and returns the reply text.
//
// The session update runs under the per-user lock: extraction results
// accumulate across messages and the assistant thread is created exactly once
// per user. Extracted fields are never cleared, so a completed booking that
// is retried surfaces as a slot conflict rather than a silent re-run.
func (s *ChatService) HandleMessage(ctx context.Context, senderID, text, channel string) (string, error) {
	conv := s.recordInbound(ctx, senderID, text, channel)

	sess, err := s.sessions.Update(ctx, senderID, func(sess *session.Session) error {
		s.extractor.Apply(text, &sess.Context)

		if sess.ThreadID == "" && s.bridge.UsesThreads() {
			threadID, err := s.bridge.CreateThread(ctx)
			if err != nil {
				return err
			}
			sess.ThreadID = threadID
			if conv != nil {
				if err := s.chatLog.SetThreadID(ctx, conv.ID, threadID); err != nil {
					log.Warn().Err(err).Str("senderId", senderID).Msg("chat log: set thread id failed")
				}
			}
		}
		return nil
	})
	if err != nil {
		s.recordOutbound(ctx, conv, "", model.MessageStatusFailed, err)
		return "", err
	}

	reply, err := s.respond(ctx, sess, text)
	if err != nil {
		s.recordOutbound(ctx, conv, "", model.MessageStatusFailed, err)
		return "", err
	}

	s.recordOutbound(ctx, conv, reply, model.MessageStatusAnswered, nil)
	return reply, nil
}

func (s *ChatService) respond(ctx context.Context, sess *session.Session, text string) (string, error) {
	if s.booking != nil && sess.Context.Ready() {
		result, err := s.booking.Book(ctx, &sess.Context)
		if err != nil {
			return "", err
		}
		log.Info().
			Str("senderId", sess.UserID).
			Str("ref", result.Reference).
			Msg("booking completed")
		return confirmationMessage(&sess.Context), nil
	}
	return s.bridge.Reply(ctx, sess.ThreadID, text)
}

func confirmationMessage(c *model.UserContext) string {
	return fmt.Sprintf(
		"¡Listo, %s! Tu cita de %s quedó agendada para el %s a las %s. Te esperamos.",
		c.Name, c.Service, c.Date, c.Time,
	)
}

// recordInbound upserts the conversation and stores the inbound message. The
// chat log is best effort: a database miss never blocks the reply.
func (s *ChatService) recordInbound(ctx context.Context, senderID, text, channel string) *model.Conversation {
	if s.chatLog == nil {
		return nil
	}

	conv, err := s.chatLog.EnsureConversation(ctx, senderID, channel)
	if err != nil {
		log.Warn().Err(err).Str("senderId", senderID).Msg("chat log: ensure conversation failed")
		return nil
	}

	if _, err := s.chatLog.CreateMessage(ctx, model.CreateChatMessageParams{
		ConversationID: conv.ID,
		Direction:      model.DirectionInbound,
		Body:           text,
		Status:         model.MessageStatusReceived,
	}); err != nil {
		log.Warn().Err(err).Str("senderId", senderID).Msg("chat log: record inbound failed")
	}
	return conv
}

func (s *ChatService) recordOutbound(ctx context.Context, conv *model.Conversation, body string, status model.MessageStatus, cause error) {
	if s.chatLog == nil || conv == nil {
		return
	}

	params := model.CreateChatMessageParams{
		ConversationID: conv.ID,
		Direction:      model.DirectionOutbound,
		Body:           body,
		Status:         status,
	}
	if cause != nil {
		msg := cause.Error()
		params.ErrorMessage = &msg
	}
	if _, err := s.chatLog.CreateMessage(ctx, params); err != nil {
		log.Warn().Err(err).Str("conversationId", conv.ID).Msg("chat log: record outbound failed")
	}
}
