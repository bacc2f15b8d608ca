package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "github.com/inmobica/assistant-server/internal/errors"
	"github.com/inmobica/assistant-server/internal/extract"
	"github.com/inmobica/assistant-server/internal/model"
	"github.com/inmobica/assistant-server/internal/session"
)

type mockBridge struct {
	mock.Mock
	fallbackOnly bool
}

func (m *mockBridge) UsesThreads() bool {
	return !m.fallbackOnly
}

func (m *mockBridge) CreateThread(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockBridge) Reply(ctx context.Context, threadID, text string) (string, error) {
	args := m.Called(ctx, threadID, text)
	return args.String(0), args.Error(1)
}

type mockBooker struct {
	mock.Mock
}

func (m *mockBooker) Book(ctx context.Context, userCtx *model.UserContext) (*model.BookingResult, error) {
	args := m.Called(ctx, userCtx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingResult), args.Error(1)
}

type mockChatLog struct {
	mock.Mock
}

func (m *mockChatLog) EnsureConversation(ctx context.Context, senderID, channel string) (*model.Conversation, error) {
	args := m.Called(ctx, senderID, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *mockChatLog) FindConversation(ctx context.Context, senderID string) (*model.Conversation, error) {
	args := m.Called(ctx, senderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *mockChatLog) SetThreadID(ctx context.Context, conversationID, threadID string) error {
	args := m.Called(ctx, conversationID, threadID)
	return args.Error(0)
}

func (m *mockChatLog) CreateMessage(ctx context.Context, params model.CreateChatMessageParams) (*model.ChatMessage, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChatMessage), args.Error(1)
}

func (m *mockChatLog) FindMessages(ctx context.Context, conversationID string, limit, offset int) ([]model.ChatMessage, error) {
	args := m.Called(ctx, conversationID, limit, offset)
	return args.Get(0).([]model.ChatMessage), args.Error(1)
}

func (m *mockChatLog) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestHandleMessageCreatesThreadOnce(t *testing.T) {
	bridge := new(mockBridge)
	bridge.On("CreateThread", mock.Anything).Return("thread-1", nil).Once()
	bridge.On("Reply", mock.Anything, "thread-1", mock.Anything).Return("¿en qué puedo ayudarte?", nil)

	store := session.NewMemoryStore()
	svc := NewChatService(store, extract.New(), bridge, nil, nil)

	reply, err := svc.HandleMessage(context.Background(), "user-1", "hola", "api")
	assert.NoError(t, err)
	assert.Equal(t, "¿en qué puedo ayudarte?", reply)

	_, err = svc.HandleMessage(context.Background(), "user-1", "gracias", "api")
	assert.NoError(t, err)

	bridge.AssertNumberOfCalls(t, "CreateThread", 1)

	sess, err := store.Get(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Equal(t, "thread-1", sess.ThreadID)
}

func TestHandleMessageAccumulatesContext(t *testing.T) {
	bridge := new(mockBridge)
	bridge.On("CreateThread", mock.Anything).Return("thread-1", nil)
	bridge.On("Reply", mock.Anything, "thread-1", mock.Anything).Return("ok", nil)

	store := session.NewMemoryStore()
	svc := NewChatService(store, extract.New(), bridge, nil, nil)

	_, err := svc.HandleMessage(context.Background(), "user-1", "Me llamo Juan Pérez", "api")
	assert.NoError(t, err)
	_, err = svc.HandleMessage(context.Background(), "user-1", "mi correo es juan@example.com", "api")
	assert.NoError(t, err)

	sess, err := store.Get(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Equal(t, "Juan Pérez", sess.Context.Name)
	assert.Equal(t, "juan@example.com", sess.Context.Email)
}

func TestHandleMessageBooksWhenContextComplete(t *testing.T) {
	bridge := new(mockBridge)
	bridge.On("CreateThread", mock.Anything).Return("thread-1", nil)

	booker := new(mockBooker)
	booker.On("Book", mock.Anything, mock.MatchedBy(func(c *model.UserContext) bool {
		return c.Ready() && c.Name == "Juan Pérez" && c.Date == "2025-01-10"
	})).Return(&model.BookingResult{Reference: "ref-1", PersonID: 42, LeadID: "lead-1", ActivityID: 7}, nil)

	store := session.NewMemoryStore()
	svc := NewChatService(store, extract.New(), bridge, booker, nil)

	reply, err := svc.HandleMessage(context.Background(), "user-1",
		"Me llamo Juan Pérez, correo juan@example.com, tel 5512345678, quiero una consulta el 10 de enero de 2025 a las 10:00 am", "api")

	assert.NoError(t, err)
	assert.Contains(t, reply, "Juan Pérez")
	assert.Contains(t, reply, "consulta")
	assert.Contains(t, reply, "2025-01-10")
	assert.Contains(t, reply, "10:00")

	booker.AssertExpectations(t)
	bridge.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleMessageBookingErrorIsTerminal(t *testing.T) {
	bridge := new(mockBridge)
	bridge.On("CreateThread", mock.Anything).Return("thread-1", nil)

	booker := new(mockBooker)
	booker.On("Book", mock.Anything, mock.Anything).
		Return(nil, apperrors.SlotTaken("2025-01-10", "16:00"))

	store := session.NewMemoryStore()
	svc := NewChatService(store, extract.New(), bridge, booker, nil)

	_, err := svc.HandleMessage(context.Background(), "user-1",
		"Me llamo Juan Pérez, correo juan@example.com, tel 5512345678, consulta el 10 de enero de 2025 a las 10:00 am", "api")

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSlotTaken, apperrors.GetCode(err))
	bridge.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleMessageContextSurvivesBookingFailure(t *testing.T) {
	bridge := new(mockBridge)
	bridge.On("CreateThread", mock.Anything).Return("thread-1", nil)

	booker := new(mockBooker)
	booker.On("Book", mock.Anything, mock.Anything).
		Return(nil, apperrors.SlotTaken("2025-01-10", "16:00"))

	store := session.NewMemoryStore()
	svc := NewChatService(store, extract.New(), bridge, booker, nil)

	text := "Me llamo Juan Pérez, correo juan@example.com, tel 5512345678, consulta el 10 de enero de 2025 a las 10:00 am"
	_, err := svc.HandleMessage(context.Background(), "user-1", text, "api")
	assert.Error(t, err)

	// Extracted fields are never cleared; the next message re-attempts the
	// booking with the same slot.
	sess, err := store.Get(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.True(t, sess.Context.Ready())

	_, err = svc.HandleMessage(context.Background(), "user-1", "¿quedó agendada?", "api")
	assert.Error(t, err)
	booker.AssertNumberOfCalls(t, "Book", 2)
}

func TestHandleMessageWithoutBookerAlwaysUsesBridge(t *testing.T) {
	bridge := new(mockBridge)
	bridge.On("CreateThread", mock.Anything).Return("thread-1", nil)
	bridge.On("Reply", mock.Anything, "thread-1", mock.Anything).Return("respuesta", nil)

	store := session.NewMemoryStore()
	svc := NewChatService(store, extract.New(), bridge, nil, nil)

	reply, err := svc.HandleMessage(context.Background(), "user-1",
		"Me llamo Juan Pérez, correo juan@example.com, tel 5512345678, consulta el 10 de enero de 2025 a las 10:00 am", "api")

	assert.NoError(t, err)
	assert.Equal(t, "respuesta", reply)
}

func TestHandleMessageThreadCreationFailure(t *testing.T) {
	bridge := new(mockBridge)
	bridge.On("CreateThread", mock.Anything).
		Return("", apperrors.Upstream("openai", assert.AnError))

	store := session.NewMemoryStore()
	svc := NewChatService(store, extract.New(), bridge, nil, nil)

	_, err := svc.HandleMessage(context.Background(), "user-1", "hola", "api")
	assert.Error(t, err)

	// The failed update must not persist a half-built session thread id.
	sess, err := store.Get(context.Background(), "user-1")
	assert.NoError(t, err)
	if sess != nil {
		assert.Empty(t, sess.ThreadID)
	}
}

func TestHandleMessageFallbackModeSkipsThreadCreation(t *testing.T) {
	bridge := &mockBridge{fallbackOnly: true}
	bridge.On("Reply", mock.Anything, "", "hola").Return("respuesta", nil)

	store := session.NewMemoryStore()
	svc := NewChatService(store, extract.New(), bridge, nil, nil)

	reply, err := svc.HandleMessage(context.Background(), "user-1", "hola", "api")
	assert.NoError(t, err)
	assert.Equal(t, "respuesta", reply)

	// No server-side thread exists in fallback mode; creating one would
	// orphan it upstream.
	bridge.AssertNotCalled(t, "CreateThread", mock.Anything)

	sess, err := store.Get(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Empty(t, sess.ThreadID)
}

func TestHandleMessageRecordsChatLog(t *testing.T) {
	bridge := new(mockBridge)
	bridge.On("CreateThread", mock.Anything).Return("thread-1", nil)
	bridge.On("Reply", mock.Anything, "thread-1", "hola").Return("respuesta", nil)

	conv := &model.Conversation{ID: "conv-1", SenderID: "user-1", Channel: "whatsapp"}

	chatLog := new(mockChatLog)
	chatLog.On("EnsureConversation", mock.Anything, "user-1", "whatsapp").Return(conv, nil)
	chatLog.On("CreateMessage", mock.Anything, mock.MatchedBy(func(p model.CreateChatMessageParams) bool {
		return p.ConversationID == "conv-1" && p.Direction == model.DirectionInbound &&
			p.Body == "hola" && p.Status == model.MessageStatusReceived
	})).Return(&model.ChatMessage{ID: "msg-1"}, nil).Once()
	chatLog.On("SetThreadID", mock.Anything, "conv-1", "thread-1").Return(nil)
	chatLog.On("CreateMessage", mock.Anything, mock.MatchedBy(func(p model.CreateChatMessageParams) bool {
		return p.Direction == model.DirectionOutbound && p.Body == "respuesta" &&
			p.Status == model.MessageStatusAnswered && p.ErrorMessage == nil
	})).Return(&model.ChatMessage{ID: "msg-2"}, nil).Once()

	store := session.NewMemoryStore()
	svc := NewChatService(store, extract.New(), bridge, nil, chatLog)

	reply, err := svc.HandleMessage(context.Background(), "user-1", "hola", "whatsapp")
	assert.NoError(t, err)
	assert.Equal(t, "respuesta", reply)
	chatLog.AssertExpectations(t)
}

func TestHandleMessageRecordsFailedOutbound(t *testing.T) {
	bridge := new(mockBridge)
	bridge.On("CreateThread", mock.Anything).Return("thread-1", nil)
	bridge.On("Reply", mock.Anything, "thread-1", "hola").
		Return("", apperrors.Timeout("assistant run"))

	conv := &model.Conversation{ID: "conv-1", SenderID: "user-1", Channel: "api"}

	chatLog := new(mockChatLog)
	chatLog.On("EnsureConversation", mock.Anything, "user-1", "api").Return(conv, nil)
	chatLog.On("SetThreadID", mock.Anything, "conv-1", "thread-1").Return(nil)
	chatLog.On("CreateMessage", mock.Anything, mock.MatchedBy(func(p model.CreateChatMessageParams) bool {
		return p.Direction == model.DirectionInbound
	})).Return(&model.ChatMessage{}, nil).Once()
	chatLog.On("CreateMessage", mock.Anything, mock.MatchedBy(func(p model.CreateChatMessageParams) bool {
		return p.Direction == model.DirectionOutbound && p.Status == model.MessageStatusFailed &&
			p.ErrorMessage != nil
	})).Return(&model.ChatMessage{}, nil).Once()

	store := session.NewMemoryStore()
	svc := NewChatService(store, extract.New(), bridge, nil, chatLog)

	_, err := svc.HandleMessage(context.Background(), "user-1", "hola", "api")
	assert.Error(t, err)
	chatLog.AssertExpectations(t)
}

func TestHandleMessageChatLogFailureDoesNotBlockReply(t *testing.T) {
	bridge := new(mockBridge)
	bridge.On("CreateThread", mock.Anything).Return("thread-1", nil)
	bridge.On("Reply", mock.Anything, "thread-1", "hola").Return("respuesta", nil)

	chatLog := new(mockChatLog)
	chatLog.On("EnsureConversation", mock.Anything, "user-1", "api").
		Return(nil, assert.AnError)

	store := session.NewMemoryStore()
	svc := NewChatService(store, extract.New(), bridge, nil, chatLog)

	reply, err := svc.HandleMessage(context.Background(), "user-1", "hola", "api")
	assert.NoError(t, err)
	assert.Equal(t, "respuesta", reply)
}
