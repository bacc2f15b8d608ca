package assistant

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	apperrors "github.com/inmobica/assistant-server/internal/errors"
)

// api is the subset of the OpenAI client the bridge depends on.
type api interface {
	CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error)
	CreateMessage(ctx context.Context, threadID string, request openai.MessageRequest) (openai.Message, error)
	CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID string, runID string) (openai.Run, error)
	ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string, runID *string) (openai.MessagesList, error)
	CreateChatCompletionStream(ctx context.Context, request openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error)
}

// Bridge relays user text into a per-user assistant thread and returns the
// assistant's reply. Runs are polled at a fixed interval under a hard
// deadline; an overdue run fails with a TIMEOUT error instead of blocking the
// request forever.
type Bridge struct {
	client       api
	assistantID  string
	model        string
	pollInterval time.Duration
	timeout      time.Duration
}

type Options struct {
	APIKey       string
	AssistantID  string
	Model        string
	PollInterval time.Duration
	Timeout      time.Duration
}

func New(opts Options) *Bridge {
	return &Bridge{
		client:       openai.NewClient(opts.APIKey),
		assistantID:  opts.AssistantID,
		model:        opts.Model,
		pollInterval: opts.PollInterval,
		timeout:      opts.Timeout,
	}
}

// UsesThreads reports whether replies run through server-side assistant
// threads. In chat-completion fallback mode no thread exists and callers
// must not create one.
func (b *Bridge) UsesThreads() bool {
	return b.assistantID != ""
}

// CreateThread opens a fresh server-side conversation thread.
func (b *Bridge) CreateThread(ctx context.Context) (string, error) {
	thread, err := b.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", apperrors.Upstream("openai", err)
	}
	return thread.ID, nil
}

// Reply appends text to the thread, runs the assistant against it, and folds
// the reply fragments into a single string. When no assistant is configured
// the chat-completion streaming fallback answers instead.
func (b *Bridge) Reply(ctx context.Context, threadID, text string) (string, error) {
	if b.assistantID == "" {
		return b.chatFallback(ctx, text)
	}

	if _, err := b.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	}); err != nil {
		return "", apperrors.Upstream("openai", err)
	}

	run, err := b.client.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: b.assistantID})
	if err != nil {
		return "", apperrors.Upstream("openai", err)
	}

	run, err = b.waitForRun(ctx, threadID, run)
	if err != nil {
		return "", err
	}

	stream, err := b.runMessageStream(ctx, threadID, run.ID)
	if err != nil {
		return "", err
	}
	return Collect(stream)
}

// waitForRun polls the run until it reaches a terminal status or the deadline
// elapses.
func (b *Bridge) waitForRun(ctx context.Context, threadID string, run openai.Run) (openai.Run, error) {
	deadline := time.Now().Add(b.timeout)
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		switch run.Status {
		case openai.RunStatusCompleted:
			return run, nil
		case openai.RunStatusFailed, openai.RunStatusCancelled, openai.RunStatusExpired, openai.RunStatusRequiresAction:
			log.Warn().
				Str("threadId", threadID).
				Str("runId", run.ID).
				Str("status", string(run.Status)).
				Msg("assistant run did not complete")
			return run, apperrors.RunFailed(string(run.Status))
		}

		if time.Now().After(deadline) {
			return run, apperrors.Timeout("assistant run")
		}

		select {
		case <-ctx.Done():
			return run, ctx.Err()
		case <-ticker.C:
		}

		var err error
		run, err = b.client.RetrieveRun(ctx, threadID, run.ID)
		if err != nil {
			return run, apperrors.Upstream("openai", err)
		}
	}
}

// runMessageStream fetches the assistant message produced by a run and
// exposes its content parts as a fragment stream.
func (b *Bridge) runMessageStream(ctx context.Context, threadID, runID string) (Stream, error) {
	limit := 10
	order := "desc"
	list, err := b.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, &runID)
	if err != nil {
		return nil, apperrors.Upstream("openai", err)
	}

	var fragments []string
	for _, msg := range list.Messages {
		if msg.Role != openai.ChatMessageRoleAssistant {
			continue
		}
		for _, part := range msg.Content {
			if part.Text != nil {
				fragments = append(fragments, part.Text.Value)
			}
		}
		break
	}
	return newFragmentStream(fragments), nil
}

func (b *Bridge) chatFallback(ctx context.Context, text string) (string, error) {
	inner, err := b.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", apperrors.Upstream("openai", err)
	}
	return Collect(&chatStream{inner: inner})
}
