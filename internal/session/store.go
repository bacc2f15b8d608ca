package session

import (
	"context"
	"time"

	"github.com/inmobica/assistant-server/internal/model"
)

// Session is the per-user conversation state: the assistant thread bound to
// the user and the slots extracted from their messages so far.
type Session struct {
	UserID   string            `json:"userId"`
	ThreadID string            `json:"threadId,omitempty"`
	Context  model.UserContext `json:"context"`
	LastSeen time.Time         `json:"lastSeen"`
}

// Store keeps one Session per external user id.
//
// Update serializes mutations per user: two concurrent updates for the same
// user id run one after the other, so a first message cannot race itself into
// two assistant threads. Updates for different users do not block each other.
type Store interface {
	// Get returns the session for userID, or nil when none exists.
	Get(ctx context.Context, userID string) (*Session, error)

	// Update runs fn against the (possibly fresh) session for userID under
	// the per-user lock and persists the result.
	Update(ctx context.Context, userID string, fn func(*Session) error) (*Session, error)

	// Delete removes the session for userID.
	Delete(ctx context.Context, userID string) error

	// PruneIdle removes sessions not seen for longer than idle and reports
	// how many were removed.
	PruneIdle(ctx context.Context, idle time.Duration) (int64, error)
}
