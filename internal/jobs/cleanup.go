package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/inmobica/assistant-server/internal/config"
	"github.com/inmobica/assistant-server/internal/repository"
	"github.com/inmobica/assistant-server/internal/session"
)

// CleanupJob periodically prunes idle conversation sessions and expires old
// chat-log rows.
type CleanupJob struct {
	sessions session.Store
	chatLog  repository.ChatLogRepository // nil when no database is configured
	idleTTL  time.Duration
	interval time.Duration
	done     chan struct{}
}

func NewCleanupJob(
	sessions session.Store,
	chatLog repository.ChatLogRepository,
	idleTTL time.Duration,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		sessions: sessions,
		chatLog:  chatLog,
		idleTTL:  idleTTL,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j.runCleanup(ctx, "idle sessions", func(ctx context.Context) (int64, error) {
		return j.sessions.PruneIdle(ctx, j.idleTTL)
	})

	if j.chatLog != nil {
		j.runCleanup(ctx, "chat messages", func(ctx context.Context) (int64, error) {
			cutoff := time.Now().Add(-config.ChatLogRetention)
			return j.chatLog.DeleteMessagesBefore(ctx, cutoff)
		})
	}
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
