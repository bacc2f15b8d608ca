package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()

	sess, err := store.Get(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Nil(t, sess)
}

func TestMemoryStoreUpdateCreates(t *testing.T) {
	store := NewMemoryStore()

	sess, err := store.Update(context.Background(), "user-1", func(s *Session) error {
		s.ThreadID = "thread-abc"
		s.Context.Name = "Juan"
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, "thread-abc", sess.ThreadID)
	assert.False(t, sess.LastSeen.IsZero())

	got, err := store.Get(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Equal(t, "Juan", got.Context.Name)
}

func TestMemoryStoreUpdateAccumulates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Update(ctx, "user-1", func(s *Session) error {
		s.Context.Name = "Juan"
		return nil
	})
	assert.NoError(t, err)

	sess, err := store.Update(ctx, "user-1", func(s *Session) error {
		s.Context.Email = "juan@example.com"
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "Juan", sess.Context.Name)
	assert.Equal(t, "juan@example.com", sess.Context.Email)
}

func TestMemoryStoreUpdateErrorDiscardsChanges(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Update(ctx, "user-1", func(s *Session) error {
		s.ThreadID = "thread-abc"
		return nil
	})
	assert.NoError(t, err)

	_, err = store.Update(ctx, "user-1", func(s *Session) error {
		s.ThreadID = "thread-overwritten"
		return errors.New("boom")
	})
	assert.Error(t, err)

	got, err := store.Get(ctx, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, "thread-abc", got.ThreadID)
}

func TestMemoryStoreUpdateSerializesPerUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, "user-1", func(s *Session) error {
				s.Context.PriceFrom++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sess, err := store.Get(ctx, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, workers, sess.Context.PriceFrom)
}

func TestMemoryStoreGetReturnsSnapshot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Update(ctx, "user-1", func(s *Session) error {
		s.Context.Name = "Juan"
		return nil
	})
	assert.NoError(t, err)

	first, err := store.Get(ctx, "user-1")
	assert.NoError(t, err)
	first.Context.Name = "mutated"

	second, err := store.Get(ctx, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, "Juan", second.Context.Name)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Update(ctx, "user-1", func(s *Session) error { return nil })
	assert.NoError(t, err)

	assert.NoError(t, store.Delete(ctx, "user-1"))

	sess, err := store.Get(ctx, "user-1")
	assert.NoError(t, err)
	assert.Nil(t, sess)
}

func TestMemoryStorePruneIdle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Now()
	store.clock = func() time.Time { return now.Add(-2 * time.Hour) }
	_, err := store.Update(ctx, "stale", func(s *Session) error { return nil })
	assert.NoError(t, err)

	store.clock = func() time.Time { return now }
	_, err = store.Update(ctx, "fresh", func(s *Session) error { return nil })
	assert.NoError(t, err)

	pruned, err := store.PruneIdle(ctx, time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	sess, err := store.Get(ctx, "stale")
	assert.NoError(t, err)
	assert.Nil(t, sess)

	sess, err = store.Get(ctx, "fresh")
	assert.NoError(t, err)
	assert.NotNil(t, sess)
}
