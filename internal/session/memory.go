package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 16

// MemoryStore is an in-process Store sharded by user id. Each entry carries
// its own mutex so a long-running Update for one user never blocks users that
// happen to land in the same shard.
type MemoryStore struct {
	shards [shardCount]*memoryShard
	clock  func() time.Time
}

type memoryShard struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	mu      sync.Mutex
	session Session
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{clock: time.Now}
	for i := range s.shards {
		s.shards[i] = &memoryShard{entries: make(map[string]*memoryEntry)}
	}
	return s
}

func (s *MemoryStore) shard(userID string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return s.shards[h.Sum32()%shardCount]
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*Session, error) {
	sh := s.shard(userID)
	sh.mu.RLock()
	e, ok := sh.entries[userID]
	sh.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	e.mu.Lock()
	snapshot := e.session
	e.mu.Unlock()
	return &snapshot, nil
}

func (s *MemoryStore) Update(ctx context.Context, userID string, fn func(*Session) error) (*Session, error) {
	sh := s.shard(userID)

	sh.mu.Lock()
	e, ok := sh.entries[userID]
	if !ok {
		e = &memoryEntry{session: Session{UserID: userID}}
		sh.entries[userID] = e
	}
	sh.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	working := e.session
	if err := fn(&working); err != nil {
		return nil, err
	}
	working.UserID = userID
	working.LastSeen = s.clock()
	e.session = working

	snapshot := working
	return &snapshot, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	sh := s.shard(userID)
	sh.mu.Lock()
	delete(sh.entries, userID)
	sh.mu.Unlock()
	return nil
}

func (s *MemoryStore) PruneIdle(_ context.Context, idle time.Duration) (int64, error) {
	cutoff := s.clock().Add(-idle)
	var pruned int64

	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, e := range sh.entries {
			e.mu.Lock()
			stale := e.session.LastSeen.Before(cutoff)
			e.mu.Unlock()
			if stale {
				delete(sh.entries, id)
				pruned++
			}
		}
		sh.mu.Unlock()
	}

	return pruned, nil
}
