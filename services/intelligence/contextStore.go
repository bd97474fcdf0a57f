package ai

import (
	"context"
	"sync"
	"time"

	"freshfade/models"

	"go.uber.org/zap"
)

// ContextStore holds one CallContext per active call.
type ContextStore interface {
	// GetOrCreate returns the context for callID, creating an empty one if needed.
	// created is true when the context did not exist before.
	GetOrCreate(callID string) (cc *models.CallContext, created bool)
	Get(callID string) (*models.CallContext, bool)
	Delete(callID string)
	Len() int
	// Sweep evicts contexts idle past the store's TTL as of now and returns how many went.
	Sweep(now time.Time) int
}

var _ ContextStore = (*MemoryContextStore)(nil)

// MemoryContextStore keeps contexts in process memory and evicts idle ones.
// Turns of the same call are assumed sequential; only the map itself is guarded.
type MemoryContextStore struct {
	mu       sync.Mutex
	contexts map[string]*models.CallContext
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewMemoryContextStore(ttl time.Duration, logger *zap.Logger) *MemoryContextStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryContextStore{
		contexts: make(map[string]*models.CallContext),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *MemoryContextStore) GetOrCreate(callID string) (*models.CallContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if cc, ok := s.contexts[callID]; ok {
		cc.LastActivity = now
		return cc, false
	}
	cc := models.NewCallContext(callID, now)
	s.contexts[callID] = cc
	return cc, true
}

func (s *MemoryContextStore) Get(callID string) (*models.CallContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cc, ok := s.contexts[callID]
	return cc, ok
}

func (s *MemoryContextStore) Delete(callID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, callID)
}

func (s *MemoryContextStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.contexts)
}

// Sweep removes contexts idle for longer than the store's TTL and returns how many were
// removed. A zero TTL disables eviction.
func (s *MemoryContextStore) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, cc := range s.contexts {
		if now.Sub(cc.LastActivity) > s.ttl {
			delete(s.contexts, id)
			removed++
		}
	}
	return removed
}

// StartCleanupRoutine sweeps idle contexts every interval until ctx is done.
func (s *MemoryContextStore) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				s.logger.Info("evicted idle call contexts", zap.Int("count", n), zap.Int("remaining", s.Len()))
			}
		}
	}
}
