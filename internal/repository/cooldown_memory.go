package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const cooldownShards = 16

type cooldownShard struct {
	mu    sync.RWMutex
	fires map[string]time.Time
}

// MemoryCooldownStore tracks last-fire timestamps in a sharded map so
// unrelated rule IDs never contend on one lock. State lives for the process
// lifetime; use the Redis store for cross-restart continuity.
type MemoryCooldownStore struct {
	shards [cooldownShards]*cooldownShard
}

// NewMemoryCooldownStore creates an in-memory cooldown store.
func NewMemoryCooldownStore() *MemoryCooldownStore {
	s := &MemoryCooldownStore{}
	for i := range s.shards {
		s.shards[i] = &cooldownShard{fires: make(map[string]time.Time)}
	}
	return s
}

func (s *MemoryCooldownStore) shard(ruleID string) *cooldownShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ruleID))
	return s.shards[h.Sum32()%cooldownShards]
}

func (s *MemoryCooldownStore) LastFire(_ context.Context, ruleID string) (time.Time, bool, error) {
	sh := s.shard(ruleID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	t, ok := sh.fires[ruleID]
	return t, ok, nil
}

func (s *MemoryCooldownStore) RecordFire(_ context.Context, ruleID string, at time.Time, cooldown time.Duration) (bool, error) {
	sh := s.shard(ruleID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if last, ok := sh.fires[ruleID]; ok && at.Sub(last) < cooldown {
		return false, nil
	}
	sh.fires[ruleID] = at
	return true, nil
}
