package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BtcPulse/pkg/cache"
)

// RedisCooldownStore keeps last-fire timestamps in Redis so cooldown
// windows survive a process restart and stay consistent when several
// monitor processes share one store. Keys are namespaced by the cache
// prefix; values are RFC3339Nano timestamps that expire with the window.
type RedisCooldownStore struct {
	cache cache.Service
}

// NewRedisCooldownStore creates a Redis-backed cooldown store.
func NewRedisCooldownStore(c cache.Service) *RedisCooldownStore {
	return &RedisCooldownStore{cache: c}
}

func cooldownKey(ruleID string) string {
	return cache.GenerateKey("cooldown", ruleID)
}

func (s *RedisCooldownStore) LastFire(ctx context.Context, ruleID string) (time.Time, bool, error) {
	var raw string
	err := s.cache.Get(ctx, cooldownKey(ruleID), &raw)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("cooldown get: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("cooldown parse %q: %w", raw, err)
	}
	return t, true, nil
}

// RecordFire claims the window with SET NX PX. The key lives exactly as
// long as the cooldown, so whichever process writes it first owns the
// fire; everyone else sees acquired=false until the window elapses.
func (s *RedisCooldownStore) RecordFire(ctx context.Context, ruleID string, at time.Time, cooldown time.Duration) (bool, error) {
	acquired, err := s.cache.SetNX(ctx, cooldownKey(ruleID), at.Format(time.RFC3339Nano), cooldown)
	if err != nil {
		return false, fmt.Errorf("cooldown setnx: %w", err)
	}
	return acquired, nil
}
