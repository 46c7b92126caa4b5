package repository

import (
	"context"
	"testing"
	"time"

	"BtcPulse/pkg/cache"
)

// fakeCacheEntry mirrors Redis value-with-TTL semantics so SetNX claims
// behave the way the live store would.
type fakeCacheEntry struct {
	value    string
	expireAt time.Time
}

type fakeCache struct {
	data map[string]fakeCacheEntry
	now  time.Time
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]fakeCacheEntry), now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeCache) live(key string) (fakeCacheEntry, bool) {
	e, ok := f.data[key]
	if !ok || (!e.expireAt.IsZero() && !f.now.Before(e.expireAt)) {
		return fakeCacheEntry{}, false
	}
	return e, true
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	e := fakeCacheEntry{value: value.(string)}
	if ttl > 0 {
		e.expireAt = f.now.Add(ttl)
	}
	f.data[key] = e
	return nil
}

func (f *fakeCache) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if _, ok := f.live(key); ok {
		return false, nil
	}
	return true, f.Set(ctx, key, value, ttl)
}

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	e, ok := f.live(key)
	if !ok {
		return cache.ErrCacheMiss
	}
	*dest.(*string) = e.value
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeCache) DeleteByPattern(context.Context, string) error { return nil }
func (f *fakeCache) Exists(context.Context, ...string) (bool, error) {
	return false, nil
}
func (f *fakeCache) Increment(context.Context, string) (int64, error) { return 0, nil }
func (f *fakeCache) Expire(context.Context, string, time.Duration) (bool, error) {
	return false, nil
}
func (f *fakeCache) MSet(context.Context, map[string]interface{}, time.Duration) error { return nil }
func (f *fakeCache) MGet(context.Context, ...string) (map[string]string, error) {
	return nil, nil
}
func (f *fakeCache) TryLock(context.Context, string, time.Duration) (bool, error) {
	return false, nil
}
func (f *fakeCache) Unlock(context.Context, string) error { return nil }

func TestRedisCooldownClaimsWindow(t *testing.T) {
	fc := newFakeCache()
	s := NewRedisCooldownStore(fc)
	at := fc.now
	window := 15 * time.Minute

	acquired, err := s.RecordFire(context.Background(), "r1", at, window)
	if err != nil || !acquired {
		t.Fatalf("first fire acquired=%v err=%v", acquired, err)
	}

	// a second writer inside the window loses the claim
	acquired, err = s.RecordFire(context.Background(), "r1", at.Add(5*time.Minute), window)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if acquired {
		t.Fatalf("in-window fire must not acquire")
	}

	got, ok, err := s.LastFire(context.Background(), "r1")
	if err != nil || !ok {
		t.Fatalf("lastfire ok=%v err=%v", ok, err)
	}
	if !got.Equal(at) {
		t.Fatalf("losing claim moved the timestamp to %v", got)
	}

	// the key expires with the window, freeing the next fire
	fc.now = at.Add(window)
	acquired, err = s.RecordFire(context.Background(), "r1", fc.now, window)
	if err != nil || !acquired {
		t.Fatalf("post-window fire acquired=%v err=%v", acquired, err)
	}
}

func TestRedisCooldownMissAfterExpiry(t *testing.T) {
	fc := newFakeCache()
	s := NewRedisCooldownStore(fc)

	if _, err := s.RecordFire(context.Background(), "r1", fc.now, time.Minute); err != nil {
		t.Fatalf("record: %v", err)
	}
	fc.now = fc.now.Add(2 * time.Minute)
	_, ok, err := s.LastFire(context.Background(), "r1")
	if err != nil {
		t.Fatalf("lastfire: %v", err)
	}
	if ok {
		t.Fatalf("expired window must read as no prior fire")
	}
}
