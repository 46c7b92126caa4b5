package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryCooldownUnknownRule(t *testing.T) {
	s := NewMemoryCooldownStore()
	_, ok, err := s.LastFire(context.Background(), "never-fired")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("unknown rule must report no prior fire")
	}
}

func TestMemoryCooldownRoundtrip(t *testing.T) {
	s := NewMemoryCooldownStore()
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	acquired, err := s.RecordFire(context.Background(), "r1", at, 15*time.Minute)
	if err != nil || !acquired {
		t.Fatalf("first fire acquired=%v err=%v", acquired, err)
	}
	got, ok, err := s.LastFire(context.Background(), "r1")
	if err != nil || !ok {
		t.Fatalf("lastfire ok=%v err=%v", ok, err)
	}
	if !got.Equal(at) {
		t.Fatalf("got %v, want %v", got, at)
	}

	// a fire past the window replaces the timestamp
	later := at.Add(time.Hour)
	acquired, err = s.RecordFire(context.Background(), "r1", later, 15*time.Minute)
	if err != nil || !acquired {
		t.Fatalf("post-window fire acquired=%v err=%v", acquired, err)
	}
	got, _, _ = s.LastFire(context.Background(), "r1")
	if !got.Equal(later) {
		t.Fatalf("got %v, want %v", got, later)
	}
}

func TestMemoryCooldownClaimsWindow(t *testing.T) {
	s := NewMemoryCooldownStore()
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	window := 15 * time.Minute

	if acquired, _ := s.RecordFire(context.Background(), "r1", at, window); !acquired {
		t.Fatalf("first fire must acquire the window")
	}
	// a second claim inside the window loses and leaves the timestamp alone
	if acquired, _ := s.RecordFire(context.Background(), "r1", at.Add(5*time.Minute), window); acquired {
		t.Fatalf("in-window fire must not acquire")
	}
	got, _, _ := s.LastFire(context.Background(), "r1")
	if !got.Equal(at) {
		t.Fatalf("losing claim moved the timestamp to %v", got)
	}
	if acquired, _ := s.RecordFire(context.Background(), "r1", at.Add(window), window); !acquired {
		t.Fatalf("fire at window boundary must acquire")
	}
}

func TestMemoryCooldownConcurrentClaimsOneWinner(t *testing.T) {
	s := NewMemoryCooldownStore()
	at := time.Now().UTC()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acquired, err := s.RecordFire(context.Background(), "contended", at, time.Hour)
			if err != nil {
				t.Errorf("record: %v", err)
				return
			}
			if acquired {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("%d claims won, want exactly 1", wins.Load())
	}
}

func TestMemoryCooldownIsolatesRules(t *testing.T) {
	s := NewMemoryCooldownStore()
	at := time.Now().UTC()

	if _, err := s.RecordFire(context.Background(), "r1", at, time.Hour); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, ok, _ := s.LastFire(context.Background(), "r2"); ok {
		t.Fatalf("fire on r1 must not leak to r2")
	}
}

func TestMemoryCooldownConcurrent(t *testing.T) {
	s := NewMemoryCooldownStore()
	at := time.Now().UTC()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("rule-%d", n%8)
			_, _ = s.RecordFire(context.Background(), id, at, time.Hour)
			_, _, _ = s.LastFire(context.Background(), id)
		}(i)
	}
	wg.Wait()

	for n := 0; n < 8; n++ {
		got, ok, _ := s.LastFire(context.Background(), fmt.Sprintf("rule-%d", n))
		if !ok || !got.Equal(at) {
			t.Fatalf("rule-%d: ok=%v got=%v", n, ok, got)
		}
	}
}
