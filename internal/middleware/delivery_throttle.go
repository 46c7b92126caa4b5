package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"BtcPulse/internal/domain/models"
	domrepo "BtcPulse/internal/domain/repository"
	domsvc "BtcPulse/internal/domain/service"
)

// ThrottledChannel wraps a delivery channel with a per-key minimum gap.
// Composites carry no evaluation-side cooldown, so noisy composite
// definitions are tamed here, on the delivery side, where rate limiting
// belongs.
type ThrottledChannel struct {
	next    domsvc.AlertChannel
	metrics domrepo.Metrics
	minGap  time.Duration

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

type ThrottleOption func(*ThrottledChannel)

// WithMinGap sets the minimum time between deliveries of the same key.
func WithMinGap(d time.Duration) ThrottleOption {
	return func(t *ThrottledChannel) {
		if d > 0 {
			t.minGap = d
		}
	}
}

// NewThrottledChannel wraps next with per-key delivery throttling.
func NewThrottledChannel(next domsvc.AlertChannel, metrics domrepo.Metrics, opts ...ThrottleOption) *ThrottledChannel {
	t := &ThrottledChannel{
		next:     next,
		metrics:  metrics,
		minGap:   time.Minute,
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *ThrottledChannel) Name() string { return t.next.Name() }

func (t *ThrottledChannel) Send(ctx context.Context, a *models.Alert) (bool, error) {
	if err := validateAlert(a); err != nil {
		t.metrics.RecordError("throttle_validate")
		return false, err
	}
	if !t.allow("alert:"+a.RuleID, a.TriggeredAt) {
		// throttled; swallowed deliberately, the evaluation-side cooldown
		// already recorded the fire
		t.metrics.RecordError("throttle_" + t.next.Name())
		return true, nil
	}
	return t.next.Send(ctx, a)
}

func (t *ThrottledChannel) SendComposite(ctx context.Context, c *models.CompositeSignal) (bool, error) {
	if c == nil || c.CompositeID == "" {
		t.metrics.RecordError("throttle_validate")
		return false, fmt.Errorf("composite invalid")
	}
	if !t.allow("composite:"+c.CompositeID, c.TriggeredAt) {
		t.metrics.RecordError("throttle_" + t.next.Name())
		return true, nil
	}
	return t.next.SendComposite(ctx, c)
}

func validateAlert(a *models.Alert) error {
	if a == nil {
		return fmt.Errorf("alert nil")
	}
	if a.RuleID == "" {
		return fmt.Errorf("rule id empty")
	}
	if a.TriggeredAt.IsZero() {
		return fmt.Errorf("trigger time missing")
	}
	return nil
}

func (t *ThrottledChannel) allow(key string, now time.Time) bool {
	if t.minGap <= 0 {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.lastSeen[key]
	if ok && now.Sub(last) < t.minGap {
		return false
	}
	t.lastSeen[key] = now
	return true
}
