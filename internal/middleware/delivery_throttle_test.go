package middleware

import (
	"context"
	"testing"
	"time"

	"BtcPulse/internal/domain/models"
)

type recordingChannel struct {
	sent          int
	sentComposite int
}

func (c *recordingChannel) Name() string { return "recording" }

func (c *recordingChannel) Send(context.Context, *models.Alert) (bool, error) {
	c.sent++
	return true, nil
}

func (c *recordingChannel) SendComposite(context.Context, *models.CompositeSignal) (bool, error) {
	c.sentComposite++
	return true, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordEvaluation(int, int)         {}
func (nopMetrics) RecordAlertFired(string)           {}
func (nopMetrics) RecordSuppression(string)          {}
func (nopMetrics) RecordError(string)                {}
func (nopMetrics) RecordLatency(string, float64)     {}
func (nopMetrics) RecordMetricValue(string, float64) {}

func alertAt(ruleID string, ts time.Time) *models.Alert {
	return &models.Alert{RuleID: ruleID, TriggeredAt: ts}
}

func TestThrottleSwallowsRepeatWithinGap(t *testing.T) {
	inner := &recordingChannel{}
	th := NewThrottledChannel(inner, nopMetrics{}, WithMinGap(time.Minute))
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	delivered, err := th.Send(context.Background(), alertAt("r1", t0))
	if err != nil || !delivered {
		t.Fatalf("first send delivered=%v err=%v", delivered, err)
	}
	// second within the gap: reported delivered, not forwarded
	delivered, err = th.Send(context.Background(), alertAt("r1", t0.Add(30*time.Second)))
	if err != nil || !delivered {
		t.Fatalf("throttled send delivered=%v err=%v", delivered, err)
	}
	if inner.sent != 1 {
		t.Fatalf("inner sends = %d, want 1", inner.sent)
	}
	// past the gap
	if _, err := th.Send(context.Background(), alertAt("r1", t0.Add(61*time.Second))); err != nil {
		t.Fatalf("send: %v", err)
	}
	if inner.sent != 2 {
		t.Fatalf("inner sends = %d, want 2", inner.sent)
	}
}

func TestThrottleKeysAreIndependent(t *testing.T) {
	inner := &recordingChannel{}
	th := NewThrottledChannel(inner, nopMetrics{}, WithMinGap(time.Minute))
	t0 := time.Now().UTC()

	th.Send(context.Background(), alertAt("r1", t0))
	th.Send(context.Background(), alertAt("r2", t0))
	if inner.sent != 2 {
		t.Fatalf("distinct rules must not throttle each other, sent=%d", inner.sent)
	}

	// a composite with the same id as a rule uses a separate key space
	th.SendComposite(context.Background(), &models.CompositeSignal{CompositeID: "r1", TriggeredAt: t0})
	if inner.sentComposite != 1 {
		t.Fatalf("composite must not share the alert key, sent=%d", inner.sentComposite)
	}
}

func TestThrottleRejectsInvalidRecords(t *testing.T) {
	inner := &recordingChannel{}
	th := NewThrottledChannel(inner, nopMetrics{})

	if _, err := th.Send(context.Background(), nil); err == nil {
		t.Fatalf("nil alert must error")
	}
	if _, err := th.Send(context.Background(), &models.Alert{TriggeredAt: time.Now()}); err == nil {
		t.Fatalf("empty rule id must error")
	}
	if _, err := th.Send(context.Background(), &models.Alert{RuleID: "r1"}); err == nil {
		t.Fatalf("zero trigger time must error")
	}
	if _, err := th.SendComposite(context.Background(), nil); err == nil {
		t.Fatalf("nil composite must error")
	}
	if inner.sent != 0 || inner.sentComposite != 0 {
		t.Fatalf("invalid records must not reach the channel")
	}
}
