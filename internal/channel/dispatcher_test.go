package channel

import (
	"context"
	"errors"
	"testing"
	"time"

	"BtcPulse/internal/domain/models"
	dservice "BtcPulse/internal/domain/service"
	"BtcPulse/pkg/logger"
)

type stubChannel struct {
	name       string
	fail       bool
	alerts     []*models.Alert
	composites []*models.CompositeSignal
}

func (c *stubChannel) Name() string { return c.name }

func (c *stubChannel) Send(_ context.Context, a *models.Alert) (bool, error) {
	if c.fail {
		return false, errors.New("sink unavailable")
	}
	c.alerts = append(c.alerts, a)
	return true, nil
}

func (c *stubChannel) SendComposite(_ context.Context, s *models.CompositeSignal) (bool, error) {
	if c.fail {
		return false, errors.New("sink unavailable")
	}
	c.composites = append(c.composites, s)
	return true, nil
}

type stubQueue struct {
	types    []string
	payloads []interface{}
	err      error
}

func (q *stubQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	if q.err != nil {
		return q.err
	}
	q.types = append(q.types, msgType)
	q.payloads = append(q.payloads, payload)
	return nil
}

type countingMetrics struct {
	errorKinds []string
}

func (m *countingMetrics) RecordEvaluation(int, int)         {}
func (m *countingMetrics) RecordAlertFired(string)           {}
func (m *countingMetrics) RecordSuppression(string)          {}
func (m *countingMetrics) RecordError(kind string)           { m.errorKinds = append(m.errorKinds, kind) }
func (m *countingMetrics) RecordLatency(string, float64)     {}
func (m *countingMetrics) RecordMetricValue(string, float64) {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func sampleAlert() models.Alert {
	return models.Alert{
		RuleID:      "drop",
		RuleName:    "24h drop",
		Metric:      models.MetricPriceChange24h,
		Value:       -12.5,
		Severity:    models.SeverityCritical,
		Message:     "24h drop",
		TriggeredAt: time.Now().UTC(),
	}
}

func TestDispatchFailureIsolation(t *testing.T) {
	bad := &stubChannel{name: "bad", fail: true}
	good := &stubChannel{name: "good"}
	m := &countingMetrics{}
	d := NewDispatcher([]dservice.AlertChannel{bad, good}, m, nil, testLogger(t))

	alert := sampleAlert()
	comp := models.CompositeSignal{CompositeID: "c1", Severity: models.SeverityWarning}
	d.Dispatch(context.Background(), []models.Alert{alert}, []models.CompositeSignal{comp})

	if len(good.alerts) != 1 || len(good.composites) != 1 {
		t.Fatalf("healthy channel must receive everything, got %d/%d", len(good.alerts), len(good.composites))
	}
	if len(m.errorKinds) != 2 {
		t.Fatalf("expected 2 delivery errors recorded, got %v", m.errorKinds)
	}
	for _, k := range m.errorKinds {
		if k != "delivery_bad" {
			t.Fatalf("unexpected error kind %q", k)
		}
	}
}

func TestDispatchEnqueuesRedelivery(t *testing.T) {
	bad := &stubChannel{name: "kafka", fail: true}
	q := &stubQueue{}
	d := NewDispatcher([]dservice.AlertChannel{bad}, &countingMetrics{}, q, testLogger(t))

	alert := sampleAlert()
	d.Dispatch(context.Background(), []models.Alert{alert}, nil)

	if len(q.types) != 1 || q.types[0] != MsgRedeliverAlert {
		t.Fatalf("queue types %v", q.types)
	}
	ra, ok := q.payloads[0].(RedeliverAlert)
	if !ok {
		t.Fatalf("payload type %T", q.payloads[0])
	}
	if ra.Channel != "kafka" || ra.Alert.RuleID != alert.RuleID {
		t.Fatalf("payload %+v", ra)
	}
}

func TestDispatchCompositeRedeliveryType(t *testing.T) {
	bad := &stubChannel{name: "file", fail: true}
	q := &stubQueue{}
	d := NewDispatcher([]dservice.AlertChannel{bad}, &countingMetrics{}, q, testLogger(t))

	comp := models.CompositeSignal{CompositeID: "c1"}
	d.Dispatch(context.Background(), nil, []models.CompositeSignal{comp})

	if len(q.types) != 1 || q.types[0] != MsgRedeliverComposite {
		t.Fatalf("queue types %v", q.types)
	}
	rc := q.payloads[0].(RedeliverComposite)
	if rc.Channel != "file" || rc.Composite.CompositeID != "c1" {
		t.Fatalf("payload %+v", rc)
	}
}

func TestDispatchQueueErrorDoesNotPanic(t *testing.T) {
	bad := &stubChannel{name: "bad", fail: true}
	q := &stubQueue{err: errors.New("redis down")}
	d := NewDispatcher([]dservice.AlertChannel{bad}, &countingMetrics{}, q, testLogger(t))

	d.Dispatch(context.Background(), []models.Alert{sampleAlert()}, nil)
}

func TestChannelLookup(t *testing.T) {
	console := &stubChannel{name: "console"}
	d := NewDispatcher([]dservice.AlertChannel{console}, &countingMetrics{}, nil, testLogger(t))

	ch, ok := d.Channel("console")
	if !ok || ch.Name() != "console" {
		t.Fatalf("lookup failed")
	}
	if _, ok := d.Channel("missing"); ok {
		t.Fatalf("unknown channel must not resolve")
	}
}
