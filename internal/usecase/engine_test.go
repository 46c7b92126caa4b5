package usecase

import (
	"context"
	"testing"
	"time"

	"BtcPulse/internal/domain/models"
	internalrepo "BtcPulse/internal/repository"
	"BtcPulse/internal/rules"
	"BtcPulse/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type nopMetrics struct{}

func (nopMetrics) RecordEvaluation(int, int)         {}
func (nopMetrics) RecordAlertFired(string)           {}
func (nopMetrics) RecordSuppression(string)          {}
func (nopMetrics) RecordError(string)                {}
func (nopMetrics) RecordLatency(string, float64)     {}
func (nopMetrics) RecordMetricValue(string, float64) {}

type fakeHistory struct {
	points map[models.Metric]float64
	ath    float64
}

func (f *fakeHistory) Lookup(_ context.Context, m models.Metric, _ time.Time) (float64, bool, error) {
	v, ok := f.points[m]
	return v, ok, nil
}

func (f *fakeHistory) AllTimeHigh(_ context.Context, _ time.Time) (float64, bool, error) {
	if f.ath <= 0 {
		return 0, false, nil
	}
	return f.ath, true, nil
}

func mustTable(t *testing.T, yml string) *rules.Table {
	t.Helper()
	rs, err := rules.Parse([]byte(yml))
	if err != nil {
		t.Fatalf("parse rules: %v", err)
	}
	return rules.NewTable(rs)
}

func newTestEngine(t *testing.T, yml string, hist *fakeHistory) *RuleEngine {
	t.Helper()
	l := testLogger(t)
	if hist == nil {
		hist = &fakeHistory{}
	}
	resolver := NewMetricResolver(hist, time.Second, l)
	return NewRuleEngine(resolver, internalrepo.NewMemoryCooldownStore(), nopMetrics{}, mustTable(t, yml), l)
}

func snapshotAt(ts time.Time) *models.Snapshot {
	return &models.Snapshot{
		Timestamp: ts,
		Price:     models.PriceMetrics{PriceUSD: 60000, Change24hPct: -2},
		OnChain:   models.OnChainMetrics{HashRateEHS: 650, DifficultyChange30: 3},
		Sentiment: models.SentimentMetrics{FearGreedIndex: 50, BTCGoldRatio: 25},
	}
}

func TestExactThresholdDoesNotFireStrictOperator(t *testing.T) {
	const yml = `
rules:
  - id: fg-high
    name: fg high
    metric: FEAR_GREED
    operator: ">"
    threshold: 80
    cooldown: 1h
`
	e := newTestEngine(t, yml, nil)
	snap := snapshotAt(time.Now().UTC())
	snap.Sentiment.FearGreedIndex = 80

	alerts, outcomes := e.EvaluateAll(context.Background(), snap)
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts at exact threshold, got %d", len(alerts))
	}
	o := outcomes["fg-high"]
	if !o.Evaluated || o.Fired {
		t.Fatalf("unexpected outcome %+v", o)
	}

	snap.Sentiment.FearGreedIndex = 80.01
	alerts, _ = e.EvaluateAll(context.Background(), snap)
	if len(alerts) != 1 {
		t.Fatalf("expected one alert above threshold, got %d", len(alerts))
	}
}

func TestInclusiveOperatorFiresAtBoundary(t *testing.T) {
	const yml = `
rules:
  - id: fg-gte
    name: fg gte
    metric: FEAR_GREED
    operator: ">="
    threshold: 80
    cooldown: 1h
`
	e := newTestEngine(t, yml, nil)
	snap := snapshotAt(time.Now().UTC())
	snap.Sentiment.FearGreedIndex = 80

	alerts, _ := e.EvaluateAll(context.Background(), snap)
	if len(alerts) != 1 {
		t.Fatalf("expected boundary fire with >=, got %d alerts", len(alerts))
	}
}

func TestFirstFireNeverSuppressed(t *testing.T) {
	const yml = `
rules:
  - id: drop
    name: drop
    metric: PRICE_CHANGE_24H
    operator: "<"
    threshold: -1
    cooldown: 24h
`
	e := newTestEngine(t, yml, nil)
	alerts, _ := e.EvaluateAll(context.Background(), snapshotAt(time.Now().UTC()))
	if len(alerts) != 1 {
		t.Fatalf("first qualifying evaluation must alert, got %d", len(alerts))
	}
}

func TestCooldownSuppressesAndExpires(t *testing.T) {
	const yml = `
rules:
  - id: drop
    name: drop
    metric: PRICE_CHANGE_24H
    operator: "<"
    threshold: -1
    cooldown: 900s
`
	e := newTestEngine(t, yml, nil)
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	alerts, _ := e.EvaluateAll(context.Background(), snapshotAt(t0))
	if len(alerts) != 1 {
		t.Fatalf("expected initial alert, got %d", len(alerts))
	}

	// inside the window: suppressed, but the raw outcome still fires
	alerts, outcomes := e.EvaluateAll(context.Background(), snapshotAt(t0.Add(500*time.Second)))
	if len(alerts) != 0 {
		t.Fatalf("expected suppression at +500s, got %d alerts", len(alerts))
	}
	if o := outcomes["drop"]; !o.Fired || !o.Evaluated {
		t.Fatalf("raw outcome must fire during cooldown, got %+v", o)
	}

	// past the window
	alerts, _ = e.EvaluateAll(context.Background(), snapshotAt(t0.Add(901*time.Second)))
	if len(alerts) != 1 {
		t.Fatalf("expected alert after window expiry, got %d", len(alerts))
	}
}

func TestSuppressionDoesNotAdvanceCooldown(t *testing.T) {
	const yml = `
rules:
  - id: drop
    name: drop
    metric: PRICE_CHANGE_24H
    operator: "<"
    threshold: -1
    cooldown: 900s
`
	e := newTestEngine(t, yml, nil)
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	e.EvaluateAll(context.Background(), snapshotAt(t0))
	e.EvaluateAll(context.Background(), snapshotAt(t0.Add(800*time.Second)))

	// 901s after the FIRST fire; had the suppressed evaluation advanced
	// the timestamp this would still be inside the window
	alerts, _ := e.EvaluateAll(context.Background(), snapshotAt(t0.Add(901*time.Second)))
	if len(alerts) != 1 {
		t.Fatalf("suppressed evaluation must not extend the window, got %d alerts", len(alerts))
	}
}

func TestMissingMetricNeverFires(t *testing.T) {
	const yml = `
rules:
  - id: mvrv-top
    name: mvrv top
    metric: MVRV
    operator: ">"
    threshold: 3.5
    cooldown: 1h
  - id: drop
    name: drop
    metric: PRICE_CHANGE_24H
    operator: "<"
    threshold: -1
    cooldown: 1h
`
	e := newTestEngine(t, yml, nil)
	snap := snapshotAt(time.Now().UTC()) // MVRV nil

	alerts, outcomes := e.EvaluateAll(context.Background(), snap)
	o := outcomes["mvrv-top"]
	if o.Evaluated || o.Fired {
		t.Fatalf("missing metric must not evaluate, got %+v", o)
	}
	// the failure is isolated, the next rule still runs
	if len(alerts) != 1 || alerts[0].RuleID != "drop" {
		t.Fatalf("expected the second rule to alert, got %+v", alerts)
	}
}

func TestDisabledRuleSkipped(t *testing.T) {
	const yml = `
rules:
  - id: drop
    name: drop
    metric: PRICE_CHANGE_24H
    operator: "<"
    threshold: -1
    cooldown: 1h
    enabled: false
`
	e := newTestEngine(t, yml, nil)
	alerts, outcomes := e.EvaluateAll(context.Background(), snapshotAt(time.Now().UTC()))
	if len(alerts) != 0 {
		t.Fatalf("disabled rule must not alert")
	}
	if _, ok := outcomes["drop"]; ok {
		t.Fatalf("disabled rule must not record an outcome")
	}
}

func TestAlertsInDeclarationOrder(t *testing.T) {
	const yml = `
rules:
  - id: b-second
    name: second
    metric: FEAR_GREED
    operator: ">"
    threshold: 10
    cooldown: 1h
  - id: a-first
    name: first
    metric: PRICE
    operator: ">"
    threshold: 10
    cooldown: 1h
`
	e := newTestEngine(t, yml, nil)
	alerts, _ := e.EvaluateAll(context.Background(), snapshotAt(time.Now().UTC()))
	if len(alerts) != 2 {
		t.Fatalf("expected two alerts, got %d", len(alerts))
	}
	if alerts[0].RuleID != "b-second" || alerts[1].RuleID != "a-first" {
		t.Fatalf("alerts out of declaration order: %s, %s", alerts[0].RuleID, alerts[1].RuleID)
	}
}

const compositeYML = `
rules:
  - id: mvrv-top
    name: mvrv top
    metric: MVRV
    operator: ">"
    threshold: 3.5
    cooldown: 1h
  - id: greed
    name: greed
    metric: FEAR_GREED
    operator: ">"
    threshold: 80
    cooldown: 1h
composites:
  - id: top-risk
    name: top risk
    rules: [mvrv-top, greed]
    severity: CRITICAL
`

func TestCompositeFiresWhenAllConstituentsFire(t *testing.T) {
	e := newTestEngine(t, compositeYML, nil)
	snap := snapshotAt(time.Now().UTC())
	mvrv := 4.0
	snap.Valuation.MVRV = &mvrv
	snap.Sentiment.FearGreedIndex = 90

	_, outcomes := e.EvaluateAll(context.Background(), snap)
	sigs := e.EvaluateComposites(outcomes, snap.Timestamp)
	if len(sigs) != 1 || sigs[0].CompositeID != "top-risk" {
		t.Fatalf("expected top-risk composite, got %+v", sigs)
	}
	if sigs[0].Severity != models.SeverityCritical {
		t.Fatalf("unexpected severity %s", sigs[0].Severity)
	}
}

func TestCompositeInactiveWhenOneConstituentClears(t *testing.T) {
	e := newTestEngine(t, compositeYML, nil)
	snap := snapshotAt(time.Now().UTC())
	mvrv := 4.0
	snap.Valuation.MVRV = &mvrv
	snap.Sentiment.FearGreedIndex = 60 // below threshold

	alerts, outcomes := e.EvaluateAll(context.Background(), snap)
	if len(alerts) != 1 || alerts[0].RuleID != "mvrv-top" {
		t.Fatalf("valuation rule alone must still alert, got %+v", alerts)
	}
	sigs := e.EvaluateComposites(outcomes, snap.Timestamp)
	if len(sigs) != 0 {
		t.Fatalf("expected no composite, got %+v", sigs)
	}
}

func TestCompositeUsesRawOutcomesAndHasNoCooldown(t *testing.T) {
	e := newTestEngine(t, compositeYML, nil)
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	eval := func(ts time.Time) ([]models.Alert, []models.CompositeSignal) {
		snap := snapshotAt(ts)
		mvrv := 4.0
		snap.Valuation.MVRV = &mvrv
		snap.Sentiment.FearGreedIndex = 90
		alerts, outcomes := e.EvaluateAll(context.Background(), snap)
		return alerts, e.EvaluateComposites(outcomes, ts)
	}

	alerts, sigs := eval(t0)
	if len(alerts) != 2 || len(sigs) != 1 {
		t.Fatalf("first cycle: alerts=%d sigs=%d", len(alerts), len(sigs))
	}

	// constituents are now inside their cooldown windows; the composite
	// still fires because it reads raw outcomes
	alerts, sigs = eval(t0.Add(5 * time.Minute))
	if len(alerts) != 0 {
		t.Fatalf("constituents should be suppressed, got %d alerts", len(alerts))
	}
	if len(sigs) != 1 {
		t.Fatalf("composite must ignore constituent cooldowns, got %d signals", len(sigs))
	}
}

func TestAlertMessageFormat(t *testing.T) {
	const yml = `
rules:
  - id: greed
    name: greed
    metric: FEAR_GREED
    operator: ">"
    threshold: 80
    cooldown: 1h
    message: Extreme greed
`
	e := newTestEngine(t, yml, nil)
	snap := snapshotAt(time.Now().UTC())
	snap.Sentiment.FearGreedIndex = 91.5

	alerts, _ := e.EvaluateAll(context.Background(), snap)
	if len(alerts) != 1 {
		t.Fatalf("expected one alert")
	}
	want := "Extreme greed: FEAR_GREED=91.50 (threshold > 80.00)"
	if alerts[0].Message != want {
		t.Fatalf("message %q, want %q", alerts[0].Message, want)
	}
}
