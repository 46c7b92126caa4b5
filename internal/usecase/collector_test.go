package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"BtcPulse/internal/domain/models"
)

type stubPriceSource struct {
	price models.PriceMetrics
	gold  float64
}

func (s *stubPriceSource) FetchPrice(context.Context) (models.PriceMetrics, error) {
	return s.price, nil
}

func (s *stubPriceSource) FetchGoldRatio(context.Context) (float64, error) {
	return s.gold, nil
}

type stubSentimentSource struct {
	index float64
	label string
	err   error
}

func (s *stubSentimentSource) FetchFearGreed(context.Context) (float64, string, error) {
	return s.index, s.label, s.err
}

type stubNetworkSource struct {
	onchain models.OnChainMetrics
	err     error
}

func (s *stubNetworkSource) FetchNetwork(context.Context) (models.OnChainMetrics, error) {
	return s.onchain, s.err
}

type stubSnapshotStore struct{}

func (stubSnapshotStore) Init(context.Context) error                    { return nil }
func (stubSnapshotStore) Store(context.Context, *models.Snapshot) error { return nil }
func (stubSnapshotStore) Latest(context.Context) (*models.Snapshot, error) {
	return nil, nil
}
func (stubSnapshotStore) SupplyInProfitEstimate(context.Context, float64) (float64, bool, error) {
	return 0, false, nil
}
func (stubSnapshotStore) AveragePrice(context.Context, time.Time) (float64, bool, error) {
	return 0, false, nil
}
func (stubSnapshotStore) Health(context.Context) error { return nil }
func (stubSnapshotStore) Close() error                 { return nil }

func newTestCollector(t *testing.T, sentiment *stubSentimentSource) *SnapshotCollector {
	t.Helper()
	prices := &stubPriceSource{price: models.PriceMetrics{PriceUSD: 60000, Change24hPct: -2}, gold: 25}
	network := &stubNetworkSource{onchain: models.OnChainMetrics{HashRateEHS: 650}}
	return NewSnapshotCollector(prices, sentiment, network, stubSnapshotStore{}, &fakeHistory{}, nopMetrics{}, testLogger(t))
}

func TestCollectSentimentOutageFallsBackToNeutral(t *testing.T) {
	c := newTestCollector(t, &stubSentimentSource{err: errors.New("source down")})

	snap, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if snap.Sentiment.FearGreedIndex != 50 {
		t.Fatalf("fear greed = %v, want neutral 50", snap.Sentiment.FearGreedIndex)
	}
	if snap.Sentiment.FearGreedLabel != "Neutral" {
		t.Fatalf("fear greed label = %q, want Neutral", snap.Sentiment.FearGreedLabel)
	}

	// a fear rule must not fire off the fallback reading
	const yml = `
rules:
  - id: extreme-fear
    name: Extreme fear
    metric: FEAR_GREED
    operator: "<"
    threshold: 20
    severity: CRITICAL
    cooldown: 1h
`
	e := newTestEngine(t, yml, nil)
	alerts, outcomes := e.EvaluateAll(context.Background(), snap)
	if len(alerts) != 0 {
		t.Fatalf("sentiment outage produced a false alert: %s", alerts[0].Message)
	}
	o := outcomes["extreme-fear"]
	if !o.Evaluated || o.Fired {
		t.Fatalf("outcome = %+v, want evaluated clean non-fire", o)
	}
}

func TestCollectSentimentValueSurvives(t *testing.T) {
	c := newTestCollector(t, &stubSentimentSource{index: 7, label: "Extreme Fear"})

	snap, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if snap.Sentiment.FearGreedIndex != 7 || snap.Sentiment.FearGreedLabel != "Extreme Fear" {
		t.Fatalf("sentiment = %+v, want sourced 7/Extreme Fear", snap.Sentiment)
	}
}
