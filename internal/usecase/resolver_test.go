package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"BtcPulse/internal/domain/models"
)

func newTestResolver(t *testing.T, hist *fakeHistory) *MetricResolver {
	t.Helper()
	return NewMetricResolver(hist, time.Second, testLogger(t))
}

func TestResolveDirectMetrics(t *testing.T) {
	r := newTestResolver(t, &fakeHistory{})
	snap := snapshotAt(time.Now().UTC())
	snap.Price.PriceUSD = 61234.5
	snap.Sentiment.FearGreedIndex = 17

	cases := []struct {
		metric models.Metric
		want   float64
	}{
		{models.MetricPrice, 61234.5},
		{models.MetricPriceChange24h, -2},
		{models.MetricFearGreed, 17},
		{models.MetricBTCGoldRatio, 25},
		{models.MetricHashRate, 650},
		{models.MetricDifficultyChange30, 3},
	}
	for _, tc := range cases {
		v := r.Resolve(context.Background(), tc.metric, snap)
		if !v.Available || v.Estimated || v.Float != tc.want {
			t.Fatalf("%s: got %+v, want %v", tc.metric, v, tc.want)
		}
	}
}

func TestResolveMVRVMissing(t *testing.T) {
	r := newTestResolver(t, &fakeHistory{})
	snap := snapshotAt(time.Now().UTC())

	v := r.Resolve(context.Background(), models.MetricMVRV, snap)
	if v.Available {
		t.Fatalf("nil MVRV must resolve to not available, got %+v", v)
	}
}

func TestResolveMVRVEstimatedFlagSurvives(t *testing.T) {
	r := newTestResolver(t, &fakeHistory{})
	snap := snapshotAt(time.Now().UTC())
	mvrv := 1.8
	snap.Valuation.MVRV = &mvrv
	snap.Valuation.Estimated = true

	v := r.Resolve(context.Background(), models.MetricMVRV, snap)
	if !v.Available || !v.Estimated || v.Float != 1.8 {
		t.Fatalf("got %+v", v)
	}
}

func TestResolvePercentChange7d(t *testing.T) {
	hist := &fakeHistory{points: map[models.Metric]float64{models.MetricPrice: 100}}
	r := newTestResolver(t, hist)
	snap := snapshotAt(time.Now().UTC())
	snap.Price.PriceUSD = 110

	v := r.Resolve(context.Background(), models.MetricPriceChange7d, snap)
	if !v.Available || v.Estimated {
		t.Fatalf("got %+v", v)
	}
	if v.Float != 10.0 {
		t.Fatalf("percent change = %v, want 10.0", v.Float)
	}
}

func TestResolvePercentChangeZeroPast(t *testing.T) {
	hist := &fakeHistory{points: map[models.Metric]float64{models.MetricPrice: 0}}
	r := newTestResolver(t, hist)
	snap := snapshotAt(time.Now().UTC())

	v := r.Resolve(context.Background(), models.MetricPriceChange7d, snap)
	if !v.Available || !v.Estimated || v.Float != 0 {
		t.Fatalf("zero past value must fall back to estimated 0, got %+v", v)
	}
}

func TestResolvePercentChangeNoHistory(t *testing.T) {
	r := newTestResolver(t, &fakeHistory{})
	snap := snapshotAt(time.Now().UTC())

	v := r.Resolve(context.Background(), models.MetricPriceChange30d, snap)
	if !v.Available || !v.Estimated || v.Float != 0 {
		t.Fatalf("missing history must fall back to estimated 0, got %+v", v)
	}
}

func TestResolveDrawdownFromATH(t *testing.T) {
	hist := &fakeHistory{ath: 100}
	r := newTestResolver(t, hist)
	snap := snapshotAt(time.Now().UTC())
	snap.Price.PriceUSD = 40

	v := r.Resolve(context.Background(), models.MetricDrawdownFromATH, snap)
	if !v.Available || v.Estimated {
		t.Fatalf("got %+v", v)
	}
	if v.Float != 60.0 {
		t.Fatalf("drawdown = %v, want 60.0", v.Float)
	}
}

func TestResolveDrawdownPriceAboveATHClamps(t *testing.T) {
	hist := &fakeHistory{ath: 100}
	r := newTestResolver(t, hist)
	snap := snapshotAt(time.Now().UTC())
	snap.Price.PriceUSD = 120 // new high not yet stored

	v := r.Resolve(context.Background(), models.MetricDrawdownFromATH, snap)
	if !v.Available || v.Float != 0 {
		t.Fatalf("price above stored ATH must clamp to 0, got %+v", v)
	}
}

func TestResolveDrawdownNoATH(t *testing.T) {
	r := newTestResolver(t, &fakeHistory{})
	snap := snapshotAt(time.Now().UTC())

	v := r.Resolve(context.Background(), models.MetricDrawdownFromATH, snap)
	if !v.Available || !v.Estimated || v.Float != 0 {
		t.Fatalf("missing ATH must fall back to estimated 0, got %+v", v)
	}
}

func TestResolveHashRateChangeUsesDifficultyTrend(t *testing.T) {
	r := newTestResolver(t, &fakeHistory{})
	snap := snapshotAt(time.Now().UTC())
	snap.OnChain.DifficultyChange30 = -12.5

	v := r.Resolve(context.Background(), models.MetricHashRateChange30d, snap)
	if !v.Available || !v.Estimated || v.Float != -12.5 {
		t.Fatalf("got %+v", v)
	}
}

func TestResolveNilSnapshot(t *testing.T) {
	r := newTestResolver(t, &fakeHistory{})
	if v := r.Resolve(context.Background(), models.MetricPrice, nil); v.Available {
		t.Fatalf("nil snapshot must resolve to not available, got %+v", v)
	}
}

type failingHistory struct{}

func (failingHistory) Lookup(context.Context, models.Metric, time.Time) (float64, bool, error) {
	return 0, false, errors.New("store down")
}

func (failingHistory) AllTimeHigh(context.Context, time.Time) (float64, bool, error) {
	return 0, false, errors.New("store down")
}

func TestResolveHistoryErrorFallsBack(t *testing.T) {
	r := NewMetricResolver(failingHistory{}, time.Second, testLogger(t))
	snap := snapshotAt(time.Now().UTC())

	v := r.Resolve(context.Background(), models.MetricPriceChange7d, snap)
	if !v.Available || !v.Estimated || v.Float != 0 {
		t.Fatalf("store error must fall back to estimated 0, got %+v", v)
	}
	v = r.Resolve(context.Background(), models.MetricDrawdownFromATH, snap)
	if !v.Available || !v.Estimated || v.Float != 0 {
		t.Fatalf("store error must fall back to estimated 0, got %+v", v)
	}
}
