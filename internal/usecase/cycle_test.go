package usecase

import (
	"reflect"
	"testing"
	"time"

	"BtcPulse/internal/domain/models"
)

func fptr(f float64) *float64 { return &f }

func TestClassifySignalsBearMarketScenario(t *testing.T) {
	// 2022-style trough: extreme fear, MVRV near 1, 43% off the high,
	// difficulty still climbing.
	snap := snapshotAt(time.Now().UTC())
	snap.Valuation.MVRV = fptr(1.38)
	snap.Sentiment.FearGreedIndex = 7
	snap.Sentiment.BTCGoldRatio = 18
	snap.OnChain.DifficultyChange30 = 10

	signals := ClassifySignals(snap, 43, fptr(62))
	if len(signals) != 6 {
		t.Fatalf("expected 6 signals, got %d", len(signals))
	}

	states := map[string]models.SignalState{}
	for _, s := range signals {
		states[s.Name] = s.State
	}
	want := map[string]models.SignalState{
		"mvrv":              models.StateNeutral,
		"fear_greed":        models.StateBullish,
		"drawdown_from_ath": models.StateNeutral,
		"hash_rate_trend":   models.StateBullish,
		"btc_gold_ratio":    models.StateNeutral,
		"supply_in_profit":  models.StateNeutral,
	}
	if !reflect.DeepEqual(states, want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	if bias := OverallBias(signals); bias != models.StateBullish {
		t.Fatalf("bias = %s, want BULLISH", bias)
	}
}

func TestClassifySignalsMissingInputs(t *testing.T) {
	snap := snapshotAt(time.Now().UTC()) // MVRV nil
	snap.Sentiment.BTCGoldRatio = 0

	signals := ClassifySignals(snap, 20, nil)
	for _, s := range signals {
		switch s.Name {
		case "mvrv":
			if s.State != models.StateNeutral || s.Note != "valuation data unavailable" {
				t.Fatalf("mvrv signal %+v", s)
			}
		case "btc_gold_ratio":
			if s.State != models.StateNeutral || s.Note != "cross-asset data unavailable" {
				t.Fatalf("gold signal %+v", s)
			}
		case "supply_in_profit":
			if s.State != models.StateNeutral || s.Note != "insufficient price history" {
				t.Fatalf("supply signal %+v", s)
			}
		}
	}
}

func TestOverallBiasTieIsNeutral(t *testing.T) {
	signals := []models.ProxySignal{
		{State: models.StateBullish},
		{State: models.StateBearish},
		{State: models.StateNeutral},
		{State: models.StateNeutral},
	}
	if bias := OverallBias(signals); bias != models.StateNeutral {
		t.Fatalf("tie must be NEUTRAL, got %s", bias)
	}
	if bias := OverallBias(nil); bias != models.StateNeutral {
		t.Fatalf("empty input must be NEUTRAL, got %s", bias)
	}
}

func TestClassifyPhaseTable(t *testing.T) {
	cases := []struct {
		name      string
		daysSince int
		mvrv      *float64
		fearGreed float64
		drawdown  float64
		wantPhase models.CyclePhase
		wantConf  float64
	}{
		{"deep drawdown", 400, nil, 10, 75, models.PhaseCapitulation, 0.9},
		{"mvrv below half", 400, fptr(0.4), 50, 20, models.PhaseCapitulation, 0.9},
		{"mid bear by drawdown", 400, nil, 50, 55, models.PhaseMidBear, 0.65},
		{"mid bear by mvrv", 400, fptr(0.8), 50, 20, models.PhaseMidBear, 0.65},
		{"distribution early cycle", 200, nil, 50, 35, models.PhaseDistribution, 0.65},
		{"early bear late cycle", 500, nil, 50, 35, models.PhaseEarlyBear, 0.65},
		{"late bull pullback", 500, nil, 70, 20, models.PhaseLateBull, 0.4},
		{"distribution pullback", 500, nil, 50, 20, models.PhaseDistribution, 0.4},
		{"early bull near high", 100, nil, 50, 2, models.PhaseEarlyBull, 0.65},
		{"late bull euphoric high", 500, nil, 80, 2, models.PhaseLateBull, 0.65},
		{"mid bull near high", 500, nil, 50, 2, models.PhaseMidBull, 0.65},
		{"default mid bull", 500, nil, 50, 10, models.PhaseMidBull, 0.4},
		{"accumulation override", 1200, nil, 30, 10, models.PhaseAccumulation, 0.65},
	}

	for _, tc := range cases {
		phase, conf := ClassifyPhase(tc.daysSince, tc.mvrv, tc.fearGreed, tc.drawdown)
		if phase != tc.wantPhase || conf != tc.wantConf {
			t.Fatalf("%s: got %s/%.2f, want %s/%.2f", tc.name, phase, conf, tc.wantPhase, tc.wantConf)
		}
	}
}

func TestClassifyPhaseAccumulationOverrideBounds(t *testing.T) {
	// One day short of the cycle-age bound keeps the base classification.
	if phase, _ := ClassifyPhase(1095, nil, 30, 10); phase == models.PhaseAccumulation {
		t.Fatalf("override must require more than 1095 days")
	}
	// A deep drawdown disables the override even late in the cycle.
	if phase, _ := ClassifyPhase(1200, nil, 30, 35); phase == models.PhaseAccumulation {
		t.Fatalf("override must require drawdown below 30")
	}
}

func TestBuildReportIsPure(t *testing.T) {
	snap := snapshotAt(time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))
	snap.Valuation.MVRV = fptr(2.1)
	halving := ComputeHalvingInfo(snap.Timestamp)

	a := BuildReport(snap, halving, 12, fptr(88))
	b := BuildReport(snap, halving, 12, fptr(88))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("repeated classification diverged:\n%+v\n%+v", a, b)
	}
	if a.Timestamp != snap.Timestamp {
		t.Fatalf("report timestamp %v, want %v", a.Timestamp, snap.Timestamp)
	}
	if a.Halving != halving {
		t.Fatalf("halving info not carried through")
	}
	if a.Bias != OverallBias(a.Signals) {
		t.Fatalf("bias inconsistent with signals")
	}
}
