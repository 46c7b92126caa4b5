package models

import "time"

// SignalState is the qualitative reading of one proxy signal.
type SignalState string

const (
	StateBullish SignalState = "BULLISH"
	StateBearish SignalState = "BEARISH"
	StateNeutral SignalState = "NEUTRAL"
)

// CyclePhase is one of eight ordered labels describing market-cycle
// position. Classification is a pure function of the current snapshot, not
// a stateful transition graph.
type CyclePhase string

const (
	PhaseAccumulation CyclePhase = "ACCUMULATION"
	PhaseEarlyBull    CyclePhase = "EARLY_BULL"
	PhaseMidBull      CyclePhase = "MID_BULL"
	PhaseLateBull     CyclePhase = "LATE_BULL"
	PhaseDistribution CyclePhase = "DISTRIBUTION"
	PhaseEarlyBear    CyclePhase = "EARLY_BEAR"
	PhaseMidBear      CyclePhase = "MID_BEAR"
	PhaseCapitulation CyclePhase = "CAPITULATION"
)

// ProxySignal is one per-metric classification with its supporting value.
type ProxySignal struct {
	Name  string      `json:"name"`
	State SignalState `json:"state"`
	Value float64     `json:"value"`
	Note  string      `json:"note"`
}

// HalvingInfo describes where the network sits relative to reward halvings.
type HalvingInfo struct {
	LastHalving   time.Time `json:"last_halving"`
	NextHalving   time.Time `json:"next_halving"`
	DaysSince     int       `json:"days_since"`
	DaysUntil     int       `json:"days_until"`
	BlockReward   float64   `json:"block_reward"`
	CyclePosition float64   `json:"cycle_position"` // 0..100 percent
	NextEstimated bool      `json:"next_estimated"`
}

// ProxyReport is the classifier output for one snapshot: the ordered signal
// list, the majority bias, and the selected phase with a confidence in
// [0,1].
type ProxyReport struct {
	Timestamp  time.Time     `json:"timestamp"`
	Signals    []ProxySignal `json:"signals"`
	Bias       SignalState   `json:"bias"`
	Phase      CyclePhase    `json:"phase"`
	Confidence float64       `json:"confidence"`
	Halving    HalvingInfo   `json:"halving"`
}
