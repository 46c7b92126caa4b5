package models

import "time"

// Alert is emitted exactly once per (rule, snapshot) pair that passes both
// the condition and the cooldown check. Immutable once created.
type Alert struct {
	RuleID      string    `json:"rule_id"`
	RuleName    string    `json:"rule_name"`
	Metric      Metric    `json:"metric"`
	Value       float64   `json:"value"`
	Estimated   bool      `json:"estimated,omitempty"`
	Severity    Severity  `json:"severity"`
	Message     string    `json:"message"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// Outcome is the raw per-rule result for one snapshot, recorded before any
// cooldown filtering. Evaluated=false marks a rule whose metric could not be
// resolved, which downstream must treat as distinct from a clean non-fire.
type Outcome struct {
	Fired     bool
	Evaluated bool
	Value     Value
}

// CompositeSignal is emitted when every constituent rule's raw outcome is
// true for the same snapshot.
type CompositeSignal struct {
	CompositeID string    `json:"composite_id"`
	Name        string    `json:"name"`
	RuleIDs     []string  `json:"rule_ids"`
	Severity    Severity  `json:"severity"`
	Message     string    `json:"message"`
	TriggeredAt time.Time `json:"triggered_at"`
}
