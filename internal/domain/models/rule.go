package models

import "time"

// Operator is one of the six supported comparisons. Unknown operators are a
// configuration error rejected at load time, never at evaluation time.
type Operator string

const (
	OpLT  Operator = "<"
	OpGT  Operator = ">"
	OpLTE Operator = "<="
	OpGTE Operator = ">="
	OpEQ  Operator = "=="
	OpNEQ Operator = "!="
)

// Known reports whether op is a supported comparison.
func (op Operator) Known() bool {
	switch op {
	case OpLT, OpGT, OpLTE, OpGTE, OpEQ, OpNEQ:
		return true
	}
	return false
}

// Severity classifies alerts and composite signals.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Known reports whether s is a supported severity.
func (s Severity) Known() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// Rule is a single metric/operator/threshold definition. Rules are validated
// at load and treated as read-only afterwards.
type Rule struct {
	ID        string
	Name      string
	Metric    Metric
	Operator  Operator
	Threshold float64
	Severity  Severity
	Cooldown  time.Duration
	Enabled   bool
	Message   string
}

// CompositeRule names an AND-combination of two or more rule outcomes.
// Composites are evaluated against raw outcomes and carry no cooldown of
// their own.
type CompositeRule struct {
	ID       string
	Name     string
	RuleIDs  []string
	Severity Severity
	Message  string
}
