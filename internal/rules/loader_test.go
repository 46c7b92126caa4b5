package rules

import (
	"errors"
	"strings"
	"testing"
	"time"

	"BtcPulse/internal/domain/models"
)

func TestParseAppliesDefaults(t *testing.T) {
	const yml = `
rules:
  - id: drop
    name: 24h drop
    metric: PRICE_CHANGE_24H
    operator: "<"
    threshold: -10
`
	rs, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rules := rs.Rules()
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	r := rules[0]
	if r.Severity != models.SeverityInfo {
		t.Fatalf("severity %s, want INFO", r.Severity)
	}
	if r.Cooldown != time.Hour {
		t.Fatalf("cooldown %s, want 1h", r.Cooldown)
	}
	if !r.Enabled {
		t.Fatalf("rule must default to enabled")
	}
	if r.Message != "24h drop" {
		t.Fatalf("empty message must fall back to name, got %q", r.Message)
	}
}

func TestParseExplicitFields(t *testing.T) {
	const yml = `
rules:
  - id: greed
    name: greed
    metric: FEAR_GREED
    operator: ">="
    threshold: 80
    severity: CRITICAL
    cooldown: 4h
    enabled: false
    message: Extreme greed
`
	rs, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	r := rs.Rules()[0]
	if r.Severity != models.SeverityCritical || r.Cooldown != 4*time.Hour {
		t.Fatalf("got %+v", r)
	}
	if r.Enabled {
		t.Fatalf("enabled: false must survive defaulting")
	}
	if r.Message != "Extreme greed" {
		t.Fatalf("message %q", r.Message)
	}
}

func TestParseRejections(t *testing.T) {
	cases := []struct {
		name   string
		yml    string
		reason string
	}{
		{
			"unknown metric",
			`
rules:
  - id: r1
    name: r1
    metric: BOGUS
    operator: ">"
    threshold: 1
`,
			"unknown metric",
		},
		{
			"unknown operator",
			`
rules:
  - id: r1
    name: r1
    metric: PRICE
    operator: "~="
    threshold: 1
`,
			"unknown operator",
		},
		{
			"unknown severity",
			`
rules:
  - id: r1
    name: r1
    metric: PRICE
    operator: ">"
    threshold: 1
    severity: LOUD
`,
			"unknown severity",
		},
		{
			"non-positive cooldown",
			`
rules:
  - id: r1
    name: r1
    metric: PRICE
    operator: ">"
    threshold: 1
    cooldown: -5m
`,
			"cooldown must be positive",
		},
		{
			"duplicate rule id",
			`
rules:
  - id: r1
    name: a
    metric: PRICE
    operator: ">"
    threshold: 1
  - id: r1
    name: b
    metric: PRICE
    operator: "<"
    threshold: 1
`,
			"duplicate rule id",
		},
		{
			"missing required field",
			`
rules:
  - id: r1
    metric: PRICE
    operator: ">"
    threshold: 1
`,
			"invalid rule",
		},
		{
			"composite references undefined rule",
			`
rules:
  - id: r1
    name: r1
    metric: PRICE
    operator: ">"
    threshold: 1
  - id: r2
    name: r2
    metric: PRICE
    operator: "<"
    threshold: 1
composites:
  - id: c1
    name: c1
    rules: [r1, ghost]
`,
			"undefined rule",
		},
		{
			"composite with one rule",
			`
rules:
  - id: r1
    name: r1
    metric: PRICE
    operator: ">"
    threshold: 1
composites:
  - id: c1
    name: c1
    rules: [r1]
`,
			"invalid composite",
		},
	}

	for _, tc := range cases {
		_, err := Parse([]byte(tc.yml))
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		var ce *models.ConfigError
		if !errors.As(err, &ce) {
			t.Fatalf("%s: expected ConfigError, got %T %v", tc.name, err, err)
		}
		if !strings.Contains(err.Error(), tc.reason) {
			t.Fatalf("%s: error %q missing %q", tc.name, err, tc.reason)
		}
	}
}

func TestParseCompositeDefaults(t *testing.T) {
	const yml = `
rules:
  - id: r1
    name: r1
    metric: PRICE
    operator: ">"
    threshold: 1
  - id: r2
    name: r2
    metric: FEAR_GREED
    operator: "<"
    threshold: 20
composites:
  - id: c1
    name: both down
    rules: [r1, r2]
`
	rs, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	comps := rs.Composites()
	if len(comps) != 1 {
		t.Fatalf("expected 1 composite, got %d", len(comps))
	}
	c := comps[0]
	if c.Severity != models.SeverityWarning {
		t.Fatalf("composite severity %s, want WARNING", c.Severity)
	}
	if c.Message != "both down" {
		t.Fatalf("empty message must fall back to name, got %q", c.Message)
	}
	if len(c.RuleIDs) != 2 || c.RuleIDs[0] != "r1" {
		t.Fatalf("rule ids %v", c.RuleIDs)
	}
}

func TestTableReloadKeepsOldSetOnFailure(t *testing.T) {
	const yml = `
rules:
  - id: r1
    name: r1
    metric: PRICE
    operator: ">"
    threshold: 1
`
	rs, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	table := NewTable(rs)
	if err := table.Reload("testdata/does-not-exist.yaml"); err == nil {
		t.Fatalf("expected reload failure")
	}
	if got := table.Current(); got != rs {
		t.Fatalf("failed reload must keep the active set")
	}
}
