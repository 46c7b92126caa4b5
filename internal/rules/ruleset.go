package rules

import (
	"BtcPulse/internal/domain/models"
)

// RuleSet is the validated, immutable in-memory rule table built once at
// load. Runtime code never re-parses raw configuration; hot reload swaps a
// whole RuleSet via atomic pointer, never mutates one in place.
type RuleSet struct {
	rules      []models.Rule
	composites []models.CompositeRule
	byID       map[string]int
}

// Rules returns rules in declaration order.
func (rs *RuleSet) Rules() []models.Rule {
	return rs.rules
}

// Composites returns composite definitions in declaration order.
func (rs *RuleSet) Composites() []models.CompositeRule {
	return rs.composites
}

// Rule looks a rule up by ID.
func (rs *RuleSet) Rule(id string) (models.Rule, bool) {
	i, ok := rs.byID[id]
	if !ok {
		return models.Rule{}, false
	}
	return rs.rules[i], true
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

func newRuleSet(rules []models.Rule, composites []models.CompositeRule) *RuleSet {
	byID := make(map[string]int, len(rules))
	for i, r := range rules {
		byID[r.ID] = i
	}
	return &RuleSet{rules: rules, composites: composites, byID: byID}
}
