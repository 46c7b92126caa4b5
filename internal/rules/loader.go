package rules

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"BtcPulse/internal/domain/models"
)

var validate = validator.New()

type rawRule struct {
	ID        string        `yaml:"id" validate:"required"`
	Name      string        `yaml:"name" validate:"required"`
	Metric    string        `yaml:"metric" validate:"required"`
	Operator  string        `yaml:"operator" validate:"required"`
	Threshold float64       `yaml:"threshold"`
	Severity  string        `yaml:"severity" default:"INFO"`
	Cooldown  time.Duration `yaml:"cooldown" default:"1h"`
	Enabled   *bool         `yaml:"enabled"`
	Message   string        `yaml:"message"`
}

type rawComposite struct {
	ID       string   `yaml:"id" validate:"required"`
	Name     string   `yaml:"name" validate:"required"`
	Rules    []string `yaml:"rules" validate:"required,min=2"`
	Severity string   `yaml:"severity" default:"WARNING"`
	Message  string   `yaml:"message"`
}

type rawFile struct {
	Rules      []rawRule      `yaml:"rules"`
	Composites []rawComposite `yaml:"composites"`
}

// Load reads, validates and freezes the rule table from a YAML file.
// Any invalid definition fails the load; the process must not start
// evaluating with a partially valid table.
func Load(path string) (*RuleSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return Parse(b)
}

// Parse builds a RuleSet from raw YAML bytes.
func Parse(b []byte) (*RuleSet, error) {
	var raw rawFile
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	ruleList := make([]models.Rule, 0, len(raw.Rules))
	seen := make(map[string]struct{}, len(raw.Rules))
	for i := range raw.Rules {
		r, err := buildRule(&raw.Rules[i])
		if err != nil {
			return nil, err
		}
		if _, dup := seen[r.ID]; dup {
			return nil, models.NewConfigError(r.ID, "duplicate rule id")
		}
		seen[r.ID] = struct{}{}
		ruleList = append(ruleList, r)
	}

	composites := make([]models.CompositeRule, 0, len(raw.Composites))
	for i := range raw.Composites {
		c, err := buildComposite(&raw.Composites[i], seen)
		if err != nil {
			return nil, err
		}
		composites = append(composites, c)
	}

	return newRuleSet(ruleList, composites), nil
}

func buildRule(raw *rawRule) (models.Rule, error) {
	if err := defaults.Set(raw); err != nil {
		return models.Rule{}, fmt.Errorf("rule defaults: %w", err)
	}
	if err := validate.Struct(raw); err != nil {
		return models.Rule{}, models.NewConfigError(raw.ID, "invalid rule: %v", err)
	}

	metric := models.Metric(raw.Metric)
	if !metric.Known() {
		return models.Rule{}, models.NewConfigError(raw.ID, "unknown metric %q", raw.Metric)
	}
	op := models.Operator(raw.Operator)
	if !op.Known() {
		return models.Rule{}, models.NewConfigError(raw.ID, "unknown operator %q", raw.Operator)
	}
	sev := models.Severity(raw.Severity)
	if !sev.Known() {
		return models.Rule{}, models.NewConfigError(raw.ID, "unknown severity %q", raw.Severity)
	}
	if raw.Cooldown <= 0 {
		return models.Rule{}, models.NewConfigError(raw.ID, "cooldown must be positive, got %s", raw.Cooldown)
	}

	enabled := true
	if raw.Enabled != nil {
		enabled = *raw.Enabled
	}
	msg := raw.Message
	if msg == "" {
		msg = raw.Name
	}

	return models.Rule{
		ID:        raw.ID,
		Name:      raw.Name,
		Metric:    metric,
		Operator:  op,
		Threshold: raw.Threshold,
		Severity:  sev,
		Cooldown:  raw.Cooldown,
		Enabled:   enabled,
		Message:   msg,
	}, nil
}

func buildComposite(raw *rawComposite, ruleIDs map[string]struct{}) (models.CompositeRule, error) {
	if err := defaults.Set(raw); err != nil {
		return models.CompositeRule{}, fmt.Errorf("composite defaults: %w", err)
	}
	if err := validate.Struct(raw); err != nil {
		return models.CompositeRule{}, models.NewConfigError(raw.ID, "invalid composite: %v", err)
	}

	sev := models.Severity(raw.Severity)
	if !sev.Known() {
		return models.CompositeRule{}, models.NewConfigError(raw.ID, "unknown severity %q", raw.Severity)
	}
	for _, id := range raw.Rules {
		if _, ok := ruleIDs[id]; !ok {
			return models.CompositeRule{}, models.NewConfigError(raw.ID, "references undefined rule %q", id)
		}
	}

	msg := raw.Message
	if msg == "" {
		msg = raw.Name
	}

	return models.CompositeRule{
		ID:       raw.ID,
		Name:     raw.Name,
		RuleIDs:  append([]string(nil), raw.Rules...),
		Severity: sev,
		Message:  msg,
	}, nil
}
