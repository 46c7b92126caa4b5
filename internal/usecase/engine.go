package usecase

import (
	"context"
	"fmt"
	"time"

	"BtcPulse/internal/domain/models"
	drepo "BtcPulse/internal/domain/repository"
	"BtcPulse/internal/rules"
	"BtcPulse/pkg/logger"
)

// RuleEngine runs the full rule set against one snapshot: resolve metric,
// evaluate condition, record the raw outcome, then filter fires through the
// cooldown store.
type RuleEngine struct {
	resolver  *MetricResolver
	cooldowns drepo.CooldownStore
	metrics   drepo.Metrics
	table     *rules.Table
	logger    *logger.Logger
}

// NewRuleEngine creates a new RuleEngine instance.
func NewRuleEngine(
	resolver *MetricResolver,
	cooldowns drepo.CooldownStore,
	metrics drepo.Metrics,
	table *rules.Table,
	lgr *logger.Logger,
) *RuleEngine {
	return &RuleEngine{
		resolver:  resolver,
		cooldowns: cooldowns,
		metrics:   metrics,
		table:     table,
		logger:    lgr,
	}
}

// EvaluateAll evaluates every enabled rule against the snapshot. Alerts come
// back in rule declaration order. Raw outcomes cover all enabled rules,
// recorded before cooldown filtering, so composites can reuse them. One
// rule's failure never aborts the rest.
func (e *RuleEngine) EvaluateAll(ctx context.Context, snap *models.Snapshot) ([]models.Alert, map[string]models.Outcome) {
	start := time.Now()
	rs := e.table.Current()

	alerts := make([]models.Alert, 0)
	outcomes := make(map[string]models.Outcome, rs.Len())

	for _, rule := range rs.Rules() {
		if !rule.Enabled {
			continue
		}

		value := e.resolver.Resolve(ctx, rule.Metric, snap)
		if !value.Available {
			// Never trigger on missing data; Evaluated=false keeps this
			// distinguishable from a clean non-fire.
			outcomes[rule.ID] = models.Outcome{Value: value}
			e.metrics.RecordError("metric_unavailable")
			e.logger.Debug("metric unavailable",
				logger.String("rule", rule.ID),
				logger.String("metric", string(rule.Metric)),
			)
			continue
		}

		fired := EvaluateCondition(rule.Operator, value.Float, rule.Threshold)
		outcomes[rule.ID] = models.Outcome{Fired: fired, Evaluated: true, Value: value}
		if !fired {
			continue
		}

		suppress, err := e.shouldSuppress(ctx, &rule, snap.Timestamp)
		if err != nil {
			e.metrics.RecordError("cooldown")
			e.logger.Error("cooldown check failed, skipping rule",
				logger.String("rule", rule.ID),
				logger.Error(err),
			)
			continue
		}
		if suppress {
			e.metrics.RecordSuppression(rule.ID)
			e.logger.Debug("alert suppressed by cooldown", logger.String("rule", rule.ID))
			continue
		}

		acquired, err := e.cooldowns.RecordFire(ctx, rule.ID, snap.Timestamp, rule.Cooldown)
		if err != nil {
			// a broken store must not silence alerts
			e.metrics.RecordError("cooldown")
			e.logger.Error("record fire failed",
				logger.String("rule", rule.ID),
				logger.Error(err),
			)
		} else if !acquired {
			// another process claimed this window between our read and
			// the write
			e.metrics.RecordSuppression(rule.ID)
			e.logger.Debug("fire already claimed", logger.String("rule", rule.ID))
			continue
		}
		alerts = append(alerts, buildAlert(&rule, value, snap.Timestamp))
		e.metrics.RecordAlertFired(string(rule.Severity))
	}

	e.metrics.RecordEvaluation(rs.Len(), len(alerts))
	e.metrics.RecordLatency("evaluate_all", time.Since(start).Seconds())
	return alerts, outcomes
}

// EvaluateComposites re-uses raw rule outcomes. A composite fires iff every
// constituent outcome fired for this snapshot; cooldown state of the
// constituents is irrelevant and composites carry no cooldown of their own.
func (e *RuleEngine) EvaluateComposites(outcomes map[string]models.Outcome, at time.Time) []models.CompositeSignal {
	rs := e.table.Current()
	signals := make([]models.CompositeSignal, 0)

	for _, comp := range rs.Composites() {
		active := true
		for _, id := range comp.RuleIDs {
			if !outcomes[id].Fired {
				active = false
				break
			}
		}
		if !active {
			continue
		}
		signals = append(signals, models.CompositeSignal{
			CompositeID: comp.ID,
			Name:        comp.Name,
			RuleIDs:     append([]string(nil), comp.RuleIDs...),
			Severity:    comp.Severity,
			Message:     comp.Message,
			TriggeredAt: at,
		})
		e.metrics.RecordAlertFired(string(comp.Severity))
	}
	return signals
}

// shouldSuppress checks the rule's cooldown window. A rule that has never
// fired is never suppressed.
func (e *RuleEngine) shouldSuppress(ctx context.Context, rule *models.Rule, now time.Time) (bool, error) {
	last, ok, err := e.cooldowns.LastFire(ctx, rule.ID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return now.Sub(last) < rule.Cooldown, nil
}

// EvaluateCondition applies one of the six supported comparisons. The rule
// loader guarantees op is known, so the default arm is unreachable in
// normal operation.
func EvaluateCondition(op models.Operator, value, threshold float64) bool {
	switch op {
	case models.OpLT:
		return value < threshold
	case models.OpGT:
		return value > threshold
	case models.OpLTE:
		return value <= threshold
	case models.OpGTE:
		return value >= threshold
	case models.OpEQ:
		return value == threshold
	case models.OpNEQ:
		return value != threshold
	default:
		return false
	}
}

func buildAlert(rule *models.Rule, value models.Value, at time.Time) models.Alert {
	msg := fmt.Sprintf("%s: %s=%.2f (threshold %s %.2f)",
		rule.Message, rule.Metric, value.Float, rule.Operator, rule.Threshold)
	return models.Alert{
		RuleID:      rule.ID,
		RuleName:    rule.Name,
		Metric:      rule.Metric,
		Value:       value.Float,
		Estimated:   value.Estimated,
		Severity:    rule.Severity,
		Message:     msg,
		TriggeredAt: at,
	}
}
