package repository

import (
	"context"
	"time"

	"BtcPulse/internal/domain/models"
)

// SnapshotStore persists snapshots and answers the historical queries the
// resolver and classifier need.
type SnapshotStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, s *models.Snapshot) error
	Latest(ctx context.Context) (*models.Snapshot, error)
	// SupplyInProfitEstimate returns the share (0..100) of stored daily
	// closes at or below price. Returns ok=false with no error when the
	// store holds no history yet.
	SupplyInProfitEstimate(ctx context.Context, price float64) (float64, bool, error)
	// AveragePrice returns the mean stored price since t; backs the local
	// MVRV estimate when the sourced ratio is missing.
	AveragePrice(ctx context.Context, since time.Time) (float64, bool, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// HistoryLookup answers "what was this metric worth at or before t". The
// resolver depends on it for derived metrics; any backing store satisfying
// the contract is acceptable.
type HistoryLookup interface {
	// Lookup returns the value nearest to, but not after, t. ok=false with
	// no error means no such point exists.
	Lookup(ctx context.Context, metric models.Metric, t time.Time) (float64, bool, error)
	// AllTimeHigh returns the highest stored price at or before t.
	AllTimeHigh(ctx context.Context, t time.Time) (float64, bool, error)
}

// AlertStore archives emitted alerts.
type AlertStore interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, a *models.Alert) error
	StoreBatch(ctx context.Context, alerts []*models.Alert) error
	Recent(ctx context.Context, limit int, severity models.Severity) ([]*models.Alert, error)
	Close() error
}

// CooldownStore tracks last-fire timestamps per rule ID. Timestamps advance
// only on an actual fire; a suppressed rule leaves its entry untouched.
type CooldownStore interface {
	LastFire(ctx context.Context, ruleID string) (time.Time, bool, error)
	// RecordFire claims the fire for the rule's cooldown window. The
	// claim is atomic per rule ID: when the store is shared, exactly one
	// caller gets acquired=true per window and everyone else must treat
	// the fire as suppressed.
	RecordFire(ctx context.Context, ruleID string, at time.Time, cooldown time.Duration) (acquired bool, err error)
}

// Publisher hands alert records to the message broker.
type Publisher interface {
	PublishAlert(ctx context.Context, a *models.Alert) error
	PublishComposite(ctx context.Context, c *models.CompositeSignal) error
	Close() error
}

// Metrics is the observability sink the engine and monitor report into.
type Metrics interface {
	RecordEvaluation(rules, alerts int)
	RecordAlertFired(severity string)
	RecordSuppression(ruleID string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordMetricValue(name string, value float64)
}
