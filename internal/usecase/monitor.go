package usecase

import (
	"context"
	"sync"
	"time"

	"BtcPulse/internal/channel"
	"BtcPulse/internal/domain/models"
	drepo "BtcPulse/internal/domain/repository"
	"BtcPulse/pkg/logger"
)

// Monitor drives the evaluation loop: one cycle per interval, each cycle
// pulling a fresh snapshot and pushing it through the engine, the
// composite evaluator, the classifier and the delivery channels. Cycles
// never overlap; the engine assumes no two evaluations of the same
// snapshot run concurrently.
type Monitor struct {
	collector  *SnapshotCollector
	engine     *RuleEngine
	resolver   *MetricResolver
	dispatcher *channel.Dispatcher
	store      drepo.SnapshotStore
	metrics    drepo.Metrics
	logger     *logger.Logger
	interval   time.Duration

	mu         sync.RWMutex
	lastSnap   *models.Snapshot
	lastReport *models.ProxyReport
	lastAlerts []models.Alert
}

// NewMonitor creates a new Monitor instance.
func NewMonitor(
	collector *SnapshotCollector,
	engine *RuleEngine,
	resolver *MetricResolver,
	dispatcher *channel.Dispatcher,
	store drepo.SnapshotStore,
	metrics drepo.Metrics,
	lgr *logger.Logger,
	interval time.Duration,
) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Monitor{
		collector:  collector,
		engine:     engine,
		resolver:   resolver,
		dispatcher: dispatcher,
		store:      store,
		metrics:    metrics,
		logger:     lgr,
		interval:   interval,
	}
}

// Run blocks until ctx is cancelled, executing one cycle immediately and
// then one per interval.
func (m *Monitor) Run(ctx context.Context) {
	m.runCycle(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopped")
			return
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

func (m *Monitor) runCycle(ctx context.Context) {
	start := time.Now()

	snap, err := m.collector.Collect(ctx)
	if err != nil {
		m.metrics.RecordError("collect")
		m.logger.Error("snapshot collection failed, skipping cycle", logger.Error(err))
		return
	}

	if err := m.collector.Persist(ctx, snap); err != nil {
		// History just loses one point; evaluation still proceeds.
		m.metrics.RecordError("persist")
		m.logger.Error("snapshot persist failed", logger.Error(err))
	}

	alerts, outcomes := m.engine.EvaluateAll(ctx, snap)
	composites := m.engine.EvaluateComposites(outcomes, snap.Timestamp)
	report := m.classify(ctx, snap)

	if len(alerts) > 0 || len(composites) > 0 {
		m.dispatcher.Dispatch(ctx, alerts, composites)
	}

	m.mu.Lock()
	m.lastSnap = snap
	m.lastReport = report
	m.lastAlerts = alerts
	m.mu.Unlock()

	m.logger.Info("cycle complete",
		logger.Int("alerts", len(alerts)),
		logger.Int("composites", len(composites)),
		logger.String("phase", string(report.Phase)),
		logger.String("bias", string(report.Bias)),
		logger.Duration("duration_ms", time.Since(start)),
	)
	m.metrics.RecordLatency("cycle", time.Since(start).Seconds())
}

// classify runs the proxy/cycle classifier for the snapshot.
func (m *Monitor) classify(ctx context.Context, snap *models.Snapshot) *models.ProxyReport {
	drawdown := 0.0
	if v := m.resolver.Resolve(ctx, models.MetricDrawdownFromATH, snap); v.Available {
		drawdown = v.Float
	}

	var sip *float64
	if v, ok, err := m.store.SupplyInProfitEstimate(ctx, snap.Price.PriceUSD); err != nil {
		m.logger.Warn("supply in profit estimate failed", logger.Error(err))
	} else if ok {
		sip = &v
	}

	report := BuildReport(snap, ComputeHalvingInfo(snap.Timestamp), drawdown, sip)
	m.metrics.RecordMetricValue("phase_confidence", report.Confidence)
	return report
}

// Latest returns the snapshot, classifier report and alerts of the most
// recent completed cycle. Safe to call while a cycle is in flight.
func (m *Monitor) Latest() (*models.Snapshot, *models.ProxyReport, []models.Alert) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSnap, m.lastReport, m.lastAlerts
}
