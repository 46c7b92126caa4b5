package api

import (
	"context"
	"encoding/json"
	"time"

	"BtcPulse/internal/domain/models"
	domrepo "BtcPulse/internal/domain/repository"
	"BtcPulse/internal/rules"
	icache "BtcPulse/internal/service/cache"
	"BtcPulse/internal/service/ratelimit"
	"BtcPulse/internal/usecase"
	xhttp "BtcPulse/pkg/http"
	applogger "BtcPulse/pkg/logger"
)

// AlertsHandler is the transport-agnostic core of the introspection API.
// It holds the read paths into the monitor, the rule table and the stores;
// the Echo adapter in alerts_echo.go does binding and response shaping.
type AlertsHandler struct {
	monitor   *usecase.Monitor
	resolver  *usecase.MetricResolver
	table     *rules.Table
	cooldowns domrepo.CooldownStore
	alerts    domrepo.AlertStore
	snaps     domrepo.SnapshotStore
	rulesPath string
	startedAt time.Time

	cache icache.BytesCache
	rl    *ratelimit.Limiter
	l     *applogger.Logger
}

func NewAlertsHandler(
	monitor *usecase.Monitor,
	resolver *usecase.MetricResolver,
	table *rules.Table,
	cooldowns domrepo.CooldownStore,
	alerts domrepo.AlertStore,
	snaps domrepo.SnapshotStore,
	rulesPath string,
) *AlertsHandler {
	return &AlertsHandler{
		monitor:   monitor,
		resolver:  resolver,
		table:     table,
		cooldowns: cooldowns,
		alerts:    alerts,
		snaps:     snaps,
		rulesPath: rulesPath,
		startedAt: time.Now().UTC(),
		rl:        ratelimit.New(),
	}
}

func (h *AlertsHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *AlertsHandler) SetLogger(l *applogger.Logger) { h.l = l }

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	Status       string    `json:"status"`
	UptimeSec    int64     `json:"uptime_sec"`
	Rules        int       `json:"rules"`
	Composites   int       `json:"composites"`
	LastSnapshot time.Time `json:"last_snapshot,omitempty"`
	StorageOK    bool      `json:"storage_ok"`
}

// Status reports liveness plus a coarse view of the loaded rule table and
// storage health.
func (h *AlertsHandler) Status(ctx context.Context) *StatusResponse {
	rs := h.table.Current()
	resp := &StatusResponse{
		Status:     "ok",
		UptimeSec:  int64(time.Since(h.startedAt).Seconds()),
		Rules:      rs.Len(),
		Composites: len(rs.Composites()),
	}
	if snap, _, _ := h.monitor.Latest(); snap != nil {
		resp.LastSnapshot = snap.Timestamp
	}
	if err := h.snaps.Health(ctx); err != nil {
		resp.Status = "degraded"
		if h.l != nil {
			h.l.Warn("status storage health", applogger.Error(err))
		}
	} else {
		resp.StorageOK = true
	}
	return resp
}

// LatestSnapshot returns the most recent snapshot held by the monitor, or
// nil before the first completed cycle.
func (h *AlertsHandler) LatestSnapshot() *models.Snapshot {
	snap, _, _ := h.monitor.Latest()
	return snap
}

// RulesResponse is the /api/rules payload.
type RulesResponse struct {
	Rules      []models.Rule          `json:"rules"`
	Composites []models.CompositeRule `json:"composites"`
}

// Rules returns the active rule table in declaration order.
func (h *AlertsHandler) Rules() *RulesResponse {
	rs := h.table.Current()
	return &RulesResponse{Rules: rs.Rules(), Composites: rs.Composites()}
}

// CooldownEntry is one rule's cooldown state.
type CooldownEntry struct {
	RuleID      string    `json:"rule_id"`
	LastFire    time.Time `json:"last_fire,omitempty"`
	HasFired    bool      `json:"has_fired"`
	Suppressing bool      `json:"suppressing"`
}

// Cooldowns reports the fire timestamp and suppression state per rule. An
// empty ruleID covers the whole table.
func (h *AlertsHandler) Cooldowns(ctx context.Context, ruleID string) ([]CooldownEntry, error) {
	rs := h.table.Current()
	var list []models.Rule
	if ruleID != "" {
		r, ok := rs.Rule(ruleID)
		if !ok {
			return nil, xhttp.NotFoundErrorf("unknown rule %q", ruleID)
		}
		list = []models.Rule{r}
	} else {
		list = rs.Rules()
	}

	now := time.Now().UTC()
	out := make([]CooldownEntry, 0, len(list))
	for _, r := range list {
		last, ok, err := h.cooldowns.LastFire(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		e := CooldownEntry{RuleID: r.ID, HasFired: ok}
		if ok {
			e.LastFire = last
			e.Suppressing = now.Sub(last) < r.Cooldown
		}
		out = append(out, e)
	}
	return out, nil
}

// Phase returns the latest classifier report, or nil before the first
// completed cycle.
func (h *AlertsHandler) Phase() *models.ProxyReport {
	_, report, _ := h.monitor.Latest()
	return report
}

// RecentAlerts returns persisted alerts newest first, optionally filtered
// by severity. Results are cached briefly when a cache is attached.
func (h *AlertsHandler) RecentAlerts(ctx context.Context, limit int, severity string) ([]*models.Alert, error) {
	cacheKey := "alerts:recent:" + severity
	if h.cache != nil && limit == 50 {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			if h.l != nil {
				h.l.Warn("alerts.recent cache_get_error", applogger.Error(err))
			}
		} else if ok {
			var cached []*models.Alert
			if err := json.Unmarshal(b, &cached); err == nil {
				return cached, nil
			}
		}
	}

	list, err := h.alerts.Recent(ctx, limit, models.Severity(severity))
	if err != nil {
		return nil, err
	}

	if h.cache != nil && limit == 50 {
		if b, err := json.Marshal(list); err == nil {
			if err := h.cache.SetBytes(cacheKey, b, 30*time.Second); err != nil && h.l != nil {
				h.l.Warn("alerts.recent cache_set_error", applogger.Error(err))
			}
		}
	}
	return list, nil
}

// RuleTestResponse is the dry-run result for one ad-hoc condition.
type RuleTestResponse struct {
	Metric    string       `json:"metric"`
	Value     models.Value `json:"value"`
	Fired     bool         `json:"fired"`
	Evaluated bool         `json:"evaluated"`
}

// TestRule evaluates an ad-hoc condition against the latest snapshot
// without touching cooldown state or delivery.
func (h *AlertsHandler) TestRule(ctx context.Context, req *models.RuleTestRequest) (*RuleTestResponse, error) {
	metric := models.Metric(req.Metric)
	if !metric.Known() {
		return nil, xhttp.BadRequestErrorf("unknown metric %q", req.Metric)
	}
	snap, _, _ := h.monitor.Latest()
	if snap == nil {
		return nil, xhttp.NotFoundError("no snapshot collected yet")
	}

	value := h.resolver.Resolve(ctx, metric, snap)
	resp := &RuleTestResponse{Metric: req.Metric, Value: value}
	if !value.Available {
		return resp, nil
	}
	resp.Evaluated = true
	resp.Fired = usecase.EvaluateCondition(models.Operator(req.Operator), value.Float, req.Threshold)
	return resp, nil
}

// Reload re-reads the rule file and swaps the table atomically. The old
// table stays active when the new file fails validation.
func (h *AlertsHandler) Reload() (*RulesResponse, error) {
	if err := h.table.Reload(h.rulesPath); err != nil {
		if h.l != nil {
			h.l.Error("rules reload rejected", applogger.Error(err))
		}
		return nil, xhttp.BadRequestErrorf("reload rejected: %v", err)
	}
	if h.l != nil {
		rs := h.table.Current()
		h.l.Info("rules reloaded",
			applogger.Int("rules", rs.Len()),
			applogger.Int("composites", len(rs.Composites())),
		)
	}
	return h.Rules(), nil
}

// Allow applies the per-remote token bucket for one endpoint.
func (h *AlertsHandler) Allow(remote, endpoint string, capacity, refillPerSec float64) bool {
	return h.rl.Allow(remote+":"+endpoint, capacity, refillPerSec)
}
