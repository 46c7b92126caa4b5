package usecase

import (
	"context"
	"time"

	"BtcPulse/internal/domain/models"
	drepo "BtcPulse/internal/domain/repository"
	"BtcPulse/pkg/logger"
)

// athFloor is the lowest all-time high the resolver will accept from
// history; guards drawdown math against an empty or garbage price table.
const athFloor = 1.0

// MetricResolver turns a metric name into a value for one snapshot. Direct
// metrics read a snapshot field; derived metrics also query the history
// store for a reference point.
type MetricResolver struct {
	history       drepo.HistoryLookup
	lookupTimeout time.Duration
	logger        *logger.Logger
}

// NewMetricResolver creates a resolver. lookupTimeout bounds each history
// query; zero means no extra bound beyond the caller's context.
func NewMetricResolver(history drepo.HistoryLookup, lookupTimeout time.Duration, lgr *logger.Logger) *MetricResolver {
	return &MetricResolver{
		history:       history,
		lookupTimeout: lookupTimeout,
		logger:        lgr,
	}
}

// Resolve extracts or computes the named metric from the snapshot. Unknown
// names never reach here in normal operation (the rule loader rejects
// them); they resolve to the NotAvailable sentinel anyway.
func (r *MetricResolver) Resolve(ctx context.Context, name models.Metric, snap *models.Snapshot) models.Value {
	if snap == nil {
		return models.NotAvailable()
	}

	switch name {
	case models.MetricPrice:
		return models.NewValue(snap.Price.PriceUSD)
	case models.MetricPriceChange24h:
		return models.NewValue(snap.Price.Change24hPct)
	case models.MetricMarketCap:
		return models.NewValue(snap.Price.MarketCapUSD)
	case models.MetricVolume24h:
		return models.NewValue(snap.Price.Volume24hUSD)
	case models.MetricHashRate:
		return models.NewValue(snap.OnChain.HashRateEHS)
	case models.MetricDifficulty:
		return models.NewValue(snap.OnChain.Difficulty)
	case models.MetricDifficultyChange30:
		return models.NewValue(snap.OnChain.DifficultyChange30)
	case models.MetricFearGreed:
		return models.NewValue(snap.Sentiment.FearGreedIndex)
	case models.MetricBTCGoldRatio:
		return models.NewValue(snap.Sentiment.BTCGoldRatio)
	case models.MetricMVRV:
		if snap.Valuation.MVRV == nil {
			return models.NotAvailable()
		}
		v := models.NewValue(*snap.Valuation.MVRV)
		v.Estimated = snap.Valuation.Estimated
		return v

	case models.MetricDrawdownFromATH:
		return r.drawdownFromATH(ctx, snap)
	case models.MetricPriceChange7d:
		return r.percentChange(ctx, models.MetricPrice, snap.Price.PriceUSD, drepo.Lookback7d, snap.Timestamp)
	case models.MetricPriceChange30d:
		return r.percentChange(ctx, models.MetricPrice, snap.Price.PriceUSD, drepo.Lookback30d, snap.Timestamp)
	case models.MetricHashRateChange30d:
		// The difficulty adjustment already encodes a 30-day hash-rate
		// trend, so reuse it as an estimated stand-in.
		return models.EstimatedValue(snap.OnChain.DifficultyChange30)
	case models.MetricBTCGoldChange30d:
		return r.percentChange(ctx, models.MetricBTCGoldRatio, snap.Sentiment.BTCGoldRatio, drepo.Lookback30d, snap.Timestamp)
	}

	return models.NotAvailable()
}

// drawdownFromATH computes percent below the all-time-high price.
func (r *MetricResolver) drawdownFromATH(ctx context.Context, snap *models.Snapshot) models.Value {
	ath, ok := r.lookup(ctx, "PRICE_ATH", snap.Timestamp, func(c context.Context) (float64, bool, error) {
		return r.history.AllTimeHigh(c, snap.Timestamp)
	})
	if !ok || ath < athFloor {
		return models.EstimatedValue(0)
	}
	if snap.Price.PriceUSD > ath {
		ath = snap.Price.PriceUSD
	}
	return models.NewValue(((ath - snap.Price.PriceUSD) / ath) * 100)
}

// percentChange computes ((current-past)/past)*100 against the stored value
// nearest to, but not after, now-lookback. Missing history or a zero past
// value falls back to 0.0 flagged estimated, never an error.
func (r *MetricResolver) percentChange(ctx context.Context, metric models.Metric, current float64, lb drepo.Lookback, now time.Time) models.Value {
	ref := now.Add(-lb.Duration())
	past, ok := r.lookup(ctx, string(metric), now, func(c context.Context) (float64, bool, error) {
		return r.history.Lookup(c, metric, ref)
	})
	if !ok {
		r.logger.Warn("derived metric fallback, no history point",
			logger.String("metric", string(metric)),
			logger.String("lookback", string(lb)),
			logger.Any("snapshot_ts", now),
		)
		return models.EstimatedValue(0)
	}
	if past == 0 {
		return models.EstimatedValue(0)
	}
	return models.NewValue(((current - past) / past) * 100)
}

// lookup runs one bounded history query. A timeout or store error resolves
// to absent so a slow store cannot stall the evaluation cycle.
func (r *MetricResolver) lookup(ctx context.Context, what string, snapTS time.Time, fn func(context.Context) (float64, bool, error)) (float64, bool) {
	if r.history == nil {
		return 0, false
	}
	if r.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.lookupTimeout)
		defer cancel()
	}
	v, ok, err := fn(ctx)
	if err != nil {
		r.logger.Warn("history lookup failed",
			logger.String("metric", what),
			logger.Any("snapshot_ts", snapTS),
			logger.Error(err),
		)
		return 0, false
	}
	return v, ok
}
