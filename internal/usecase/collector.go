package usecase

import (
	"context"
	"sync"
	"time"

	"BtcPulse/internal/domain/models"
	drepo "BtcPulse/internal/domain/repository"
	dservice "BtcPulse/internal/domain/service"
	"BtcPulse/pkg/logger"
)

const (
	neutralFearGreed      = 50.0
	neutralFearGreedLabel = "Neutral"
)

// SnapshotCollector assembles one immutable Snapshot per cycle from the
// external sources, filling derived fields from stored history. The price
// group is mandatory; a sentiment outage degrades to a neutral 50 reading
// and a network outage to zero values, with a warning, so one flaky source
// does not kill the cycle.
type SnapshotCollector struct {
	prices    dservice.PriceSource
	sentiment dservice.SentimentSource
	network   dservice.NetworkSource
	store     drepo.SnapshotStore
	history   drepo.HistoryLookup
	metrics   drepo.Metrics
	logger    *logger.Logger
}

// NewSnapshotCollector creates a new SnapshotCollector instance.
func NewSnapshotCollector(
	prices dservice.PriceSource,
	sentiment dservice.SentimentSource,
	network dservice.NetworkSource,
	store drepo.SnapshotStore,
	history drepo.HistoryLookup,
	metrics drepo.Metrics,
	lgr *logger.Logger,
) *SnapshotCollector {
	return &SnapshotCollector{
		prices:    prices,
		sentiment: sentiment,
		network:   network,
		store:     store,
		history:   history,
		metrics:   metrics,
		logger:    lgr,
	}
}

// Collect fetches all source groups in parallel and assembles the
// snapshot. The returned snapshot is fully assembled before anything else
// sees it; the engine never observes partial state.
func (c *SnapshotCollector) Collect(ctx context.Context) (*models.Snapshot, error) {
	start := time.Now()
	now := time.Now().UTC()

	var (
		wg        sync.WaitGroup
		price     models.PriceMetrics
		priceErr  error
		goldRatio float64
		fg        float64
		fgLabel   string
		onchain   models.OnChainMetrics
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		price, priceErr = c.prices.FetchPrice(ctx)
	}()
	go func() {
		defer wg.Done()
		var err error
		if goldRatio, err = c.prices.FetchGoldRatio(ctx); err != nil {
			c.metrics.RecordError("source_gold")
			c.logger.Warn("gold ratio fetch failed", logger.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if fg, fgLabel, err = c.sentiment.FetchFearGreed(ctx); err != nil {
			// a zero index reads as extreme fear; fall back to neutral
			fg, fgLabel = neutralFearGreed, neutralFearGreedLabel
			c.metrics.RecordError("source_sentiment")
			c.logger.Warn("fear greed fetch failed, using neutral reading", logger.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if onchain, err = c.network.FetchNetwork(ctx); err != nil {
			c.metrics.RecordError("source_network")
			c.logger.Warn("network fetch failed", logger.Error(err))
		}
	}()
	wg.Wait()

	if priceErr != nil {
		c.metrics.RecordError("source_price")
		return nil, priceErr
	}

	onchain.DifficultyChange30 = c.difficultyChange30(ctx, onchain.Difficulty, now)

	snap := &models.Snapshot{
		Timestamp: now,
		Price:     price,
		OnChain:   onchain,
		Sentiment: models.SentimentMetrics{
			FearGreedIndex: fg,
			FearGreedLabel: fgLabel,
			BTCGoldRatio:   goldRatio,
		},
		Valuation: c.estimateMVRV(ctx, price.PriceUSD, now),
	}

	c.metrics.RecordMetricValue("price_usd", price.PriceUSD)
	c.metrics.RecordMetricValue("fear_greed", fg)
	c.metrics.RecordLatency("collect", time.Since(start).Seconds())
	return snap, nil
}

// Persist stores the snapshot so later cycles can use it as history.
func (c *SnapshotCollector) Persist(ctx context.Context, snap *models.Snapshot) error {
	return c.store.Store(ctx, snap)
}

// difficultyChange30 derives the 30-day difficulty trend from stored
// history; the query API only reports the current value.
func (c *SnapshotCollector) difficultyChange30(ctx context.Context, current float64, now time.Time) float64 {
	if current <= 0 {
		return 0
	}
	past, ok, err := c.history.Lookup(ctx, models.MetricDifficulty, now.Add(-30*24*time.Hour))
	if err != nil {
		c.logger.Warn("difficulty history lookup failed", logger.Error(err))
		return 0
	}
	if !ok || past <= 0 {
		return 0
	}
	return ((current - past) / past) * 100
}

// estimateMVRV approximates the ratio as price over the 200-day average of
// stored prices when no sourced value is on hand. Always flagged estimated.
func (c *SnapshotCollector) estimateMVRV(ctx context.Context, price float64, now time.Time) models.ValuationMetrics {
	if price <= 0 {
		return models.ValuationMetrics{}
	}
	avg, ok, err := c.store.AveragePrice(ctx, now.Add(-200*24*time.Hour))
	if err != nil {
		c.logger.Warn("mvrv estimate lookup failed", logger.Error(err))
		return models.ValuationMetrics{}
	}
	if !ok || avg <= 0 {
		return models.ValuationMetrics{}
	}
	mvrv := price / avg
	return models.ValuationMetrics{MVRV: &mvrv, Estimated: true}
}
