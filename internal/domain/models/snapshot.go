package models

import "time"

// PriceMetrics groups spot-market values for one snapshot.
type PriceMetrics struct {
	PriceUSD     float64
	Change24hPct float64
	MarketCapUSD float64
	Volume24hUSD float64
}

// OnChainMetrics groups network health values.
type OnChainMetrics struct {
	HashRateEHS        float64 // exahashes per second
	Difficulty         float64
	DifficultyChange30 float64 // percent over the last adjustment window
}

// SentimentMetrics groups market-mood values.
type SentimentMetrics struct {
	FearGreedIndex float64 // 0..100
	FearGreedLabel string  // "Extreme Fear".."Extreme Greed"
	BTCGoldRatio   float64 // BTC priced in ounces of gold
}

// ValuationMetrics groups on-chain valuation ratios. MVRV is nil when the
// sourcing collaborator could not supply it; Estimated marks a locally
// derived stand-in rather than a sourced value.
type ValuationMetrics struct {
	MVRV      *float64
	Estimated bool
}

// Snapshot is one immutable, timestamped bundle of market, on-chain,
// sentiment and valuation metrics. The engine never mutates it.
type Snapshot struct {
	Timestamp time.Time
	Price     PriceMetrics
	OnChain   OnChainMetrics
	Sentiment SentimentMetrics
	Valuation ValuationMetrics
}

// Value is a resolved metric value. Available=false is the NotAvailable
// sentinel; Estimated marks a fallback default (e.g. a derived metric with
// no historical reference point) so logs can tell it apart from a genuine
// zero.
type Value struct {
	Float     float64
	Available bool
	Estimated bool
}

// NewValue wraps a sourced float.
func NewValue(f float64) Value {
	return Value{Float: f, Available: true}
}

// EstimatedValue wraps a locally derived or defaulted float.
func EstimatedValue(f float64) Value {
	return Value{Float: f, Available: true, Estimated: true}
}

// NotAvailable is the sentinel for metrics the snapshot could not supply.
func NotAvailable() Value {
	return Value{}
}

// Metric identifies one evaluable metric. Direct metrics read a snapshot
// field, derived metrics also need a historical reference point.
type Metric string

const (
	MetricPrice              Metric = "PRICE"
	MetricPriceChange24h     Metric = "PRICE_CHANGE_24H"
	MetricMarketCap          Metric = "MARKET_CAP"
	MetricVolume24h          Metric = "VOLUME_24H"
	MetricHashRate           Metric = "HASH_RATE"
	MetricDifficulty         Metric = "DIFFICULTY"
	MetricDifficultyChange30 Metric = "DIFFICULTY_CHANGE_30D"
	MetricFearGreed          Metric = "FEAR_GREED"
	MetricBTCGoldRatio       Metric = "BTC_GOLD_RATIO"
	MetricMVRV               Metric = "MVRV"

	MetricDrawdownFromATH   Metric = "DRAWDOWN_FROM_ATH"
	MetricPriceChange7d     Metric = "PRICE_CHANGE_7D"
	MetricPriceChange30d    Metric = "PRICE_CHANGE_30D"
	MetricHashRateChange30d Metric = "HASH_RATE_CHANGE_30D"
	MetricBTCGoldChange30d  Metric = "BTC_GOLD_CHANGE_30D"
)

var directMetrics = map[Metric]struct{}{
	MetricPrice: {}, MetricPriceChange24h: {}, MetricMarketCap: {},
	MetricVolume24h: {}, MetricHashRate: {}, MetricDifficulty: {},
	MetricDifficultyChange30: {}, MetricFearGreed: {},
	MetricBTCGoldRatio: {}, MetricMVRV: {},
}

var derivedMetrics = map[Metric]struct{}{
	MetricDrawdownFromATH: {}, MetricPriceChange7d: {},
	MetricPriceChange30d: {}, MetricHashRateChange30d: {},
	MetricBTCGoldChange30d: {},
}

// Known reports whether m belongs to the closed metric enumeration.
func (m Metric) Known() bool {
	if _, ok := directMetrics[m]; ok {
		return true
	}
	_, ok := derivedMetrics[m]
	return ok
}

// Derived reports whether m needs a historical reference point.
func (m Metric) Derived() bool {
	_, ok := derivedMetrics[m]
	return ok
}
