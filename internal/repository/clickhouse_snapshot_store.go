package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"BtcPulse/internal/domain/models"
	pkgch "BtcPulse/pkg/clickhouse"
	applogger "BtcPulse/pkg/logger"
)

const snapshotTable = "btcpulse.snapshots"

// CHSnapshotStore persists snapshots in ClickHouse and serves the
// historical queries the resolver and classifier depend on. It implements
// both SnapshotStore and HistoryLookup.
type CHSnapshotStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHSnapshotStore(ch *pkgch.Client) *CHSnapshotStore {
	return &CHSnapshotStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSnapshotStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSnapshotStore) Init(ctx context.Context) error {
	stmts := []string{
		"CREATE DATABASE IF NOT EXISTS btcpulse",
		`CREATE TABLE IF NOT EXISTS ` + snapshotTable + ` (
			ts DateTime64(3),
			price Float64,
			change_24h Float64,
			market_cap Float64,
			volume_24h Float64,
			hash_rate Float64,
			difficulty Float64,
			difficulty_change_30d Float64,
			fear_greed Float64,
			fear_greed_label String,
			btc_gold_ratio Float64,
			mvrv Nullable(Float64),
			mvrv_estimated UInt8
		) ENGINE=MergeTree ORDER BY ts`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init snapshot schema: %w", err)
		}
	}
	return nil
}

func (s *CHSnapshotStore) Store(ctx context.Context, snap *models.Snapshot) error {
	start := time.Now()
	q := "INSERT INTO " + snapshotTable + ` (ts, price, change_24h, market_cap, volume_24h,
		hash_rate, difficulty, difficulty_change_30d, fear_greed, fear_greed_label,
		btc_gold_ratio, mvrv, mvrv_estimated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var mvrv sql.NullFloat64
	estimated := uint8(0)
	if snap.Valuation.MVRV != nil {
		mvrv = sql.NullFloat64{Float64: *snap.Valuation.MVRV, Valid: true}
		if snap.Valuation.Estimated {
			estimated = 1
		}
	}

	_, err := s.db.ExecContext(ctx, q,
		snap.Timestamp,
		snap.Price.PriceUSD,
		snap.Price.Change24hPct,
		snap.Price.MarketCapUSD,
		snap.Price.Volume24hUSD,
		snap.OnChain.HashRateEHS,
		snap.OnChain.Difficulty,
		snap.OnChain.DifficultyChange30,
		snap.Sentiment.FearGreedIndex,
		snap.Sentiment.FearGreedLabel,
		snap.Sentiment.BTCGoldRatio,
		mvrv,
		estimated,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store snapshot error", applogger.Error(err))
		}
		return fmt.Errorf("store snapshot: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse store snapshot ok",
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHSnapshotStore) Latest(ctx context.Context) (*models.Snapshot, error) {
	q := `SELECT ts, price, change_24h, market_cap, volume_24h, hash_rate, difficulty,
		difficulty_change_30d, fear_greed, fear_greed_label, btc_gold_ratio, mvrv, mvrv_estimated
		FROM ` + snapshotTable + " ORDER BY ts DESC LIMIT 1"

	var (
		snap      models.Snapshot
		mvrv      sql.NullFloat64
		estimated uint8
	)
	err := s.db.QueryRowContext(ctx, q).Scan(
		&snap.Timestamp,
		&snap.Price.PriceUSD,
		&snap.Price.Change24hPct,
		&snap.Price.MarketCapUSD,
		&snap.Price.Volume24hUSD,
		&snap.OnChain.HashRateEHS,
		&snap.OnChain.Difficulty,
		&snap.OnChain.DifficultyChange30,
		&snap.Sentiment.FearGreedIndex,
		&snap.Sentiment.FearGreedLabel,
		&snap.Sentiment.BTCGoldRatio,
		&mvrv,
		&estimated,
	)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	if mvrv.Valid {
		v := mvrv.Float64
		snap.Valuation.MVRV = &v
		snap.Valuation.Estimated = estimated == 1
	}
	return &snap, nil
}

// metricColumn maps direct metrics onto snapshot columns for history
// lookups. Derived metrics are computed upstream and never stored.
func metricColumn(metric models.Metric) (string, bool) {
	switch metric {
	case models.MetricPrice:
		return "price", true
	case models.MetricPriceChange24h:
		return "change_24h", true
	case models.MetricMarketCap:
		return "market_cap", true
	case models.MetricVolume24h:
		return "volume_24h", true
	case models.MetricHashRate:
		return "hash_rate", true
	case models.MetricDifficulty:
		return "difficulty", true
	case models.MetricDifficultyChange30:
		return "difficulty_change_30d", true
	case models.MetricFearGreed:
		return "fear_greed", true
	case models.MetricBTCGoldRatio:
		return "btc_gold_ratio", true
	case models.MetricMVRV:
		return "mvrv", true
	default:
		return "", false
	}
}

// Lookup returns the stored value nearest to, but not after, t.
func (s *CHSnapshotStore) Lookup(ctx context.Context, metric models.Metric, t time.Time) (float64, bool, error) {
	col, ok := metricColumn(metric)
	if !ok {
		return 0, false, fmt.Errorf("no stored column for metric %s", metric)
	}

	q := fmt.Sprintf("SELECT %s FROM %s WHERE ts <= ? AND %s IS NOT NULL ORDER BY ts DESC LIMIT 1",
		col, snapshotTable, col)
	var v sql.NullFloat64
	err := s.db.QueryRowContext(ctx, q, t).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse history lookup error",
				applogger.String("metric", string(metric)),
				applogger.Error(err),
			)
		}
		return 0, false, fmt.Errorf("history lookup: %w", err)
	}
	if !v.Valid {
		return 0, false, nil
	}
	return v.Float64, true, nil
}

// AllTimeHigh returns the highest stored price at or before t.
func (s *CHSnapshotStore) AllTimeHigh(ctx context.Context, t time.Time) (float64, bool, error) {
	q := "SELECT max(price), count() FROM " + snapshotTable + " WHERE ts <= ?"
	var (
		maxPrice float64
		n        uint64
	)
	if err := s.db.QueryRowContext(ctx, q, t).Scan(&maxPrice, &n); err != nil {
		return 0, false, fmt.Errorf("all-time high: %w", err)
	}
	if n == 0 {
		return 0, false, nil
	}
	return maxPrice, true, nil
}

// SupplyInProfitEstimate approximates supply in profit as the share of
// stored daily closes at or below price.
func (s *CHSnapshotStore) SupplyInProfitEstimate(ctx context.Context, price float64) (float64, bool, error) {
	q := `SELECT countIf(close <= ?), count() FROM (
		SELECT argMax(price, ts) AS close FROM ` + snapshotTable + ` GROUP BY toDate(ts)
	)`
	var below, total uint64
	if err := s.db.QueryRowContext(ctx, q, price).Scan(&below, &total); err != nil {
		return 0, false, fmt.Errorf("supply in profit: %w", err)
	}
	if total == 0 {
		return 0, false, nil
	}
	return float64(below) / float64(total) * 100, true, nil
}

// AveragePrice returns the mean stored price since t.
func (s *CHSnapshotStore) AveragePrice(ctx context.Context, since time.Time) (float64, bool, error) {
	q := "SELECT avg(price), count() FROM " + snapshotTable + " WHERE ts >= ?"
	var (
		avg sql.NullFloat64
		n   uint64
	)
	if err := s.db.QueryRowContext(ctx, q, since).Scan(&avg, &n); err != nil {
		return 0, false, fmt.Errorf("average price: %w", err)
	}
	if n == 0 || !avg.Valid {
		return 0, false, nil
	}
	return avg.Float64, true, nil
}

func (s *CHSnapshotStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHSnapshotStore) Close() error {
	return nil // pool managed by pkg
}
