package di

import (
	"context"
	"fmt"
	"time"

	"BtcPulse/internal/channel"
	"BtcPulse/internal/domain/repository"
	dservice "BtcPulse/internal/domain/service"
	"BtcPulse/internal/handler/api"
	mid "BtcPulse/internal/middleware"
	internalrepo "BtcPulse/internal/repository"
	"BtcPulse/internal/rules"
	"BtcPulse/internal/service/blockchain"
	icache "BtcPulse/internal/service/cache"
	"BtcPulse/internal/service/coingecko"
	"BtcPulse/internal/service/feargreed"
	"BtcPulse/internal/service/ratelimit"
	"BtcPulse/internal/usecase"
	pkgcache "BtcPulse/pkg/cache"
	pkgch "BtcPulse/pkg/clickhouse"
	"BtcPulse/pkg/config"
	pkgkafka "BtcPulse/pkg/kafka"
	applogger "BtcPulse/pkg/logger"
	"BtcPulse/pkg/metrics"
	"BtcPulse/pkg/queue"
	"BtcPulse/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	l, err := applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS btcpulse",
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideRedisCache creates the shared Redis cache when enabled, nil
// otherwise. Downstream providers treat nil as "fall back to memory".
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSnapshotStore creates the ClickHouse snapshot store and its schema.
func ProvideSnapshotStore(chClient *pkgch.Client, l *applogger.Logger) (repository.SnapshotStore, error) {
	store := internalrepo.NewCHSnapshotStore(chClient)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("snapshot schema: %w", err)
	}
	return store, nil
}

// ProvideHistoryLookup exposes the snapshot store's history queries.
func ProvideHistoryLookup(store repository.SnapshotStore) repository.HistoryLookup {
	return store.(repository.HistoryLookup)
}

// ProvideAlertStore creates the ClickHouse alert archive and its schema.
func ProvideAlertStore(chClient *pkgch.Client) (repository.AlertStore, error) {
	store := internalrepo.NewCHAlertStore(chClient)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("alert schema: %w", err)
	}
	return store, nil
}

// ProvideAlertPublisher creates the Kafka alert publisher.
func ProvideAlertPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.AlertsTopic)
}

// ProvideCooldownStore selects the cooldown backend from config.
func ProvideCooldownStore(cfg *config.Config, rc *pkgcache.RedisCache) (repository.CooldownStore, error) {
	if cfg.Monitor.CooldownStore == "redis" {
		if rc == nil {
			return nil, fmt.Errorf("cooldown_store=redis but redis is disabled")
		}
		// no L1 here: the SetNX fire claim and the reads behind it must
		// see the same Redis state from every process
		return internalrepo.NewRedisCooldownStore(rc), nil
	}
	return internalrepo.NewMemoryCooldownStore(), nil
}

// ProvideRuleTable loads and freezes the rule table at startup.
func ProvideRuleTable(cfg *config.Config) (*rules.Table, error) {
	rs, err := rules.Load(cfg.Monitor.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	return rules.NewTable(rs), nil
}

// ProvidePriceSource creates the CoinGecko client.
func ProvidePriceSource(cfg *config.Config) dservice.PriceSource {
	return coingecko.New(
		cfg.Sources.CoinGeckoURL,
		cfg.Sources.CoinGeckoKey,
		cfg.Sources.Timeout,
		ratelimit.New(),
		cfg.Sources.RatePerMinute,
	)
}

// ProvideSentimentSource creates the fear & greed client.
func ProvideSentimentSource(cfg *config.Config) dservice.SentimentSource {
	return feargreed.New(cfg.Sources.FearGreedURL, cfg.Sources.Timeout)
}

// ProvideNetworkSource creates the blockchain.info client.
func ProvideNetworkSource(cfg *config.Config) dservice.NetworkSource {
	return blockchain.New(cfg.Sources.BlockchainURL, cfg.Sources.Timeout)
}

// ProvideResolver creates the metric resolver.
func ProvideResolver(history repository.HistoryLookup, cfg *config.Config, l *applogger.Logger) *usecase.MetricResolver {
	return usecase.NewMetricResolver(history, cfg.Monitor.HistoryTimeout, l)
}

// ProvideRuleEngine creates the rule engine.
func ProvideRuleEngine(
	resolver *usecase.MetricResolver,
	cooldowns repository.CooldownStore,
	m repository.Metrics,
	table *rules.Table,
	l *applogger.Logger,
) *usecase.RuleEngine {
	return usecase.NewRuleEngine(resolver, cooldowns, m, table, l)
}

// ProvideCollector creates the snapshot collector.
func ProvideCollector(
	prices dservice.PriceSource,
	sentiment dservice.SentimentSource,
	network dservice.NetworkSource,
	store repository.SnapshotStore,
	history repository.HistoryLookup,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.SnapshotCollector {
	return usecase.NewSnapshotCollector(prices, sentiment, network, store, history, m, l)
}

// ProvideWSHub creates the WebSocket broadcast hub.
func ProvideWSHub(l *applogger.Logger) *channel.WSHub {
	return channel.NewWSHub(l)
}

// ProvideRedeliverQueue creates the Redis redelivery queue when both Redis
// and the redeliver channel option are enabled.
func ProvideRedeliverQueue(cfg *config.Config, rc *pkgcache.RedisCache, l *applogger.Logger) *queue.RedisQueue {
	if rc == nil || !cfg.Channels.Redeliver.Enabled {
		return nil
	}
	qcfg := &queue.QueueConfig{
		Workers:    cfg.Channels.Redeliver.Workers,
		RetryLimit: cfg.Channels.Redeliver.RetryLimit,
		RetryDelay: cfg.Channels.Redeliver.RetryDelay,
	}
	return queue.NewRedisQueue(l, qcfg, rc.Client(), queue.ModeProducerConsumer,
		queue.WithKeyPrefix("btcpulse:redeliver"))
}

// ProvideDispatcher assembles the delivery channels from config, wraps each
// one with the delivery-side throttle and builds the dispatcher.
func ProvideDispatcher(
	cfg *config.Config,
	pub repository.Publisher,
	hub *channel.WSHub,
	q *queue.RedisQueue,
	m repository.Metrics,
	l *applogger.Logger,
) (*channel.Dispatcher, error) {
	var chans []dservice.AlertChannel
	if cfg.Channels.Console {
		chans = append(chans, channel.NewConsoleChannel(l))
	}
	if cfg.Channels.File.Enabled {
		fc, err := channel.NewFileChannel(cfg.Channels.File.Path)
		if err != nil {
			return nil, fmt.Errorf("file channel: %w", err)
		}
		chans = append(chans, fc)
	}
	if cfg.Channels.Kafka {
		chans = append(chans, channel.NewKafkaChannel(pub))
	}
	if cfg.Channels.WebSocket {
		chans = append(chans, hub)
	}

	wrapped := make([]dservice.AlertChannel, 0, len(chans))
	for _, ch := range chans {
		wrapped = append(wrapped, mid.NewThrottledChannel(ch, m))
	}

	var qs queue.QueueService
	if q != nil {
		qs = q
	}
	return channel.NewDispatcher(wrapped, m, qs, l), nil
}

// ProvideMonitor creates the evaluation loop.
func ProvideMonitor(
	collector *usecase.SnapshotCollector,
	engine *usecase.RuleEngine,
	resolver *usecase.MetricResolver,
	dispatcher *channel.Dispatcher,
	store repository.SnapshotStore,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Monitor {
	return usecase.NewMonitor(collector, engine, resolver, dispatcher, store, m, l, cfg.Monitor.Interval)
}

// ProvideKafkaConsumer creates the alerts archive consumer when the Kafka
// channel is enabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Channels.Kafka {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideAlertsArchiver registers the handler for the alerts topic.
func ProvideAlertsArchiver(store repository.AlertStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaAlertsHandler {
	return usecase.NewKafkaAlertsHandler(cfg.Kafka.AlertsTopic, store, m)
}

// ProvideAlertsHandler creates the introspection API core.
func ProvideAlertsHandler(
	monitor *usecase.Monitor,
	resolver *usecase.MetricResolver,
	table *rules.Table,
	cooldowns repository.CooldownStore,
	alerts repository.AlertStore,
	snaps repository.SnapshotStore,
	cfg *config.Config,
) *api.AlertsHandler {
	h := api.NewAlertsHandler(monitor, resolver, table, cooldowns, alerts, snaps, cfg.Monitor.RulesPath)
	if cfg.Redis.Enabled {
		h.SetCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	} else {
		h.SetCache(icache.NewTTLCache())
	}
	return h
}

// ProvideEchoHandler creates the Echo adapter.
func ProvideEchoHandler(l *applogger.Logger, core *api.AlertsHandler, hub *channel.WSHub) *api.AlertsEchoHandler {
	return api.NewAlertsEchoHandler(l, core, hub)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	monitor *usecase.Monitor,
	dispatcher *channel.Dispatcher,
	q *queue.RedisQueue,
	consumer *pkgkafka.Consumer,
	archiver *usecase.KafkaAlertsHandler,
	chClient *pkgch.Client,
	rc *pkgcache.RedisCache,
	pub repository.Publisher,
	producer *pkgkafka.Producer,
	handler *api.AlertsEchoHandler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, l, monitor, consumer, archiver, chClient)
	app.SetHTTPHandler(handler)
	app.SetRedeliverQueue(q, dispatcher)
	app.SetCloseables(rc, pub)
	app.SetLogCollector(producer)
	return app
}
