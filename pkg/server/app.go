package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BtcPulse/internal/channel"
	"BtcPulse/internal/domain/repository"
	"BtcPulse/internal/usecase"
	pkgcache "BtcPulse/pkg/cache"
	pkgch "BtcPulse/pkg/clickhouse"
	"BtcPulse/pkg/config"
	xhttp "BtcPulse/pkg/http"
	pkgkafka "BtcPulse/pkg/kafka"
	applogger "BtcPulse/pkg/logger"
	"BtcPulse/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	monitor     *usecase.Monitor
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler

	redeliverQ *queue.RedisQueue
	dispatcher *channel.Dispatcher
	redisCache *pkgcache.RedisCache
	publisher  repository.Publisher
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	monitor *usecase.Monitor,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:      cfg,
		logger:   l,
		monitor:  monitor,
		consumer: consumer,
		kh:       kh,
		chClient: chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetRedeliverQueue attaches the redelivery queue and the dispatcher whose
// jobs it consumes. Either may be nil when redelivery is disabled.
func (a *App) SetRedeliverQueue(q *queue.RedisQueue, d *channel.Dispatcher) {
	a.redeliverQ = q
	a.dispatcher = d
}

// SetCloseables registers infrastructure closed during shutdown.
func (a *App) SetCloseables(rc *pkgcache.RedisCache, pub repository.Publisher) {
	a.redisCache = rc
	a.publisher = pub
}

// logSink adapts the Kafka producer to the log collector's publisher.
type logSink struct{ p *pkgkafka.Producer }

func (s logSink) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return s.p.Publish(ctx, topic, nil, payload)
}

// SetLogCollector aggregates repeated error logs and ships them to Kafka
// when the Kafka channel is in use.
func (a *App) SetLogCollector(p *pkgkafka.Producer) {
	if p == nil || !a.cfg.Channels.Kafka {
		return
	}
	a.logger.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          "btcpulse.logs",
		Publisher:      logSink{p: p},
	})
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start the evaluation loop
	go a.monitor.Run(ctx)
	l.Info("monitor started", applogger.Duration("interval", a.cfg.Monitor.Interval))

	// Start redelivery queue if configured
	if a.redeliverQ != nil && a.dispatcher != nil {
		a.redeliverQ.RegisterJobs([]queue.Job{
			channel.NewRedeliverAlertJob(a.dispatcher),
			channel.NewRedeliverCompositeJob(a.dispatcher),
		})
		if err := a.redeliverQ.Start(); err != nil {
			l.Error("redeliver queue start error", applogger.Error(err))
		}
	}

	// Start alerts archive consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger
	l.Info("shutting down...")

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop redelivery queue
	if a.redeliverQ != nil {
		if err := a.redeliverQ.Stop(shutdownCtx); err != nil {
			l.Warn("redeliver queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close Kafka producer via the alert publisher
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			l.Warn("publisher close error", applogger.Error(err))
		}
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
