package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	SourceLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "btcpulse",
			Subsystem: "sources",
			Name:      "latency_seconds",
			Help:      "Latency of external data source fetches",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	SourceErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "btcpulse",
			Subsystem: "sources",
			Name:      "errors_total",
			Help:      "Errors by external data source",
		},
		[]string{"source"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(SourceLatency, SourceErrors)
	})
}
