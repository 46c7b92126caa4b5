package usecase

import (
	"context"
	"encoding/json"
	"time"

	"BtcPulse/internal/domain/models"
	domrepo "BtcPulse/internal/domain/repository"
	pkgkafka "BtcPulse/pkg/kafka"
)

// KafkaAlertsHandler consumes the alerts topic and archives alert records
// in ClickHouse. Composite records pass through unarchived; the alert
// table keys on rule IDs.
type KafkaAlertsHandler struct {
	topic   string
	store   domrepo.AlertStore
	metrics domrepo.Metrics
}

func NewKafkaAlertsHandler(topic string, store domrepo.AlertStore, metrics domrepo.Metrics) *KafkaAlertsHandler {
	return &KafkaAlertsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaAlertsHandler) Topic() string { return h.topic }

// incoming message schema: {type, alert?, composite?}
func (h *KafkaAlertsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Type  string        `json:"type"`
		Alert *models.Alert `json:"alert"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.Type != "alert" || m.Alert == nil {
		return nil
	}

	start := time.Now()
	if err := h.store.Store(ctx, m.Alert); err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordLatency("alert_archive_seconds", time.Since(start).Seconds())
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaAlertsHandler)(nil)
