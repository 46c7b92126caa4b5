package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"BtcPulse/internal/domain/models"
	"BtcPulse/internal/domain/repository"
	pkgch "BtcPulse/pkg/clickhouse"
	pkgkafka "BtcPulse/pkg/kafka"
)

const alertTable = "btcpulse.alerts"

// CHAlertStore archives alerts in ClickHouse.
type CHAlertStore struct {
	db *sql.DB
}

// NewCHAlertStore creates the ClickHouse alert archive.
func NewCHAlertStore(ch *pkgch.Client) repository.AlertStore {
	return &CHAlertStore{db: ch.DB()}
}

func (s *CHAlertStore) Init(ctx context.Context) error {
	stmts := []string{
		"CREATE DATABASE IF NOT EXISTS btcpulse",
		`CREATE TABLE IF NOT EXISTS ` + alertTable + ` (
			triggered_at DateTime64(3),
			rule_id String,
			rule_name String,
			metric String,
			value Float64,
			estimated UInt8,
			severity String,
			message String
		) ENGINE=MergeTree ORDER BY (triggered_at, rule_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init alert schema: %w", err)
		}
	}
	return nil
}

func (s *CHAlertStore) Store(ctx context.Context, a *models.Alert) error {
	return s.StoreBatch(ctx, []*models.Alert{a})
}

func (s *CHAlertStore) StoreBatch(ctx context.Context, alerts []*models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	// Multi-row VALUES insert to reduce round-trips, chunked.
	const chunkSize = 500
	for start := 0; start < len(alerts); start += chunkSize {
		end := start + chunkSize
		if end > len(alerts) {
			end = len(alerts)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, a := range alerts[start:end] {
			if a == nil || a.RuleID == "" {
				continue
			}
			estimated := uint8(0)
			if a.Estimated {
				estimated = 1
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				a.TriggeredAt,
				a.RuleID,
				a.RuleName,
				string(a.Metric),
				a.Value,
				estimated,
				string(a.Severity),
				a.Message,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (triggered_at, rule_id, rule_name, metric, value, estimated, severity, message) VALUES %s",
			alertTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store alerts: %w", err)
		}
	}
	return nil
}

func (s *CHAlertStore) Recent(ctx context.Context, limit int, severity models.Severity) ([]*models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT triggered_at, rule_id, rule_name, metric, value, estimated, severity, message
		FROM ` + alertTable
	args := make([]interface{}, 0, 2)
	if severity != "" {
		q += " WHERE severity = ?"
		args = append(args, string(severity))
	}
	q += " ORDER BY triggered_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		var (
			a         models.Alert
			metric    string
			estimated uint8
			sev       string
		)
		if err := rows.Scan(&a.TriggeredAt, &a.RuleID, &a.RuleName, &metric, &a.Value, &estimated, &sev, &a.Message); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Metric = models.Metric(metric)
		a.Estimated = estimated == 1
		a.Severity = models.Severity(sev)
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}

func (s *CHAlertStore) Close() error {
	return nil // pool managed by pkg
}

// KafkaAlertPublisher implements Publisher for Kafka.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaAlertPublisher creates the Kafka publisher.
func NewKafkaAlertPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

func (p *KafkaAlertPublisher) PublishAlert(ctx context.Context, a *models.Alert) error {
	return p.producer.Publish(ctx, p.topic, []byte(a.RuleID), map[string]interface{}{
		"type":  "alert",
		"alert": a,
	})
}

func (p *KafkaAlertPublisher) PublishComposite(ctx context.Context, c *models.CompositeSignal) error {
	return p.producer.Publish(ctx, p.topic, []byte(c.CompositeID), map[string]interface{}{
		"type":      "composite",
		"composite": c,
	})
}

func (p *KafkaAlertPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
