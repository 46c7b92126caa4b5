package service

import (
	"context"

	"BtcPulse/internal/domain/models"
)

// AlertChannel delivers alert records. Delivered=false or a non-nil error
// must not stop delivery to remaining channels and never touches cooldown
// state.
type AlertChannel interface {
	Name() string
	Send(ctx context.Context, a *models.Alert) (delivered bool, err error)
	SendComposite(ctx context.Context, c *models.CompositeSignal) (delivered bool, err error)
}

// PriceSource supplies spot-market metrics.
type PriceSource interface {
	FetchPrice(ctx context.Context) (models.PriceMetrics, error)
	FetchGoldRatio(ctx context.Context) (float64, error)
}

// SentimentSource supplies the fear/greed index.
type SentimentSource interface {
	FetchFearGreed(ctx context.Context) (index float64, label string, err error)
}

// NetworkSource supplies on-chain network metrics.
type NetworkSource interface {
	FetchNetwork(ctx context.Context) (models.OnChainMetrics, error)
}
