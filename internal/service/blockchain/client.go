package blockchain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"BtcPulse/internal/domain/models"
	svcmetrics "BtcPulse/internal/service/metrics"
	xhttp "BtcPulse/pkg/http"
)

// Client fetches network metrics from the blockchain.info query API. The
// API returns bare numbers as text, not JSON.
type Client struct {
	baseURL string
	client  *xhttp.Client
}

// New creates a blockchain.info client.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://blockchain.info"
	}
	return &Client{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (c *Client) number(ctx context.Context, path string) (float64, error) {
	var raw []byte
	start := time.Now()
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + path,
	}, &raw)
	svcmetrics.SourceLatency.WithLabelValues("blockchain").Observe(time.Since(start).Seconds())
	if err != nil {
		svcmetrics.SourceErrors.WithLabelValues("blockchain").Inc()
		return 0, fmt.Errorf("blockchain %s: %w", path, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("blockchain %s parse %q: %w", path, raw, err)
	}
	return v, nil
}

// FetchNetwork returns hash rate and difficulty. The 30-day difficulty
// change is filled in by the collector from stored history, since the
// query API only exposes current values.
func (c *Client) FetchNetwork(ctx context.Context) (models.OnChainMetrics, error) {
	hashGHS, err := c.number(ctx, "/q/hashrate")
	if err != nil {
		return models.OnChainMetrics{}, err
	}
	difficulty, err := c.number(ctx, "/q/getdifficulty")
	if err != nil {
		return models.OnChainMetrics{}, err
	}
	return models.OnChainMetrics{
		HashRateEHS: hashGHS / 1e9, // GH/s to EH/s
		Difficulty:  difficulty,
	}, nil
}
