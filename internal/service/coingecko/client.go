package coingecko

import (
	"context"
	"fmt"
	"time"

	"BtcPulse/internal/domain/models"
	svccache "BtcPulse/internal/service/cache"
	svcmetrics "BtcPulse/internal/service/metrics"
	"BtcPulse/internal/service/ratelimit"
	xhttp "BtcPulse/pkg/http"
)

// goldRatioTTL keeps the slow-moving gold ratio out of the rate budget.
const goldRatioTTL = time.Hour

// Client fetches spot-market metrics from the CoinGecko simple-price API.
type Client struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	rate    float64
	cache   *svccache.TTLCache
}

// New creates a CoinGecko client. ratePerMinute caps outbound calls; the
// public API throttles aggressively.
func New(baseURL, apiKey string, timeout time.Duration, limiter *ratelimit.Limiter, ratePerMinute int) *Client {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	if ratePerMinute <= 0 {
		ratePerMinute = 10
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter: limiter,
		rate:    float64(ratePerMinute) / 60.0,
		cache:   svccache.NewTTLCache(),
	}
}

type simplePrice struct {
	USD       float64 `json:"usd"`
	MarketCap float64 `json:"usd_market_cap"`
	Vol24h    float64 `json:"usd_24h_vol"`
	Change24h float64 `json:"usd_24h_change"`
}

func (c *Client) get(ctx context.Context, path string, params map[string][]string, dest interface{}) error {
	if c.limiter != nil && !c.limiter.Allow("coingecko", 5, c.rate) {
		svcmetrics.SourceErrors.WithLabelValues("coingecko").Inc()
		return fmt.Errorf("coingecko: rate limited")
	}
	headers := map[string]string{}
	if c.apiKey != "" {
		headers["x-cg-demo-api-key"] = c.apiKey
	}
	start := time.Now()
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + path,
		Headers:     headers,
		QueryParams: params,
	}, dest)
	svcmetrics.SourceLatency.WithLabelValues("coingecko").Observe(time.Since(start).Seconds())
	if err != nil {
		svcmetrics.SourceErrors.WithLabelValues("coingecko").Inc()
		return fmt.Errorf("coingecko %s: %w", path, err)
	}
	return nil
}

// FetchPrice returns the current spot-market metric group.
func (c *Client) FetchPrice(ctx context.Context) (models.PriceMetrics, error) {
	var resp map[string]simplePrice
	err := c.get(ctx, "/simple/price", map[string][]string{
		"ids":                {"bitcoin"},
		"vs_currencies":      {"usd"},
		"include_market_cap": {"true"},
		"include_24hr_vol":   {"true"},
		"include_24hr_change": {"true"},
	}, &resp)
	if err != nil {
		return models.PriceMetrics{}, err
	}
	btc, ok := resp["bitcoin"]
	if !ok || btc.USD <= 0 {
		return models.PriceMetrics{}, fmt.Errorf("coingecko: no bitcoin price in response")
	}
	return models.PriceMetrics{
		PriceUSD:     btc.USD,
		Change24hPct: btc.Change24h,
		MarketCapUSD: btc.MarketCap,
		Volume24hUSD: btc.Vol24h,
	}, nil
}

// FetchGoldRatio returns BTC priced in ounces of gold, using a tokenized
// gold ounce as the reference.
func (c *Client) FetchGoldRatio(ctx context.Context) (float64, error) {
	if v, ok := c.cache.Get("gold_ratio"); ok {
		if ratio, ok2 := v.(float64); ok2 {
			return ratio, nil
		}
	}

	var resp map[string]simplePrice
	err := c.get(ctx, "/simple/price", map[string][]string{
		"ids":           {"bitcoin", "pax-gold"},
		"vs_currencies": {"usd"},
	}, &resp)
	if err != nil {
		return 0, err
	}
	btc, gold := resp["bitcoin"], resp["pax-gold"]
	if btc.USD <= 0 || gold.USD <= 0 {
		return 0, fmt.Errorf("coingecko: incomplete gold ratio response")
	}
	ratio := btc.USD / gold.USD
	c.cache.Set("gold_ratio", ratio, goldRatioTTL)
	return ratio, nil
}
