package feargreed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	svcmetrics "BtcPulse/internal/service/metrics"
	xhttp "BtcPulse/pkg/http"
)

// Client fetches the fear & greed index from the alternative.me API.
type Client struct {
	baseURL string
	client  *xhttp.Client
}

// New creates a fear & greed client.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.alternative.me"
	}
	return &Client{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type fngResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
	} `json:"data"`
}

// FetchFearGreed returns the latest index value (0..100) and its label.
func (c *Client) FetchFearGreed(ctx context.Context) (float64, string, error) {
	var resp fngResponse
	start := time.Now()
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/fng/",
	}, &resp)
	svcmetrics.SourceLatency.WithLabelValues("feargreed").Observe(time.Since(start).Seconds())
	if err != nil {
		svcmetrics.SourceErrors.WithLabelValues("feargreed").Inc()
		return 0, "", fmt.Errorf("fear greed fetch: %w", err)
	}
	if len(resp.Data) == 0 {
		return 0, "", fmt.Errorf("fear greed: empty response")
	}
	v, err := strconv.ParseFloat(resp.Data[0].Value, 64)
	if err != nil {
		return 0, "", fmt.Errorf("fear greed parse %q: %w", resp.Data[0].Value, err)
	}
	return v, resp.Data[0].Classification, nil
}
