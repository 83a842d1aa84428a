// Package llama reads chain TVL history from the DefiLlama API.
package llama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/web3-frozen/l2-showdown/internal/metrics"
	"github.com/web3-frozen/l2-showdown/internal/series"
)

const DefaultBaseURL = "https://api.llama.fi"

type Client struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// chartPoint is one element of /charts/{chain}. DefiLlama has served date as
// both a number and a numeric string.
type chartPoint struct {
	Date              flexInt `json:"date"`
	TotalLiquidityUSD float64 `json:"totalLiquidityUSD"`
}

type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = flexInt(n)
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("date %s: %w", b, err)
	}
	*f = flexInt(v)
	return nil
}

// FetchTVL returns the daily TVL history for a chain slug, ascending by date
// with one record per day. Failures are logged and yield an empty slice; the
// caller decides how to surface them.
func (c *Client) FetchTVL(ctx context.Context, slug string) []series.TVLRecord {
	start := time.Now()
	records, err := c.fetchCharts(ctx, slug)
	metrics.FetchDuration.WithLabelValues("defillama").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FetchTotal.WithLabelValues("defillama", slug, "error").Inc()
		c.logger.Error("fetch tvl failed", "chain", slug, "error", err)
		return nil
	}
	metrics.FetchTotal.WithLabelValues("defillama", slug, "ok").Inc()
	c.logger.Info("fetched tvl", "chain", slug, "days", len(records))
	return records
}

func (c *Client) fetchCharts(ctx context.Context, slug string) ([]series.TVLRecord, error) {
	url := fmt.Sprintf("%s/charts/%s", c.baseURL, slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("defillama charts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("defillama charts status: %d", resp.StatusCode)
	}

	var points []chartPoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		return nil, fmt.Errorf("decode defillama charts: %w", err)
	}

	out := make([]series.TVLRecord, 0, len(points))
	for _, p := range points {
		out = append(out, series.TVLRecord{
			Date:           series.DayFromUnix(int64(p.Date)),
			LockedValueUSD: p.TotalLiquidityUSD,
		})
	}
	return series.NormalizeTVL(out), nil
}
