// Package provider holds the transport side of the chart path: fetching and
// decoding the raw quote-chart document. Retries, headers, and proxying live
// here; normalization does not.
package provider

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/rxtech-lab/barfeed/internal/logger"
	"github.com/rxtech-lab/barfeed/internal/types"
	"github.com/rxtech-lab/barfeed/pkg/errors"
	"github.com/rxtech-lab/barfeed/pkg/feed"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Browser-like headers. The chart endpoint rate-limits clients without them
// (HTTP 429).
var defaultHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":     "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
}

// YahooConfig configures the chart API client.
type YahooConfig struct {
	// BaseURL overrides the chart endpoint, mainly for tests.
	BaseURL string
	// Proxy is an optional proxy URL to route requests through.
	Proxy string
	// RetryCount is the number of transport-level retries per request.
	RetryCount int
	// Timeout bounds each request including retries' backoff.
	Timeout time.Duration
}

// YahooClient fetches chart documents over HTTP. It implements
// feed.ChartFetcher.
type YahooClient struct {
	client *resty.Client
	log    *logger.Logger
}

// NewYahooClient creates a chart API client.
func NewYahooClient(cfg YahooConfig, log *logger.Logger) *YahooClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetHeaders(defaultHeaders)

	if cfg.Proxy != "" {
		client.SetProxy(cfg.Proxy)
	}

	return &YahooClient{client: client, log: log}
}

// FetchChart downloads and decodes the chart document for one symbol and
// range. The document is fully materialized before it is returned; the
// caller's context cancels the request.
func (c *YahooClient) FetchChart(ctx context.Context, symbol string, start, end time.Time, timeframe types.Timeframe) (*feed.ChartResponse, error) {
	if err := timeframe.Validate(); err != nil {
		return nil, err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"period1":  fmt.Sprintf("%d", start.Unix()),
			"period2":  fmt.Sprintf("%d", end.Unix()),
			"interval": timeframe.String(),
			"events":   "history",
		}).
		SetResult(&feed.ChartResponse{}).
		Get("/" + url.PathEscape(symbol))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeFetchFailed, err, "chart request for %s failed", symbol)
	}

	if !resp.IsSuccess() {
		return nil, errors.Newf(errors.ErrCodeBadStatus,
			"chart request for %s returned status %d: %s", symbol, resp.StatusCode(), resp.String())
	}

	chart, ok := resp.Result().(*feed.ChartResponse)
	if !ok || chart == nil {
		return nil, errors.Newf(errors.ErrCodeMalformedPayload,
			"chart response for %s could not be decoded", symbol)
	}

	c.log.Debug("fetched chart document",
		zap.String("symbol", symbol),
		zap.String("interval", timeframe.String()),
		zap.Int("status", resp.StatusCode()))

	return chart, nil
}
