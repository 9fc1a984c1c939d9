package feed

import (
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/barfeed/internal/logger"
	"github.com/rxtech-lab/barfeed/internal/types"
	"github.com/rxtech-lab/barfeed/pkg/errors"
)

// ChartResponse mirrors the quote-chart API document. Numeric entries are
// pointers because the API reports missing observations as JSON nulls.
type ChartResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  *ChartError   `json:"error"`
	} `json:"chart"`
}

// ChartError is the upstream error payload.
type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ChartResult holds the parallel timestamp and quote arrays of one symbol.
type ChartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []ChartQuote `json:"quote"`
	} `json:"indicators"`
}

// ChartQuote carries the OHLCV arrays, positionally parallel to Timestamp.
type ChartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

// ChartNormalizer converts a decoded chart document into a bar series.
// It runs synchronously over an already-fetched document; the transport
// collaborator owns retries and cancellation.
type ChartNormalizer struct {
	log *logger.Logger
}

// NewChartNormalizer creates a normalizer. A nil log falls back to a no-op
// logger.
func NewChartNormalizer(log *logger.Logger) *ChartNormalizer {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &ChartNormalizer{log: log}
}

// Normalize produces a bar series for one symbol/timeframe from the chart
// document. An upstream error payload fails the whole fetch. A document
// without a timestamp array means "no data in range" and yields an empty
// series, not an error. Positions missing any of open/high/low/close are
// skipped; a missing volume defaults to zero.
func (n *ChartNormalizer) Normalize(resp *ChartResponse, symbol string, timeframe types.Timeframe) (*types.BarSeries, error) {
	if resp == nil {
		return nil, errors.New(errors.ErrCodeMalformedPayload, "chart response is nil")
	}

	if e := resp.Chart.Error; e != nil {
		return nil, errors.Newf(errors.ErrCodeChartAPIError,
			"chart API error for %s: %s (%s)", symbol, e.Description, e.Code)
	}

	if len(resp.Chart.Result) == 0 {
		return nil, errors.Newf(errors.ErrCodeMalformedPayload,
			"chart response for %s carries no result", symbol)
	}

	series := types.NewBarSeries(symbol, timeframe)

	result := resp.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		n.log.Warn("no trading data found",
			zap.String("symbol", symbol),
			zap.String("timeframe", timeframe.String()))

		return series, nil
	}

	if len(result.Indicators.Quote) == 0 {
		return nil, errors.Newf(errors.ErrCodeMalformedPayload,
			"chart response for %s carries no quote arrays", symbol)
	}

	quote := result.Indicators.Quote[0]

	for i, ts := range result.Timestamp {
		o := at(quote.Open, i)
		h := at(quote.High, i)
		l := at(quote.Low, i)
		c := at(quote.Close, i)

		if o == nil || h == nil || l == nil || c == nil {
			continue
		}

		var v float64
		if vol := at(quote.Volume, i); vol != nil {
			v = *vol
		}

		bar := types.Bar{
			Time:         time.Unix(ts, 0).UTC(),
			Open:         *o,
			High:         *h,
			Low:          *l,
			Close:        *c,
			Volume:       v,
			OpenInterest: 0.0,
		}

		if err := series.Append(bar); err != nil {
			return nil, err
		}
	}

	return series, nil
}

// at returns the i-th entry of a nullable array, tolerating short arrays.
func at(arr []*float64, i int) *float64 {
	if i >= len(arr) {
		return nil
	}

	return arr[i]
}
