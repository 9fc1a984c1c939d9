package feed

import (
	"context"
	"os"
	"time"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/barfeed/internal/logger"
	"github.com/rxtech-lab/barfeed/internal/types"
	"github.com/rxtech-lab/barfeed/pkg/errors"
)

// SourceType identifies a bar source implementation.
type SourceType string

const (
	SourceCSV   SourceType = "csv"
	SourceChart SourceType = "chart"
)

// BarSource is the capability of producing a normalized bar series for one
// symbol. The two implementations are the CSV-file path and the chart-API
// path.
type BarSource interface {
	// Fetch returns the historical bars for the symbol, optionally bounded
	// by an inclusive time range.
	Fetch(ctx context.Context, symbol string, start, end optional.Option[time.Time]) (*types.BarSeries, error)
}

// ChartFetcher is the transport collaborator of the chart path. It delivers
// a fully materialized, already-decoded chart document; cancellation and
// retries live behind this boundary.
type ChartFetcher interface {
	FetchChart(ctx context.Context, symbol string, start, end time.Time, timeframe types.Timeframe) (*ChartResponse, error)
}

// CSVSourceConfig configures a CSV-backed bar source.
type CSVSourceConfig struct {
	Path      string
	Timeframe types.Timeframe
	Feed      Config
}

// ChartSourceConfig configures a chart-API-backed bar source.
type ChartSourceConfig struct {
	Fetcher   ChartFetcher
	Timeframe types.Timeframe
}

// NewBarSource creates a bar source of the given type. config must be the
// matching *SourceConfig value.
func NewBarSource(sourceType SourceType, config any, log *logger.Logger) (BarSource, error) {
	switch sourceType {
	case SourceCSV:
		cfg, ok := config.(CSVSourceConfig)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidParameter, "csv source requires a CSVSourceConfig")
		}

		return NewCSVBarSource(cfg, log)
	case SourceChart:
		cfg, ok := config.(ChartSourceConfig)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidParameter, "chart source requires a ChartSourceConfig")
		}

		return NewChartBarSource(cfg, log)
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedSource, "unsupported bar source: %s", sourceType)
	}
}

// CSVBarSource normalizes a local Yahoo-format CSV export.
type CSVBarSource struct {
	cfg CSVSourceConfig
	log *logger.Logger
}

// NewCSVBarSource validates the config and creates the source.
func NewCSVBarSource(cfg CSVSourceConfig, log *logger.Logger) (*CSVBarSource, error) {
	if cfg.Path == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "csv source requires a file path")
	}

	if err := cfg.Timeframe.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Feed.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &CSVBarSource{cfg: cfg, log: log}, nil
}

// Fetch parses the whole file and filters the resulting series by the
// optional inclusive time range. Each call runs a fresh parse session over a
// new line source.
func (s *CSVBarSource) Fetch(ctx context.Context, symbol string, start, end optional.Option[time.Time]) (*types.BarSeries, error) {
	f, err := os.Open(s.cfg.Path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeSourceUnavailable, err, "cannot open %s", s.cfg.Path)
	}
	defer f.Close()

	src, err := NewCSVLineSource(f, s.cfg.Feed.Reverse)
	if err != nil {
		return nil, err
	}

	parser, err := NewCSVParser(s.cfg.Feed, src, s.log)
	if err != nil {
		return nil, err
	}

	series, err := parser.ParseAll(symbol, s.cfg.Timeframe)
	if err != nil {
		return nil, err
	}

	return filterRange(series, start, end)
}

// ChartBarSource normalizes the chart-API document for a symbol.
type ChartBarSource struct {
	cfg        ChartSourceConfig
	normalizer *ChartNormalizer
}

// NewChartBarSource validates the config and creates the source.
func NewChartBarSource(cfg ChartSourceConfig, log *logger.Logger) (*ChartBarSource, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "chart source requires a fetcher")
	}

	if err := cfg.Timeframe.Validate(); err != nil {
		return nil, err
	}

	return &ChartBarSource{
		cfg:        cfg,
		normalizer: NewChartNormalizer(log),
	}, nil
}

// Fetch downloads the chart document through the transport collaborator and
// normalizes it synchronously. The range defaults to the last year ending
// now.
func (s *ChartBarSource) Fetch(ctx context.Context, symbol string, start, end optional.Option[time.Time]) (*types.BarSeries, error) {
	endTime := end.TakeOr(time.Now())
	startTime := start.TakeOr(endTime.AddDate(-1, 0, 0))

	resp, err := s.cfg.Fetcher.FetchChart(ctx, symbol, startTime, endTime, s.cfg.Timeframe)
	if err != nil {
		return nil, err
	}

	return s.normalizer.Normalize(resp, symbol, s.cfg.Timeframe)
}

// filterRange rebuilds the series keeping only bars within the inclusive
// range. Without bounds the series passes through untouched.
func filterRange(series *types.BarSeries, start, end optional.Option[time.Time]) (*types.BarSeries, error) {
	if start.IsNone() && end.IsNone() {
		return series, nil
	}

	filtered := types.NewBarSeries(series.Symbol, series.Timeframe)

	for _, bar := range series.Bars() {
		if start.IsSome() && bar.Time.Before(start.Unwrap()) {
			continue
		}

		if end.IsSome() && bar.Time.After(end.Unwrap()) {
			continue
		}

		if err := filtered.Append(bar); err != nil {
			return nil, err
		}
	}

	return filtered, nil
}
