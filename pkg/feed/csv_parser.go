package feed

import (
	"strconv"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/barfeed/internal/logger"
	"github.com/rxtech-lab/barfeed/internal/types"
	"github.com/rxtech-lab/barfeed/pkg/errors"
)

// nullMarker is the literal Yahoo uses for a missing numeric column.
const nullMarker = "null"

// Column layout of a Yahoo-format CSV line.
const (
	colDate = iota
	colOpen
	colHigh
	colLow
	colClose
	colAdjClose
	colVolume
	numColumns
)

const dateLayout = "2006-01-02"

// parserState drives the null-resolution loop.
type parserState int

const (
	// stateScanning is the default state: lines are scanned for null markers
	// and re-fetched until a complete one is found.
	stateScanning parserState = iota
	// stateExhausted is terminal: the line source ran dry.
	stateExhausted
)

// CSVParser turns tokenized Yahoo-format lines into adjustment-reconciled
// bars. It owns its line source for the duration of the parse session.
type CSVParser struct {
	cfg        Config
	src        LineSource
	log        *logger.Logger
	state      parserState
	sessionEnd time.Duration
}

// NewCSVParser validates the config and creates a parser over the given line
// source. A nil log falls back to a no-op logger.
func NewCSVParser(cfg Config, src LineSource, log *logger.Logger) (*CSVParser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sessionEnd, err := cfg.sessionEnd()
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &CSVParser{
		cfg:        cfg,
		src:        src,
		log:        log,
		state:      stateScanning,
		sessionEnd: sessionEnd,
	}, nil
}

// ParseNext produces the next reconciled bar. It returns None with a nil
// error on clean end-of-stream, and an error only for data errors on the
// current line (malformed date or field, zero adjusted close).
func (p *CSVParser) ParseNext() (optional.Option[types.Bar], error) {
	tokens, ok := p.nextCompleteLine()
	if !ok {
		return optional.None[types.Bar](), nil
	}

	bar, err := p.loadLine(tokens)
	if err != nil {
		return optional.None[types.Bar](), err
	}

	return optional.Some(bar), nil
}

// nextCompleteLine fetches lines until one without a null marker in its
// numeric columns is found. Returns ok=false once the source is exhausted.
func (p *CSVParser) nextCompleteLine() ([]string, bool) {
	if p.state == stateExhausted {
		return nil, false
	}

	tokens, ok := p.src.Next()
	if !ok {
		p.state = stateExhausted
		return nil, false
	}

	for hasNullMarker(tokens) {
		p.log.Debug("discarding line with null marker", zap.Strings("tokens", tokens))

		tokens, ok = p.src.Next()
		if !ok {
			p.state = stateExhausted
			return nil, false
		}
	}

	return tokens, true
}

// hasNullMarker scans every column after the date for the null literal.
func hasNullMarker(tokens []string) bool {
	for _, tok := range tokens[1:] {
		if tok == nullMarker {
			return true
		}
	}

	return false
}

// loadLine extracts the fields of one complete line and applies the
// adjustment reconciliation.
func (p *CSVParser) loadLine(tokens []string) (types.Bar, error) {
	if len(tokens) < numColumns {
		return types.Bar{}, errors.Newf(errors.ErrCodeMalformedLine,
			"expected %d columns, got %d", numColumns, len(tokens))
	}

	day, err := time.Parse(dateLayout, tokens[colDate])
	if err != nil {
		return types.Bar{}, errors.Wrapf(errors.ErrCodeMalformedDate, err,
			"cannot parse date %q", tokens[colDate])
	}

	o, err := parsePrice(tokens[colOpen], "open")
	if err != nil {
		return types.Bar{}, err
	}

	h, err := parsePrice(tokens[colHigh], "high")
	if err != nil {
		return types.Bar{}, err
	}

	l, err := parsePrice(tokens[colLow], "low")
	if err != nil {
		return types.Bar{}, err
	}

	c, err := parsePrice(tokens[colClose], "close")
	if err != nil {
		return types.Bar{}, err
	}

	adjClose, err := parsePrice(tokens[colAdjClose], "adjusted close")
	if err != nil {
		return types.Bar{}, err
	}

	// A non-numeric volume counts as null for this column alone and defaults
	// to zero instead of discarding the line.
	v, err := strconv.ParseFloat(tokens[colVolume], 64)
	if err != nil {
		v = 0.0
	}

	if p.cfg.SwapCloses {
		c, adjClose = adjClose, c
	}

	if adjClose == 0 {
		return types.Bar{}, errors.Newf(errors.ErrCodeZeroAdjustedClose,
			"adjusted close is zero on %s", tokens[colDate])
	}

	adjFactor := c / adjClose

	// The feed delivers adjusted open/high/low; scale them back by the
	// factor so the bar is consistent with the adjusted close. A downward
	// price adjustment implies a proportionally larger volume.
	if p.cfg.AdjClose {
		o /= adjFactor
		h /= adjFactor
		l /= adjFactor
		c = adjClose

		if p.cfg.AdjVolume {
			v *= adjFactor
		}
	}

	if p.cfg.Round {
		o = roundTo(o, p.cfg.Decimals)
		h = roundTo(h, p.cfg.Decimals)
		l = roundTo(l, p.cfg.Decimals)
		c = roundTo(c, p.cfg.Decimals)
	}

	v = roundTo(v, p.cfg.RoundVolume)

	return types.Bar{
		Time:         day.Add(p.sessionEnd),
		Open:         o,
		High:         h,
		Low:          l,
		Close:        c,
		Volume:       v,
		OpenInterest: 0.0,
	}, nil
}

func parsePrice(tok, field string) (float64, error) {
	val, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeMalformedField, err,
			"cannot parse %s %q", field, tok)
	}

	return val, nil
}

func roundTo(val float64, decimals int) float64 {
	return decimal.NewFromFloat(val).Round(int32(decimals)).InexactFloat64()
}

// ParseAll drains the line source into a bar series for one symbol and
// timeframe. Data errors abort the parse; clean exhaustion ends it.
func (p *CSVParser) ParseAll(symbol string, timeframe types.Timeframe) (*types.BarSeries, error) {
	series := types.NewBarSeries(symbol, timeframe)

	for {
		bar, err := p.ParseNext()
		if err != nil {
			return nil, err
		}

		if bar.IsNone() {
			break
		}

		if err := series.Append(bar.Unwrap()); err != nil {
			return nil, err
		}
	}

	p.log.Debug("parse session finished",
		zap.String("series_id", series.ID),
		zap.String("symbol", symbol),
		zap.Int("bars", series.Len()))

	return series, nil
}
