package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/barfeed/pkg/errors"
)

// Canonical field names of the record handed to the downstream engine.
const (
	LineDatetime     = "datetime"
	LineOpen         = "open"
	LineHigh         = "high"
	LineLow          = "low"
	LineClose        = "close"
	LineVolume       = "volume"
	LineOpenInterest = "openinterest"
)

// Bar is a single normalized OHLCV observation. Bars are plain values:
// once constructed the fields never change and equality is by value.
// The raw (pre-adjustment) close is an intermediate of the adjustment
// algorithm and is deliberately not part of the model.
type Bar struct {
	Time         time.Time `json:"time" yaml:"time"`
	Open         float64   `json:"open" yaml:"open"`
	High         float64   `json:"high" yaml:"high"`
	Low          float64   `json:"low" yaml:"low"`
	Close        float64   `json:"close" yaml:"close"`
	Volume       float64   `json:"volume" yaml:"volume"`
	OpenInterest float64   `json:"openInterest" yaml:"openInterest"`
}

// Lines is the field-keyed record consumed by the downstream engine.
// The datetime value uses the host numeric time representation, see TimeToNum.
type Lines map[string]float64

// TimeToNum converts a timestamp to the numeric representation the downstream
// engine stores in its datetime line: fractional seconds since the Unix epoch.
func TimeToNum(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Lines re-expresses the bar as a field-keyed record.
func (b Bar) Lines() Lines {
	return Lines{
		LineDatetime:     TimeToNum(b.Time),
		LineOpen:         b.Open,
		LineHigh:         b.High,
		LineLow:          b.Low,
		LineClose:        b.Close,
		LineVolume:       b.Volume,
		LineOpenInterest: b.OpenInterest,
	}
}

// BarSeries is an ordered sequence of bars for one symbol and timeframe.
// The sequence is strictly increasing in time; Append enforces the invariant.
// A series is built once by a normalizer and is read-only afterwards.
type BarSeries struct {
	// ID correlates log entries of one normalization session.
	ID        string
	Symbol    string
	Timeframe Timeframe

	bars []Bar
}

// NewBarSeries creates an empty series for the given symbol and timeframe.
func NewBarSeries(symbol string, timeframe Timeframe) *BarSeries {
	return &BarSeries{
		ID:        uuid.New().String(),
		Symbol:    symbol,
		Timeframe: timeframe,
		bars:      nil,
	}
}

// Append adds a bar to the end of the series. The bar's time must be strictly
// after the last bar already in the series.
func (s *BarSeries) Append(bar Bar) error {
	if n := len(s.bars); n > 0 && !bar.Time.After(s.bars[n-1].Time) {
		return errors.Newf(errors.ErrCodeNonIncreasingTime,
			"bar at %s does not advance past %s (symbol %s)",
			bar.Time.Format(time.RFC3339), s.bars[n-1].Time.Format(time.RFC3339), s.Symbol)
	}

	s.bars = append(s.bars, bar)

	return nil
}

// Len returns the number of bars in the series.
func (s *BarSeries) Len() int {
	return len(s.bars)
}

// At returns the bar at index i. The index must be in [0, Len).
func (s *BarSeries) At(i int) Bar {
	return s.bars[i]
}

// Bars returns a copy of the bar sequence. The series keeps exclusive
// ownership of its backing slice.
func (s *BarSeries) Bars() []Bar {
	out := make([]Bar, len(s.bars))
	copy(out, s.bars)

	return out
}
