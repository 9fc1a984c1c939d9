package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/barfeed/internal/types"
	"github.com/rxtech-lab/barfeed/pkg/errors"
)

type CSVParserTestSuite struct {
	suite.Suite
}

func TestCSVParserSuite(t *testing.T) {
	suite.Run(t, new(CSVParserTestSuite))
}

func (suite *CSVParserTestSuite) newParser(cfg Config, lines [][]string) *CSVParser {
	parser, err := NewCSVParser(cfg, NewSliceLineSource(lines), nil)
	suite.Require().NoError(err)

	return parser
}

func (suite *CSVParserTestSuite) TestUnadjustedLine() {
	// Raw close equals adjusted close, factor is 1.0.
	parser := suite.newParser(DefaultConfig(), [][]string{
		{"2020-01-02", "100", "105", "95", "102", "102", "1000000"},
	})

	bar, err := parser.ParseNext()
	suite.NoError(err)
	suite.Require().True(bar.IsSome())

	got := bar.Unwrap()
	suite.Equal(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), got.Time)
	suite.Equal(100.0, got.Open)
	suite.Equal(105.0, got.High)
	suite.Equal(95.0, got.Low)
	suite.Equal(102.0, got.Close)
	suite.Equal(1000000.0, got.Volume)
	suite.Equal(0.0, got.OpenInterest)
}

func (suite *CSVParserTestSuite) TestSplitAdjustment() {
	// Adjusted close half of raw close, simulating a 2:1 split.
	parser := suite.newParser(DefaultConfig(), [][]string{
		{"2020-01-02", "100", "105", "95", "102", "51", "2000000"},
	})

	bar, err := parser.ParseNext()
	suite.NoError(err)
	suite.Require().True(bar.IsSome())

	got := bar.Unwrap()
	suite.Equal(50.0, got.Open)
	suite.Equal(52.5, got.High)
	suite.Equal(47.5, got.Low)
	suite.Equal(51.0, got.Close)
	suite.Equal(4000000.0, got.Volume)
}

func (suite *CSVParserTestSuite) TestAdjustmentRoundTrip() {
	// open_out * factor recovers open_in within rounding tolerance, same for
	// high and low.
	cfg := DefaultConfig()
	cfg.Decimals = 6
	parser := suite.newParser(cfg, [][]string{
		{"2020-01-02", "100", "105", "95", "102", "68", "3000000"},
	})

	bar, err := parser.ParseNext()
	suite.NoError(err)
	suite.Require().True(bar.IsSome())

	got := bar.Unwrap()
	factor := 102.0 / 68.0
	suite.InDelta(100.0, got.Open*factor, 1e-4)
	suite.InDelta(105.0, got.High*factor, 1e-4)
	suite.InDelta(95.0, got.Low*factor, 1e-4)
	suite.Equal(68.0, got.Close)
	suite.InDelta(3000000.0*factor, got.Volume, 1.0)
}

func (suite *CSVParserTestSuite) TestAdjVolumeDisabled() {
	cfg := DefaultConfig()
	cfg.AdjVolume = false
	parser := suite.newParser(cfg, [][]string{
		{"2020-01-02", "100", "105", "95", "102", "51", "2000000"},
	})

	bar, err := parser.ParseNext()
	suite.NoError(err)
	suite.Require().True(bar.IsSome())
	suite.Equal(2000000.0, bar.Unwrap().Volume)
}

func (suite *CSVParserTestSuite) TestAdjCloseDisabled() {
	cfg := DefaultConfig()
	cfg.AdjClose = false
	parser := suite.newParser(cfg, [][]string{
		{"2020-01-02", "100", "105", "95", "102", "51", "2000000"},
	})

	bar, err := parser.ParseNext()
	suite.NoError(err)
	suite.Require().True(bar.IsSome())

	got := bar.Unwrap()
	suite.Equal(100.0, got.Open)
	suite.Equal(102.0, got.Close)
	suite.Equal(2000000.0, got.Volume)
}

func (suite *CSVParserTestSuite) TestSwapClosesInvolution() {
	plain := suite.newParser(DefaultConfig(), [][]string{
		{"2020-01-02", "100", "105", "95", "102", "51", "2000000"},
	})

	swappedCfg := DefaultConfig()
	swappedCfg.SwapCloses = true
	swapped := suite.newParser(swappedCfg, [][]string{
		{"2020-01-02", "100", "105", "95", "51", "102", "2000000"},
	})

	plainBar, err := plain.ParseNext()
	suite.NoError(err)
	swappedBar, err := swapped.ParseNext()
	suite.NoError(err)

	suite.Require().True(plainBar.IsSome())
	suite.Require().True(swappedBar.IsSome())
	suite.Equal(plainBar.Unwrap(), swappedBar.Unwrap())
}

func (suite *CSVParserTestSuite) TestNullLineSkipped() {
	parser := suite.newParser(DefaultConfig(), [][]string{
		{"2020-01-02", "null", "105", "95", "102", "102", "1000000"},
		{"2020-01-03", "101", "106", "96", "103", "103", "1100000"},
	})

	bar, err := parser.ParseNext()
	suite.NoError(err)
	suite.Require().True(bar.IsSome())

	// The null line never existed as far as the output is concerned.
	got := bar.Unwrap()
	suite.Equal(time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC), got.Time)
	suite.Equal(101.0, got.Open)
}

func (suite *CSVParserTestSuite) TestNullInAnyPriceColumnSkips() {
	columns := []int{colOpen, colHigh, colLow, colClose, colAdjClose}
	for _, col := range columns {
		line := []string{"2020-01-02", "100", "105", "95", "102", "102", "1000000"}
		line[col] = nullMarker

		parser := suite.newParser(DefaultConfig(), [][]string{
			line,
			{"2020-01-03", "101", "106", "96", "103", "103", "1100000"},
		})

		bar, err := parser.ParseNext()
		suite.NoError(err)
		suite.Require().True(bar.IsSome())
		suite.Equal(time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC), bar.Unwrap().Time)
	}
}

func (suite *CSVParserTestSuite) TestNullLineAtEndIsCleanExhaustion() {
	parser := suite.newParser(DefaultConfig(), [][]string{
		{"2020-01-02", "null", "105", "95", "102", "102", "1000000"},
	})

	bar, err := parser.ParseNext()
	suite.NoError(err)
	suite.True(bar.IsNone())

	// The exhausted state is terminal.
	bar, err = parser.ParseNext()
	suite.NoError(err)
	suite.True(bar.IsNone())
}

func (suite *CSVParserTestSuite) TestEmptySourceIsCleanExhaustion() {
	parser := suite.newParser(DefaultConfig(), nil)

	bar, err := parser.ParseNext()
	suite.NoError(err)
	suite.True(bar.IsNone())
}

func (suite *CSVParserTestSuite) TestNullVolumeDefaultsToZero() {
	// Volume is the only column whose null does not discard the line. The
	// null marker in the volume column still triggers the line-level skip,
	// so this covers the non-numeric-token case instead.
	parser := suite.newParser(DefaultConfig(), [][]string{
		{"2020-01-02", "100", "105", "95", "102", "102", "n/a"},
	})

	bar, err := parser.ParseNext()
	suite.NoError(err)
	suite.Require().True(bar.IsSome())
	suite.Equal(0.0, bar.Unwrap().Volume)
}

func (suite *CSVParserTestSuite) TestZeroAdjustedCloseIsDataError() {
	parser := suite.newParser(DefaultConfig(), [][]string{
		{"2020-01-02", "100", "105", "95", "102", "0", "1000000"},
	})

	bar, err := parser.ParseNext()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeZeroAdjustedClose))
	suite.True(errors.IsDataError(err))
	suite.True(bar.IsNone())
}

func (suite *CSVParserTestSuite) TestMalformedDateIsDataError() {
	parser := suite.newParser(DefaultConfig(), [][]string{
		{"02/01/2020", "100", "105", "95", "102", "102", "1000000"},
	})

	_, err := parser.ParseNext()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMalformedDate))
}

func (suite *CSVParserTestSuite) TestShortLineIsDataError() {
	parser := suite.newParser(DefaultConfig(), [][]string{
		{"2020-01-02", "100", "105"},
	})

	_, err := parser.ParseNext()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMalformedLine))
}

func (suite *CSVParserTestSuite) TestDataErrorDoesNotPoisonStream() {
	parser := suite.newParser(DefaultConfig(), [][]string{
		{"2020-01-02", "100", "105", "95", "102", "0", "1000000"},
		{"2020-01-03", "101", "106", "96", "103", "103", "1100000"},
	})

	_, err := parser.ParseNext()
	suite.Error(err)

	// The next call advances the line source past the rejected line.
	bar, err := parser.ParseNext()
	suite.NoError(err)
	suite.Require().True(bar.IsSome())
	suite.Equal(103.0, bar.Unwrap().Close)
}

func (suite *CSVParserTestSuite) TestRounding() {
	cfg := DefaultConfig()
	cfg.Decimals = 1
	parser := suite.newParser(cfg, [][]string{
		{"2020-01-02", "100", "105", "95", "102", "68", "1000000"},
	})

	bar, err := parser.ParseNext()
	suite.NoError(err)
	suite.Require().True(bar.IsSome())

	// 100 / (102/68) = 66.666...
	suite.Equal(66.7, bar.Unwrap().Open)
}

func (suite *CSVParserTestSuite) TestVolumeRoundedIntegralByDefault() {
	parser := suite.newParser(DefaultConfig(), [][]string{
		{"2020-01-02", "100", "105", "95", "102", "68", "1000001"},
	})

	bar, err := parser.ParseNext()
	suite.NoError(err)
	suite.Require().True(bar.IsSome())

	got := bar.Unwrap().Volume
	suite.Equal(got, float64(int64(got)))
}

func (suite *CSVParserTestSuite) TestSessionEnd() {
	cfg := DefaultConfig()
	cfg.SessionEnd = "16:00:00"
	parser := suite.newParser(cfg, [][]string{
		{"2020-01-02", "100", "105", "95", "102", "102", "1000000"},
	})

	bar, err := parser.ParseNext()
	suite.NoError(err)
	suite.Require().True(bar.IsSome())
	suite.Equal(time.Date(2020, 1, 2, 16, 0, 0, 0, time.UTC), bar.Unwrap().Time)
}

func (suite *CSVParserTestSuite) TestParseAll() {
	parser := suite.newParser(DefaultConfig(), [][]string{
		{"2020-01-02", "100", "105", "95", "102", "102", "1000000"},
		{"2020-01-03", "null", "106", "96", "103", "103", "1100000"},
		{"2020-01-06", "102", "107", "97", "104", "104", "1200000"},
	})

	series, err := parser.ParseAll("AAPL", types.TimeframeOneDay)
	suite.NoError(err)
	suite.Equal(2, series.Len())
	suite.Equal("AAPL", series.Symbol)
	suite.Equal(types.TimeframeOneDay, series.Timeframe)
	suite.Equal(102.0, series.At(0).Close)
	suite.Equal(104.0, series.At(1).Close)
}

func (suite *CSVParserTestSuite) TestParseAllRejectsUnorderedInput() {
	parser := suite.newParser(DefaultConfig(), [][]string{
		{"2020-01-03", "101", "106", "96", "103", "103", "1100000"},
		{"2020-01-02", "100", "105", "95", "102", "102", "1000000"},
	})

	_, err := parser.ParseAll("AAPL", types.TimeframeOneDay)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNonIncreasingTime))
}

func (suite *CSVParserTestSuite) TestNewCSVParserRejectsInvalidConfig() {
	cfg := DefaultConfig()
	cfg.Decimals = 99

	_, err := NewCSVParser(cfg, NewSliceLineSource(nil), nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}
