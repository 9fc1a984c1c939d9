package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BarTestSuite struct {
	suite.Suite
}

func TestBarSuite(t *testing.T) {
	suite.Run(t, new(BarTestSuite))
}

func (suite *BarTestSuite) TestBarValueEquality() {
	ts := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	a := Bar{Time: ts, Open: 100, High: 105, Low: 95, Close: 102, Volume: 1000000}
	b := Bar{Time: ts, Open: 100, High: 105, Low: 95, Close: 102, Volume: 1000000}

	suite.Equal(a, b)
	suite.Zero(a.OpenInterest)
}

func (suite *BarTestSuite) TestBarLines() {
	ts := time.Date(2020, 1, 2, 16, 0, 0, 0, time.UTC)
	bar := Bar{Time: ts, Open: 100, High: 105, Low: 95, Close: 102, Volume: 1000000}

	lines := bar.Lines()
	suite.Len(lines, 7)
	suite.Equal(TimeToNum(ts), lines[LineDatetime])
	suite.Equal(100.0, lines[LineOpen])
	suite.Equal(105.0, lines[LineHigh])
	suite.Equal(95.0, lines[LineLow])
	suite.Equal(102.0, lines[LineClose])
	suite.Equal(1000000.0, lines[LineVolume])
	suite.Equal(0.0, lines[LineOpenInterest])
}

func (suite *BarTestSuite) TestTimeToNum() {
	epoch := time.Unix(0, 0)
	suite.Equal(0.0, TimeToNum(epoch))

	half := time.Unix(10, 500000000)
	suite.InDelta(10.5, TimeToNum(half), 1e-9)
}

type BarSeriesTestSuite struct {
	suite.Suite
}

func TestBarSeriesSuite(t *testing.T) {
	suite.Run(t, new(BarSeriesTestSuite))
}

func (suite *BarSeriesTestSuite) TestNewBarSeries() {
	series := NewBarSeries("AAPL", TimeframeOneDay)
	suite.Equal("AAPL", series.Symbol)
	suite.Equal(TimeframeOneDay, series.Timeframe)
	suite.NotEmpty(series.ID)
	suite.Zero(series.Len())
}

func (suite *BarSeriesTestSuite) TestAppendKeepsOrder() {
	series := NewBarSeries("AAPL", TimeframeOneDay)
	day1 := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC)

	suite.NoError(series.Append(Bar{Time: day1, Close: 100}))
	suite.NoError(series.Append(Bar{Time: day2, Close: 101}))
	suite.Equal(2, series.Len())
	suite.Equal(100.0, series.At(0).Close)
	suite.Equal(101.0, series.At(1).Close)
}

func (suite *BarSeriesTestSuite) TestAppendRejectsNonIncreasingTime() {
	series := NewBarSeries("AAPL", TimeframeOneDay)
	day := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)

	suite.NoError(series.Append(Bar{Time: day, Close: 100}))

	err := series.Append(Bar{Time: day, Close: 101})
	suite.Error(err)

	err = series.Append(Bar{Time: day.AddDate(0, 0, -1), Close: 99})
	suite.Error(err)

	suite.Equal(1, series.Len())
}

func (suite *BarSeriesTestSuite) TestBarsReturnsCopy() {
	series := NewBarSeries("AAPL", TimeframeOneDay)
	day := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	suite.NoError(series.Append(Bar{Time: day, Close: 100}))

	bars := series.Bars()
	bars[0].Close = 999

	suite.Equal(100.0, series.At(0).Close)
}

func (suite *BarSeriesTestSuite) TestEmptySeriesIsValid() {
	series := NewBarSeries("MSFT", TimeframeOneDay)
	suite.Zero(series.Len())
	suite.Empty(series.Bars())
}

type TimeframeTestSuite struct {
	suite.Suite
}

func TestTimeframeSuite(t *testing.T) {
	suite.Run(t, new(TimeframeTestSuite))
}

func (suite *TimeframeTestSuite) TestValidate() {
	suite.NoError(TimeframeOneDay.Validate())
	suite.NoError(TimeframeOneWeek.Validate())
	suite.NoError(TimeframeOneMonth.Validate())

	suite.Error(Timeframe("2y").Validate())
	suite.Error(Timeframe("").Validate())
}

func (suite *TimeframeTestSuite) TestString() {
	suite.Equal("1d", TimeframeOneDay.String())
	suite.Equal("1wk", TimeframeOneWeek.String())
}
