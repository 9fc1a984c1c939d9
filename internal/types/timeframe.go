package types

import "github.com/rxtech-lab/barfeed/pkg/errors"

// Timeframe is the nominal sampling interval tag attached to a bar series.
// The values match the interval names understood by the chart API.
type Timeframe string

const (
	TimeframeOneMinute      Timeframe = "1m"
	TimeframeFiveMinutes    Timeframe = "5m"
	TimeframeFifteenMinutes Timeframe = "15m"
	TimeframeThirtyMinutes  Timeframe = "30m"
	TimeframeOneHour        Timeframe = "1h"
	TimeframeOneDay         Timeframe = "1d"
	TimeframeFiveDays       Timeframe = "5d"
	TimeframeOneWeek        Timeframe = "1wk"
	TimeframeOneMonth       Timeframe = "1mo"
	TimeframeThreeMonths    Timeframe = "3mo"
)

// Validate checks that the timeframe is one of the supported interval tags.
func (t Timeframe) Validate() error {
	switch t {
	case TimeframeOneMinute, TimeframeFiveMinutes, TimeframeFifteenMinutes,
		TimeframeThirtyMinutes, TimeframeOneHour, TimeframeOneDay,
		TimeframeFiveDays, TimeframeOneWeek, TimeframeOneMonth, TimeframeThreeMonths:
		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidTimeframe, "unsupported timeframe: %s", t)
	}
}

func (t Timeframe) String() string {
	return string(t)
}
