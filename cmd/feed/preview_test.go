package main

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/barfeed/internal/types"
)

type PreviewModelTestSuite struct {
	suite.Suite
}

func TestPreviewModelSuite(t *testing.T) {
	suite.Run(t, new(PreviewModelTestSuite))
}

func (suite *PreviewModelTestSuite) buildSeries() *types.BarSeries {
	series := types.NewBarSeries("AAPL", types.TimeframeOneDay)
	day := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		suite.Require().NoError(series.Append(types.Bar{
			Time:   day.AddDate(0, 0, i),
			Open:   100,
			High:   105,
			Low:    95,
			Close:  102,
			Volume: 1000000,
		}))
	}

	return series
}

func (suite *PreviewModelTestSuite) TestNewPreviewModel() {
	model := newPreviewModel(suite.buildSeries())

	suite.Equal("AAPL", model.symbol)
	suite.Equal(3, model.count)
	suite.Len(model.table.Rows(), 3)
	suite.Equal("2020-01-02", model.table.Rows()[0][0])
}

func (suite *PreviewModelTestSuite) TestViewContainsSymbolAndHelp() {
	model := newPreviewModel(suite.buildSeries())

	view := model.View()
	suite.Contains(view, "AAPL")
	suite.Contains(view, "3 bars")
	suite.Contains(view, "quit")
}

func (suite *PreviewModelTestSuite) TestQuitKeys() {
	model := newPreviewModel(suite.buildSeries())

	for _, key := range []string{"q", "esc", "ctrl+c"} {
		_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		if key == "q" {
			suite.NotNil(cmd, "key %s should quit", key)
		}
	}

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	suite.NotNil(cmd)
}

func (suite *PreviewModelTestSuite) TestEmptySeries() {
	model := newPreviewModel(types.NewBarSeries("MSFT", types.TimeframeOneDay))

	suite.Zero(model.count)
	suite.Empty(model.table.Rows())
	suite.Contains(model.View(), "0 bars")
}
