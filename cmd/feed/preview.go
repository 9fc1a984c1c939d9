package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/barfeed/internal/types"
	"github.com/rxtech-lab/barfeed/pkg/feed"
)

// Style definitions.
var (
	// TitleStyle for the preview header.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)
)

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Browse a normalized Yahoo CSV export in a table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the Yahoo CSV export",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Instrument symbol tag for the series",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "timeframe",
				Usage: "Timeframe tag of the bars",
				Value: string(types.TimeframeOneDay),
			},
			&cli.BoolFlag{
				Name:  "reverse",
				Usage: "Input arrives newest-first and must be reversed",
			},
			&cli.BoolFlag{
				Name:  "swapcloses",
				Usage: "Exchange the close and adjusted-close columns",
			},
		},
		Action: previewAction,
	}
}

func previewAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := feedConfig(cmd)
	if err != nil {
		return err
	}

	feedLog, err := feedLogger(cmd)
	if err != nil {
		return err
	}
	defer feedLog.Sync() //nolint:errcheck

	source, err := feed.NewBarSource(feed.SourceCSV, feed.CSVSourceConfig{
		Path:      cmd.String("file"),
		Timeframe: types.Timeframe(cmd.String("timeframe")),
		Feed:      cfg,
	}, feedLog)
	if err != nil {
		return err
	}

	series, err := source.Fetch(ctx, cmd.String("symbol"),
		optional.None[time.Time](), optional.None[time.Time]())
	if err != nil {
		return err
	}

	_, err = tea.NewProgram(newPreviewModel(series), tea.WithAltScreen()).Run()

	return err
}

// previewModel is the Bubble Tea model of the bar-series preview table.
type previewModel struct {
	table  table.Model
	symbol string
	count  int
}

func newPreviewModel(series *types.BarSeries) previewModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Open", Width: 12},
		{Title: "High", Width: 12},
		{Title: "Low", Width: 12},
		{Title: "Close", Width: 12},
		{Title: "Volume", Width: 16},
	}

	rows := make([]table.Row, 0, series.Len())

	cursor := feed.NewCursor(series)
	for cursor.Advance() {
		lines := cursor.Current()
		date := time.Unix(int64(lines[types.LineDatetime]), 0).UTC()

		rows = append(rows, table.Row{
			date.Format("2006-01-02"),
			fmt.Sprintf("%.2f", lines[types.LineOpen]),
			fmt.Sprintf("%.2f", lines[types.LineHigh]),
			fmt.Sprintf("%.2f", lines[types.LineLow]),
			fmt.Sprintf("%.2f", lines[types.LineClose]),
			fmt.Sprintf("%.0f", lines[types.LineVolume]),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return previewModel{
		table:  t,
		symbol: series.Symbol,
		count:  series.Len(),
	}
}

func (m previewModel) Init() tea.Cmd {
	return nil
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 4)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m previewModel) View() string {
	title := TitleStyle.Render(fmt.Sprintf("%s — %d bars", m.symbol, m.count))
	help := HelpStyle.Render("↑/↓: scroll • q: quit")

	return title + "\n" + m.table.View() + "\n" + help + "\n"
}
