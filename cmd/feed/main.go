package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/barfeed/internal/logger"
	"github.com/rxtech-lab/barfeed/internal/types"
	"github.com/rxtech-lab/barfeed/internal/version"
	"github.com/rxtech-lab/barfeed/pkg/feed"
	"github.com/rxtech-lab/barfeed/pkg/feed/provider"
	"github.com/rxtech-lab/barfeed/pkg/utils"
)

func main() {
	cmd := &cli.Command{
		Name:    "barfeed",
		Usage:   "Normalize Yahoo-format OHLCV data into adjusted bar series",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML feed config file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable structured logging",
			},
		},
		Commands: []*cli.Command{
			csvCommand(),
			fetchCommand(),
			previewCommand(),
			schemaCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// feedLogger returns a real logger only when --verbose is set, keeping the
// normalized output stream clean otherwise.
func feedLogger(cmd *cli.Command) (*logger.Logger, error) {
	if cmd.Bool("verbose") {
		return logger.NewLogger()
	}

	return logger.NewNopLogger(), nil
}

// feedConfig merges the optional config file with per-command flag overrides.
func feedConfig(cmd *cli.Command) (feed.Config, error) {
	cfg := feed.DefaultConfig()

	if path := cmd.String("config"); path != "" {
		loaded, err := feed.LoadConfig(path)
		if err != nil {
			return feed.Config{}, err
		}

		cfg = loaded
	}

	if cmd.IsSet("reverse") {
		cfg.Reverse = cmd.Bool("reverse")
	}

	if cmd.IsSet("swapcloses") {
		cfg.SwapCloses = cmd.Bool("swapcloses")
	}

	return cfg, nil
}

func csvCommand() *cli.Command {
	return &cli.Command{
		Name:  "csv",
		Usage: "Normalize a local Yahoo CSV export",
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
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output path for the normalized bars",
				Value:   "normalized.csv",
			},
		},
		Action: csvAction,
	}
}

func csvAction(ctx context.Context, cmd *cli.Command) error {
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

	return writeSeries(series, cmd.String("out"))
}

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Download and normalize bars from the chart API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Ticker to download",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:  "start",
				Usage: "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:  "end",
				Usage: "End date in `YYYY-MM-DD` format. Defaults to today.",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:  "timeframe",
				Usage: "Chart API interval",
				Value: string(types.TimeframeOneDay),
			},
			&cli.StringFlag{
				Name:  "proxy",
				Usage: "Proxy URL to route the download through",
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "Transport-level retries per request",
				Value: 3,
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output path for the normalized bars",
				Value:   "normalized.csv",
			},
		},
		Action: fetchAction,
	}
}

func fetchAction(ctx context.Context, cmd *cli.Command) error {
	feedLog, err := feedLogger(cmd)
	if err != nil {
		return err
	}
	defer feedLog.Sync() //nolint:errcheck

	client := provider.NewYahooClient(provider.YahooConfig{
		Proxy:      cmd.String("proxy"),
		RetryCount: int(cmd.Int("retries")),
	}, feedLog)

	source, err := feed.NewBarSource(feed.SourceChart, feed.ChartSourceConfig{
		Fetcher:   client,
		Timeframe: types.Timeframe(cmd.String("timeframe")),
	}, feedLog)
	if err != nil {
		return err
	}

	start := optional.None[time.Time]()
	if cmd.IsSet("start") {
		start = optional.Some(cmd.Timestamp("start"))
	}

	end := optional.None[time.Time]()
	if cmd.IsSet("end") {
		end = optional.Some(cmd.Timestamp("end"))
	}

	series, err := source.Fetch(ctx, cmd.String("symbol"), start, end)
	if err != nil {
		return err
	}

	return writeSeries(series, cmd.String("out"))
}

// writeSeries drains a cursor over the series into a CSV file in the
// canonical record layout.
func writeSeries(series *types.BarSeries, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	writer := csv.NewWriter(out)

	header := []string{
		types.LineDatetime, types.LineOpen, types.LineHigh, types.LineLow,
		types.LineClose, types.LineVolume, types.LineOpenInterest,
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bar := progressbar.NewOptions(series.Len(),
		progressbar.OptionSetDescription(fmt.Sprintf("Writing %s", series.Symbol)),
		progressbar.OptionShowCount())

	cursor := feed.NewCursor(series)
	for cursor.Advance() {
		lines := cursor.Current()

		row := make([]string, 0, len(header))
		for _, key := range header {
			row = append(row, strconv.FormatFloat(lines[key], 'f', -1, 64))
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}

		bar.Add(1) //nolint:errcheck
	}

	bar.Finish() //nolint:errcheck
	writer.Flush()

	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	log.Printf("Wrote %d bars for %s to %s.", series.Len(), series.Symbol, outPath)

	return nil
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the feed configuration",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			schema, err := utils.GetSchemaFromConfig(feed.Config{})
			if err != nil {
				return err
			}

			fmt.Println(schema)

			return nil
		},
	}
}
