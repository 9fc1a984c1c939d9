package feed

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/barfeed/internal/version"
	"github.com/rxtech-lab/barfeed/pkg/errors"
)

// Config holds the normalization options for the Yahoo-format paths.
type Config struct {
	// Reverse indicates the raw CSV arrives newest-first and must be
	// reversed before parsing. Applied by the line source, not the parser.
	Reverse bool `yaml:"reverse" json:"reverse"`
	// AdjClose enables dividend/split adjusted-close reconciliation.
	AdjClose bool `yaml:"adjclose" json:"adjclose"`
	// AdjVolume propagates the adjustment factor to volume. Only effective
	// when AdjClose is also enabled.
	AdjVolume bool `yaml:"adjvolume" json:"adjvolume"`
	// Round enables rounding of open/high/low/close after adjustment.
	Round bool `yaml:"round" json:"round"`
	// Decimals is the price rounding precision.
	Decimals int `yaml:"decimals" json:"decimals" validate:"min=0,max=12"`
	// RoundVolume is the volume rounding precision. Zero keeps volume integral.
	RoundVolume int `yaml:"roundvolume" json:"roundvolume" validate:"min=0,max=12"`
	// SwapCloses exchanges the close and adjusted-close columns. Retained in
	// case the upstream column order changes again.
	SwapCloses bool `yaml:"swapcloses" json:"swapcloses"`
	// SessionEnd is the time of day ("HH:MM:SS") combined with the CSV date
	// column to produce the bar timestamp.
	SessionEnd string `yaml:"sessionend" json:"sessionend" validate:"omitempty,datetime=15:04:05"`
}

// DefaultConfig returns the config with the stock Yahoo-feed defaults.
func DefaultConfig() Config {
	return Config{
		Reverse:     false,
		AdjClose:    true,
		AdjVolume:   true,
		Round:       true,
		Decimals:    2,
		RoundVolume: 0,
		SwapCloses:  false,
		SessionEnd:  "00:00:00",
	}
}

// Validate checks the configuration against its constraints.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid feed configuration", err)
	}

	return nil
}

// sessionEnd parses the configured session-end time of day into an offset
// from midnight. An empty value means midnight.
func (c Config) sessionEnd() (time.Duration, error) {
	if c.SessionEnd == "" {
		return 0, nil
	}

	t, err := time.Parse("15:04:05", c.SessionEnd)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err,
			"invalid session end %q", c.SessionEnd)
	}

	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// fileConfig is the on-disk YAML shape of a feed configuration.
type fileConfig struct {
	// Version optionally pins the library version the config was written for.
	Version string `yaml:"version"`
	Feed    Config `yaml:"feed"`
}

// LoadConfig reads a YAML config file, applies it on top of the defaults, and
// validates the result. A version field in the file is checked against the
// library version.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	fc := fileConfig{Version: "", Feed: DefaultConfig()}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config file", err)
	}

	if fc.Version != "" {
		if err := version.CheckVersionCompatibility(version.GetVersion(), fc.Version); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidVersion, "config version check failed", err)
		}
	}

	if err := fc.Feed.Validate(); err != nil {
		return Config{}, err
	}

	return fc.Feed, nil
}
