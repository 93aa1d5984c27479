// Package config loads the modulator configuration from YAML and maps it
// onto the pipeline's configuration surface.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jeongseonghan/qam-modulator/internal/modem"
)

// Config is the YAML-facing configuration. Zero values fall back to the
// reference transmitter defaults in Default.
type Config struct {
	BitsPerSymbol    int     `yaml:"bits_per_symbol"`
	SamplesPerSymbol int     `yaml:"samples_per_symbol"`
	RollOff          float64 `yaml:"roll_off"`
	FilterSpan       int     `yaml:"filter_span"`
	Differential     *bool   `yaml:"differential"`
	BitOrder         string  `yaml:"bit_order"`     // "lsb" or "msb"
	PartialGroup     string  `yaml:"partial_group"` // "drop" or "pad"
	SymbolRate       float64 `yaml:"symbol_rate"`
}

// Default mirrors the reference 16-QAM transmitter: differential 16-QAM,
// LSB-first grouping, 2 samples per symbol, 0.35 roll-off.
func Default() Config {
	diff := true
	return Config{
		BitsPerSymbol:    4,
		SamplesPerSymbol: 2,
		RollOff:          0.35,
		FilterSpan:       11,
		Differential:     &diff,
		BitOrder:         "lsb",
		PartialGroup:     "drop",
		SymbolRate:       250000,
	}
}

// Load reads a YAML config file. Fields left unset keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Pipeline converts to the modem configuration, validating the string
// fields. Numeric range checks happen inside the pipeline constructors.
func (c Config) Pipeline() (modem.Config, error) {
	out := modem.Config{
		BitsPerSymbol:    c.BitsPerSymbol,
		SamplesPerSymbol: c.SamplesPerSymbol,
		RollOff:          c.RollOff,
		FilterSpan:       c.FilterSpan,
		SymbolRate:       c.SymbolRate,
	}
	if c.Differential != nil {
		out.Differential = *c.Differential
	}

	switch c.BitOrder {
	case "", "lsb":
		out.BitOrder = modem.LSBFirst
	case "msb":
		out.BitOrder = modem.MSBFirst
	default:
		return out, fmt.Errorf("%w: bit_order %q (want \"lsb\" or \"msb\")", modem.ErrConfig, c.BitOrder)
	}

	switch c.PartialGroup {
	case "", "drop":
		out.PartialGroup = modem.DropPartial
	case "pad":
		out.PartialGroup = modem.PadPartial
	default:
		return out, fmt.Errorf("%w: partial_group %q (want \"drop\" or \"pad\")", modem.ErrConfig, c.PartialGroup)
	}

	return out, nil
}
