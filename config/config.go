// Package config loads and validates the engine configuration from a yaml
// or json file with FB_ environment overrides. Defaults describe the
// reference 50 MWh / 10 MW plant, so an empty file is a runnable setup.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/vanadyn/flowbid/core/bidding"
	"github.com/vanadyn/flowbid/core/metrics"
	"github.com/vanadyn/flowbid/core/model"
)

type Config struct {
	Station    StationConfig           `json:"station"`
	Battery    model.BatteryParameters `json:"battery"`
	DayAhead   DayAheadConfig          `json:"dayahead"`
	ModeSelect bidding.SelectorConfig  `json:"mode_select"`
	Frequency  FrequencyConfig         `json:"frequency"`
	Forecast   ForecastConfig          `json:"forecast"`
	Metrics    metrics.Config          `json:"metrics"`
	Store      StoreConfig             `json:"store"`
	Logging    LoggingConfig           `json:"logging"`
	Schedule   ScheduleConfig          `json:"schedule"`
}

// Default returns the runnable reference configuration. Load starts from it
// so a config file only has to name what it changes.
func Default() Config {
	cfg := Config{
		Battery:    model.DefaultBatteryParameters(),
		ModeSelect: bidding.DefaultSelectorConfig(),
	}
	cfg.Station.SetDefaults()
	cfg.DayAhead.SetDefaults()
	cfg.Frequency.SetDefaults()
	cfg.Forecast.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Schedule.SetDefaults()
	return cfg
}

// Load reads the file at path over the defaults, applies FB_ environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. FB_STORE__PATH.
	if err := k.Load(env.Provider("FB_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fb_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Battery.Validate(); err != nil {
		return err
	}
	if err := c.DayAhead.Validate(); err != nil {
		return err
	}
	if err := c.Forecast.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return c.Schedule.Validate()
}
