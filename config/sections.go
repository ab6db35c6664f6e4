package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/vanadyn/flowbid/core/frequency"
)

// StationConfig identifies the plant decisions are made for.
type StationConfig struct {
	Name           string `json:"name"`
	Location       string `json:"location"`
	CommissionDate string `json:"commission_date"`
}

func (c *StationConfig) SetDefaults() {
	if c.Name == "" {
		c.Name = "flowbid-station"
	}
}

// DayAheadConfig tunes the day-ahead solve.
type DayAheadConfig struct {
	// TimeoutSeconds bounds one solve. Zero leaves only the node budget.
	TimeoutSeconds int `json:"timeout_seconds"`
	// MaxNodes caps the branch and bound tree. Zero uses the solver default.
	MaxNodes int `json:"max_nodes"`
}

func (c *DayAheadConfig) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 60
	}
}

func (c DayAheadConfig) Validate() error {
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("dayahead: timeout_seconds must be nonnegative")
	}
	if c.MaxNodes < 0 {
		return fmt.Errorf("dayahead: max_nodes must be nonnegative")
	}
	return nil
}

// FrequencyConfig carries the regulation market and cost parameters. The
// hourly price vectors are filled per run from the forecasts.
type FrequencyConfig struct {
	Market frequency.MarketParams `json:"market"`
	Costs  frequency.CostParams   `json:"costs"`
}

func (c *FrequencyConfig) SetDefaults() {
	var zero frequency.MarketParams
	if c.Market == zero {
		c.Market = frequency.DefaultMarketParams()
	}
	if c.Costs == (frequency.CostParams{}) {
		c.Costs = frequency.DefaultCostParams()
	}
}

// ForecastConfig tunes the price inputs of a run.
type ForecastConfig struct {
	// PriceUpperLimit and PriceMinUnit are the mileage market's price cap
	// and tick size, yuan/MW.
	PriceUpperLimit float64 `json:"price_upper_limit"`
	PriceMinUnit    float64 `json:"price_min_unit"`
	// TrainingDays sizes the synthetic history the predictor self-trains
	// on when no real dataset is supplied.
	TrainingDays int `json:"training_days"`
	// DayAheadBasePrice scales the synthetic day-ahead curve, yuan/MWh.
	DayAheadBasePrice float64 `json:"dayahead_base_price"`
	// Seed fixes the synthetic data draws.
	Seed int64 `json:"seed"`
}

func (c *ForecastConfig) SetDefaults() {
	if c.PriceUpperLimit == 0 {
		c.PriceUpperLimit = 50
	}
	if c.PriceMinUnit == 0 {
		c.PriceMinUnit = 0.1
	}
	if c.TrainingDays == 0 {
		c.TrainingDays = 90
	}
	if c.DayAheadBasePrice == 0 {
		c.DayAheadBasePrice = 500
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
}

func (c ForecastConfig) Validate() error {
	if c.PriceUpperLimit <= 0 {
		return fmt.Errorf("forecast: price_upper_limit must be positive")
	}
	if c.PriceMinUnit < 0 {
		return fmt.Errorf("forecast: price_min_unit must be nonnegative")
	}
	if c.TrainingDays < 1 {
		return fmt.Errorf("forecast: training_days must be at least 1")
	}
	return nil
}

// StoreConfig selects the decision record store.
type StoreConfig struct {
	// Backend is "sqlite" or "none".
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "sqlite"
	}
	if c.Path == "" {
		c.Path = "flowbid.db"
	}
}

func (c StoreConfig) Validate() error {
	if c.Backend != "sqlite" && c.Backend != "none" {
		return fmt.Errorf("store: unknown backend %s", c.Backend)
	}
	if c.Backend == "sqlite" && c.Path == "" {
		return fmt.Errorf("store: path is required")
	}
	return nil
}

// LoggingConfig sets the global log level; the output format follows the
// APP_ENV environment variable.
type LoggingConfig struct {
	Level string `json:"level"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// Apply installs the configured global level.
func (c LoggingConfig) Apply() {
	lvl, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return
	}
	zerolog.SetGlobalLevel(lvl)
}

// ScheduleConfig drives the recurring decision run.
type ScheduleConfig struct {
	// Cron is a standard five-field cron expression.
	Cron string `json:"cron"`
}

func (c *ScheduleConfig) SetDefaults() {
	if c.Cron == "" {
		// Daily at 09:00, ahead of the noon gate closure.
		c.Cron = "0 9 * * *"
	}
}

func (c ScheduleConfig) Validate() error {
	if _, err := cron.ParseStandard(c.Cron); err != nil {
		return fmt.Errorf("schedule: invalid cron expression %q: %w", c.Cron, err)
	}
	return nil
}
