// Package config loads the core's recognized option surface from YAML:
// timeframe, side, minimum-criteria thresholds, target metrics, the
// sweep grid, parallelism, alignment policy, allocation method, the
// optional RSI filter, and an optional wall-clock budget.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/quantsweep/internal/priceframe"
	"github.com/sawpanic/quantsweep/internal/risk"
	"github.com/sawpanic/quantsweep/internal/align"
)

// MinCriteria mirrors portfolio.MinimumCriteria in a YAML-friendly
// shape (pointer fields so an absent key stays unset).
type MinCriteria struct {
	Trades             *int     `yaml:"trades,omitempty"`
	WinRate            *float64 `yaml:"win_rate,omitempty"`
	ProfitFactor       *float64 `yaml:"profit_factor,omitempty"`
	Sortino            *float64 `yaml:"sortino,omitempty"`
	ExpectancyPerTrade *float64 `yaml:"expectancy_per_trade,omitempty"`
	BeatsBnH           *bool    `yaml:"beats_bnh,omitempty"`
}

// Grid mirrors sweep.Grid in a YAML-friendly shape.
type Grid struct {
	FastMin   int `yaml:"fast_min"`
	FastMax   int `yaml:"fast_max"`
	SlowMin   int `yaml:"slow_min"`
	SlowMax   int `yaml:"slow_max"`
	SignalMin int `yaml:"signal_min"`
	SignalMax int `yaml:"signal_max"`
	Step      int `yaml:"step"` // default 1
}

// Rsi optionally attaches an RSI confirmation filter.
type Rsi struct {
	Window    int     `yaml:"window"`
	Threshold float64 `yaml:"threshold"`
}

// Config is the full recognized option surface.
type Config struct {
	Timeframe        string       `yaml:"timeframe"` // "daily" | "hourly"
	Side             string       `yaml:"side"`       // "Long" | "Short"
	MinCriteria      MinCriteria  `yaml:"min_criteria"`
	TargetMetrics    []string     `yaml:"target_metrics"`
	Grid             Grid         `yaml:"grid"`
	Parallelism      int          `yaml:"parallelism"` // 0 = hardware threads
	AlignPolicy      string       `yaml:"align_policy"` // "Intersection" | "UnionForwardFill"
	AllocationMethod string       `yaml:"allocation_method"`
	Rsi              *Rsi         `yaml:"rsi,omitempty"`
	TimeBudgetSecs   *int         `yaml:"time_budget_secs,omitempty"`
}

// Default returns the spec's default configuration: Daily timeframe,
// Long side, Intersection alignment, EqualWeight allocation, grid step
// 1, and the six-metric default target list.
func Default() Config {
	return Config{
		Timeframe:        "daily",
		Side:             "Long",
		TargetMetrics:    []string{"Total Return", "Total Trades", "Avg Winning Trade", "Sharpe", "Omega", "Sortino"},
		Grid:             Grid{Step: 1},
		AlignPolicy:      "Intersection",
		AllocationMethod: "EqualWeight",
	}
}

// Load reads and parses a YAML config file on top of Default(): a key
// the file omits keeps its Default() value, and a key the file sets
// overrides it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// ParseTimeframe resolves the configured timeframe string.
func (c Config) ParseTimeframe() priceframe.Timeframe {
	if c.Timeframe == "hourly" {
		return priceframe.Hourly
	}
	return priceframe.Daily
}

// ParseAlignPolicy resolves the configured alignment policy string.
func (c Config) ParseAlignPolicy() align.Policy {
	if c.AlignPolicy == "UnionForwardFill" {
		return align.UnionForwardFill
	}
	return align.Intersection
}

// ParseAllocationMethod resolves the configured allocation method string.
func (c Config) ParseAllocationMethod() risk.AllocationMethod {
	switch c.AllocationMethod {
	case string(risk.InverseVolatility), string(risk.RiskParity), string(risk.RatioBased):
		return risk.AllocationMethod(c.AllocationMethod)
	default:
		return risk.EqualWeight
	}
}
