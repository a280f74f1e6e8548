package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/quantsweep/internal/config"
	"github.com/sawpanic/quantsweep/internal/orchestrator"
	"github.com/sawpanic/quantsweep/internal/signals"
	"github.com/sawpanic/quantsweep/internal/sweep"
)

func newSweepCmd(configPath *string) *cobra.Command {
	var prices []string
	var tag string
	var side string
	var out string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Backtest a StrategyKind across the configured fast/slow/signal grid",
		Long:  "Runs one Backtester invocation per valid grid combination, per ticker, and writes the resulting rows to a JSON file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(*configPath, prices, tag, side, out)
		},
	}

	cmd.Flags().StringArrayVar(&prices, "prices", nil, "TICKER=path/to/bars.csv, repeatable")
	cmd.Flags().StringVar(&tag, "tag", "SmaCross", "strategy family: SmaCross|EmaCross|Macd")
	cmd.Flags().StringVar(&side, "side", "Long", "Long|Short")
	cmd.Flags().StringVar(&out, "out", "out/sweep/rows.json", "output path for the sweep's PortfolioRow rows")

	return cmd
}

func runSweep(configPath string, prices []string, tagFlag, sideFlag, out string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	tickers := make([]orchestrator.SweepTicker, 0, len(prices))
	for _, spec := range prices {
		parts := strings.SplitN(spec, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("--prices entry %q must be TICKER=path", spec)
		}
		frame, err := loadBarsCSV(parts[1], parts[0], cfg.ParseTimeframe())
		if err != nil {
			return fmt.Errorf("load prices for %s: %w", parts[0], err)
		}
		tickers = append(tickers, orchestrator.SweepTicker{Ticker: parts[0], Frame: frame})
	}
	if len(tickers) == 0 {
		return fmt.Errorf("at least one --prices TICKER=path entry is required")
	}

	grid := sweep.Grid{
		FastMin: cfg.Grid.FastMin, FastMax: cfg.Grid.FastMax,
		SlowMin: cfg.Grid.SlowMin, SlowMax: cfg.Grid.SlowMax,
		SignalMin: cfg.Grid.SignalMin, SignalMax: cfg.Grid.SignalMax,
		Step: cfg.Grid.Step,
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeBudget(cfg))
	defer cancel()

	sweepCfg := sweep.Config{MaxWorkers: cfg.Parallelism}
	if cfg.Rsi != nil {
		sweepCfg.Rsi = &sweep.RsiFilter{Window: cfg.Rsi.Window, Threshold: cfg.Rsi.Threshold}
	}

	o := orchestrator.New(log.Logger, metricsRegistry)
	manifest := o.RunSweep(ctx, tickers, signals.Tag(tagFlag), signals.Side(sideFlag), grid, sweepCfg, cfg.Parallelism)

	log.Info().
		Str("run_id", manifest.RunID).
		Int("rows", len(manifest.Rows)).
		Bool("partial", manifest.Partial).
		Bool("cancelled", manifest.Cancelled).
		Msg("sweep completed")

	return writeJSON(out, manifest.Rows)
}

func timeBudget(cfg config.Config) time.Duration {
	if cfg.TimeBudgetSecs != nil {
		return time.Duration(*cfg.TimeBudgetSecs) * time.Second
	}
	return 30 * time.Minute
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func dirOf(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "."
	}
	return path[:idx]
}
