package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/quantsweep/internal/orchestrator"
	"github.com/sawpanic/quantsweep/internal/portfolio"
)

func newBestCmd(configPath *string) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "best",
		Short: "Gate, score and aggregate a prior sweep's rows into the best performers",
		Long:  "Applies the configured minimum-criteria gate, scores each ticker+strategy family, and runs BestAggregator over the Most/Least/Mean/Median candidates.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBest(*configPath, in, out)
		},
	}

	cmd.Flags().StringVar(&in, "in", "out/sweep/rows.json", "input path written by the sweep command")
	cmd.Flags().StringVar(&out, "out", "out/best/rows.json", "output path for the aggregated rows")

	return cmd
}

func runBest(configPath, in, out string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}
	var rows []portfolio.PortfolioRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("parse %s: %w", in, err)
	}

	mc := portfolio.MinimumCriteria{
		Trades: cfg.MinCriteria.Trades, WinRate: cfg.MinCriteria.WinRate,
		ProfitFactor: cfg.MinCriteria.ProfitFactor, Sortino: cfg.MinCriteria.Sortino,
		ExpectancyPerTrade: cfg.MinCriteria.ExpectancyPerTrade, BeatsBnH: cfg.MinCriteria.BeatsBnH,
	}

	o := orchestrator.New(log.Logger, metricsRegistry)
	manifest := o.RunBest(rows, mc, resolveTargetMetrics(cfg.TargetMetrics))

	log.Info().
		Str("run_id", manifest.RunID).
		Int("rows", len(manifest.Rows)).
		Int("diagnostics", len(manifest.Diagnostics)).
		Msg("best aggregation completed")

	return writeJSON(out, manifest.Rows)
}

// resolveTargetMetrics maps the configured target_metrics names onto
// portfolio.DefaultMetrics' accessors; an unrecognized name is skipped
// with a warning rather than failing the run. An empty/nil names list
// falls back to the full default set.
func resolveTargetMetrics(names []string) []portfolio.MetricAccessor {
	if len(names) == 0 {
		return portfolio.DefaultMetrics
	}
	byName := make(map[string]portfolio.MetricAccessor, len(portfolio.DefaultMetrics))
	for _, acc := range portfolio.DefaultMetrics {
		byName[acc.Name] = acc
	}
	out := make([]portfolio.MetricAccessor, 0, len(names))
	for _, name := range names {
		acc, ok := byName[name]
		if !ok {
			log.Warn().Str("metric", name).Msg("unrecognized target metric, skipping")
			continue
		}
		out = append(out, acc)
	}
	return out
}
