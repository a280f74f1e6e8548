package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/quantsweep/internal/align"
	"github.com/sawpanic/quantsweep/internal/orchestrator"
	"github.com/sawpanic/quantsweep/internal/validate"
)

func newConcurrencyCmd(configPath *string) *cobra.Command {
	var series []string
	var expectancy []float64
	var constituentDrawdowns []float64
	var constituentSharpes []float64
	var ratios []float64
	var out string
	var validationFatal bool

	cmd := &cobra.Command{
		Use:   "concurrency",
		Short: "Align strategy equity curves onto a shared calendar and analyze concurrent-run risk",
		Long:  "Runs ReturnAligner, the RiskEngine's covariance/allocation/drawdown pipeline, and the Validator over a chosen set of strategies' own equity curves.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConcurrency(*configPath, series, expectancy, constituentDrawdowns, constituentSharpes, ratios, out, validationFatal)
		},
	}

	cmd.Flags().StringArrayVar(&series, "series", nil, "ID=path/to/equity.csv (timestamp,value), repeatable, same order as --expectancy/--drawdown/--sharpe")
	cmd.Flags().Float64SliceVar(&expectancy, "expectancy", nil, "per-strategy expectancy_per_trade, decimal scale, same order as --series")
	cmd.Flags().Float64SliceVar(&constituentDrawdowns, "drawdown", nil, "per-strategy max drawdown (decimal), same order as --series")
	cmd.Flags().Float64SliceVar(&constituentSharpes, "sharpe", nil, "per-strategy Sharpe, same order as --series")
	cmd.Flags().Float64SliceVar(&ratios, "ratios", nil, "per-strategy target ratios, same order as --series; only consulted when allocation_method is RatioBased")
	cmd.Flags().StringVar(&out, "out", "out/concurrency/report.json", "output path for the risk report")
	cmd.Flags().BoolVar(&validationFatal, "validation-fatal", false, "fail the run instead of recording a diagnostic when the Validator finds a discrepancy")

	return cmd
}

func runConcurrency(configPath string, seriesFlags []string, expectancy, drawdowns, sharpes, ratios []float64, out string, validationFatal bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	streams := make([]align.Stream, 0, len(seriesFlags))
	for _, spec := range seriesFlags {
		parts := strings.SplitN(spec, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("--series entry %q must be ID=path", spec)
		}
		s, err := loadSeriesCSV(parts[1], parts[0])
		if err != nil {
			return fmt.Errorf("load series %s: %w", parts[0], err)
		}
		streams = append(streams, s)
	}
	if n := len(streams); n == 0 || n != len(expectancy) || n != len(drawdowns) || n != len(sharpes) {
		return fmt.Errorf("--series, --expectancy, --drawdown and --sharpe must all have the same non-zero length")
	}

	constituents := make([]validate.ConstituentFact, len(streams))
	for i := range streams {
		constituents[i] = validate.ConstituentFact{MaxDrawdown: drawdowns[i], Sharpe: sharpes[i]}
	}

	o := orchestrator.New(log.Logger, metricsRegistry)
	o.ValidationFatal = validationFatal

	in := orchestrator.ConcurrencyInput{
		Streams:      streams,
		AlignPolicy:  cfg.ParseAlignPolicy(),
		Expectancy:   expectancy,
		Method:       cfg.ParseAllocationMethod(),
		Ratios:       ratios,
		Constituents: constituents,
	}

	manifest, err := o.RunConcurrency(in)
	if err != nil {
		return fmt.Errorf("concurrency analysis failed: %w", err)
	}

	log.Info().
		Str("run_id", manifest.RunID).
		Str("validation", manifest.Validation).
		Msg("concurrency analysis completed")

	return writeJSON(out, manifest)
}
