package main

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/quantsweep/internal/config"
	"github.com/sawpanic/quantsweep/internal/logging"
	"github.com/sawpanic/quantsweep/internal/metrics"
)

const version = "v0.1.0"

// metricsRegistry is shared by every subcommand's run function; built once
// in the root command's PersistentPreRun, before any subcommand runs.
var metricsRegistry *metrics.Registry

func main() {
	var configPath string
	var debug bool
	var metricsAddr string

	rootCmd := &cobra.Command{
		Use:     "quantsweep",
		Short:   "Grid-sweep a StrategyKind family, pick the best performers, and analyze concurrent-strategy risk.",
		Version: version,
		Long: `quantsweep backtests a parameterized trading strategy across a grid of
fast/slow/signal windows, filters and scores the results, and analyzes
the risk of running several strategies concurrently.

PriceLoader and PortfolioSource are opaque collaborators here: this CLI
reads already-fetched OHLC bars from local CSV files and never dials a
market-data feed or a database.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = logging.Init(debug)

			reg := prometheus.NewRegistry()
			metricsRegistry = metrics.NewRegistry(reg)
			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
				go func() {
					if err := http.ListenAndServe(metricsAddr, mux); err != nil {
						log.Error().Err(err).Msg("metrics server failed")
					}
				}()
				log.Info().Str("addr", metricsAddr).Msg("serving /metrics")
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults applied if omitted)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug-level logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus /metrics on this address (e.g. :9090)")

	rootCmd.AddCommand(newSweepCmd(&configPath))
	rootCmd.AddCommand(newBestCmd(&configPath))
	rootCmd.AddCommand(newConcurrencyCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
