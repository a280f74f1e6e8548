package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sawpanic/quantsweep/internal/align"
	"github.com/sawpanic/quantsweep/internal/priceframe"
	"github.com/sawpanic/quantsweep/internal/risk"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()

	if cfg.ParseTimeframe() != priceframe.Daily {
		t.Fatalf("expected Daily default timeframe, got %v", cfg.ParseTimeframe())
	}
	if cfg.Side != "Long" {
		t.Fatalf("expected Long default side, got %v", cfg.Side)
	}
	if cfg.ParseAlignPolicy() != align.Intersection {
		t.Fatalf("expected Intersection default align policy")
	}
	if cfg.ParseAllocationMethod() != risk.EqualWeight {
		t.Fatalf("expected EqualWeight default allocation method")
	}
	if cfg.Grid.Step != 1 {
		t.Fatalf("expected default grid step 1, got %d", cfg.Grid.Step)
	}
	if len(cfg.TargetMetrics) != 6 {
		t.Fatalf("expected 6 default target metrics, got %d", len(cfg.TargetMetrics))
	}
}

func TestLoadOverridesDefaultsFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
timeframe: hourly
side: Short
allocation_method: RiskParity
align_policy: UnionForwardFill
grid:
  fast_min: 2
  fast_max: 10
  slow_min: 5
  slow_max: 20
  step: 2
rsi:
  window: 14
  threshold: 70
time_budget_secs: 120
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.ParseTimeframe() != priceframe.Hourly {
		t.Fatalf("expected Hourly timeframe override")
	}
	if cfg.Side != "Short" {
		t.Fatalf("expected Short side override, got %v", cfg.Side)
	}
	if cfg.ParseAllocationMethod() != risk.RiskParity {
		t.Fatalf("expected RiskParity override")
	}
	if cfg.ParseAlignPolicy() != align.UnionForwardFill {
		t.Fatalf("expected UnionForwardFill override")
	}
	if cfg.Grid.Step != 2 {
		t.Fatalf("expected grid step override 2, got %d", cfg.Grid.Step)
	}
	if cfg.Rsi == nil || cfg.Rsi.Window != 14 || cfg.Rsi.Threshold != 70 {
		t.Fatalf("expected Rsi filter override, got %+v", cfg.Rsi)
	}
	if cfg.TimeBudgetSecs == nil || *cfg.TimeBudgetSecs != 120 {
		t.Fatalf("expected time budget override 120")
	}
	// target_metrics was not present in the YAML, so Default()'s list survives.
	if len(cfg.TargetMetrics) != 6 {
		t.Fatalf("expected default target metrics to survive an absent override, got %d", len(cfg.TargetMetrics))
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}

func TestLoadUnknownAllocationMethodFallsBackToEqualWeight(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("allocation_method: NotARealMethod\n"), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}
	if cfg.ParseAllocationMethod() != risk.EqualWeight {
		t.Fatalf("expected unknown allocation method to fall back to EqualWeight")
	}
}
