// Package orchestrator wires PriceLoader through IndicatorKit/SignalEngine/
// Backtester/SensitivitySweep/PortfolioFilter/BestAggregator for the Sweep
// and Best tasks, and through ReturnAligner/RiskEngine/Validator for the
// Concurrency task, owning the worker pool, the cancellation token, and
// the error taxonomy.
package orchestrator

import (
	"github.com/google/uuid"

	"github.com/sawpanic/quantsweep/internal/portfolio"
)

// Stage identifies which of the three Orchestrator tasks produced a
// Manifest.
type Stage string

const (
	StageSweep       Stage = "Sweep"
	StageBest        Stage = "Best"
	StageConcurrency Stage = "Concurrency"
)

// Diagnostic is a structured warning the orchestrator attaches to a
// manifest instead of failing the whole run.
type Diagnostic struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// AllocationEntry is one strategy's weight in a RiskReportView.
type AllocationEntry struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight"`
}

// ContributionEntry is one strategy's risk contribution in a RiskReportView.
type ContributionEntry struct {
	ID           string  `json:"id"`
	Contribution float64 `json:"contribution"`
}

// RiskReportView is the manifest's serializable risk_report field,
// present only for the Concurrency stage.
type RiskReportView struct {
	Covariance        [][]float64         `json:"covariance"`
	Volatility        float64             `json:"volatility"`
	MaxDrawdown       float64             `json:"max_drawdown"`
	Allocation        []AllocationEntry   `json:"allocation"`
	RiskContributions []ContributionEntry `json:"risk_contributions"`
	Method            string              `json:"method"`
	Diagnostics       []Diagnostic        `json:"diagnostics,omitempty"`
}

// Manifest is the orchestrator's output document, a stable serialized
// form. All fraction fields are decimals, never percentages.
type Manifest struct {
	RunID       string                   `json:"run_id"`
	Stage       Stage                    `json:"stage"`
	Rows        []portfolio.PortfolioRow `json:"rows"`
	RiskReport  *RiskReportView          `json:"risk_report,omitempty"`
	Diagnostics []Diagnostic             `json:"diagnostics,omitempty"`
	Cancelled   bool                     `json:"cancelled"`
	Partial     bool                     `json:"partial"`
	Validation  string                   `json:"validation,omitempty"` // empty if no validation failure was recorded
}

func newManifest(stage Stage) *Manifest {
	return &Manifest{RunID: uuid.NewString(), Stage: stage}
}

func (m *Manifest) addDiagnostic(message string, context map[string]any) {
	m.Diagnostics = append(m.Diagnostics, Diagnostic{Message: message, Context: context})
}
