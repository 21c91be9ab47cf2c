// Package analysis sequences the multi-pass drawing analysis: sheet
// classification, targeted extraction, quantity takeoff, cost application and
// validation. Each pass consumes the prior pass's structured output plus
// grounding context, and each degrades independently to a deterministic
// fallback instead of failing the run.
package analysis

import (
	"github.com/takeoffworks/drawingestimate/internal/models"
)

// Result tags a stage output as either primary or fallback-derived. Expected
// degraded paths are values, not errors.
type Result[T any] struct {
	Data     T      `json:"data"`
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`
}

func ok[T any](data T) Result[T] {
	return Result[T]{Data: data}
}

func fallback[T any](data T, reason string) Result[T] {
	return Result[T]{Data: data, Fallback: true, Reason: reason}
}

// ValidationReport is the advisory output of the final pass. It never blocks
// the estimate.
type ValidationReport struct {
	Notes           []string `json:"notes"`
	BenchmarkLow    float64  `json:"benchmarkLow,omitempty"`
	BenchmarkHigh   float64  `json:"benchmarkHigh,omitempty"`
	WithinBenchmark bool     `json:"withinBenchmark"`
	MathConsistent  bool     `json:"mathConsistent"`
	MissingTrades   []string `json:"missingTrades,omitempty"`
}

// AnalysisResult carries every pass's tagged output for one drawing set.
type AnalysisResult struct {
	Classifications Result[[]models.SheetClassification]   `json:"classifications"`
	Extraction      Result[*models.TargetedExtraction]     `json:"extraction"`
	Takeoff         Result[*models.QuantityTakeoffResult]  `json:"takeoff"`
	Estimate        Result[*models.EstimateResult]         `json:"estimate"`
	Validation      Result[*ValidationReport]              `json:"validation"`
	UnitSystem      models.UnitSystem                      `json:"unitSystem"`
	DesignStandard  string                                 `json:"designStandard,omitempty"`
}
