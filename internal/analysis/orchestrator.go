package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/takeoffworks/drawingestimate/internal/estimate"
	"github.com/takeoffworks/drawingestimate/internal/measure"
	"github.com/takeoffworks/drawingestimate/internal/models"
	"github.com/takeoffworks/drawingestimate/internal/rates"
	"github.com/takeoffworks/drawingestimate/internal/takeoff"
)

// DefaultStageTimeout bounds each generative pass. A pass that exceeds it is
// treated the same as one that returned unparseable output.
const DefaultStageTimeout = 90 * time.Second

// Generator produces a model response for a prompt. The vertex client
// satisfies this; tests substitute scripted responses.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Orchestrator runs the five analysis passes in order. Every pass degrades
// to its deterministic local substitute on timeout, transport error or
// malformed output, so Analyze always returns a complete result.
type Orchestrator struct {
	generator    Generator
	calculator   *takeoff.Calculator
	engine       *estimate.Engine
	stageTimeout time.Duration
	logger       *slog.Logger
}

// NewOrchestrator returns an Orchestrator. A nil generator is allowed and
// forces the deterministic path for every pass.
func NewOrchestrator(generator Generator, stageTimeout time.Duration, logger *slog.Logger) *Orchestrator {
	if stageTimeout <= 0 {
		stageTimeout = DefaultStageTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		generator:    generator,
		calculator:   takeoff.NewCalculator(logger),
		engine:       estimate.NewEngine(logger),
		stageTimeout: stageTimeout,
		logger:       logger,
	}
}

// Input is everything the passes consume: the laid-out page text plus the
// deterministic extraction results that ground each prompt.
type Input struct {
	Pages        []models.DrawingPage
	Dataset      *models.SteelDataset
	Measurements *measure.MeasurementSet
	Location     string
	Currency     string
}

// Analyze runs classification, extraction, takeoff, cost and validation in
// strict order, feeding each pass the prior pass's output.
func (o *Orchestrator) Analyze(ctx context.Context, input *Input) *AnalysisResult {
	if input == nil {
		input = &Input{}
	}
	result := &AnalysisResult{}

	classifications, us, standard := o.runClassification(ctx, input)
	result.Classifications = classifications
	result.UnitSystem = us
	result.DesignStandard = standard

	result.Extraction = o.runExtraction(ctx, input, classifications.Data, us)
	result.Takeoff = o.runTakeoff(ctx, input, result.Extraction.Data, us)

	currency := input.Currency
	if currency == "" {
		currency = detectCurrencyFromNotes(input)
	}
	result.Estimate = o.runEstimate(ctx, result.Takeoff.Data, input.Location, currency)
	result.Validation = o.runValidation(ctx, result.Estimate.Data, result.Takeoff.Data)
	return result
}

// generate issues one timeout-bounded model call and extracts the embedded
// JSON object. Any failure mode collapses to a single (reason, false) so the
// callers treat timeouts and malformed output identically.
func (o *Orchestrator) generate(ctx context.Context, stage, systemPrompt, userPrompt string) (string, string, bool) {
	if o.generator == nil {
		return "", "no generator configured", false
	}
	callCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()

	response, err := o.generator.Generate(callCtx, systemPrompt, userPrompt)
	if err != nil {
		o.logger.Warn("Analysis pass failed, using deterministic fallback.", "stage", stage, "error", err)
		return "", fmt.Sprintf("model call failed: %v", err), false
	}
	raw, found := ExtractJSONObject(response)
	if !found {
		o.logger.Warn("Analysis pass returned no JSON object, using deterministic fallback.", "stage", stage)
		return "", "response contained no JSON object", false
	}
	return raw, "", true
}

type classificationWire struct {
	Pages []struct {
		PageNumber int    `json:"pageNumber"`
		SheetType  string `json:"sheetType"`
		Scale      string `json:"scale"`
	} `json:"pages"`
	DesignStandard string `json:"designStandard"`
	UnitSystem     string `json:"unitSystem"`
}

func (o *Orchestrator) runClassification(ctx context.Context, input *Input) (Result[[]models.SheetClassification], models.UnitSystem, string) {
	localClassifications, localUS, localStandard := classifySheetsLocal(input.Pages, input.Dataset, input.Measurements)

	raw, reason, okRaw := o.generate(ctx, "classification", ClassificationSystemPrompt, BuildClassificationPrompt(input.Pages))
	if !okRaw {
		return fallback(localClassifications, reason), localUS, localStandard
	}

	var wire classificationWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil || len(wire.Pages) == 0 {
		return fallback(localClassifications, "classification response did not parse"), localUS, localStandard
	}
	us := models.UnitSystem(wire.UnitSystem)
	if us != models.UnitSystemImperial && us != models.UnitSystemMetric {
		us = localUS
	}
	standard := wire.DesignStandard
	if standard == "" {
		standard = localStandard
	}

	classifications := make([]models.SheetClassification, 0, len(wire.Pages))
	for _, page := range wire.Pages {
		sheetType := models.SheetType(page.SheetType)
		if !sheetType.Valid() {
			sheetType = models.SheetTypeGeneral
		}
		classifications = append(classifications, models.SheetClassification{
			PageNumber:     page.PageNumber,
			SheetType:      sheetType,
			Scale:          page.Scale,
			DesignStandard: standard,
			UnitSystem:     us,
		})
	}
	return ok(classifications), us, standard
}

func (o *Orchestrator) runExtraction(ctx context.Context, input *Input, classifications []models.SheetClassification, us models.UnitSystem) Result[*models.TargetedExtraction] {
	local := extractLocal(input.Dataset, input.Measurements, us)

	raw, reason, okRaw := o.generate(ctx, "extraction", ExtractionSystemPrompt,
		BuildExtractionPrompt(classifications, input.Measurements, input.Dataset, us))
	if !okRaw {
		return fallback(local, reason)
	}

	var ext models.TargetedExtraction
	if err := json.Unmarshal([]byte(raw), &ext); err != nil {
		return fallback(local, "extraction response did not parse")
	}
	ext.UnitSystem = us
	if len(ext.Framing) == 0 && len(ext.ScheduleRows) == 0 && len(ext.Foundations) == 0 {
		// The model found nothing the deterministic extractors did; keep
		// whichever view has data.
		if len(local.Framing) > 0 || len(local.ScheduleRows) > 0 {
			return fallback(local, "extraction response was empty")
		}
	}
	return ok(&ext)
}

func (o *Orchestrator) runTakeoff(ctx context.Context, input *Input, extraction *models.TargetedExtraction, us models.UnitSystem) Result[*models.QuantityTakeoffResult] {
	local := o.calculator.Takeoff(&takeoff.Input{Dataset: input.Dataset, Extraction: extraction}, us)

	raw, reason, okRaw := o.generate(ctx, "takeoff", TakeoffSystemPrompt, BuildTakeoffPrompt(extraction, us))
	if !okRaw {
		return fallback(local, reason)
	}

	var parsed models.QuantityTakeoffResult
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return fallback(local, "takeoff response did not parse")
	}
	if !takeoffPlausible(&parsed, local, us) {
		return fallback(local, "takeoff response failed plausibility checks")
	}
	if parsed.CategoryTons == nil {
		parsed.CategoryTons = local.CategoryTons
	}
	if parsed.PieceCounts == nil {
		parsed.PieceCounts = local.PieceCounts
	}
	if parsed.ComplexCategories == nil {
		parsed.ComplexCategories = local.ComplexCategories
	}
	if parsed.HeightClass == "" {
		parsed.HeightClass = local.HeightClass
	}
	if parsed.MemberCount == 0 {
		parsed.MemberCount = local.MemberCount
	}
	return ok(&parsed)
}

// takeoffPlausible rejects takeoffs whose headline numbers are impossible:
// wrong unit system, negative totals, or zero tonnage against a non-empty
// local takeoff.
func takeoffPlausible(parsed, local *models.QuantityTakeoffResult, us models.UnitSystem) bool {
	if parsed.UnitSystem != us {
		return false
	}
	if parsed.TotalSteelTon < 0 || parsed.TotalConcrete < 0 || parsed.TotalRebar < 0 {
		return false
	}
	if parsed.TotalSteelTon == 0 && local.TotalSteelTon > 0 {
		return false
	}
	return true
}

type estimateWire struct {
	Items       []models.EstimationLineItem `json:"items"`
	CostSummary models.CostSummary          `json:"costSummary"`
}

func (o *Orchestrator) runEstimate(ctx context.Context, tk *models.QuantityTakeoffResult, location, currency string) Result[*models.EstimateResult] {
	local := o.engine.Estimate(tk, location, currency)

	raw, reason, okRaw := o.generate(ctx, "cost", CostSystemPrompt, BuildCostPrompt(tk, location, local.CostSummary.Currency))
	if !okRaw {
		return fallback(local, reason)
	}

	var wire estimateWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil || len(wire.Items) == 0 {
		return fallback(local, "cost response did not parse")
	}
	for _, item := range wire.Items {
		if delta := item.TotalCost - item.Quantity*item.UnitRate; delta > 0.01 || delta < -0.01 {
			return fallback(local, "cost response violated the line total invariant")
		}
	}
	parsed := &models.EstimateResult{
		Items:       wire.Items,
		CostSummary: wire.CostSummary,
		Categories:  map[string]models.CategoryGroup{},
	}
	if parsed.CostSummary.Currency == "" {
		parsed.CostSummary.Currency = local.CostSummary.Currency
	}
	groupItems(parsed)
	return ok(parsed)
}

// groupItems rebuilds the reporting view over a parsed item list.
func groupItems(result *models.EstimateResult) {
	for _, item := range result.Items {
		group := result.Categories[item.Category]
		group.Items = append(group.Items, item)
		group.Total += item.TotalCost
		if group.Subcategories == nil {
			group.Subcategories = map[string][]models.EstimationLineItem{}
		}
		group.Subcategories[item.Subcategory] = append(group.Subcategories[item.Subcategory], item)
		result.Categories[item.Category] = group
	}
}

func (o *Orchestrator) runValidation(ctx context.Context, est *models.EstimateResult, tk *models.QuantityTakeoffResult) Result[*ValidationReport] {
	local := validateLocal(est, tk)

	raw, reason, okRaw := o.generate(ctx, "validation", ValidationSystemPrompt, BuildValidationPrompt(est, tk))
	if !okRaw {
		return fallback(local, reason)
	}

	var report ValidationReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return fallback(local, "validation response did not parse")
	}
	if report.Notes == nil {
		report.Notes = []string{}
	}
	return ok(&report)
}

// detectCurrencyFromNotes scans the drawing text for currency hints when the
// caller provided none.
func detectCurrencyFromNotes(input *Input) string {
	var notes strings.Builder
	for _, page := range input.Pages {
		for _, line := range page.Lines {
			notes.WriteString(line.Text)
			notes.WriteByte('\n')
		}
	}
	return rates.DetectCurrency(rates.ProjectInfo{Location: input.Location, Notes: notes.String()})
}
