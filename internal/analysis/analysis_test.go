package analysis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takeoffworks/drawingestimate/internal/measure"
	"github.com/takeoffworks/drawingestimate/internal/models"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"preamble and trailing prose", `Sure, here it is: {"a":1} hope that helps`, `{"a":1}`, true},
		{"markdown fence", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"nested objects", `{"a":{"b":{"c":3}}}`, `{"a":{"b":{"c":3}}}`, true},
		{"brace inside string", `{"a":"}{"}`, `{"a":"}{"}`, true},
		{"escaped quote inside string", `{"a":"say \"}\" loudly"}`, `{"a":"say \"}\" loudly"}`, true},
		{"no object", "no structured data here", "", false},
		{"unbalanced", `{"a":1`, "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ExtractJSONObject(tt.text)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

// scriptedGenerator returns canned responses keyed by system prompt.
type scriptedGenerator struct {
	responses map[string]string
}

func (g *scriptedGenerator) Generate(_ context.Context, systemPrompt, _ string) (string, error) {
	return g.responses[systemPrompt], nil
}

// blockingGenerator never answers before the stage deadline.
type blockingGenerator struct{}

func (g *blockingGenerator) Generate(ctx context.Context, _, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func analysisInput() *Input {
	pages := []models.DrawingPage{
		{PageNumber: 1, Lines: []models.Line{
			{Text: "STEEL FRAMING PLAN"},
			{Text: "W14X68 COLUMN"},
		}},
	}
	dataset := &models.SteelDataset{
		MainMembers: []models.ExtractedMember{
			{Type: "Wide Flange Beam", Designation: "W14X68", Category: models.CategoryMainMembers,
				Quantity: 12, Length: 30, Source: "General Text"},
		},
	}
	var text strings.Builder
	for _, page := range pages {
		for _, line := range page.Lines {
			text.WriteString(line.Text)
			text.WriteByte('\n')
		}
	}
	return &Input{
		Pages:        pages,
		Dataset:      dataset,
		Measurements: measure.Extract(text.String()),
	}
}

func TestAnalyzeWithoutGeneratorUsesDeterministicPath(t *testing.T) {
	o := NewOrchestrator(nil, 0, nil)

	result := o.Analyze(context.Background(), analysisInput())

	for name, fb := range map[string]bool{
		"classifications": result.Classifications.Fallback,
		"extraction":      result.Extraction.Fallback,
		"takeoff":         result.Takeoff.Fallback,
		"estimate":        result.Estimate.Fallback,
		"validation":      result.Validation.Fallback,
	} {
		assert.True(t, fb, "%s should be fallback-derived", name)
	}
	assert.Equal(t, "no generator configured", result.Takeoff.Reason)

	assert.Equal(t, models.UnitSystemImperial, result.UnitSystem)
	assert.Equal(t, "AISC", result.DesignStandard)
	require.Len(t, result.Classifications.Data, 1)
	assert.Equal(t, models.SheetTypePlan, result.Classifications.Data[0].SheetType)

	require.NotNil(t, result.Extraction.Data)
	require.Len(t, result.Extraction.Data.Framing, 1)
	assert.Equal(t, "W14X68", result.Extraction.Data.Framing[0].Designation)

	require.NotNil(t, result.Takeoff.Data)
	assert.Equal(t, 13.83, result.Takeoff.Data.TotalSteelTon) // 12.24 + 10% + 3%

	require.NotNil(t, result.Estimate.Data)
	assert.Equal(t, "USD", result.Estimate.Data.CostSummary.Currency)
	assert.NotEmpty(t, result.Estimate.Data.Items)

	require.NotNil(t, result.Validation.Data)
	assert.True(t, result.Validation.Data.MathConsistent)
	assert.True(t, result.Validation.Data.WithinBenchmark)
	assert.Empty(t, result.Validation.Data.MissingTrades)
}

func TestAnalyzeNilInput(t *testing.T) {
	o := NewOrchestrator(nil, 0, nil)

	result := o.Analyze(context.Background(), nil)

	assert.Equal(t, models.UnitSystemImperial, result.UnitSystem)
	assert.True(t, result.Takeoff.Fallback)
	require.NotNil(t, result.Takeoff.Data)
	assert.Zero(t, result.Takeoff.Data.TotalSteelTon)
}

func TestAnalyzeScriptedHappyPath(t *testing.T) {
	gen := &scriptedGenerator{responses: map[string]string{
		ClassificationSystemPrompt: "```json\n" + `{"pages":[{"pageNumber":1,"sheetType":"plan","scale":"1:100"}],"designStandard":"AISC","unitSystem":"Imperial"}` + "\n```",
		ExtractionSystemPrompt:     `{"framing":[{"mark":"B1","designation":"W14X68","count":12,"length":30}],"scheduleRows":[],"foundations":[],"envelope":{"eaveHeight":24,"area":12000}}`,
		TakeoffSystemPrompt:        `{"unitSystem":"Imperial","steel":[{"description":"Wide Flange Beam W14X68","count":12,"weightPerUnit":68,"totalWeight":24480,"unit":"lbs","tonUnit":"US tons","calculation":"12 × 68 lbs/ft × 30 ft = 24480 lbs"}],"categoryTons":{"mainMembers":12.24},"totalSteelTon":13.83,"totalConcrete":0,"totalRebar":0,"memberCount":12}`,
		CostSystemPrompt:           `{"items":[{"code":"ST-01","description":"Main structural members — material supply","quantity":13.83,"unit":"US tons","unitRate":2200,"totalCost":30426,"category":"Structural Steel","subcategory":"mainMembers"}],"costSummary":{"baseCost":30426,"totalIncTax":30426,"currency":"USD"}}`,
		ValidationSystemPrompt:     `{"notes":["ok"],"withinBenchmark":true,"mathConsistent":true}`,
	}}
	o := NewOrchestrator(gen, 0, nil)

	result := o.Analyze(context.Background(), analysisInput())

	assert.False(t, result.Classifications.Fallback)
	assert.False(t, result.Extraction.Fallback)
	assert.False(t, result.Takeoff.Fallback)
	assert.False(t, result.Estimate.Fallback)
	assert.False(t, result.Validation.Fallback)

	require.Len(t, result.Classifications.Data, 1)
	assert.Equal(t, "1:100", result.Classifications.Data[0].Scale)
	assert.Equal(t, models.UnitSystemImperial, result.UnitSystem)

	require.NotNil(t, result.Extraction.Data)
	assert.Equal(t, models.UnitSystemImperial, result.Extraction.Data.UnitSystem)
	assert.Equal(t, "B1", result.Extraction.Data.Framing[0].Mark)

	require.NotNil(t, result.Takeoff.Data)
	assert.Equal(t, 13.83, result.Takeoff.Data.TotalSteelTon)
	assert.Equal(t, "standard", result.Takeoff.Data.HeightClass) // backfilled locally

	require.NotNil(t, result.Estimate.Data)
	require.Len(t, result.Estimate.Data.Items, 1)
	group, okGroup := result.Estimate.Data.Categories["Structural Steel"]
	require.True(t, okGroup)
	assert.Equal(t, 30426.0, group.Total)

	require.NotNil(t, result.Validation.Data)
	assert.Equal(t, []string{"ok"}, result.Validation.Data.Notes)
}

func TestAnalyzeMalformedResponsesFallBack(t *testing.T) {
	gen := &scriptedGenerator{responses: map[string]string{
		ClassificationSystemPrompt: "no structured data",
		ExtractionSystemPrompt:     `{"framing": "not an array"}`,
		TakeoffSystemPrompt:        `{"unbalanced":`,
		CostSystemPrompt:           `{"items":[]}`,
		ValidationSystemPrompt:     `{"notes": 42}`,
	}}
	o := NewOrchestrator(gen, 0, nil)

	result := o.Analyze(context.Background(), analysisInput())

	assert.True(t, result.Classifications.Fallback)
	assert.Equal(t, "response contained no JSON object", result.Classifications.Reason)
	assert.True(t, result.Extraction.Fallback)
	assert.Equal(t, "extraction response did not parse", result.Extraction.Reason)
	assert.True(t, result.Takeoff.Fallback)
	assert.Equal(t, "response contained no JSON object", result.Takeoff.Reason)
	assert.True(t, result.Estimate.Fallback)
	assert.Equal(t, "cost response did not parse", result.Estimate.Reason)
	assert.True(t, result.Validation.Fallback)
	assert.Equal(t, "validation response did not parse", result.Validation.Reason)

	// Degraded passes still carry usable data.
	require.NotNil(t, result.Takeoff.Data)
	assert.Equal(t, 13.83, result.Takeoff.Data.TotalSteelTon)
	require.NotNil(t, result.Estimate.Data)
	assert.NotEmpty(t, result.Estimate.Data.Items)
}

func TestAnalyzeRejectsWrongUnitSystemTakeoff(t *testing.T) {
	gen := &scriptedGenerator{responses: map[string]string{
		TakeoffSystemPrompt: `{"unitSystem":"Metric","totalSteelTon":12.5,"memberCount":12}`,
	}}
	o := NewOrchestrator(gen, 0, nil)

	result := o.Analyze(context.Background(), analysisInput())

	assert.True(t, result.Takeoff.Fallback)
	assert.Equal(t, "takeoff response failed plausibility checks", result.Takeoff.Reason)
	assert.Equal(t, 13.83, result.Takeoff.Data.TotalSteelTon)
}

func TestAnalyzeRejectsZeroTonnageTakeoff(t *testing.T) {
	gen := &scriptedGenerator{responses: map[string]string{
		TakeoffSystemPrompt: `{"unitSystem":"Imperial","totalSteelTon":0,"memberCount":12}`,
	}}
	o := NewOrchestrator(gen, 0, nil)

	result := o.Analyze(context.Background(), analysisInput())

	assert.True(t, result.Takeoff.Fallback)
	assert.Equal(t, "takeoff response failed plausibility checks", result.Takeoff.Reason)
}

func TestAnalyzeRejectsCostLineTotalViolation(t *testing.T) {
	gen := &scriptedGenerator{responses: map[string]string{
		CostSystemPrompt: `{"items":[{"code":"ST-01","quantity":10,"unitRate":2200,"totalCost":99999,"category":"Structural Steel"}],"costSummary":{"currency":"USD"}}`,
	}}
	o := NewOrchestrator(gen, 0, nil)

	result := o.Analyze(context.Background(), analysisInput())

	assert.True(t, result.Estimate.Fallback)
	assert.Equal(t, "cost response violated the line total invariant", result.Estimate.Reason)
	// The deterministic estimate takes its place.
	require.NotNil(t, result.Estimate.Data)
	assert.NotEmpty(t, result.Estimate.Data.Items)
}

func TestAnalyzeUnknownSheetTypeBecomesGeneral(t *testing.T) {
	gen := &scriptedGenerator{responses: map[string]string{
		ClassificationSystemPrompt: `{"pages":[{"pageNumber":1,"sheetType":"blueprint"}],"designStandard":"AISC","unitSystem":"Imperial"}`,
	}}
	o := NewOrchestrator(gen, 0, nil)

	result := o.Analyze(context.Background(), analysisInput())

	assert.False(t, result.Classifications.Fallback)
	require.Len(t, result.Classifications.Data, 1)
	assert.Equal(t, models.SheetTypeGeneral, result.Classifications.Data[0].SheetType)
}

func TestAnalyzeStageTimeoutFallsBack(t *testing.T) {
	o := NewOrchestrator(&blockingGenerator{}, 5*time.Millisecond, nil)

	result := o.Analyze(context.Background(), analysisInput())

	assert.True(t, result.Takeoff.Fallback)
	assert.Contains(t, result.Takeoff.Reason, "model call failed")
	assert.Equal(t, 13.83, result.Takeoff.Data.TotalSteelTon)
}

func TestDetectUnitSystemVotes(t *testing.T) {
	metric := &models.SteelDataset{
		MainMembers: []models.ExtractedMember{
			{Designation: "ISMB300"}, {Designation: "ISMB400"},
		},
	}
	us, standard := detectUnitSystem(metric, nil)
	assert.Equal(t, models.UnitSystemMetric, us)
	assert.Equal(t, "IS", standard)

	imperial := &models.SteelDataset{
		MainMembers: []models.ExtractedMember{{Designation: "W14X68"}},
	}
	us, standard = detectUnitSystem(imperial, nil)
	assert.Equal(t, models.UnitSystemImperial, us)
	assert.Equal(t, "AISC", standard)

	us, _ = detectUnitSystem(nil, nil)
	assert.Equal(t, models.UnitSystemImperial, us)
}

func TestValidateLocalFlagsInconsistentMath(t *testing.T) {
	est := &models.EstimateResult{
		Items: []models.EstimationLineItem{
			{Code: "ST-01", TotalCost: 1000},
		},
	}
	est.CostSummary.BaseCost = 5000

	report := validateLocal(est, nil)

	assert.False(t, report.MathConsistent)
	assert.NotEmpty(t, report.Notes)
}

func TestValidateLocalFlagsMissingTrades(t *testing.T) {
	est := &models.EstimateResult{
		Items: []models.EstimationLineItem{
			{Code: "ST-01", TotalCost: 50000},
		},
	}
	est.CostSummary.BaseCost = 50000
	est.CostSummary.Currency = "USD"
	est.CostSummary.TotalIncTax = 70000
	tk := &models.QuantityTakeoffResult{TotalSteelTon: 10}

	report := validateLocal(est, tk)

	assert.ElementsMatch(t, []string{"fabrication", "surface treatment", "erection"}, report.MissingTrades)
	assert.Equal(t, 4000.0, report.BenchmarkLow)
	assert.True(t, report.WithinBenchmark) // 7000 per ton sits inside the USD band
}
