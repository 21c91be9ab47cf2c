package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/takeoffworks/drawingestimate/internal/measure"
	"github.com/takeoffworks/drawingestimate/internal/models"
)

// --- Sheet Classification Pass Prompts ---

const ClassificationSystemPrompt = "You are a structural engineering drawing analyst. Your task is to classify construction drawing sheets by purpose and detect the governing design standard and unit system. You must output your response as a valid JSON object."

const classificationUserTemplate = `Classify each drawing sheet below by its purpose.

For every page, decide:
- "sheetType": one of "plan", "elevation", "section", "schedule", "detail", "foundation", "general".
- "scale": the drawing scale if stated (e.g. "1:100" or "1/4\" = 1'-0\""), otherwise omit.

For the whole set, decide:
- "designStandard": the dominant standard (e.g. "AISC", "IS", "EN", "BS", "AS").
- "unitSystem": "Imperial" or "Metric".

Output a single JSON object of this exact shape, with no text before or after:
{
  "pages": [{"pageNumber": 1, "sheetType": "plan", "scale": "1:100"}],
  "designStandard": "AISC",
  "unitSystem": "Imperial"
}

Sheets:
%s`

// --- Targeted Extraction Pass Prompts ---

const ExtractionSystemPrompt = "You are a structural quantity surveyor. Your task is to extract typed member, schedule and foundation records from classified drawing sheets. Accuracy and completeness are of utmost importance. You must output your response as a valid JSON object."

const extractionUserTemplate = `Using the sheet classifications and the grounding measurements below, extract structured records from the drawing text.

Produce:
- "framing": plan-derived members [{"mark", "designation", "count", "length"}].
- "scheduleRows": schedule-derived members for the same marks [{"mark", "designation", "count", "length"}].
- "foundations": concrete elements [{"type", "mark", "count", "width", "length", "depth", "grade"}] with dimensions in %s.
- "envelope": {"eaveHeight", "ridgeHeight", "area"} where stated.

All designations must be uppercase canonical section codes. Counts are positive integers. Output a single JSON object with exactly those keys and no surrounding text.

Sheet classifications:
%s

Grounding measurements (confidence %s):
%s

Member inventory:
%s`

// --- Quantity Takeoff Pass Prompts ---

const TakeoffSystemPrompt = "You are a structural estimating engineer. Your task is to compute a quantity takeoff from extracted member and foundation records, showing the arithmetic for every total. You must output your response as a valid JSON object."

const takeoffUserTemplate = `Compute the quantity takeoff for the records below using %s units.

Rules:
- Steel tonnage per member: count × weight-per-length × length, then convert to %s. Add a 10%% connections/miscellaneous allowance and a 3%% waste allowance on the member total.
- Concrete: count × width × length × depth per element, in %s.
- Cross-reference plan counts against schedule counts by mark. On mismatch use the HIGHER count and add a note to "discrepancies".
- Every computed item must carry a "calculation" string showing the literal arithmetic.

Output a single JSON object shaped like the example, no surrounding text:
{
  "unitSystem": "%s",
  "steel": [{"description": "...", "count": 12, "weightPerUnit": 68, "totalWeight": 24480, "unit": "lbs", "tonUnit": "US tons", "calculation": "12 × 68 lb/ft × 30 ft = 24480 lbs"}],
  "concrete": [], "rebar": [], "areas": [], "counts": [],
  "discrepancies": [{"item": "B1", "note": "...", "planQty": 12, "schedQty": 14, "resolved": 14}],
  "categoryTons": {"mainMembers": 12.24},
  "totalSteelTon": 12.24, "totalConcrete": 0, "totalRebar": 0, "memberCount": 12
}

Extraction records:
%s`

// --- Cost Application Pass Prompts ---

const CostSystemPrompt = "You are a construction cost estimator. Your task is to price a quantity takeoff into trade-grouped line items with a full material schedule. Every line's totalCost must equal quantity × unitRate. You must output your response as a valid JSON object."

const costUserTemplate = `Price the quantity takeoff below for a project in %s, in %s.

Emit line items for material supply, fabrication, surface treatment and erection per steel bucket, per-piece pricing for connections and hardware, and concrete/rebar lines. Then roll up a cost summary with contingency, preliminaries, overheads/profit and tax.

Output a single JSON object with keys "items" and "costSummary" matching this shape, no surrounding text:
{
  "items": [{"code": "ST-01", "description": "...", "quantity": 12.24, "unit": "US tons", "unitRate": 2200, "totalCost": 26928, "category": "Structural Steel", "subcategory": "mainMembers"}],
  "costSummary": {"baseCost": 0, "complexityAdjustment": 0, "contingency": 0, "preliminaries": 0, "overheadsProfit": 0, "subtotalExTax": 0, "tax": 0, "totalIncTax": 0, "currency": "%s"}
}

Quantity takeoff:
%s`

// --- Validation Pass Prompts ---

const ValidationSystemPrompt = "You are a senior cost reviewer. Your task is to sanity-check an estimate against benchmarks and flag inconsistencies. Your review is advisory and must never invent numbers. You must output your response as a valid JSON object."

const validationUserTemplate = `Review the estimate below.

Check:
- Is the total within a plausible benchmark range for %s of structural steel in this market?
- Do the line items sum to the base cost?
- Are any expected trades missing (supply, fabrication, surface treatment, erection)?

Output a single JSON object, no surrounding text:
{"notes": ["..."], "benchmarkLow": 0, "benchmarkHigh": 0, "withinBenchmark": true, "mathConsistent": true, "missingTrades": []}

Estimate:
%s`

// BuildClassificationPrompt renders the classification pass prompt from page
// text excerpts.
func BuildClassificationPrompt(pages []models.DrawingPage) string {
	var sheets strings.Builder
	for _, page := range pages {
		fmt.Fprintf(&sheets, "--- Page %d ---\n", page.PageNumber)
		for i, line := range page.Lines {
			if i >= 40 { // head of each sheet is enough for classification
				break
			}
			sheets.WriteString(line.Text)
			sheets.WriteByte('\n')
		}
	}
	return fmt.Sprintf(classificationUserTemplate, sheets.String())
}

// BuildExtractionPrompt renders the targeted extraction pass prompt.
func BuildExtractionPrompt(classifications []models.SheetClassification, ms *measure.MeasurementSet, dataset *models.SteelDataset, us models.UnitSystem) string {
	dimUnit := "meters"
	if us == models.UnitSystemImperial {
		dimUnit = "feet"
	}
	confidence := measure.ConfidenceLow
	if ms != nil {
		confidence = ms.Confidence
	}
	return fmt.Sprintf(extractionUserTemplate,
		dimUnit,
		mustJSON(classifications),
		confidence,
		mustJSON(ms),
		mustJSON(dataset),
	)
}

// BuildTakeoffPrompt renders the quantity takeoff pass prompt.
func BuildTakeoffPrompt(extraction *models.TargetedExtraction, us models.UnitSystem) string {
	tonUnit, volUnit := "tonnes", "m³"
	if us == models.UnitSystemImperial {
		tonUnit, volUnit = "US tons (÷2000 lbs)", "CY (ft³ ÷ 27)"
	}
	return fmt.Sprintf(takeoffUserTemplate, us, tonUnit, volUnit, us, mustJSON(extraction))
}

// BuildCostPrompt renders the cost application pass prompt.
func BuildCostPrompt(takeoff *models.QuantityTakeoffResult, location, currency string) string {
	if location == "" {
		location = "the default market"
	}
	return fmt.Sprintf(costUserTemplate, location, currency, currency, mustJSON(takeoff))
}

// BuildValidationPrompt renders the validation pass prompt.
func BuildValidationPrompt(estimate *models.EstimateResult, takeoff *models.QuantityTakeoffResult) string {
	tonnage := "an unknown tonnage"
	if takeoff != nil && takeoff.TotalSteelTon > 0 {
		tonnage = fmt.Sprintf("%.2f %s", takeoff.TotalSteelTon, takeoff.UnitSystem)
	}
	return fmt.Sprintf(validationUserTemplate, tonnage, mustJSON(estimate))
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
