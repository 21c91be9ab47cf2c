package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/takeoffworks/drawingestimate/internal/measure"
	"github.com/takeoffworks/drawingestimate/internal/models"
)

// Deterministic local substitutes for each generative pass. These are the
// fallbacks required when a call times out or returns unparseable output, and
// the whole pipeline when no generator is configured.

var (
	metricDesignation   = regexp.MustCompile(`^(ISMB|ISMC|ISLB|ISHB|ISWB|ISA|IPE|HE[ABM]|UPN|SHS|RHS|CHS|Z\d|PFC)`)
	imperialDesignation = regexp.MustCompile(`^(W\d|S\d|HP\d|MC\d|C\d{1,2}X|L\d|HSS|PIPE|WT|MT|ST)`)
	leadingNumber       = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// classifySheetsLocal derives sheet types from page text keywords and the
// unit system from the designation mix.
func classifySheetsLocal(pages []models.DrawingPage, dataset *models.SteelDataset, ms *measure.MeasurementSet) ([]models.SheetClassification, models.UnitSystem, string) {
	us, standard := detectUnitSystem(dataset, ms)

	classifications := make([]models.SheetClassification, 0, len(pages))
	for _, page := range pages {
		sheetType := models.SheetTypeGeneral
		scale := ""
		for _, line := range page.Lines {
			upper := strings.ToUpper(line.Text)
			switch {
			case strings.Contains(upper, "SCHEDULE"):
				sheetType = models.SheetTypeSchedule
			case strings.Contains(upper, "FOUNDATION") || strings.Contains(upper, "FOOTING"):
				sheetType = models.SheetTypeFoundation
			case strings.Contains(upper, "ELEVATION"):
				sheetType = models.SheetTypeElevation
			case strings.Contains(upper, "SECTION"):
				sheetType = models.SheetTypeSection
			case strings.Contains(upper, "DETAIL"):
				sheetType = models.SheetTypeDetail
			case strings.Contains(upper, "PLAN"):
				sheetType = models.SheetTypePlan
			default:
				continue
			}
			break
		}
		if ms != nil && len(ms.Scales) > 0 {
			scale = ms.Scales[0]
		}
		classifications = append(classifications, models.SheetClassification{
			PageNumber:     page.PageNumber,
			SheetType:      sheetType,
			Scale:          scale,
			DesignStandard: standard,
			UnitSystem:     us,
		})
	}
	return classifications, us, standard
}

// detectUnitSystem votes across designation families and measured dimensions.
func detectUnitSystem(dataset *models.SteelDataset, ms *measure.MeasurementSet) (models.UnitSystem, string) {
	var metricVotes, imperialVotes int
	standard := ""
	if dataset != nil {
		for _, category := range models.AllCategories {
			for _, member := range dataset.Bucket(category) {
				switch {
				case metricDesignation.MatchString(member.Designation):
					metricVotes++
					if standard == "" {
						standard = standardFor(member.Designation)
					}
				case imperialDesignation.MatchString(member.Designation):
					imperialVotes++
					if standard == "" {
						standard = "AISC"
					}
				}
			}
		}
	}
	if ms != nil {
		metricVotes += len(ms.MetricDimensions)
		imperialVotes += len(ms.ImperialDimensions)
	}
	if metricVotes > imperialVotes {
		if standard == "" {
			standard = "IS"
		}
		return models.UnitSystemMetric, standard
	}
	if standard == "" {
		standard = "AISC"
	}
	return models.UnitSystemImperial, standard
}

func standardFor(designation string) string {
	switch {
	case strings.HasPrefix(designation, "IS"):
		return "IS"
	case strings.HasPrefix(designation, "IPE"), strings.HasPrefix(designation, "HE"), strings.HasPrefix(designation, "UPN"):
		return "EN"
	case strings.Contains(designation, "PFC"):
		return "BS"
	default:
		return ""
	}
}

// extractLocal builds targeted-extraction records from what the deterministic
// extractors already recovered: members become framing/schedule rows and the
// envelope comes from measured heights and areas. Foundations need dimension
// rows the text extractors cannot attribute reliably, so the local path
// leaves them empty.
func extractLocal(dataset *models.SteelDataset, ms *measure.MeasurementSet, us models.UnitSystem) *models.TargetedExtraction {
	ext := &models.TargetedExtraction{UnitSystem: us}
	if dataset != nil {
		for _, category := range models.AllCategories {
			if category == models.CategoryConnections || category == models.CategoryHardware {
				continue
			}
			for _, member := range dataset.Bucket(category) {
				record := models.FramingMember{
					Designation: member.Designation,
					Count:       member.Quantity,
					Length:      member.Length,
					Category:    category,
				}
				if member.Source == "General Text" {
					ext.Framing = append(ext.Framing, record)
				} else {
					ext.ScheduleRows = append(ext.ScheduleRows, models.ScheduleRow{
						Designation: member.Designation,
						Count:       member.Quantity,
						Length:      member.Length,
					})
				}
			}
		}
	}
	if ms != nil {
		envelope := &models.EnvelopeSpec{}
		for _, h := range ms.Heights {
			value := parseLeadingNumber(h.Value)
			switch h.Label {
			case "EAVE":
				envelope.EaveHeight = value
			case "RIDGE":
				envelope.RidgeHeight = value
			}
		}
		if len(ms.Areas) > 0 {
			envelope.Area = parseLeadingNumber(ms.Areas[0])
		}
		if envelope.EaveHeight > 0 || envelope.RidgeHeight > 0 || envelope.Area > 0 {
			ext.Envelope = envelope
		}
	}
	return ext
}

func parseLeadingNumber(s string) float64 {
	m := leadingNumber.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// allInRateBands bound the plausible installed cost per tonne by currency,
// used by the local validation pass.
var allInRateBands = map[string]struct{ low, high float64 }{
	"USD": {4000, 8500},
	"INR": {150000, 320000},
	"EUR": {3800, 7800},
	"GBP": {3400, 7200},
	"AUD": {6000, 11500},
}

// validateLocal sanity-checks the estimate: line items must sum to the base
// cost, every steel bucket must carry its four trades, and the all-in rate
// should land inside the market band. Advisory only.
func validateLocal(est *models.EstimateResult, tk *models.QuantityTakeoffResult) *ValidationReport {
	report := &ValidationReport{Notes: []string{}, MathConsistent: true, WithinBenchmark: true}
	if est == nil {
		report.Notes = append(report.Notes, "no estimate produced")
		report.WithinBenchmark = false
		return report
	}

	var sum float64
	trades := map[string]bool{}
	for _, item := range est.Items {
		sum += item.TotalCost
		if len(item.Code) >= 2 {
			trades[item.Code[:2]] = true
		}
	}
	if diff := sum - est.CostSummary.BaseCost; diff > 0.5 || diff < -0.5 {
		report.MathConsistent = false
		report.Notes = append(report.Notes, "line items do not sum to the base cost")
	}

	if tk != nil && tk.TotalSteelTon > 0 {
		for _, trade := range []struct{ code, name string }{
			{"ST", "material supply"}, {"FB", "fabrication"}, {"SF", "surface treatment"}, {"ER", "erection"},
		} {
			if !trades[trade.code] {
				report.MissingTrades = append(report.MissingTrades, trade.name)
			}
		}
		band, okBand := allInRateBands[est.CostSummary.Currency]
		if okBand {
			perTon := est.CostSummary.TotalIncTax / tk.TotalSteelTon
			report.BenchmarkLow = band.low
			report.BenchmarkHigh = band.high
			if perTon < band.low || perTon > band.high {
				report.WithinBenchmark = false
				report.Notes = append(report.Notes, "all-in rate per tonne falls outside the market benchmark band")
			}
		}
	}
	if len(report.MissingTrades) > 0 {
		report.Notes = append(report.Notes, "one or more steel trades missing from the estimate")
	}
	return report
}
