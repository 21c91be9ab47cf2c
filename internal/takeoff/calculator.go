// Package takeoff converts classified member datasets into engineering
// quantities: steel tonnage, concrete volume, rebar weight, areas and counts.
// Every computed total carries a calculation string showing the literal
// arithmetic performed.
package takeoff

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/takeoffworks/drawingestimate/internal/models"
)

// Steel allowances applied on top of the raw member tonnage.
const (
	ConnectionAllowance = 0.10
	WasteAllowance      = 0.03
)

// steelCategories are the dataset buckets that contribute tonnage.
var steelCategories = []string{
	models.CategoryMainMembers,
	models.CategoryHollowSections,
	models.CategoryAngles,
	models.CategoryPurlins,
	models.CategoryPlates,
	models.CategoryBars,
}

// complexSubCategories mark section types that price at the complex
// fabrication tier.
var complexSubCategories = map[string]bool{
	"pebFrame": true,
	"tee":      true,
}

// Input bundles everything the calculator consumes. Extraction is optional;
// without it no plan/schedule cross-referencing or concrete takeoff happens.
type Input struct {
	Dataset    *models.SteelDataset
	Extraction *models.TargetedExtraction
}

// Calculator computes quantity takeoffs.
type Calculator struct {
	logger *slog.Logger
}

// NewCalculator returns a Calculator.
func NewCalculator(logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{logger: logger}
}

// Fallback returns a well-formed, zeroed takeoff so downstream pricing always
// receives a usable structure even when upstream analysis failed.
func Fallback(us models.UnitSystem, reason string) *models.QuantityTakeoffResult {
	return &models.QuantityTakeoffResult{
		UnitSystem:        us,
		Steel:             []models.QuantityItem{},
		Concrete:          []models.QuantityItem{},
		Rebar:             []models.QuantityItem{},
		Areas:             []models.QuantityItem{},
		Counts:            []models.QuantityItem{},
		Discrepancies:     []models.Discrepancy{},
		CategoryTons:      map[string]float64{},
		ComplexCategories: map[string]bool{},
		PieceCounts:       map[string]int{},
		Fallback:          true,
		FallbackReason:    reason,
	}
}

// Takeoff computes the full quantity takeoff for a drawing set. A missing or
// structurally invalid input degrades to the zeroed fallback, never an error.
func (c *Calculator) Takeoff(input *Input, us models.UnitSystem) *models.QuantityTakeoffResult {
	if us != models.UnitSystemImperial && us != models.UnitSystemMetric {
		us = models.UnitSystemImperial
	}
	if input == nil || input.Dataset == nil {
		c.logger.Warn("Takeoff input missing dataset, returning zeroed quantities.")
		return Fallback(us, "no dataset")
	}

	result := Fallback(us, "")
	result.Fallback = false
	result.FallbackReason = ""

	reconciled := c.reconcileCounts(input.Extraction, result)

	c.steelTakeoff(input.Dataset, reconciled, us, result)
	c.concreteTakeoff(input.Extraction, us, result)
	c.areaTakeoff(input.Extraction, us, result)
	c.pieceTakeoff(input.Dataset, result)
	c.classify(input.Dataset, input.Extraction, us, result)

	return result
}

// reconcileCounts cross-references plan-derived counts against
// schedule-derived counts by mark. On mismatch the higher count wins and a
// discrepancy note is recorded — never silently dropped.
func (c *Calculator) reconcileCounts(ext *models.TargetedExtraction, result *models.QuantityTakeoffResult) map[string]int {
	reconciled := make(map[string]int)
	if ext == nil {
		return reconciled
	}

	planByMark := make(map[string]models.FramingMember)
	for _, f := range ext.Framing {
		planByMark[f.Mark] = f
		if f.Designation != "" && f.Count > reconciled[f.Designation] {
			reconciled[f.Designation] = f.Count
		}
	}
	for _, row := range ext.ScheduleRows {
		if row.Designation != "" && row.Count > reconciled[row.Designation] {
			reconciled[row.Designation] = row.Count
		}
		plan, ok := planByMark[row.Mark]
		if !ok || row.Mark == "" {
			continue
		}
		if plan.Count != row.Count {
			higher := plan.Count
			if row.Count > higher {
				higher = row.Count
			}
			reconciled[row.Designation] = higher
			result.Discrepancies = append(result.Discrepancies, models.Discrepancy{
				Item:     row.Mark,
				Note:     fmt.Sprintf("plan shows %d of %s but schedule shows %d; using %d", plan.Count, row.Mark, row.Count, higher),
				PlanQty:  plan.Count,
				SchedQty: row.Count,
				Resolved: higher,
			})
		}
	}
	return reconciled
}

func (c *Calculator) steelTakeoff(ds *models.SteelDataset, reconciled map[string]int, us models.UnitSystem, result *models.QuantityTakeoffResult) {
	lengthUnit, weightUnit, tonUnit, divisor := unitNames(us)

	var rawTotal float64
	for _, category := range steelCategories {
		var categoryTons float64
		for _, member := range ds.Bucket(category) {
			count := member.Quantity
			if count < 1 {
				count = 1
			}
			if rc, ok := reconciled[member.Designation]; ok && rc > count {
				count = rc
			}
			result.MemberCount += count

			wpl, _ := ResolveWeightPerLength(member.Designation, category, us)
			if wpl <= 0 {
				continue
			}
			length := member.Length
			if length <= 0 {
				length = DefaultLength(category, us)
			}
			totalWeight := float64(count) * wpl * length
			tons := totalWeight / divisor
			categoryTons += tons

			result.Steel = append(result.Steel, models.QuantityItem{
				Description:   fmt.Sprintf("%s %s", member.Type, member.Designation),
				Count:         count,
				WeightPerUnit: wpl,
				TotalWeight:   round2(totalWeight),
				Unit:          weightUnit,
				TonUnit:       tonUnit,
				Calculation: fmt.Sprintf("%d × %s %s/%s × %s %s = %s %s = %s %s",
					count, trimFloat(wpl), weightUnit, lengthUnit, trimFloat(length), lengthUnit,
					trimFloat(round2(totalWeight)), weightUnit, trimFloat(round2(tons)), tonUnit),
			})

			if complexSubCategories[member.SubCategory] {
				result.ComplexCategories[category] = true
			}
		}
		if categoryTons > 0 {
			result.CategoryTons[category] = round2(categoryTons)
			rawTotal += categoryTons
		}
	}

	if rawTotal <= 0 {
		return
	}

	connections := rawTotal * ConnectionAllowance
	waste := rawTotal * WasteAllowance
	result.Steel = append(result.Steel,
		models.QuantityItem{
			Description: "Connections and miscellaneous steel allowance",
			Count:       1,
			TotalWeight: round2(connections * divisor),
			Unit:        weightUnit,
			TonUnit:     tonUnit,
			Calculation: fmt.Sprintf("%s %s × 10%% = %s %s", trimFloat(round2(rawTotal)), tonUnit, trimFloat(round2(connections)), tonUnit),
		},
		models.QuantityItem{
			Description: "Waste allowance",
			Count:       1,
			TotalWeight: round2(waste * divisor),
			Unit:        weightUnit,
			TonUnit:     tonUnit,
			Calculation: fmt.Sprintf("%s %s × 3%% = %s %s", trimFloat(round2(rawTotal)), tonUnit, trimFloat(round2(waste)), tonUnit),
		},
	)
	result.TotalSteelTon = round2(rawTotal + connections + waste)
}

func (c *Calculator) concreteTakeoff(ext *models.TargetedExtraction, us models.UnitSystem, result *models.QuantityTakeoffResult) {
	if ext == nil {
		return
	}
	volumeUnit := "m³"
	if us == models.UnitSystemImperial {
		volumeUnit = "CY"
	}

	byType := make(map[string]float64)
	order := []string{}
	for _, el := range ext.Foundations {
		if el.Count <= 0 || el.Width <= 0 || el.Length <= 0 || el.Depth <= 0 {
			continue
		}
		perUnit := el.Width * el.Length * el.Depth
		total := float64(el.Count) * perUnit
		calc := fmt.Sprintf("%d × (%s × %s × %s) m³ = %s m³",
			el.Count, trimFloat(el.Width), trimFloat(el.Length), trimFloat(el.Depth), trimFloat(round2(total)))
		if us == models.UnitSystemImperial {
			total = total / 27 // ft³ to CY
			calc = fmt.Sprintf("%d × (%s × %s × %s) ft³ ÷ 27 = %s CY",
				el.Count, trimFloat(el.Width), trimFloat(el.Length), trimFloat(el.Depth), trimFloat(round2(total)))
			perUnit = perUnit / 27
		}

		result.Concrete = append(result.Concrete, models.QuantityItem{
			Description:   describeElement(el),
			Count:         el.Count,
			VolumePerUnit: round2(perUnit),
			TotalVolume:   round2(total),
			Unit:          volumeUnit,
			VolumeUnit:    volumeUnit,
			Calculation:   calc,
		})
		if _, seen := byType[el.Type]; !seen {
			order = append(order, el.Type)
		}
		byType[el.Type] += total
		result.TotalConcrete += total
		if el.Grade != "" && result.ConcreteGrade == "" {
			result.ConcreteGrade = el.Grade
		}
	}
	result.TotalConcrete = round2(result.TotalConcrete)

	// Rebar derives from concrete volume at a fixed intensity per element type.
	weightUnit := "kg"
	rebarTonUnit := "tonnes"
	rebarDivisor := 1000.0
	intensityUnit := "kg/m³"
	if us == models.UnitSystemImperial {
		weightUnit = "lbs"
		rebarTonUnit = "US tons"
		rebarDivisor = 2000.0
		intensityUnit = "lbs/CY"
	}
	for _, elType := range order {
		vol := byType[elType]
		intensity := RebarIntensity(elType, us)
		weight := vol * intensity
		result.Rebar = append(result.Rebar, models.QuantityItem{
			Description:   fmt.Sprintf("Rebar in %s", elType),
			Count:         1,
			WeightPerUnit: intensity,
			TotalWeight:   round2(weight),
			Unit:          weightUnit,
			TonUnit:       rebarTonUnit,
			Calculation: fmt.Sprintf("%s %s × %s %s = %s %s",
				trimFloat(round2(vol)), volumeUnit, trimFloat(intensity), intensityUnit,
				trimFloat(round2(weight)), weightUnit),
		})
		result.TotalRebar += weight / rebarDivisor
	}
	result.TotalRebar = round2(result.TotalRebar)
}

func (c *Calculator) areaTakeoff(ext *models.TargetedExtraction, us models.UnitSystem, result *models.QuantityTakeoffResult) {
	if ext == nil || ext.Envelope == nil || ext.Envelope.Area <= 0 {
		return
	}
	unit := ext.Envelope.Unit
	if unit == "" {
		if us == models.UnitSystemImperial {
			unit = "SF"
		} else {
			unit = "m²"
		}
	}
	result.Areas = append(result.Areas, models.QuantityItem{
		Description: "Building footprint area",
		Count:       1,
		TotalVolume: ext.Envelope.Area,
		Unit:        unit,
		Calculation: fmt.Sprintf("from drawings = %s %s", trimFloat(ext.Envelope.Area), unit),
	})
}

// pieceTakeoff counts connection and hardware pieces; these price per piece,
// not by mass.
func (c *Calculator) pieceTakeoff(ds *models.SteelDataset, result *models.QuantityTakeoffResult) {
	for _, member := range ds.Connections {
		kind := "bolt"
		if member.SubCategory == "anchorBolt" {
			kind = "anchor bolt"
		} else if member.SubCategory == "weld" {
			kind = "weld"
		}
		result.PieceCounts[kind] += member.Quantity
	}
	for _, member := range ds.Hardware {
		kind := "washer"
		if member.SubCategory == "nut" {
			kind = "nut"
		}
		result.PieceCounts[kind] += member.Quantity
	}
	for _, kind := range []string{"bolt", "anchor bolt", "weld", "nut", "washer"} {
		count := result.PieceCounts[kind]
		if count <= 0 {
			continue
		}
		result.Counts = append(result.Counts, models.QuantityItem{
			Description: fmt.Sprintf("%s count", capitalize(kind)),
			Count:       count,
			Unit:        "ea",
			Calculation: fmt.Sprintf("summed from schedules and plans = %d ea", count),
		})
	}
}

// classify derives the pricing hints the estimation engine needs: erection
// height class and the governing concrete grade.
func (c *Calculator) classify(ds *models.SteelDataset, ext *models.TargetedExtraction, us models.UnitSystem, result *models.QuantityTakeoffResult) {
	result.HeightClass = "standard"
	if ext != nil && ext.Envelope != nil {
		limit := 9.0
		if us == models.UnitSystemImperial {
			limit = 30.0
		}
		if ext.Envelope.EaveHeight > limit {
			result.HeightClass = "high"
		}
	}
}

func unitNames(us models.UnitSystem) (lengthUnit, weightUnit, tonUnit string, divisor float64) {
	if us == models.UnitSystemImperial {
		return "ft", "lbs", "US tons", 2000
	}
	return "m", "kg", "tonnes", 1000
}

func describeElement(el models.FoundationElement) string {
	if el.Mark != "" {
		return fmt.Sprintf("%s %s", el.Type, el.Mark)
	}
	return el.Type
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// trimFloat renders a float without trailing zeros.
func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
