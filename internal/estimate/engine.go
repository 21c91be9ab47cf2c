// Package estimate prices a quantity takeoff into a bill of quantities with
// a rolled-up cost summary.
package estimate

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/takeoffworks/drawingestimate/internal/models"
	"github.com/takeoffworks/drawingestimate/internal/rates"
)

// Markup percentages, applied sequentially to the pre-tax running subtotal.
const (
	ContingencyPct     = 0.10
	PreliminariesPct   = 0.08
	OverheadsProfitPct = 0.12
)

// Complexity multiplier thresholds on total member count.
const (
	complexMemberThreshold = 500
	raisedMemberThreshold  = 200
)

// taxRates by currency (sales tax / GST / VAT).
var taxRates = map[string]float64{
	"USD": 0.085,
	"INR": 0.18,
	"EUR": 0.19,
	"GBP": 0.20,
	"AUD": 0.10,
}

// surfaceMinCharge floors the surface treatment line per category.
var surfaceMinCharge = map[string]float64{
	"USD": 500,
	"INR": 15000,
	"EUR": 450,
	"GBP": 400,
	"AUD": 750,
}

// supplyClassByBucket picks the representative steel weight class used for a
// bucket's supply rate when no single designation governs.
var supplyClassByBucket = map[string]string{
	models.CategoryMainMembers:    "medium",
	models.CategoryHollowSections: "hss",
	models.CategoryAngles:         "light",
	models.CategoryPurlins:        "light",
	models.CategoryPlates:         "medium",
	models.CategoryBars:           "light",
}

// bucketLabels give line items human descriptions per dataset bucket.
var bucketLabels = map[string]string{
	models.CategoryMainMembers:    "Main structural members",
	models.CategoryHollowSections: "Hollow sections",
	models.CategoryAngles:         "Angles",
	models.CategoryPurlins:        "Purlins and girts",
	models.CategoryPlates:         "Plates and stiffeners",
	models.CategoryBars:           "Bars and rods",
}

// Engine prices takeoffs.
type Engine struct {
	logger *slog.Logger
}

// NewEngine returns an Engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Estimate walks every quantity bucket and emits priced line items, then
// rolls them into a cost summary. A missing or zero bucket contributes no
// items; an unresolvable rate degrades to a zero rate with a recorded reason
// rather than aborting the estimate.
func (e *Engine) Estimate(takeoff *models.QuantityTakeoffResult, location, currency string) *models.EstimateResult {
	if currency == "" {
		currency = rates.DetectCurrency(rates.ProjectInfo{Location: location})
	}
	result := &models.EstimateResult{
		Items:      []models.EstimationLineItem{},
		Categories: map[string]models.CategoryGroup{},
	}
	result.CostSummary.Currency = currency
	if takeoff == nil {
		e.logger.Warn("Estimate called without a takeoff, returning empty result.")
		return result
	}

	seq := 0
	nextCode := func(prefix string) string {
		seq++
		return fmt.Sprintf("%s-%02d", prefix, seq)
	}

	for _, bucket := range []string{
		models.CategoryMainMembers,
		models.CategoryHollowSections,
		models.CategoryAngles,
		models.CategoryPurlins,
		models.CategoryPlates,
		models.CategoryBars,
	} {
		tons := takeoff.CategoryTons[bucket]
		if tons <= 0 {
			continue
		}
		e.priceSteelBucket(result, takeoff, bucket, tons, location, currency, nextCode)
	}

	e.priceConnections(result, takeoff, location, currency, nextCode)
	e.priceConcrete(result, takeoff, location, currency, nextCode)
	e.priceRebar(result, takeoff, location, currency, nextCode)

	e.summarize(result, takeoff, currency)
	e.group(result)
	return result
}

func (e *Engine) priceSteelBucket(result *models.EstimateResult, takeoff *models.QuantityTakeoffResult, bucket string, tons float64, location, currency string, nextCode func(string) string) {
	label := bucketLabels[bucket]

	supply := rates.LookupRate(currency, rates.CategorySteel, supplyClassByBucket[bucket], location)
	result.Items = append(result.Items, lineItem(nextCode("ST"), fmt.Sprintf("%s — material supply", label),
		tons, tonUnit(takeoff.UnitSystem), supply, "Structural Steel", bucket))

	fabTier := "standard"
	if takeoff.ComplexCategories[bucket] {
		fabTier = "complex"
	}
	fab := rates.LookupRate(currency, rates.CategoryFab, fabTier, location)
	result.Items = append(result.Items, lineItem(nextCode("FB"), fmt.Sprintf("%s — fabrication (%s)", label, fabTier),
		tons, tonUnit(takeoff.UnitSystem), fab, "Structural Steel", bucket))

	paint := rates.LookupRate(currency, rates.CategorySurface, "paint", location)
	surfaceItem := lineItem(nextCode("SF"), fmt.Sprintf("%s — surface treatment", label),
		tons, tonUnit(takeoff.UnitSystem), paint, "Structural Steel", bucket)
	if floor := surfaceMinCharge[currency]; surfaceItem.TotalCost > 0 && surfaceItem.TotalCost < floor {
		surfaceItem.TotalCost = floor
		surfaceItem.Quantity = 1
		surfaceItem.Unit = "min charge"
		surfaceItem.UnitRate = floor
		surfaceItem.RateNote = "category minimum charge applied"
	}
	result.Items = append(result.Items, surfaceItem)

	erectTier := "standard"
	if takeoff.HeightClass == "high" {
		erectTier = "high"
	}
	erect := rates.LookupRate(currency, rates.CategoryErection, erectTier, location)
	result.Items = append(result.Items, lineItem(nextCode("ER"), fmt.Sprintf("%s — erection (%s)", label, erectTier),
		tons, tonUnit(takeoff.UnitSystem), erect, "Structural Steel", bucket))
}

// priceConnections prices bolts, nuts and washers per piece, not by mass.
func (e *Engine) priceConnections(result *models.EstimateResult, takeoff *models.QuantityTakeoffResult, location, currency string, nextCode func(string) string) {
	for _, kind := range []string{"bolt", "anchor bolt", "weld", "nut", "washer"} {
		count := takeoff.PieceCounts[kind]
		if count <= 0 {
			continue
		}
		rate := rates.LookupRate(currency, rates.CategoryHardware, kind, location)
		category := "Connections"
		if kind == "nut" || kind == "washer" {
			category = "Hardware"
		}
		result.Items = append(result.Items, lineItem(nextCode("CN"), fmt.Sprintf("%s supply and installation", kind),
			float64(count), "ea", rate, category, kind))
	}
}

func (e *Engine) priceConcrete(result *models.EstimateResult, takeoff *models.QuantityTakeoffResult, location, currency string, nextCode func(string) string) {
	if takeoff.TotalConcrete <= 0 {
		return
	}
	rate := rates.LookupConcreteRate(takeoff.ConcreteGrade, location, currency)
	unit := "m³"
	if takeoff.UnitSystem == models.UnitSystemImperial {
		unit = "CY"
	}
	grade := takeoff.ConcreteGrade
	if grade == "" {
		grade = "default grade"
	}
	result.Items = append(result.Items, lineItem(nextCode("CC"), fmt.Sprintf("Concrete supply and placement (%s)", grade),
		takeoff.TotalConcrete, unit, rate, "Concrete", "concrete"))
}

func (e *Engine) priceRebar(result *models.EstimateResult, takeoff *models.QuantityTakeoffResult, location, currency string, nextCode func(string) string) {
	if takeoff.TotalRebar <= 0 {
		return
	}
	rate := rates.LookupRate(currency, rates.CategoryRebar, "installed", location)
	result.Items = append(result.Items, lineItem(nextCode("RB"), "Reinforcement supply, cut, bend and fix",
		takeoff.TotalRebar, tonUnit(takeoff.UnitSystem), rate, "Reinforcement", "rebar"))
}

// summarize recomputes the cost summary wholesale from the current items.
// Each markup percentage applies to the pre-tax running subtotal; tax applies
// once at the end.
func (e *Engine) summarize(result *models.EstimateResult, takeoff *models.QuantityTakeoffResult, currency string) {
	var base float64
	for _, item := range result.Items {
		base += item.TotalCost
	}

	multiplier := 1.0
	switch {
	case takeoff.MemberCount > complexMemberThreshold:
		multiplier = 1.10
	case takeoff.MemberCount > raisedMemberThreshold:
		multiplier = 1.05
	}

	running := base * multiplier
	adjustment := running - base
	contingency := running * ContingencyPct
	running += contingency
	preliminaries := running * PreliminariesPct
	running += preliminaries
	overheads := running * OverheadsProfitPct
	running += overheads
	tax := running * taxRates[currency]

	result.CostSummary = models.CostSummary{
		BaseCost:             round2(base),
		ComplexityAdjustment: round2(adjustment),
		Contingency:          round2(contingency),
		Preliminaries:        round2(preliminaries),
		OverheadsProfit:      round2(overheads),
		SubtotalExTax:        round2(running),
		Tax:                  round2(tax),
		TotalIncTax:          round2(running + tax),
		Currency:             currency,
	}
	if takeoff.TotalSteelTon > 0 {
		result.CostSummary.RatePerTonne = round2(result.CostSummary.TotalIncTax / takeoff.TotalSteelTon)
	}
}

// group builds the reporting view over the flat item list.
func (e *Engine) group(result *models.EstimateResult) {
	for _, item := range result.Items {
		group := result.Categories[item.Category]
		group.Items = append(group.Items, item)
		group.Total = round2(group.Total + item.TotalCost)
		if group.Subcategories == nil {
			group.Subcategories = map[string][]models.EstimationLineItem{}
		}
		group.Subcategories[item.Subcategory] = append(group.Subcategories[item.Subcategory], item)
		result.Categories[item.Category] = group
	}
}

// lineItem builds one priced row. A nil rate degrades to zero cost with the
// reason recorded, keeping the estimate whole.
func lineItem(code, description string, quantity float64, unit string, rate *rates.Rate, category, subcategory string) models.EstimationLineItem {
	item := models.EstimationLineItem{
		Code:        code,
		Description: description,
		Quantity:    round2(quantity),
		Unit:        unit,
		Category:    category,
		Subcategory: subcategory,
	}
	if rate == nil {
		item.RateSource = models.RateMissing
		item.RateNote = "no rate table entry; priced at zero"
		return item
	}
	item.UnitRate = rate.BaseRate
	item.RateSource = models.RateFromTable
	item.TotalCost = round2(item.Quantity * item.UnitRate)
	return item
}

func tonUnit(us models.UnitSystem) string {
	if us == models.UnitSystemImperial {
		return "US tons"
	}
	return "tonnes"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
