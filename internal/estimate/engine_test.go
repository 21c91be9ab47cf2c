package estimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takeoffworks/drawingestimate/internal/models"
)

func steelOnlyTakeoff(tons float64) *models.QuantityTakeoffResult {
	return &models.QuantityTakeoffResult{
		UnitSystem:    models.UnitSystemImperial,
		CategoryTons:  map[string]float64{models.CategoryMainMembers: tons},
		TotalSteelTon: tons * 1.13,
	}
}

func TestEstimateSteelBucketLineItems(t *testing.T) {
	e := NewEngine(nil)

	result := e.Estimate(steelOnlyTakeoff(10), "", "USD")

	require.Len(t, result.Items, 4) // supply, fabrication, surface, erection
	assert.Equal(t, "ST-01", result.Items[0].Code)
	assert.Equal(t, 2200.0, result.Items[0].UnitRate) // USD medium supply
	assert.Equal(t, 22000.0, result.Items[0].TotalCost)
	assert.Equal(t, "FB-02", result.Items[1].Code)
	assert.Equal(t, 8000.0, result.Items[1].TotalCost) // standard fabrication
	assert.Equal(t, "SF-03", result.Items[2].Code)
	assert.Equal(t, 3500.0, result.Items[2].TotalCost)
	assert.Equal(t, "ER-04", result.Items[3].Code)
	assert.Equal(t, 6000.0, result.Items[3].TotalCost) // standard erection
}

func TestEstimateLineTotalInvariant(t *testing.T) {
	e := NewEngine(nil)
	tk := steelOnlyTakeoff(7.37)
	tk.PieceCounts = map[string]int{"bolt": 320, "washer": 320}
	tk.TotalConcrete = 53.33
	tk.ConcreteGrade = "4000 PSI"
	tk.TotalRebar = 2.67

	result := e.Estimate(tk, "", "USD")

	require.NotEmpty(t, result.Items)
	for _, item := range result.Items {
		assert.InDelta(t, item.Quantity*item.UnitRate, item.TotalCost, 0.011, "item %s", item.Code)
	}
}

func TestEstimateSequentialMarkups(t *testing.T) {
	e := NewEngine(nil)

	result := e.Estimate(steelOnlyTakeoff(10), "", "USD")

	s := result.CostSummary
	assert.Equal(t, 39500.0, s.BaseCost) // 22000 + 8000 + 3500 + 6000
	assert.Zero(t, s.ComplexityAdjustment)
	assert.Equal(t, 3950.0, s.Contingency)    // 10% of 39500
	assert.Equal(t, 3476.0, s.Preliminaries)  // 8% of 43450
	assert.Equal(t, 5631.12, s.OverheadsProfit) // 12% of 46926
	assert.Equal(t, 52557.12, s.SubtotalExTax)
	assert.Equal(t, 4467.36, s.Tax) // 8.5% sales tax
	assert.Equal(t, 57024.48, s.TotalIncTax)
	assert.Equal(t, "USD", s.Currency)
	assert.Equal(t, 5046.41, s.RatePerTonne) // 57024.48 / 11.3
}

func TestEstimateSurfaceMinimumCharge(t *testing.T) {
	e := NewEngine(nil)
	tk := &models.QuantityTakeoffResult{
		UnitSystem:   models.UnitSystemImperial,
		CategoryTons: map[string]float64{models.CategoryAngles: 0.5},
	}

	result := e.Estimate(tk, "", "USD")

	require.Len(t, result.Items, 4)
	surface := result.Items[2]
	assert.Equal(t, "SF-03", surface.Code)
	assert.Equal(t, 500.0, surface.TotalCost) // floored from 175
	assert.Equal(t, 1.0, surface.Quantity)
	assert.Equal(t, "min charge", surface.Unit)
	assert.Equal(t, "category minimum charge applied", surface.RateNote)
}

func TestEstimateComplexityMultiplier(t *testing.T) {
	e := NewEngine(nil)

	tk := steelOnlyTakeoff(10)
	tk.MemberCount = 600
	high := e.Estimate(tk, "", "USD")
	assert.Equal(t, 3950.0, high.CostSummary.ComplexityAdjustment) // 10% of base

	tk = steelOnlyTakeoff(10)
	tk.MemberCount = 300
	raised := e.Estimate(tk, "", "USD")
	assert.Equal(t, 1975.0, raised.CostSummary.ComplexityAdjustment) // 5% of base

	tk = steelOnlyTakeoff(10)
	tk.MemberCount = 200
	flat := e.Estimate(tk, "", "USD")
	assert.Zero(t, flat.CostSummary.ComplexityAdjustment)
}

func TestEstimateComplexFabricationTier(t *testing.T) {
	e := NewEngine(nil)
	tk := steelOnlyTakeoff(10)
	tk.ComplexCategories = map[string]bool{models.CategoryMainMembers: true}

	result := e.Estimate(tk, "", "USD")

	fab := result.Items[1]
	assert.Contains(t, fab.Description, "complex")
	assert.Equal(t, 1200.0, fab.UnitRate)
}

func TestEstimateHighErectionTier(t *testing.T) {
	e := NewEngine(nil)
	tk := steelOnlyTakeoff(10)
	tk.HeightClass = "high"

	result := e.Estimate(tk, "", "USD")

	erect := result.Items[3]
	assert.Contains(t, erect.Description, "high")
	assert.Equal(t, 900.0, erect.UnitRate)
}

func TestEstimateConnectionsAndHardware(t *testing.T) {
	e := NewEngine(nil)
	tk := &models.QuantityTakeoffResult{
		UnitSystem:  models.UnitSystemImperial,
		PieceCounts: map[string]int{"bolt": 200, "nut": 50},
	}

	result := e.Estimate(tk, "", "USD")

	require.Len(t, result.Items, 2)
	assert.Equal(t, 3000.0, result.Items[0].TotalCost) // 200 × 15
	assert.Equal(t, "Connections", result.Items[0].Category)
	assert.Equal(t, 100.0, result.Items[1].TotalCost) // 50 × 2
	assert.Equal(t, "Hardware", result.Items[1].Category)

	assert.Equal(t, 3000.0, result.Categories["Connections"].Total)
	assert.Equal(t, 100.0, result.Categories["Hardware"].Total)
}

func TestEstimateConcreteAndRebar(t *testing.T) {
	e := NewEngine(nil)
	tk := &models.QuantityTakeoffResult{
		UnitSystem:    models.UnitSystemImperial,
		TotalConcrete: 53.33,
		ConcreteGrade: "4000 PSI",
		TotalRebar:    2.67,
	}

	result := e.Estimate(tk, "", "USD")

	require.Len(t, result.Items, 2)
	concrete := result.Items[0]
	assert.Equal(t, "Concrete supply and placement (4000 PSI)", concrete.Description)
	assert.Equal(t, 200.0, concrete.UnitRate)
	assert.Equal(t, "CY", concrete.Unit)
	assert.Equal(t, 10666.0, concrete.TotalCost)

	rebar := result.Items[1]
	assert.Equal(t, 1800.0, rebar.UnitRate)
	assert.Equal(t, 4806.0, rebar.TotalCost)
}

func TestEstimateCurrencyFromLocation(t *testing.T) {
	e := NewEngine(nil)

	result := e.Estimate(steelOnlyTakeoff(10), "Sydney", "")

	assert.Equal(t, "AUD", result.CostSummary.Currency)
	// AUD medium supply 3150 adjusted by the Sydney factor.
	assert.Equal(t, 3622.5, result.Items[0].UnitRate)
}

func TestEstimateNilTakeoff(t *testing.T) {
	e := NewEngine(nil)

	result := e.Estimate(nil, "", "")

	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Items)
	assert.Equal(t, "USD", result.CostSummary.Currency)
	assert.Zero(t, result.CostSummary.TotalIncTax)
}

func TestEstimateGroupTotalsMatchItems(t *testing.T) {
	e := NewEngine(nil)
	tk := steelOnlyTakeoff(10)
	tk.PieceCounts = map[string]int{"bolt": 100}

	result := e.Estimate(tk, "", "USD")

	var grouped float64
	for _, group := range result.Categories {
		grouped += group.Total
	}
	assert.InDelta(t, result.CostSummary.BaseCost, grouped, 0.02)
}
