package takeoff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takeoffworks/drawingestimate/internal/models"
)

func TestTakeoffSteelWeightFormula(t *testing.T) {
	c := NewCalculator(nil)
	input := &Input{
		Dataset: &models.SteelDataset{
			MainMembers: []models.ExtractedMember{
				{Type: "Wide Flange Beam", Designation: "W14X68", Quantity: 12, Length: 30},
			},
		},
	}

	result := c.Takeoff(input, models.UnitSystemImperial)

	require.Len(t, result.Steel, 3) // member + connection allowance + waste allowance
	member := result.Steel[0]
	assert.Equal(t, "Wide Flange Beam W14X68", member.Description)
	assert.Equal(t, 12, member.Count)
	assert.Equal(t, 68.0, member.WeightPerUnit)
	assert.Equal(t, 24480.0, member.TotalWeight)
	assert.Equal(t, "12 × 68 lbs/ft × 30 ft = 24480 lbs = 12.24 US tons", member.Calculation)

	assert.Equal(t, 12.24, result.CategoryTons[models.CategoryMainMembers])
	assert.Equal(t, 13.83, result.TotalSteelTon) // 12.24 + 10% + 3%
	assert.Equal(t, 12, result.MemberCount)
	assert.False(t, result.Fallback)
}

func TestTakeoffAllowanceItems(t *testing.T) {
	c := NewCalculator(nil)
	input := &Input{
		Dataset: &models.SteelDataset{
			MainMembers: []models.ExtractedMember{
				{Type: "Wide Flange Beam", Designation: "W14X68", Quantity: 12, Length: 30},
			},
		},
	}

	result := c.Takeoff(input, models.UnitSystemImperial)

	require.Len(t, result.Steel, 3)
	assert.Equal(t, "12.24 US tons × 10% = 1.22 US tons", result.Steel[1].Calculation)
	assert.Equal(t, "12.24 US tons × 3% = 0.37 US tons", result.Steel[2].Calculation)
}

func TestTakeoffUsesDefaultLengthAndCategoryDefaults(t *testing.T) {
	c := NewCalculator(nil)
	input := &Input{
		Dataset: &models.SteelDataset{
			Purlins: []models.ExtractedMember{
				{Type: "Z Purlin", Designation: "Z999", Quantity: 10},
			},
		},
	}

	result := c.Takeoff(input, models.UnitSystemMetric)

	require.Len(t, result.Steel, 3)
	// 10 × 6 kg/m default × 7.5 m default = 450 kg = 0.45 tonnes
	assert.Equal(t, 6.0, result.Steel[0].WeightPerUnit)
	assert.Equal(t, 450.0, result.Steel[0].TotalWeight)
	assert.Equal(t, 0.45, result.CategoryTons[models.CategoryPurlins])
}

func TestTakeoffConcreteAndRebar(t *testing.T) {
	c := NewCalculator(nil)
	input := &Input{
		Dataset: &models.SteelDataset{},
		Extraction: &models.TargetedExtraction{
			Foundations: []models.FoundationElement{
				{Type: "footing", Mark: "F1", Count: 20, Width: 6, Length: 6, Depth: 2, Grade: "4000 PSI"},
			},
		},
	}

	result := c.Takeoff(input, models.UnitSystemImperial)

	require.Len(t, result.Concrete, 1)
	assert.Equal(t, "footing F1", result.Concrete[0].Description)
	assert.Equal(t, 53.33, result.Concrete[0].TotalVolume)
	assert.Equal(t, "20 × (6 × 6 × 2) ft³ ÷ 27 = 53.33 CY", result.Concrete[0].Calculation)
	assert.Equal(t, 53.33, result.TotalConcrete)
	assert.Equal(t, "4000 PSI", result.ConcreteGrade)

	require.Len(t, result.Rebar, 1)
	assert.Equal(t, 100.0, result.Rebar[0].WeightPerUnit) // footing intensity, lbs/CY
	assert.Equal(t, 2.67, result.TotalRebar)              // 5333.33 lbs / 2000
}

func TestTakeoffSkipsIncompleteFoundationElements(t *testing.T) {
	c := NewCalculator(nil)
	input := &Input{
		Dataset: &models.SteelDataset{},
		Extraction: &models.TargetedExtraction{
			Foundations: []models.FoundationElement{
				{Type: "footing", Count: 4, Width: 6, Length: 6}, // depth missing
				{Type: "footing", Count: 0, Width: 6, Length: 6, Depth: 2},
			},
		},
	}

	result := c.Takeoff(input, models.UnitSystemImperial)

	assert.Empty(t, result.Concrete)
	assert.Empty(t, result.Rebar)
	assert.Zero(t, result.TotalConcrete)
}

func TestTakeoffDiscrepancyPrefersHigherCount(t *testing.T) {
	c := NewCalculator(nil)
	input := &Input{
		Dataset: &models.SteelDataset{
			MainMembers: []models.ExtractedMember{
				{Type: "Wide Flange Beam", Designation: "W18X50", Quantity: 1, Length: 30},
			},
		},
		Extraction: &models.TargetedExtraction{
			Framing:      []models.FramingMember{{Mark: "B1", Designation: "W18X50", Count: 12}},
			ScheduleRows: []models.ScheduleRow{{Mark: "B1", Designation: "W18X50", Count: 14}},
		},
	}

	result := c.Takeoff(input, models.UnitSystemImperial)

	require.Len(t, result.Discrepancies, 1)
	d := result.Discrepancies[0]
	assert.Equal(t, "B1", d.Item)
	assert.Equal(t, 12, d.PlanQty)
	assert.Equal(t, 14, d.SchedQty)
	assert.Equal(t, 14, d.Resolved)
	assert.Contains(t, d.Note, "using 14")

	// The reconciled count overrides the extracted quantity.
	require.NotEmpty(t, result.Steel)
	assert.Equal(t, 14, result.Steel[0].Count)
}

func TestTakeoffNilInputReturnsFallback(t *testing.T) {
	c := NewCalculator(nil)

	result := c.Takeoff(nil, models.UnitSystemImperial)

	assert.True(t, result.Fallback)
	assert.Equal(t, "no dataset", result.FallbackReason)
	assert.Equal(t, models.UnitSystemImperial, result.UnitSystem)
	assert.NotNil(t, result.Steel)
	assert.Empty(t, result.Steel)
	assert.NotNil(t, result.CategoryTons)
}

func TestTakeoffUnknownUnitSystemDefaultsToImperial(t *testing.T) {
	c := NewCalculator(nil)

	result := c.Takeoff(nil, models.UnitSystem("cubits"))

	assert.Equal(t, models.UnitSystemImperial, result.UnitSystem)
}

func TestTakeoffHeightClass(t *testing.T) {
	c := NewCalculator(nil)

	high := c.Takeoff(&Input{
		Dataset:    &models.SteelDataset{},
		Extraction: &models.TargetedExtraction{Envelope: &models.EnvelopeSpec{EaveHeight: 35}},
	}, models.UnitSystemImperial)
	assert.Equal(t, "high", high.HeightClass)

	standard := c.Takeoff(&Input{
		Dataset:    &models.SteelDataset{},
		Extraction: &models.TargetedExtraction{Envelope: &models.EnvelopeSpec{EaveHeight: 24}},
	}, models.UnitSystemImperial)
	assert.Equal(t, "standard", standard.HeightClass)

	metricHigh := c.Takeoff(&Input{
		Dataset:    &models.SteelDataset{},
		Extraction: &models.TargetedExtraction{Envelope: &models.EnvelopeSpec{EaveHeight: 10}},
	}, models.UnitSystemMetric)
	assert.Equal(t, "high", metricHigh.HeightClass)
}

func TestTakeoffPieceCounts(t *testing.T) {
	c := NewCalculator(nil)
	input := &Input{
		Dataset: &models.SteelDataset{
			Connections: []models.ExtractedMember{
				{Designation: "M20", SubCategory: "bolt", Quantity: 200},
				{Designation: "AB24", SubCategory: "anchorBolt", Quantity: 48},
			},
			Hardware: []models.ExtractedMember{
				{Designation: "WASHER", SubCategory: "washer", Quantity: 200},
			},
		},
	}

	result := c.Takeoff(input, models.UnitSystemImperial)

	assert.Equal(t, 200, result.PieceCounts["bolt"])
	assert.Equal(t, 48, result.PieceCounts["anchor bolt"])
	assert.Equal(t, 200, result.PieceCounts["washer"])
	require.Len(t, result.Counts, 3)
	assert.Equal(t, "Bolt count", result.Counts[0].Description)
}

func TestTakeoffEnvelopeArea(t *testing.T) {
	c := NewCalculator(nil)
	input := &Input{
		Dataset:    &models.SteelDataset{},
		Extraction: &models.TargetedExtraction{Envelope: &models.EnvelopeSpec{Area: 12000}},
	}

	result := c.Takeoff(input, models.UnitSystemImperial)

	require.Len(t, result.Areas, 1)
	assert.Equal(t, 12000.0, result.Areas[0].TotalVolume)
	assert.Equal(t, "SF", result.Areas[0].Unit)
}

func TestResolveWeightPerLengthSources(t *testing.T) {
	w, src := ResolveWeightPerLength("HSS6X6X1/4", models.CategoryHollowSections, models.UnitSystemImperial)
	assert.Equal(t, 19.02, w)
	assert.Equal(t, "table", src)

	w, src = ResolveWeightPerLength("W14X68", models.CategoryMainMembers, models.UnitSystemImperial)
	assert.Equal(t, 68.0, w)
	assert.Equal(t, "designation", src)

	w, src = ResolveWeightPerLength("530UB92.4", models.CategoryMainMembers, models.UnitSystemMetric)
	assert.Equal(t, 92.4, w)
	assert.Equal(t, "designation", src)

	w, src = ResolveWeightPerLength("UNKNOWN", models.CategoryMainMembers, models.UnitSystemMetric)
	assert.Equal(t, 45.0, w)
	assert.Equal(t, "default", src)

	w, src = ResolveWeightPerLength("UNKNOWN", "nonsense", models.UnitSystemMetric)
	assert.Zero(t, w)
	assert.Equal(t, "none", src)
}

func TestRebarIntensityFallsBackToFooting(t *testing.T) {
	assert.Equal(t, 200.0, RebarIntensity("column", models.UnitSystemImperial))
	assert.Equal(t, 100.0, RebarIntensity("mystery", models.UnitSystemImperial))
	assert.Equal(t, 60.0, RebarIntensity("mystery", models.UnitSystemMetric))
}
