package takeoff

import (
	"regexp"
	"strconv"

	"github.com/takeoffworks/drawingestimate/internal/models"
)

// Static weight-per-length reference tables, keyed by normalized designation.
// Imperial values are lb/ft; metric values are kg/m. Supplied as read-only
// configuration — nothing here is computed at run time.

var imperialWeights = map[string]float64{
	// Channels
	"C6X10.5":  10.5,
	"C8X11.5":  11.5,
	"C10X15.3": 15.3,
	"C12X20.7": 20.7,
	"C15X33.9": 33.9,
	// Angles (equal leg)
	"L2X2X1/4": 3.19,
	"L3X3X1/4": 4.9,
	"L4X4X1/4": 6.6,
	"L4X4X3/8": 9.8,
	"L5X5X3/8": 12.3,
	"L6X6X3/8": 14.9,
	// Hollow structural sections
	"HSS4X4X1/4":   12.21,
	"HSS5X5X1/4":   15.62,
	"HSS6X6X1/4":   19.02,
	"HSS6X6X3/8":   27.48,
	"HSS8X8X1/4":   25.82,
	"HSS8X8X3/8":   37.69,
	"HSS10X10X3/8": 47.9,
	"HSS12X12X1/2": 76.07,
	// Pipes
	"PIPE3STD": 7.58,
	"PIPE4STD": 10.79,
	"PIPE6STD": 18.97,
	"PIPE8STD": 28.55,
}

var metricWeights = map[string]float64{
	// Indian IS
	"ISMB100": 11.5,
	"ISMB150": 14.9,
	"ISMB200": 25.4,
	"ISMB250": 37.3,
	"ISMB300": 44.2,
	"ISMB350": 52.4,
	"ISMB400": 61.6,
	"ISMB450": 72.4,
	"ISMB500": 86.9,
	"ISMB600": 122.6,
	"ISMC75":  6.8,
	"ISMC100": 9.2,
	"ISMC150": 16.4,
	"ISMC200": 22.1,
	"ISMC250": 30.4,
	"ISMC300": 35.8,
	// Indian equal angles
	"ISA50X50X6":    4.5,
	"ISA65X65X6":    5.8,
	"ISA75X75X6":    6.8,
	"ISA90X90X8":    10.8,
	"ISA100X100X10": 14.9,
	// European EN
	"IPE100": 8.1,
	"IPE140": 12.9,
	"IPE160": 15.8,
	"IPE200": 22.4,
	"IPE240": 30.7,
	"IPE300": 42.2,
	"IPE360": 57.1,
	"IPE400": 66.3,
	"IPE450": 77.6,
	"IPE500": 90.7,
	"HEA200": 42.3,
	"HEA240": 60.3,
	"HEA300": 88.3,
	"HEB200": 61.3,
	"HEB300": 117,
	"UPN100": 10.6,
	"UPN200": 25.3,
	"UPN300": 46.2,
	// Metric hollow sections
	"SHS50X50X3":   4.35,
	"SHS75X75X4":   8.73,
	"SHS100X100X4": 11.9,
	"SHS100X100X6": 17.2,
	"SHS150X150X6": 26.6,
	"RHS100X50X4":  8.59,
	"RHS150X100X6": 21.9,
	"RHS200X100X8": 34.2,
	"CHS114.3X4.5": 12.2,
	"CHS168.3X6":   24,
	"CHS219.1X8":   41.6,
	// Purlins (common gauge)
	"Z150X2":   4.6,
	"Z200X2":   5.8,
	"Z200X2.5": 7.2,
	"Z250X2.5": 8.4,
	"C150X2":   4.4,
	"C200X2.5": 7,
}

// trailingMass matches the weight segment UB/UC/AS and AISC style
// designations carry as their last numeric token.
var trailingMass = regexp.MustCompile(`X(\d{1,3}(?:\.\d+)?)$|(?:UB|UC)\s?(\d{1,3}(?:\.\d+)?)$`)

// Category defaults for designations absent from every table, so a missing
// table row degrades the estimate instead of zeroing a whole bucket.
var defaultWeightPerLength = map[string]struct{ imperial, metric float64 }{
	models.CategoryMainMembers:    {30, 45},
	models.CategoryHollowSections: {20, 15},
	models.CategoryAngles:         {8, 8},
	models.CategoryPurlins:        {4, 6},
	models.CategoryPlates:         {25, 20},
	models.CategoryBars:           {3, 2},
}

// ResolveWeightPerLength returns the weight per unit length for a designation
// in the given unit system (lb/ft or kg/m) and whether the value came from
// the reference table, the designation itself, or a category default.
func ResolveWeightPerLength(designation, category string, us models.UnitSystem) (weight float64, source string) {
	table := metricWeights
	if us == models.UnitSystemImperial {
		table = imperialWeights
	}
	if w, ok := table[designation]; ok {
		return w, "table"
	}
	if m := trailingMass.FindStringSubmatch(designation); m != nil {
		tok := m[1]
		if tok == "" {
			tok = m[2]
		}
		if w, err := strconv.ParseFloat(tok, 64); err == nil && w > 0 && w < 1000 {
			return w, "designation"
		}
	}
	if d, ok := defaultWeightPerLength[category]; ok {
		if us == models.UnitSystemImperial {
			return d.imperial, "default"
		}
		return d.metric, "default"
	}
	return 0, "none"
}

// rebarIntensity is the reinforcement rate by element type: lbs per CY for
// imperial, kg per m³ for metric.
var rebarIntensity = map[string]struct{ lbsPerCY, kgPerM3 float64 }{
	"footing":        {100, 60},
	"slab-on-grade":  {80, 47},
	"grade beam":     {150, 89},
	"column":         {200, 119},
	"retaining wall": {130, 77},
	"elevated slab":  {180, 107},
	"pile cap":       {120, 71},
}

// RebarIntensity returns the reinforcement intensity for an element type,
// falling back to the footing rate for unknown types.
func RebarIntensity(elementType string, us models.UnitSystem) float64 {
	r, ok := rebarIntensity[elementType]
	if !ok {
		r = rebarIntensity["footing"]
	}
	if us == models.UnitSystemImperial {
		return r.lbsPerCY
	}
	return r.kgPerM3
}

// Default member lengths by category when a member carries none, in the
// active unit system (ft or m).
var defaultLengths = map[string]struct{ imperial, metric float64 }{
	models.CategoryMainMembers:    {30, 9},
	models.CategoryHollowSections: {20, 6},
	models.CategoryAngles:         {10, 3},
	models.CategoryPurlins:        {25, 7.5},
	models.CategoryPlates:         {2, 0.6},
	models.CategoryBars:           {20, 6},
}

// DefaultLength returns the assumed member length for a category.
func DefaultLength(category string, us models.UnitSystem) float64 {
	d, ok := defaultLengths[category]
	if !ok {
		return 0
	}
	if us == models.UnitSystemImperial {
		return d.imperial
	}
	return d.metric
}
