package models

// UnitSystem identifies which measurement system a drawing set was produced in.
// It selects the formulas and reference tables used for takeoff.
type UnitSystem string

const (
	UnitSystemImperial UnitSystem = "Imperial"
	UnitSystemMetric   UnitSystem = "Metric"
)

// TextFragment is a single positioned piece of text recovered from a page's
// content stream by the PDF decoding collaborator.
type TextFragment struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Line is an assembled reading-order line of text on a drawing page.
type Line struct {
	YPosition       float64        `json:"yPosition"`
	Text            string         `json:"text"`
	SourceFragments []TextFragment `json:"sourceFragments,omitempty"`
}

// DrawingPage is one decoded page of a drawing set. Immutable after
// construction by the layout reader.
type DrawingPage struct {
	PageNumber int    `json:"pageNumber"`
	Lines      []Line `json:"lines"`
}

// Dimensions carries optional cross-section or element dimensions parsed from
// a designation or schedule row.
type Dimensions struct {
	Width     float64 `json:"width,omitempty"`
	Height    float64 `json:"height,omitempty"`
	Thickness float64 `json:"thickness,omitempty"`
}

// ExtractedMember is a classified structural member recovered from drawing
// text. Identity for deduplication is (Designation, Category, Source).
type ExtractedMember struct {
	Type        string      `json:"type"`
	Designation string      `json:"designation"`
	Category    string      `json:"category"`
	SubCategory string      `json:"subCategory,omitempty"`
	Quantity    int         `json:"quantity"`
	Dimensions  *Dimensions `json:"dimensions,omitempty"`
	Weight      float64     `json:"weight,omitempty"`
	Length      float64     `json:"length,omitempty"`
	Source      string      `json:"source"`
	RawLine     string      `json:"rawLine,omitempty"`
}

// Bucket keys for SteelDataset. Every extracted member lands in exactly one.
const (
	CategoryMainMembers    = "mainMembers"
	CategoryHollowSections = "hollowSections"
	CategoryAngles         = "angles"
	CategoryPurlins        = "purlins"
	CategoryPlates         = "plates"
	CategoryBars           = "bars"
	CategoryConnections    = "connections"
	CategoryHardware       = "hardware"
	CategoryMiscellaneous  = "miscellaneous"
)

// AllCategories lists the dataset buckets in reporting order.
var AllCategories = []string{
	CategoryMainMembers,
	CategoryHollowSections,
	CategoryAngles,
	CategoryPurlins,
	CategoryPlates,
	CategoryBars,
	CategoryConnections,
	CategoryHardware,
	CategoryMiscellaneous,
}

// CategorySummary aggregates a single dataset bucket.
type CategorySummary struct {
	Count    int     `json:"count"`
	Quantity int     `json:"quantity"`
	Weight   float64 `json:"weight"`
}

// SteelDataset is the merged, classified inventory of structural members for
// one drawing set. The summary is computed strictly after reclassification.
type SteelDataset struct {
	MainMembers    []ExtractedMember          `json:"mainMembers"`
	HollowSections []ExtractedMember          `json:"hollowSections"`
	Angles         []ExtractedMember          `json:"angles"`
	Purlins        []ExtractedMember          `json:"purlins"`
	Plates         []ExtractedMember          `json:"plates"`
	Bars           []ExtractedMember          `json:"bars"`
	Connections    []ExtractedMember          `json:"connections"`
	Hardware       []ExtractedMember          `json:"hardware"`
	Miscellaneous  []ExtractedMember          `json:"miscellaneous"`
	Summary        map[string]CategorySummary `json:"summary"`
}

// Bucket returns the member slice for a category key.
func (d *SteelDataset) Bucket(category string) []ExtractedMember {
	switch category {
	case CategoryMainMembers:
		return d.MainMembers
	case CategoryHollowSections:
		return d.HollowSections
	case CategoryAngles:
		return d.Angles
	case CategoryPurlins:
		return d.Purlins
	case CategoryPlates:
		return d.Plates
	case CategoryBars:
		return d.Bars
	case CategoryConnections:
		return d.Connections
	case CategoryHardware:
		return d.Hardware
	case CategoryMiscellaneous:
		return d.Miscellaneous
	}
	return nil
}

// SetBucket replaces the member slice for a category key.
func (d *SteelDataset) SetBucket(category string, members []ExtractedMember) {
	switch category {
	case CategoryMainMembers:
		d.MainMembers = members
	case CategoryHollowSections:
		d.HollowSections = members
	case CategoryAngles:
		d.Angles = members
	case CategoryPurlins:
		d.Purlins = members
	case CategoryPlates:
		d.Plates = members
	case CategoryBars:
		d.Bars = members
	case CategoryConnections:
		d.Connections = members
	case CategoryHardware:
		d.Hardware = members
	case CategoryMiscellaneous:
		d.Miscellaneous = members
	}
}

// SheetType is the taxonomy of drawing sheet purposes produced by the
// classification pass.
type SheetType string

const (
	SheetTypePlan       SheetType = "plan"
	SheetTypeElevation  SheetType = "elevation"
	SheetTypeSection    SheetType = "section"
	SheetTypeSchedule   SheetType = "schedule"
	SheetTypeDetail     SheetType = "detail"
	SheetTypeFoundation SheetType = "foundation"
	SheetTypeGeneral    SheetType = "general"
)

// Valid reports whether t is a known sheet type.
func (t SheetType) Valid() bool {
	switch t {
	case SheetTypePlan, SheetTypeElevation, SheetTypeSection, SheetTypeSchedule,
		SheetTypeDetail, SheetTypeFoundation, SheetTypeGeneral:
		return true
	}
	return false
}

// SheetClassification is the first analysis pass's verdict for one page.
type SheetClassification struct {
	PageNumber     int        `json:"pageNumber"`
	SheetType      SheetType  `json:"sheetType"`
	Scale          string     `json:"scale,omitempty"`
	DesignStandard string     `json:"designStandard,omitempty"`
	UnitSystem     UnitSystem `json:"unitSystem"`
}
