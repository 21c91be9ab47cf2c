package models

// Typed records produced by the targeted-extraction pass and consumed by the
// quantity takeoff calculator.

// FramingMember is a plan-derived structural member occurrence.
type FramingMember struct {
	Mark        string  `json:"mark,omitempty"`
	Designation string  `json:"designation"`
	Count       int     `json:"count"`
	Length      float64 `json:"length,omitempty"`
	Category    string  `json:"category,omitempty"`
}

// ScheduleRow is a schedule-derived member occurrence for the same marks.
type ScheduleRow struct {
	Mark        string  `json:"mark,omitempty"`
	Designation string  `json:"designation"`
	Count       int     `json:"count"`
	Length      float64 `json:"length,omitempty"`
}

// FoundationElement is a concrete element recovered from foundation sheets.
// Dimensions are in the drawing set's unit system (ft or m).
type FoundationElement struct {
	Type   string  `json:"type"`
	Mark   string  `json:"mark,omitempty"`
	Count  int     `json:"count"`
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Depth  float64 `json:"depth"`
	Grade  string  `json:"grade,omitempty"`
}

// EnvelopeSpec summarizes building envelope data from elevations/sections.
type EnvelopeSpec struct {
	EaveHeight  float64 `json:"eaveHeight,omitempty"`
	RidgeHeight float64 `json:"ridgeHeight,omitempty"`
	Area        float64 `json:"area,omitempty"`
	Unit        string  `json:"unit,omitempty"`
}

// TargetedExtraction is the structured output of the per-sheet-type
// extraction pass.
type TargetedExtraction struct {
	UnitSystem   UnitSystem          `json:"unitSystem"`
	Framing      []FramingMember     `json:"framing,omitempty"`
	ScheduleRows []ScheduleRow       `json:"scheduleRows,omitempty"`
	Foundations  []FoundationElement `json:"foundations,omitempty"`
	Envelope     *EnvelopeSpec       `json:"envelope,omitempty"`
}
