package models

// QuantityItem is one computed engineering quantity. The Calculation string
// shows the literal arithmetic so every total is reproducible from its inputs.
type QuantityItem struct {
	Description   string  `json:"description"`
	Count         int     `json:"count"`
	WeightPerUnit float64 `json:"weightPerUnit,omitempty"`
	VolumePerUnit float64 `json:"volumePerUnit,omitempty"`
	TotalWeight   float64 `json:"totalWeight,omitempty"`
	TotalVolume   float64 `json:"totalVolume,omitempty"`
	Unit          string  `json:"unit"`
	Calculation   string  `json:"calculation"`
	TonUnit       string  `json:"tonUnit,omitempty"`
	VolumeUnit    string  `json:"volumeUnit,omitempty"`
}

// Discrepancy records a count disagreement between two sources. Resolution
// policy is always "prefer the higher count"; the note makes the conflict
// visible rather than silently dropping it.
type Discrepancy struct {
	Item     string `json:"item"`
	Note     string `json:"note"`
	PlanQty  int    `json:"planQty,omitempty"`
	SchedQty int    `json:"schedQty,omitempty"`
	Resolved int    `json:"resolved"`
}

// QuantityTakeoffResult is the full quantity takeoff for one drawing set.
// CategoryTons, ComplexCategories and PieceCounts feed the estimation engine's
// per-bucket pricing decisions.
type QuantityTakeoffResult struct {
	UnitSystem        UnitSystem         `json:"unitSystem"`
	Steel             []QuantityItem     `json:"steel"`
	Concrete          []QuantityItem     `json:"concrete"`
	Rebar             []QuantityItem     `json:"rebar"`
	Areas             []QuantityItem     `json:"areas"`
	Counts            []QuantityItem     `json:"counts"`
	Discrepancies     []Discrepancy      `json:"discrepancies"`
	CategoryTons      map[string]float64 `json:"categoryTons,omitempty"`
	ComplexCategories map[string]bool    `json:"complexCategories,omitempty"`
	PieceCounts       map[string]int     `json:"pieceCounts,omitempty"`
	MemberCount       int                `json:"memberCount"`
	HeightClass       string             `json:"heightClass,omitempty"`
	ConcreteGrade     string             `json:"concreteGrade,omitempty"`
	TotalSteelTon     float64            `json:"totalSteelTon"`
	TotalConcrete     float64            `json:"totalConcrete"`
	TotalRebar        float64            `json:"totalRebar"`
	Fallback          bool               `json:"fallback,omitempty"`
	FallbackReason    string             `json:"fallbackReason,omitempty"`
}
