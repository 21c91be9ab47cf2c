package models

// RateSource marks how a line item's unit rate was resolved, so degraded
// lookups stay visible in the output.
type RateSource string

const (
	RateFromTable RateSource = "from table"
	RateEstimated RateSource = "estimated"
	RateMissing   RateSource = "missing"
)

// EstimationLineItem is one priced row of the bill of quantities.
// TotalCost == Quantity × UnitRate, always.
type EstimationLineItem struct {
	Code        string     `json:"code"`
	Description string     `json:"description"`
	Quantity    float64    `json:"quantity"`
	Unit        string     `json:"unit"`
	UnitRate    float64    `json:"unitRate"`
	TotalCost   float64    `json:"totalCost"`
	Category    string     `json:"category"`
	Subcategory string     `json:"subcategory,omitempty"`
	RateSource  RateSource `json:"rateSource,omitempty"`
	RateNote    string     `json:"rateNote,omitempty"`
}

// CostSummary rolls the flat item list up into the project total. It is
// recomputed wholesale from the current items, never incrementally patched.
type CostSummary struct {
	BaseCost             float64 `json:"baseCost"`
	ComplexityAdjustment float64 `json:"complexityAdjustment"`
	Contingency          float64 `json:"contingency"`
	Preliminaries        float64 `json:"preliminaries"`
	OverheadsProfit      float64 `json:"overheadsProfit"`
	SubtotalExTax        float64 `json:"subtotalExTax"`
	Tax                  float64 `json:"tax"`
	TotalIncTax          float64 `json:"totalIncTax"`
	Currency             string  `json:"currency"`
	RatePerTonne         float64 `json:"ratePerTonne,omitempty"`
}

// CategoryGroup is a reporting view over the flat item list, grouped by
// top-level category and subcategory. It is never a separate source of truth.
type CategoryGroup struct {
	Items         []EstimationLineItem          `json:"items"`
	Total         float64                       `json:"total"`
	Subcategories map[string][]EstimationLineItem `json:"subcategories,omitempty"`
}

// EstimateResult is the priced output for one drawing set.
type EstimateResult struct {
	Items       []EstimationLineItem     `json:"items"`
	CostSummary CostSummary              `json:"costSummary"`
	Categories  map[string]CategoryGroup `json:"categories"`
}
