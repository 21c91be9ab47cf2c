package models

// These structs define the JSON payloads for HTTP requests and responses
// between the Cloud Workflow and the worker Cloud Functions.

// PageAnalyzerRequest is the input for the page-analyzer function.
type PageAnalyzerRequest struct {
	DocumentID  string `json:"documentId"`
	PageNumber  int    `json:"pageNumber"`
	GCSUri      string `json:"gcsUri"`
	ExecutionID string `json:"executionId"`
}

// PageAnalyzerResponse is the output of the page-analyzer function.
type PageAnalyzerResponse struct {
	Status       string `json:"status"`
	OutputGCSUri string `json:"outputGcsUri"`
	MemberCount  int    `json:"memberCount"`
	Confidence   string `json:"confidence"`
}

// DatasetAggregatorRequest is the input for the dataset-aggregator function.
type DatasetAggregatorRequest struct {
	DocumentID  string `json:"documentId"`
	ExecutionID string `json:"executionId"`
}

// DatasetAggregatorResponse is the output of the dataset-aggregator function.
type DatasetAggregatorResponse struct {
	Status        string `json:"status"`
	DatasetGCSUri string `json:"datasetGcsUri"`
	MemberCount   int    `json:"memberCount"`
}

// EstimatorRequest is the input for the estimator function.
type EstimatorRequest struct {
	DocumentID    string `json:"documentId"`
	DatasetGCSUri string `json:"datasetGcsUri"`
	Location      string `json:"location,omitempty"`
	Currency      string `json:"currency,omitempty"`
	ExecutionID   string `json:"executionId"`
}

// EstimatorResponse is the output of the estimator function.
type EstimatorResponse struct {
	Status         string  `json:"status"`
	EstimateGCSUri string  `json:"estimateGcsUri"`
	TotalIncTax    float64 `json:"totalIncTax"`
	Currency       string  `json:"currency"`
}

// PageExtraction is the per-page artifact written by the page analyzer and
// consumed by the dataset aggregator. Lines carry the laid-out page text so
// downstream passes can re-derive measurements without touching the PDF.
type PageExtraction struct {
	DocumentID string            `json:"documentId"`
	PageNumber int               `json:"pageNumber"`
	Lines      []string          `json:"lines,omitempty"`
	Members    []ExtractedMember `json:"members"`
	Confidence string            `json:"confidence"`
	Score      float64           `json:"score"`
}

// PageText is one page's laid-out text inside the aggregated artifact.
type PageText struct {
	PageNumber int      `json:"pageNumber"`
	Lines      []string `json:"lines"`
}

// AggregatedDataset is the merged artifact the aggregator writes and the
// estimator loads: the deduplicated member inventory plus the page text that
// grounds the analysis passes.
type AggregatedDataset struct {
	DocumentID  string       `json:"documentId"`
	Dataset     SteelDataset `json:"dataset"`
	Pages       []PageText   `json:"pages"`
	MemberCount int          `json:"memberCount"`
}
