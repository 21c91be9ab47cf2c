package models

import "time"

// EstimationJob is the main Firestore record for one uploaded drawing set.
// It tracks pipeline status from intake through the completed estimate.
type EstimationJob struct {
	FileHash            string    `firestore:"fileHash,omitempty"`
	OriginalFilename    string    `firestore:"originalFilename,omitempty"`
	Status              string    `firestore:"status,omitempty"`
	ErrorDetails        string    `firestore:"errorDetails,omitempty"`
	PageCount           int       `firestore:"pageCount,omitempty"`
	WorkflowExecutionID string    `firestore:"workflowExecutionId,omitempty"` // For traceability
	Location            string    `firestore:"location,omitempty"`
	Currency            string    `firestore:"currency,omitempty"`
	TotalIncTax         float64   `firestore:"totalIncTax,omitempty"`
	TotalSteelTonnes    float64   `firestore:"totalSteelTonnes,omitempty"`
	EstimateGCSUri      string    `firestore:"estimateGcsUri,omitempty"`
	CreatedAt           time.Time `firestore:"createdAt,omitempty"`
}

// Job status values, in pipeline order.
const (
	JobStatusValidating = "VALIDATING"
	JobStatusSplitting  = "SPLITTING"
	JobStatusAnalyzing  = "ANALYZING"
	JobStatusEstimating = "ESTIMATING"
	JobStatusComplete   = "COMPLETE"
	JobStatusFailed     = "FAILED"
)
