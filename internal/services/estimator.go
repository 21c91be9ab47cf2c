package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"

	"github.com/takeoffworks/drawingestimate/internal/analysis"
	"github.com/takeoffworks/drawingestimate/internal/gcp"
	"github.com/takeoffworks/drawingestimate/internal/measure"
	"github.com/takeoffworks/drawingestimate/internal/models"
)

// EstimatorConfig holds configuration for the estimator service.
type EstimatorConfig struct {
	ProjectID      string
	VertexAIRegion string
	ModelName      string
	DatasetBucket  string
	EstimateBucket string
	CollectionName string
	StageTimeout   time.Duration
}

// EstimatorFunction runs the multi-pass analysis over an aggregated dataset
// and persists the priced estimate.
type EstimatorFunction struct {
	storageClient   *storage.Client
	firestoreClient *firestore.Client
	vertexClient    *gcp.VertexClient
	orchestrator    *analysis.Orchestrator
	config          EstimatorConfig
}

func loadEstimatorConfig() (*EstimatorConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	datasetBucket := gcp.GetEnv("DATASET_BUCKET", "")
	estimateBucket := gcp.GetEnv("ESTIMATE_BUCKET", "")
	if datasetBucket == "" || estimateBucket == "" {
		return nil, fmt.Errorf("DATASET_BUCKET and ESTIMATE_BUCKET must be set")
	}

	stageTimeout := analysis.DefaultStageTimeout
	if raw := gcp.GetEnv("STAGE_TIMEOUT", ""); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid STAGE_TIMEOUT %q: %w", raw, err)
		}
		stageTimeout = parsed
	}

	return &EstimatorConfig{
		ProjectID:      projectID,
		VertexAIRegion: gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		ModelName:      gcp.GetEnv("ANALYSIS_MODEL", gcp.DefaultAnalysisModel),
		DatasetBucket:  datasetBucket,
		EstimateBucket: estimateBucket,
		CollectionName: gcp.GetEnv("FIRESTORE_COLLECTION", "estimationJobs"),
		StageTimeout:   stageTimeout,
	}, nil
}

// NewEstimator creates a new EstimatorFunction instance.
func NewEstimator(ctx context.Context) (*EstimatorFunction, error) {
	config, err := loadEstimatorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	vertexClient, err := gcp.NewVertexClient(ctx, config.ProjectID, config.VertexAIRegion, config.ModelName)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	return &EstimatorFunction{
		storageClient:   storageClient,
		firestoreClient: firestoreClient,
		vertexClient:    vertexClient,
		orchestrator:    analysis.NewOrchestrator(vertexClient, config.StageTimeout, slog.Default()),
		config:          *config,
	}, nil
}

// Process loads the aggregated dataset, runs the five analysis passes and
// writes the estimate document plus the quote summary on the job record.
func (f *EstimatorFunction) Process(ctx context.Context, req *models.EstimatorRequest) (*models.EstimatorResponse, error) {
	logCtx := slog.With("documentId", req.DocumentID, "executionId", req.ExecutionID)
	logCtx.Info("Starting estimation.")

	jobRef := f.firestoreClient.Collection(f.config.CollectionName).Doc(req.DocumentID)
	if err := updateJobStatus(ctx, jobRef, models.JobStatusEstimating, ""); err != nil {
		logCtx.Warn("Failed to update job status to ESTIMATING.", "error", err)
	}

	aggregated, err := f.loadDataset(ctx, req)
	if err != nil {
		return nil, f.handleEstimateError(ctx, logCtx, jobRef, "failed to load aggregated dataset", err)
	}

	pages := make([]models.DrawingPage, 0, len(aggregated.Pages))
	var allText strings.Builder
	for _, page := range aggregated.Pages {
		lines := make([]models.Line, 0, len(page.Lines))
		for _, text := range page.Lines {
			lines = append(lines, models.Line{Text: text})
			allText.WriteString(text)
			allText.WriteByte('\n')
		}
		pages = append(pages, models.DrawingPage{PageNumber: page.PageNumber, Lines: lines})
	}

	result := f.orchestrator.Analyze(ctx, &analysis.Input{
		Pages:        pages,
		Dataset:      &aggregated.Dataset,
		Measurements: measure.Extract(allText.String()),
		Location:     req.Location,
		Currency:     req.Currency,
	})

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, f.handleEstimateError(ctx, logCtx, jobRef, "failed to marshal analysis result", err)
	}
	objectName := fmt.Sprintf("%s/estimate.json", req.DocumentID)
	bucketHandle := f.storageClient.Bucket(f.config.EstimateBucket)
	if err := gcp.SaveToGCSAtomically(ctx, bucketHandle, objectName, string(payload)); err != nil {
		return nil, f.handleEstimateError(ctx, logCtx, jobRef, "failed to save estimate", err)
	}
	estimateGCSUri := fmt.Sprintf("gs://%s/%s", f.config.EstimateBucket, objectName)

	summary := result.Estimate.Data.CostSummary
	var totalSteel float64
	if result.Takeoff.Data != nil {
		totalSteel = result.Takeoff.Data.TotalSteelTon
	}
	updates := []firestore.Update{
		{Path: "status", Value: models.JobStatusComplete},
		{Path: "location", Value: req.Location},
		{Path: "currency", Value: summary.Currency},
		{Path: "totalIncTax", Value: summary.TotalIncTax},
		{Path: "totalSteelTonnes", Value: totalSteel},
		{Path: "estimateGcsUri", Value: estimateGCSUri},
	}
	if _, err := jobRef.Update(ctx, updates); err != nil {
		return nil, f.handleEstimateError(ctx, logCtx, jobRef, "failed to record quote on job", err)
	}

	logCtx.Info("Estimation complete.",
		"estimateGcsUri", estimateGCSUri,
		"currency", summary.Currency,
		"totalIncTax", summary.TotalIncTax,
		"takeoffFallback", result.Takeoff.Fallback,
		"estimateFallback", result.Estimate.Fallback,
	)
	return &models.EstimatorResponse{
		Status:         "success",
		EstimateGCSUri: estimateGCSUri,
		TotalIncTax:    summary.TotalIncTax,
		Currency:       summary.Currency,
	}, nil
}

func (f *EstimatorFunction) loadDataset(ctx context.Context, req *models.EstimatorRequest) (*models.AggregatedDataset, error) {
	objectName := fmt.Sprintf("%s/dataset.json", req.DocumentID)
	if req.DatasetGCSUri != "" {
		// gs://bucket/object form; the bucket is fixed by config, keep the
		// object path authoritative.
		if idx := strings.Index(req.DatasetGCSUri, f.config.DatasetBucket+"/"); idx >= 0 {
			objectName = req.DatasetGCSUri[idx+len(f.config.DatasetBucket)+1:]
		}
	}
	data, err := gcp.ReadGCSObject(ctx, f.storageClient.Bucket(f.config.DatasetBucket), objectName)
	if err != nil {
		return nil, err
	}
	var aggregated models.AggregatedDataset
	if err := json.Unmarshal(data, &aggregated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal aggregated dataset: %w", err)
	}
	return &aggregated, nil
}

func (f *EstimatorFunction) handleEstimateError(ctx context.Context, logCtx *slog.Logger, jobRef *firestore.DocumentRef, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	if err := updateJobStatus(ctx, jobRef, models.JobStatusFailed, fullError); err != nil {
		logCtx.Error("CRITICAL: Failed to update job status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s", fullError)
}
