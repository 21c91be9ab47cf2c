package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/takeoffworks/drawingestimate/internal/gcp"
	"github.com/takeoffworks/drawingestimate/internal/models"
	"github.com/takeoffworks/drawingestimate/internal/patterns"
)

// DatasetAggregatorConfig holds configuration for the aggregator service.
type DatasetAggregatorConfig struct {
	ProjectID         string
	ExtractionsBucket string
	DatasetBucket     string
	CollectionName    string
}

// DatasetAggregatorFunction merges per-page extractions into one deduplicated
// member inventory for the drawing set.
type DatasetAggregatorFunction struct {
	storageClient   *storage.Client
	firestoreClient *firestore.Client
	config          DatasetAggregatorConfig
}

// NewDatasetAggregator creates a new DatasetAggregatorFunction instance.
func NewDatasetAggregator(ctx context.Context) (*DatasetAggregatorFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	config := DatasetAggregatorConfig{
		ProjectID:         projectID,
		ExtractionsBucket: gcp.GetEnv("EXTRACTIONS_BUCKET", ""),
		DatasetBucket:     gcp.GetEnv("DATASET_BUCKET", ""),
		CollectionName:    gcp.GetEnv("FIRESTORE_COLLECTION", "estimationJobs"),
	}
	if config.ExtractionsBucket == "" || config.DatasetBucket == "" {
		return nil, fmt.Errorf("EXTRACTIONS_BUCKET and DATASET_BUCKET must be set")
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &DatasetAggregatorFunction{
		storageClient:   storageClient,
		firestoreClient: firestoreClient,
		config:          config,
	}, nil
}

// Process lists every page extraction for the document in page order, merges
// the members into one inventory and writes the aggregated dataset.
func (f *DatasetAggregatorFunction) Process(ctx context.Context, req *models.DatasetAggregatorRequest) (*models.DatasetAggregatorResponse, error) {
	logCtx := slog.With("documentId", req.DocumentID, "executionId", req.ExecutionID)
	logCtx.Info("Starting dataset aggregation.")

	jobRef := f.firestoreClient.Collection(f.config.CollectionName).Doc(req.DocumentID)
	if err := updateJobStatus(ctx, jobRef, models.JobStatusAnalyzing, ""); err != nil {
		logCtx.Warn("Failed to update job status to ANALYZING.", "error", err)
	}

	objectNames, err := f.listExtractions(ctx, req.DocumentID)
	if err != nil {
		logCtx.Error("Failed to list page extractions.", "error", err)
		return nil, err
	}
	if len(objectNames) == 0 {
		logCtx.Warn("No page extractions found. Aggregating an empty dataset.")
	}
	sort.Strings(objectNames)

	bucketHandle := f.storageClient.Bucket(f.config.ExtractionsBucket)
	var extractions []models.PageExtraction
	for _, objName := range objectNames {
		data, err := gcp.ReadGCSObject(ctx, bucketHandle, objName)
		if err != nil {
			logCtx.Error("Failed to read page extraction.", "gcsObject", objName, "error", err)
			return nil, err
		}
		var extraction models.PageExtraction
		if err := json.Unmarshal(data, &extraction); err != nil {
			return nil, fmt.Errorf("failed to unmarshal page extraction %s: %w", objName, err)
		}
		extractions = append(extractions, extraction)
	}

	aggregated := BuildDataset(req.DocumentID, extractions)
	logCtx.Info("Merged page extractions.", "pageCount", len(extractions), "memberCount", aggregated.MemberCount)

	payload, err := json.Marshal(aggregated)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal aggregated dataset: %w", err)
	}
	outputObjectName := fmt.Sprintf("%s/dataset.json", req.DocumentID)
	destBucket := f.storageClient.Bucket(f.config.DatasetBucket)
	if err := gcp.SaveToGCSAtomically(ctx, destBucket, outputObjectName, string(payload)); err != nil {
		logCtx.Error("Failed to save aggregated dataset.", "error", err)
		return nil, err
	}

	outputGCSUri := fmt.Sprintf("gs://%s/%s", f.config.DatasetBucket, outputObjectName)
	logCtx.Info("Dataset aggregation complete.", "datasetGcsUri", outputGCSUri)
	return &models.DatasetAggregatorResponse{
		Status:        "success",
		DatasetGCSUri: outputGCSUri,
		MemberCount:   aggregated.MemberCount,
	}, nil
}

func (f *DatasetAggregatorFunction) listExtractions(ctx context.Context, documentID string) ([]string, error) {
	query := &storage.Query{Prefix: documentID + "/"}
	it := f.storageClient.Bucket(f.config.ExtractionsBucket).Objects(ctx, query)

	var objectNames []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list page extractions: %w", err)
		}
		if strings.HasSuffix(attrs.Name, ".json") {
			objectNames = append(objectNames, attrs.Name)
		}
	}
	return objectNames, nil
}

// BuildDataset merges per-page members into one inventory. Members are
// deduplicated across pages by (designation, category) with schedule-sourced
// entries taking precedence over general text; a count conflict between two
// entries of the same precedence keeps the higher count. Reclassification
// runs over the merged set, and the summary is computed strictly afterwards.
func BuildDataset(documentID string, extractions []models.PageExtraction) *models.AggregatedDataset {
	type slot struct {
		member models.ExtractedMember
		index  int
	}
	merged := map[string]slot{}
	order := 0

	for _, extraction := range extractions {
		for _, member := range extraction.Members {
			key := member.Designation + "|" + member.Category
			existing, exists := merged[key]
			if !exists {
				merged[key] = slot{member: member, index: order}
				order++
				continue
			}
			if precedence(member.Source) > precedence(existing.member.Source) {
				existing.member = member
			} else if precedence(member.Source) == precedence(existing.member.Source) && member.Quantity > existing.member.Quantity {
				existing.member.Quantity = member.Quantity
			}
			merged[key] = existing
		}
	}

	members := make([]models.ExtractedMember, len(merged))
	for _, s := range merged {
		members[s.index] = s.member
	}
	members = patterns.Reclassify(members)

	aggregated := &models.AggregatedDataset{DocumentID: documentID}
	for _, member := range members {
		category := member.Category
		aggregated.Dataset.SetBucket(category, append(aggregated.Dataset.Bucket(category), member))
	}
	aggregated.Dataset.Summary = summarize(&aggregated.Dataset)
	aggregated.MemberCount = len(members)

	for _, extraction := range extractions {
		aggregated.Pages = append(aggregated.Pages, models.PageText{
			PageNumber: extraction.PageNumber,
			Lines:      extraction.Lines,
		})
	}
	return aggregated
}

// precedence orders member sources for merge conflicts. Schedule rows are
// authoritative over incidental mentions in general text.
func precedence(source string) int {
	if source == "General Text" {
		return 0
	}
	return 1
}

func summarize(dataset *models.SteelDataset) map[string]models.CategorySummary {
	summary := make(map[string]models.CategorySummary, len(models.AllCategories))
	for _, category := range models.AllCategories {
		bucket := dataset.Bucket(category)
		if len(bucket) == 0 {
			continue
		}
		s := models.CategorySummary{Count: len(bucket)}
		for _, member := range bucket {
			s.Quantity += member.Quantity
			s.Weight += member.Weight * float64(member.Quantity)
		}
		summary[category] = s
	}
	return summary
}
