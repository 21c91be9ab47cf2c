package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"github.com/takeoffworks/drawingestimate/internal/gcp"
	"github.com/takeoffworks/drawingestimate/internal/models"
)

// uploadConcurrency bounds the number of page uploads in flight per drawing set.
const uploadConcurrency = 10

type IntakeConfig struct {
	ProjectID        string
	PageBucket       string
	CollectionName   string
	WorkflowID       string
	WorkflowLocation string
}

// IntakeFunction receives uploaded drawing sets, splits them into single-page
// PDFs and hands the set off to the estimation workflow.
type IntakeFunction struct {
	storageClient    *storage.Client
	firestoreClient  *firestore.Client
	executionsClient *executions.Client
	config           IntakeConfig
}

type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

func NewIntake(ctx context.Context) (*IntakeFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	config := IntakeConfig{
		ProjectID:        projectID,
		PageBucket:       gcp.GetEnv("PAGE_BUCKET", ""),
		CollectionName:   gcp.GetEnv("FIRESTORE_COLLECTION", "estimationJobs"),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		WorkflowID:       gcp.GetEnv("WORKFLOW_ID", "drawing-estimation-orchestrator"),
	}
	if config.PageBucket == "" {
		return nil, fmt.Errorf("PAGE_BUCKET environment variable must be set")
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	executionsClient, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}

	f := &IntakeFunction{
		firestoreClient:  firestoreClient,
		storageClient:    storageClient,
		executionsClient: executionsClient,
		config:           config,
	}
	slog.Info("Drawing intake logic initialized.", "workflowId", config.WorkflowID)
	return f, nil
}

// isDrawingSet reports whether an uploaded object name looks like a drawing
// set. The intake bucket occasionally receives sidecar files (checksums,
// transmittal sheets exported as images); only PDFs enter the pipeline.
func isDrawingSet(objectName string) bool {
	return strings.EqualFold(filepath.Ext(objectName), ".pdf")
}

func (f *IntakeFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	if !isDrawingSet(e.Name) {
		logCtx.Info("Ignoring non-PDF upload.")
		return nil
	}
	logCtx.Info("Processing new drawing upload.")

	tempDir, err := os.MkdirTemp("", "drawing-intake-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	sourcePdfPath := filepath.Join(tempDir, "source.pdf")
	fileHash, err := f.downloadAndHash(ctx, e.Bucket, e.Name, sourcePdfPath)
	if err != nil {
		logCtx.Error("Failed to download drawing set.", "error", err)
		return err
	}
	logCtx = logCtx.With("fileHash", fileHash)

	existingJobID, err := f.findJobByHash(ctx, fileHash)
	if err != nil {
		logCtx.Error("Duplicate lookup failed.", "error", err)
		return err
	}
	if existingJobID != "" {
		logCtx.Info("Drawing set already has a job; skipping.", "existingJobId", existingJobID)
		return nil
	}

	jobRef, err := f.createJob(ctx, fileHash, e.Name)
	if err != nil {
		logCtx.Error("Failed to create estimation job record.", "error", err)
		return err
	}
	logCtx = logCtx.With("documentId", jobRef.ID)
	logCtx.Info("Created estimation job in Firestore.")

	optimizedPdfPath := filepath.Join(tempDir, "optimized.pdf")
	pageCount, err := f.optimizeAndSplit(ctx, logCtx, jobRef, sourcePdfPath, optimizedPdfPath)
	if err != nil {
		return err
	}

	if err := f.uploadSplitPages(ctx, logCtx, jobRef, optimizedPdfPath, pageCount); err != nil {
		return err
	}

	if err := f.triggerWorkflow(ctx, logCtx, jobRef, pageCount); err != nil {
		return err
	}

	logCtx.Info("Hand-off to estimation workflow complete.", "pageCount", pageCount)
	return nil
}

// downloadAndHash streams the uploaded object to destPath, computing its
// sha256 in the same pass. The hash keys duplicate detection.
func (f *IntakeFunction) downloadAndHash(ctx context.Context, bucket, object, destPath string) (string, error) {
	gcsReader, err := f.storageClient.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to open gs://%s/%s: %w", bucket, object, err)
	}
	defer gcsReader.Close()

	localFile, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file at %s: %w", destPath, err)
	}
	defer localFile.Close()

	return hashingCopy(localFile, gcsReader)
}

// hashingCopy copies src to dst and returns the hex sha256 of the bytes copied.
func hashingCopy(dst io.Writer, src io.Reader) (string, error) {
	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(dst, hasher), src); err != nil {
		return "", fmt.Errorf("copy failed: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// findJobByHash returns the ID of an existing job for this file hash, or ""
// when the drawing set has not been seen before.
func (f *IntakeFunction) findJobByHash(ctx context.Context, fileHash string) (string, error) {
	docs, err := f.firestoreClient.Collection(f.config.CollectionName).
		Where("fileHash", "==", fileHash).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return "", fmt.Errorf("failed to query jobs by file hash: %w", err)
	}
	if len(docs) == 0 {
		return "", nil
	}
	return docs[0].Ref.ID, nil
}

func (f *IntakeFunction) createJob(ctx context.Context, fileHash, filename string) (*firestore.DocumentRef, error) {
	newJob := models.EstimationJob{
		FileHash:         fileHash,
		OriginalFilename: filename,
		Status:           models.JobStatusValidating,
		CreatedAt:        time.Now(),
	}
	jobRef, _, err := f.firestoreClient.Collection(f.config.CollectionName).Add(ctx, newJob)
	if err != nil {
		return nil, fmt.Errorf("failed to create estimation job: %w", err)
	}
	return jobRef, nil
}

// optimizeAndSplit validates the PDF, writes one file per page next to the
// optimized copy and records the page count on the job.
func (f *IntakeFunction) optimizeAndSplit(ctx context.Context, logCtx *slog.Logger, jobRef *firestore.DocumentRef, source, optimized string) (int, error) {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if err := api.OptimizeFile(source, optimized, cfg); err != nil {
		return 0, f.handleError(ctx, logCtx, jobRef, "failed to validate/optimize PDF", err)
	}
	pageCount, err := api.PageCountFile(optimized)
	if err != nil {
		return 0, f.handleError(ctx, logCtx, jobRef, "failed to get page count", err)
	}
	if pageCount < 1 {
		return 0, f.handleError(ctx, logCtx, jobRef, "drawing set contains no pages", fmt.Errorf("page count %d", pageCount))
	}
	if err := api.SplitFile(optimized, filepath.Dir(optimized), 1, nil); err != nil {
		return 0, f.handleError(ctx, logCtx, jobRef, "failed to split PDF", err)
	}
	updates := []firestore.Update{
		{Path: "status", Value: models.JobStatusSplitting},
		{Path: "pageCount", Value: pageCount},
	}
	if _, err := jobRef.Update(ctx, updates); err != nil {
		return 0, f.handleError(ctx, logCtx, jobRef, "failed to update status to SPLITTING", err)
	}
	logCtx.Info("Drawing set optimized and split locally.", "pageCount", pageCount)
	return pageCount, nil
}

func (f *IntakeFunction) uploadSplitPages(ctx context.Context, logCtx *slog.Logger, jobRef *firestore.DocumentRef, optimizedPdfPath string, pageCount int) error {
	logCtx.Info("Uploading split pages.", "pageCount", pageCount, "concurrency", uploadConcurrency)
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(uploadConcurrency)

	// pdfcpu names split output <base>_<n>.pdf; pages land in GCS zero-padded
	// so the aggregator's lexicographic listing is page order.
	base := strings.TrimSuffix(optimizedPdfPath, filepath.Ext(optimizedPdfPath))
	for page := 1; page <= pageCount; page++ {
		localPath := fmt.Sprintf("%s_%d.pdf", base, page)
		destObject := fmt.Sprintf("%s/%05d.pdf", jobRef.ID, page)
		eg.Go(func() error {
			if err := f.uploadPage(gctx, localPath, destObject); err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return f.handleError(ctx, logCtx, jobRef, "one or more pages failed to upload", err)
	}
	logCtx.Info("All pages uploaded.")
	return nil
}

func (f *IntakeFunction) triggerWorkflow(ctx context.Context, logCtx *slog.Logger, jobRef *firestore.DocumentRef, pageCount int) error {
	logCtx.Info("Triggering estimation workflow.")
	payloadBytes, err := json.Marshal(map[string]interface{}{
		"documentId": jobRef.ID,
		"pageCount":  pageCount,
	})
	if err != nil {
		return f.handleError(ctx, logCtx, jobRef, "failed to marshal workflow payload", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", f.config.ProjectID, f.config.WorkflowLocation, f.config.WorkflowID),
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	if _, err := f.executionsClient.CreateExecution(ctx, req); err != nil {
		return f.handleError(ctx, logCtx, jobRef, "failed to trigger workflow execution", err)
	}
	return nil
}

func (f *IntakeFunction) handleError(ctx context.Context, logCtx *slog.Logger, jobRef *firestore.DocumentRef, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	if err := updateJobStatus(ctx, jobRef, models.JobStatusFailed, fullError); err != nil {
		logCtx.Error("CRITICAL: Failed to update job status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s", fullError)
}

func updateJobStatus(ctx context.Context, jobRef *firestore.DocumentRef, status, errDetails string) error {
	updates := []firestore.Update{
		{Path: "status", Value: status},
	}
	if errDetails != "" {
		updates = append(updates, firestore.Update{Path: "errorDetails", Value: errDetails})
	}
	_, err := jobRef.Update(ctx, updates)
	return err
}

// uploadPage writes one split page to the page bucket, retrying transient
// failures with doubling backoff. Each attempt gets its own write deadline so
// a stalled stream cannot eat the whole invocation.
func (f *IntakeFunction) uploadPage(ctx context.Context, localPath, destObject string) error {
	const maxAttempts = 4
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = f.putPageObject(ctx, localPath, destObject)
		if lastErr == nil {
			return nil
		}
		slog.Warn("Page upload failed, will retry.",
			"gcsObject", destObject,
			"attempt", attempt,
			"maxAttempts", maxAttempts,
			"backoff", backoff.String(),
			"error", lastErr,
		)
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			slog.Error("Context cancelled during backoff. Aborting retries.", "gcsObject", destObject, "error", ctx.Err())
			return ctx.Err()
		}
	}
	slog.Error("Page upload failed after all retries.", "gcsObject", destObject, "error", lastErr)
	return fmt.Errorf("upload for %s failed after all retries: %w", destObject, lastErr)
}

func (f *IntakeFunction) putPageObject(ctx context.Context, localPath, destObject string) error {
	pageFile, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("could not open local file %s: %w", localPath, err)
	}
	defer pageFile.Close()

	writeCtx, cancel := context.WithTimeout(ctx, 50*time.Second)
	defer cancel()

	gcsWriter := f.storageClient.Bucket(f.config.PageBucket).Object(destObject).NewWriter(writeCtx)
	if _, err := io.Copy(gcsWriter, pageFile); err != nil {
		_ = gcsWriter.Close()
		return fmt.Errorf("io.Copy to GCS failed: %w", err)
	}
	if err := gcsWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload: %w", err)
	}
	return nil
}
