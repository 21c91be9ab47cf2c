package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/takeoffworks/drawingestimate/internal/analysis"
	"github.com/takeoffworks/drawingestimate/internal/gcp"
	"github.com/takeoffworks/drawingestimate/internal/layout"
	"github.com/takeoffworks/drawingestimate/internal/measure"
	"github.com/takeoffworks/drawingestimate/internal/models"
	"github.com/takeoffworks/drawingestimate/internal/patterns"
)

// Prompts for the page text recovery call. The model reads one drawing page
// and returns positioned text fragments so the layout reader can reassemble
// reading-order lines.
const pageTextSystemPrompt = "You are a construction drawing text digitizer. Your task is to transcribe every piece of text on a drawing sheet together with its position. You must output your response as a valid JSON object."

const pageTextUserPrompt = `Transcribe all text on the attached drawing sheet.

For every distinct piece of text, record its approximate position on the page
as x (left to right) and y (bottom to top), both in points. Preserve the text
exactly as printed, including section designations like "W12X65" or "ISMB300".

Output a single JSON object of this exact shape, with no text before or after:
{"fragments": [{"text": "W12X65", "x": 120.5, "y": 704.0}]}`

// PageAnalyzerConfig holds all configuration for the page analyzer service.
type PageAnalyzerConfig struct {
	ProjectID         string
	VertexAIRegion    string
	ModelName         string
	ExtractionsBucket string
}

// PageAnalyzerFunction recovers the text of one drawing page, runs the
// deterministic extractors over it and writes the per-page extraction
// artifact consumed by the dataset aggregator.
type PageAnalyzerFunction struct {
	storageClient *storage.Client
	vertexClient  *gcp.VertexClient
	reader        *layout.Reader
	extractor     *patterns.Extractor
	config        PageAnalyzerConfig
}

func loadPageAnalyzerConfig() (*PageAnalyzerConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	extractionsBucket := gcp.GetEnv("EXTRACTIONS_BUCKET", "")
	if extractionsBucket == "" {
		return nil, fmt.Errorf("EXTRACTIONS_BUCKET environment variable must be set")
	}

	return &PageAnalyzerConfig{
		ProjectID:         projectID,
		VertexAIRegion:    gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		ModelName:         gcp.GetEnv("ANALYSIS_MODEL", gcp.DefaultAnalysisModel),
		ExtractionsBucket: extractionsBucket,
	}, nil
}

// NewPageAnalyzer creates a new PageAnalyzerFunction instance.
func NewPageAnalyzer(ctx context.Context) (*PageAnalyzerFunction, error) {
	config, err := loadPageAnalyzerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	vertexClient, err := gcp.NewVertexClient(ctx, config.ProjectID, config.VertexAIRegion, config.ModelName)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	return &PageAnalyzerFunction{
		storageClient: storageClient,
		vertexClient:  vertexClient,
		reader:        layout.NewReader(),
		extractor:     patterns.NewExtractor(slog.Default()),
		config:        *config,
	}, nil
}

// Process recovers one page's text, extracts members and measurements and
// writes the page extraction artifact to GCS.
func (f *PageAnalyzerFunction) Process(ctx context.Context, req *models.PageAnalyzerRequest) (*models.PageAnalyzerResponse, error) {
	logCtx := slog.With("documentId", req.DocumentID, "pageNumber", req.PageNumber, "executionId", req.ExecutionID)
	logCtx.Info("Starting page analysis.")

	response, err := f.vertexClient.GeneratePDF(ctx, pageTextSystemPrompt, pageTextUserPrompt, req.GCSUri)
	if err != nil {
		logCtx.Error("Failed to recover page text.", "error", err)
		return nil, fmt.Errorf("failed to recover page text: %w", err)
	}

	page := f.buildPage(logCtx, req.PageNumber, response)
	lines := make([]string, 0, len(page.Lines))
	for _, line := range page.Lines {
		lines = append(lines, line.Text)
	}

	members := f.extractor.ExtractMembers(lines, "")
	measurements := measure.Extract(strings.Join(lines, "\n"))

	extraction := models.PageExtraction{
		DocumentID: req.DocumentID,
		PageNumber: req.PageNumber,
		Lines:      lines,
		Members:    members,
		Confidence: string(measurements.Confidence),
		Score:      measurements.Score,
	}
	payload, err := json.Marshal(extraction)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal page extraction: %w", err)
	}

	objectName := fmt.Sprintf("%s/%05d.json", req.DocumentID, req.PageNumber)
	bucketHandle := f.storageClient.Bucket(f.config.ExtractionsBucket)
	if err := gcp.SaveToGCSAtomically(ctx, bucketHandle, objectName, string(payload)); err != nil {
		logCtx.Error("Failed to save page extraction to GCS.", "error", err)
		return nil, err
	}

	outputGCSUri := fmt.Sprintf("gs://%s/%s", f.config.ExtractionsBucket, objectName)
	logCtx.Info("Page analysis complete.",
		"memberCount", len(members),
		"confidence", measurements.Confidence,
		"outputGcsUri", outputGCSUri,
	)
	return &models.PageAnalyzerResponse{
		Status:       "success",
		OutputGCSUri: outputGCSUri,
		MemberCount:  len(members),
		Confidence:   string(measurements.Confidence),
	}, nil
}

type fragmentsWire struct {
	Fragments []models.TextFragment `json:"fragments"`
}

// buildPage turns the digitizer response into a laid-out page. A response
// without usable fragment JSON degrades to one line per response row, in the
// order the model emitted them.
func (f *PageAnalyzerFunction) buildPage(logCtx *slog.Logger, pageNumber int, response string) models.DrawingPage {
	if raw, found := analysis.ExtractJSONObject(response); found {
		var wire fragmentsWire
		if err := json.Unmarshal([]byte(raw), &wire); err == nil && len(wire.Fragments) > 0 {
			return f.reader.BuildPage(pageNumber, wire.Fragments)
		}
	}

	logCtx.Warn("Digitizer response carried no fragment JSON; treating response as plain text.")
	var fragments []models.TextFragment
	y := float64(len(strings.Split(response, "\n")) * 10)
	for _, row := range strings.Split(response, "\n") {
		row = strings.TrimSpace(row)
		if row == "" {
			continue
		}
		fragments = append(fragments, models.TextFragment{Text: row, X: 0, Y: y})
		y -= 10
	}
	return f.reader.BuildPage(pageNumber, fragments)
}
