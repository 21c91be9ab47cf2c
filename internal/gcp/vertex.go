package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// DefaultAnalysisModel is used when the service config names no model.
const DefaultAnalysisModel = "gemini-1.5-pro"

// refusalPhrases mark responses where the model declined instead of
// answering. They are treated as empty output.
var refusalPhrases = []string{
	"i cannot",
	"i am unable",
	"i'm unable",
	"as a language model",
}

// VertexClient wraps the Vertex AI generative client behind the Generate
// contract the analysis passes consume. Every call forces JSON output at
// temperature zero.
type VertexClient struct {
	modelName  string
	baseClient *genai.Client
}

// NewVertexClient creates a client bound to one model name.
func NewVertexClient(ctx context.Context, projectID, region, modelName string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}
	if modelName == "" {
		modelName = DefaultAnalysisModel
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	return &VertexClient{
		modelName:  modelName,
		baseClient: baseClient,
	}, nil
}

// Generate sends one prompt pair and returns the response text. Each pass
// carries its own system instruction, so the model is configured per call.
func (c *VertexClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	model := c.baseClient.GenerativeModel(c.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("model.GenerateContent: %w", err)
	}
	return ExtractResponseText(resp)
}

// GeneratePDF sends a prompt alongside a GCS-hosted PDF page and returns the
// response text. Used by the page analyzer to recover positioned text.
func (c *VertexClient) GeneratePDF(ctx context.Context, systemPrompt, userPrompt, gcsURI string) (string, error) {
	model := c.baseClient.GenerativeModel(c.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}

	filePart := genai.FileData{
		MIMEType: "application/pdf",
		FileURI:  gcsURI,
	}
	resp, err := model.GenerateContent(ctx, filePart, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("model.GenerateContent: %w", err)
	}
	return ExtractResponseText(resp)
}

// ExtractResponseText pulls the text out of a generation response,
// tolerating markdown fences and rejecting empty or refused answers.
func ExtractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("model returned no candidates")
	}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}
	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", fmt.Errorf("model returned an empty response")
	}

	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.HasPrefix(lower, phrase) {
			return "", fmt.Errorf("model refused the request")
		}
	}

	// Strip a surrounding markdown fence if present.
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}
	return text, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
