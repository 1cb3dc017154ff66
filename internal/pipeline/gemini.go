package pipeline

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModelName is the default Gemini model used for extraction.
const DefaultModelName = "gemini-2.5-flash"

// Extractor sends one chunk of statement text to an extraction backend and
// returns the raw model output. Implementations must honor ctx deadlines;
// the orchestrator applies the per-chunk timeout through ctx.
type Extractor interface {
	ExtractChunk(ctx context.Context, chunkText string) (string, error)
}

// GeminiExtractor calls the Gemini API with the parsing instructions and
// the chunk text. The raw response is handed to the normalizer untouched.
type GeminiExtractor struct {
	model  string
	apiKey string
}

// NewGeminiExtractor creates an extractor for the given model. An empty
// apiKey falls back to the GEMINI_API_KEY environment variable, which the
// genai client reads itself.
func NewGeminiExtractor(model, apiKey string) *GeminiExtractor {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiExtractor{model: model, apiKey: apiKey}
}

// ExtractChunk implements Extractor.
func (g *GeminiExtractor) ExtractChunk(ctx context.Context, chunkText string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      g.apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("ExtractChunk: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractionPrompt + "\n\nBank statement text:\n" + chunkText},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("ExtractChunk: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return "", fmt.Errorf("ExtractChunk: empty response from model")
	}

	return rawText, nil
}
