package extractor

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/models"
)

const extractionSystemPrompt = `You verify field reports. Given a narrative and a list of required fields,
decide which fields the narrative supports. A field counts as present on loose
evidential grounds: a street name supports a location field, a clock time
supports an incident_time field. Respond with JSON only:
{"present": ["key", ...], "missing": ["key", ...], "confidence": 0.0-1.0}
where confidence is your overall confidence in the judgment.`

// GeminiExtractor calls the Gemini API to judge field presence in a
// narrative.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGeminiExtractor creates a Gemini-backed extractor.
func NewGeminiExtractor(ctx context.Context, apiKey, model string) (*GeminiExtractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiExtractor{client: client, model: model}, nil
}

// Extract asks the model which declared fields the narrative supports.
// Callers bound the call with a ctx timeout; on timeout or malformed output
// the completeness validator fails closed.
func (e *GeminiExtractor) Extract(ctx context.Context, narrative string, fields []models.FieldDescriptor) (ExtractionResult, error) {
	prompt := buildExtractionPrompt(narrative, fields)

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(extractionSystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0),
	})
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("gemini extract: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return ExtractionResult{}, fmt.Errorf("gemini extract: empty response")
	}

	return ParseExtraction([]byte(text))
}

func buildExtractionPrompt(narrative string, fields []models.FieldDescriptor) string {
	var b strings.Builder
	b.WriteString("Required fields:\n")
	for _, f := range fields {
		b.WriteString("- ")
		b.WriteString(f.Key)
		if f.Label != "" {
			b.WriteString(" (")
			b.WriteString(f.Label)
			b.WriteString(")")
		}
		if f.Description != "" {
			b.WriteString(": ")
			b.WriteString(f.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nNarrative:\n")
	b.WriteString(narrative)
	return b.String()
}
