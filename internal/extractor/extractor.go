package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/models"
)

// ExtractionResult is the typed output of one extraction call. Field keys
// may include anything the service chose to mention; the completeness
// validator intersects them with the template's required set.
type ExtractionResult struct {
	PresentFields []string `json:"present"`
	MissingFields []string `json:"missing"`
	Confidence    float64  `json:"confidence"`
}

// Extractor is the narrow contract to the external language-understanding
// service. Implementations must bound the call by ctx.
type Extractor interface {
	Extract(ctx context.Context, narrative string, fields []models.FieldDescriptor) (ExtractionResult, error)
}

// ParseExtraction turns a raw service payload into a typed result. The
// service speaks loosely structured JSON; nothing past this function sees
// an unchecked shape. Malformed payloads return an error so the validator
// can fail closed.
func ParseExtraction(raw []byte) (ExtractionResult, error) {
	text := strings.TrimSpace(string(raw))
	// Models occasionally wrap JSON in a markdown fence despite the
	// response MIME type.
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var result ExtractionResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return ExtractionResult{}, fmt.Errorf("parse extraction payload: %w", err)
	}
	if result.PresentFields == nil && result.MissingFields == nil {
		return ExtractionResult{}, fmt.Errorf("extraction payload has neither present nor missing fields")
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	return result, nil
}
