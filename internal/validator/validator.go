package validator

import (
	"context"
	"log"
	"strings"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/extractor"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/models"
)

// failClosedConfidence reflects systemic uncertainty when the extraction
// service errors out, not a per-field judgment.
const failClosedConfidence = 0.1

// ValidationResult is transient: produced per validation call, consumed
// immediately by the router or the UI-facing caller, never persisted.
type ValidationResult struct {
	IsComplete      bool     `json:"isComplete"`
	MissingFields   []string `json:"missingFields"`
	PresentFields   []string `json:"presentFields"`
	ConfidenceScore float64  `json:"confidenceScore"`
	GuidanceText    string   `json:"guidanceText,omitempty"`
}

// Validator checks a narrative against a template's required fields by way
// of the field extraction service.
type Validator struct {
	extractor extractor.Extractor
}

func New(ex extractor.Extractor) *Validator {
	return &Validator{extractor: ex}
}

// Validate decides what is missing from a narrative. A template with no
// required fields can never fail: the empty case short-circuits without an
// extraction call. Extraction failures are absorbed into a fail-closed
// result (everything missing) rather than propagated, so an ambiguous
// upstream failure can never let an incomplete report auto-submit.
func (v *Validator) Validate(ctx context.Context, narrative string, requiredFields []models.FieldDescriptor) (ValidationResult, error) {
	if len(requiredFields) == 0 {
		return ValidationResult{
			IsComplete:      true,
			MissingFields:   []string{},
			PresentFields:   []string{},
			ConfidenceScore: 1.0,
		}, nil
	}

	result, err := v.extractor.Extract(ctx, narrative, requiredFields)
	if err != nil {
		extErr := &models.ExtractionServiceError{Cause: err}
		log.Printf("Warning: validation failing closed: %v", extErr)
		return v.failClosed(requiredFields), nil
	}

	present := make(map[string]bool, len(result.PresentFields))
	for _, key := range result.PresentFields {
		present[key] = true
	}

	// Intersect extractor output with the declared required set; fields the
	// extractor mentions that are not part of this template are discarded.
	var missingKeys, presentKeys []string
	var missingDescs []models.FieldDescriptor
	for _, f := range requiredFields {
		if present[f.Key] {
			presentKeys = append(presentKeys, f.Key)
		} else {
			missingKeys = append(missingKeys, f.Key)
			missingDescs = append(missingDescs, f)
		}
	}

	return ValidationResult{
		IsComplete:      len(missingKeys) == 0,
		MissingFields:   missingKeys,
		PresentFields:   presentKeys,
		ConfidenceScore: result.Confidence,
		GuidanceText:    guidanceFor(missingDescs),
	}, nil
}

func (v *Validator) failClosed(requiredFields []models.FieldDescriptor) ValidationResult {
	missing := make([]string, 0, len(requiredFields))
	for _, f := range requiredFields {
		missing = append(missing, f.Key)
	}
	return ValidationResult{
		IsComplete:      false,
		MissingFields:   missing,
		PresentFields:   []string{},
		ConfidenceScore: failClosedConfidence,
		GuidanceText:    guidanceFor(requiredFields),
	}
}

// guidanceFor builds user-facing text from the labels of truly required
// missing fields only.
func guidanceFor(missing []models.FieldDescriptor) string {
	if len(missing) == 0 {
		return ""
	}
	labels := make([]string, 0, len(missing))
	for _, f := range missing {
		label := f.Label
		if label == "" {
			label = f.Key
		}
		labels = append(labels, label)
	}
	return "Please add the following information: " + strings.Join(labels, ", ") + "."
}
