package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/extractor"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/models"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/store"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/validator"
)

// scriptedExtractor returns a fixed sequence of results, one per call.
type scriptedExtractor struct {
	results []extractor.ExtractionResult
	calls   int
}

func (s *scriptedExtractor) Extract(ctx context.Context, narrative string, fields []models.FieldDescriptor) (extractor.ExtractionResult, error) {
	result := s.results[s.calls]
	s.calls++
	return result, nil
}

func seedTemplate(t *testing.T, st store.Store) *models.TemplateDefinition {
	t.Helper()
	now := time.Now().UTC()
	tmpl := &models.TemplateDefinition{
		ID:             uuid.NewString(),
		OrgID:          "org-1",
		Name:           "Traffic Stop",
		RequiredFields: []string{"location", "incident_time"},
		FieldDefinitions: map[string]models.FieldDescriptor{
			"location":      {Key: "location", Label: "Location", Required: true, Type: models.FieldTypeText},
			"incident_time": {Key: "incident_time", Label: "Incident time", Required: true, Type: models.FieldTypeDatetime},
		},
		CreatedBy: "admin",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, tmpl.Validate())
	require.NoError(t, st.CreateTemplate(context.Background(), tmpl))
	return tmpl
}

func newTestPipeline(st store.Store, ex extractor.Extractor) *Pipeline {
	router := newTestRouter(st)
	return New(validator.New(ex), st, router, 0)
}

func TestSubmitNarrative_AugmentationLoopToCompletion(t *testing.T) {
	st := store.NewMemoryStore()
	tmpl := seedTemplate(t, st)
	ex := &scriptedExtractor{results: []extractor.ExtractionResult{
		{PresentFields: nil, MissingFields: []string{"location", "incident_time"}, Confidence: 0.4},
		{PresentFields: []string{"location"}, MissingFields: []string{"incident_time"}, Confidence: 0.6},
		{PresentFields: []string{"location", "incident_time"}, Confidence: 0.92},
	}}
	p := newTestPipeline(st, ex)
	ctx := context.Background()

	// Round 1: both fields missing.
	result, err := p.SubmitNarrative(ctx, "org-1", "officer-7", "incident", tmpl.ID, "Subject was uncooperative during the stop.")
	require.NoError(t, err)
	assert.Equal(t, SubmitStatusNeedsInfo, result.Status)
	assert.Equal(t, []string{"location", "incident_time"}, result.Validation.MissingFields)
	require.Contains(t, result.Insertions, "location")
	require.Contains(t, result.Insertions, "incident_time")
	assert.Equal(t, len(result.Report.Narrative), result.Insertions["location"].Offset)
	assert.Equal(t, 0, result.Insertions["incident_time"].Offset)

	reportID := result.Report.ID

	// Round 2: add the location at the end of the narrative.
	result, err = p.AddInformation(ctx, reportID, "location", "the stop occurred at 500 Main St")
	require.NoError(t, err)
	assert.Equal(t, SubmitStatusNeedsInfo, result.Status)
	assert.Equal(t, []string{"incident_time"}, result.Validation.MissingFields)
	assert.Contains(t, result.Report.Narrative, "500 Main St")

	// Round 3: add the time; narrative is now complete and routes.
	result, err = p.AddInformation(ctx, reportID, "incident_time", "the incident occurred at approximately 2300 hours")
	require.NoError(t, err)
	assert.Equal(t, SubmitStatusComplete, result.Status)
	assert.True(t, result.Validation.IsComplete)
	assert.True(t, strings.HasPrefix(result.Report.Narrative, "The incident occurred at approximately 2300 hours."))
	require.NotNil(t, result.Routing)
	assert.True(t, result.Routing.AutoApprove, "0.92 confidence scores 92, above the threshold")
	assert.Equal(t, models.ReportStatusSubmitted, result.Report.Status)
	assert.Equal(t, 3, ex.calls)
}

func TestSubmitNarrative_CompleteLowConfidenceGoesToReview(t *testing.T) {
	st := store.NewMemoryStore()
	tmpl := seedTemplate(t, st)
	ex := &scriptedExtractor{results: []extractor.ExtractionResult{
		{PresentFields: []string{"location", "incident_time"}, Confidence: 0.62},
	}}
	p := newTestPipeline(st, ex)

	result, err := p.SubmitNarrative(context.Background(), "org-1", "officer-7", "incident", tmpl.ID,
		"At 2300 hours I conducted a stop at 500 Main St.")
	require.NoError(t, err)

	assert.Equal(t, SubmitStatusComplete, result.Status)
	require.NotNil(t, result.Routing)
	assert.False(t, result.Routing.AutoApprove)
	require.NotNil(t, result.Routing.ReviewItem)
	assert.Equal(t, models.PriorityNormal, result.Routing.ReviewItem.Priority)
	assert.Equal(t, models.ReportStatusPendingReview, result.Report.Status)
}

func TestSubmitNarrative_NoTemplateAlwaysCompletes(t *testing.T) {
	st := store.NewMemoryStore()
	ex := &scriptedExtractor{}
	p := newTestPipeline(st, ex)

	result, err := p.SubmitNarrative(context.Background(), "org-1", "officer-7", "incident", "", "Anything.")
	require.NoError(t, err)

	assert.Equal(t, SubmitStatusComplete, result.Status)
	assert.Equal(t, 1.0, result.Validation.ConfidenceScore)
	assert.Equal(t, 0, ex.calls)
	require.NotNil(t, result.Routing)
	assert.True(t, result.Routing.AutoApprove)
}

func TestSubmitNarrative_UnknownTemplate(t *testing.T) {
	st := store.NewMemoryStore()
	p := newTestPipeline(st, &scriptedExtractor{})

	_, err := p.SubmitNarrative(context.Background(), "org-1", "officer-7", "incident", "no-such-template", "Anything.")
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "template", notFound.Entity)
}

func TestAddInformation_RejectsRoutedReport(t *testing.T) {
	st := store.NewMemoryStore()
	tmpl := seedTemplate(t, st)
	ex := &scriptedExtractor{results: []extractor.ExtractionResult{
		{PresentFields: []string{"location", "incident_time"}, Confidence: 0.9},
	}}
	p := newTestPipeline(st, ex)
	ctx := context.Background()

	result, err := p.SubmitNarrative(ctx, "org-1", "officer-7", "incident", tmpl.ID, "Complete narrative.")
	require.NoError(t, err)
	require.Equal(t, SubmitStatusComplete, result.Status)

	_, err = p.AddInformation(ctx, result.Report.ID, "location", "extra text")
	var stateErr *models.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}
