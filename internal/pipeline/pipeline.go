package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/models"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/narrative"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/store"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/validator"
)

// Submission outcome statuses returned to the caller.
const (
	SubmitStatusComplete  = "complete"
	SubmitStatusNeedsInfo = "needs_info"
)

// SubmitResult is the caller-facing outcome of a narrative submission or
// augmentation round.
type SubmitResult struct {
	Status     string                              `json:"status"`
	Validation validator.ValidationResult          `json:"validation"`
	Report     *models.ReportDraft                 `json:"report"`
	Insertions map[string]narrative.InsertionPoint `json:"insertions,omitempty"`
	Routing    *RoutingDecision                    `json:"routing,omitempty"`
}

// Pipeline orchestrates validate → (plan insertions → apply → re-validate)*
// → route. Request-scoped: no state survives between calls.
type Pipeline struct {
	validator        *validator.Validator
	store            store.Store
	router           *Router
	extractorTimeout time.Duration
	now              func() time.Time
}

func New(v *validator.Validator, st store.Store, router *Router, extractorTimeout time.Duration) *Pipeline {
	return &Pipeline{
		validator:        v,
		store:            st,
		router:           router,
		extractorTimeout: extractorTimeout,
		now:              time.Now,
	}
}

// SubmitNarrative validates a narrative against its template and either
// routes the resulting report or returns a needs_info result with per-field
// insertion points for the caller to fill.
func (p *Pipeline) SubmitNarrative(ctx context.Context, orgID, userID, reportType, templateID, text string) (*SubmitResult, error) {
	var required []models.FieldDescriptor
	var tmplID *string
	if templateID != "" {
		tmpl, err := p.store.GetTemplate(ctx, templateID)
		if err != nil {
			return nil, fmt.Errorf("load template: %w", err)
		}
		if tmpl == nil {
			return nil, &models.NotFoundError{Entity: "template", ID: templateID}
		}
		required = tmpl.RequiredDescriptors()
		tmplID = &tmpl.ID
	}

	result, err := p.validate(ctx, text, required)
	if err != nil {
		return nil, err
	}

	now := p.now().UTC()
	report := &models.ReportDraft{
		ID:         uuid.NewString(),
		OrgID:      orgID,
		ReportType: reportType,
		TemplateID: tmplID,
		Narrative:  text,
		Status:     models.ReportStatusDrafted,
		CreatedBy:  userID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.store.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	if err := p.store.IncrementOrgCounters(ctx, orgID, 1, 0); err != nil {
		// Tolerated drift; reconciliation recounts.
		log.Printf("Warning: report counter increment failed for org %s: %v", orgID, err)
	}

	return p.finish(ctx, report, result)
}

// AddInformation splices supplementary text for one missing field into an
// existing draft's narrative, re-validates the whole narrative, and routes
// it when complete. This is one round of the augmentation loop; the caller
// repeats it until the validator reports completeness.
func (p *Pipeline) AddInformation(ctx context.Context, reportID, field, text string) (*SubmitResult, error) {
	report, err := p.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	if report == nil {
		return nil, &models.NotFoundError{Entity: "report", ID: reportID}
	}
	if report.Status != models.ReportStatusDrafted && report.Status != models.ReportStatusReturned {
		return nil, &models.InvalidStateError{Op: "add information", Current: report.Status}
	}

	var required []models.FieldDescriptor
	if report.TemplateID != nil {
		tmpl, err := p.store.GetTemplate(ctx, *report.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("load template: %w", err)
		}
		if tmpl != nil {
			required = tmpl.RequiredDescriptors()
		}
	}

	// Plan against the current narrative, apply, then re-validate the full
	// updated text. The insertion only happens here, after a prior full
	// validation flagged the field; a cancelled validation never leaves a
	// partially mutated narrative behind.
	points := narrative.PlanInsertions(report.Narrative, []string{field})
	updated := narrative.ApplyInsertion(report.Narrative, points[field], text)

	result, err := p.validate(ctx, updated, required)
	if err != nil {
		return nil, err
	}

	report.Narrative = updated
	report.Status = models.ReportStatusDrafted
	report.FlagReason = ""
	report.UpdatedAt = p.now().UTC()
	if err := p.store.UpdateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("update report: %w", err)
	}

	return p.finish(ctx, report, result)
}

// validate runs the completeness validator under the extractor timeout.
func (p *Pipeline) validate(ctx context.Context, text string, required []models.FieldDescriptor) (validator.ValidationResult, error) {
	if p.extractorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.extractorTimeout)
		defer cancel()
	}
	return p.validator.Validate(ctx, text, required)
}

// finish routes a complete report or returns needs_info with the insertion
// plan for everything still missing.
func (p *Pipeline) finish(ctx context.Context, report *models.ReportDraft, result validator.ValidationResult) (*SubmitResult, error) {
	if !result.IsComplete {
		return &SubmitResult{
			Status:     SubmitStatusNeedsInfo,
			Validation: result,
			Report:     report,
			Insertions: narrative.PlanInsertions(report.Narrative, result.MissingFields),
		}, nil
	}

	score := result.ConfidenceScore * 100
	decision, err := p.router.Route(ctx, report, score)
	if err != nil {
		return nil, fmt.Errorf("route report: %w", err)
	}
	return &SubmitResult{
		Status:     SubmitStatusComplete,
		Validation: result,
		Report:     report,
		Routing:    &decision,
	}, nil
}
