package store

import (
	"context"
	"time"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/models"
)

// Store is the pipeline's narrow contract to persistence. Lookups return
// (nil, nil) when the record does not exist. Conditional updates take the
// expected current status and fail with *models.ConcurrentModificationError
// when the record changed underneath the caller; the caller retries by
// re-reading, never by replaying the same expectation.
type Store interface {
	ReportStore
	TemplateStore
	QueueStore
	OrgStore

	Close() error
}

type ReportStore interface {
	CreateReport(ctx context.Context, r *models.ReportDraft) error
	GetReport(ctx context.Context, id string) (*models.ReportDraft, error)
	// UpdateReport writes r unconditionally (narrative edits, flags).
	UpdateReport(ctx context.Context, r *models.ReportDraft) error
	// UpdateReportConditional writes r only if the stored status still equals
	// expectedStatus.
	UpdateReportConditional(ctx context.Context, r *models.ReportDraft, expectedStatus string) error
	CountReports(ctx context.Context, orgID string) (int, error)
}

type TemplateStore interface {
	CreateTemplate(ctx context.Context, t *models.TemplateDefinition) error
	GetTemplate(ctx context.Context, id string) (*models.TemplateDefinition, error)
	ListTemplates(ctx context.Context, orgID string) ([]models.TemplateDefinition, error)
	UpdateTemplate(ctx context.Context, t *models.TemplateDefinition) error
}

type QueueStore interface {
	CreateQueueItem(ctx context.Context, item *models.ReviewQueueItem) error
	GetQueueItem(ctx context.Context, id string) (*models.ReviewQueueItem, error)
	// UpdateQueueItemConditional writes item only if the stored status still
	// equals expectedStatus. This is what serializes assign/resolve races
	// across processes.
	UpdateQueueItemConditional(ctx context.Context, item *models.ReviewQueueItem, expectedStatus string) error
	// FindOpenQueueItem returns the single non-resolved item for a report,
	// or nil.
	FindOpenQueueItem(ctx context.Context, reportID string) (*models.ReviewQueueItem, error)
	ListQueueItems(ctx context.Context, orgID string, openOnly bool) ([]models.ReviewQueueItem, error)
	// ListDueBefore returns open items across all organizations whose SLA
	// deadline falls before cutoff.
	ListDueBefore(ctx context.Context, cutoff time.Time) ([]models.ReviewQueueItem, error)
}

type OrgStore interface {
	GetOrgAggregate(ctx context.Context, orgID string) (*models.OrganizationAggregate, error)
	// IncrementOrgCounters adds the deltas, creating the aggregate row on
	// first use.
	IncrementOrgCounters(ctx context.Context, orgID string, reportDelta, lowAccuracyDelta int) error
	// SetOrgAggregate overwrites the counters (reconciliation path).
	SetOrgAggregate(ctx context.Context, agg *models.OrganizationAggregate) error
}
