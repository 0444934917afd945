package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/models"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/notify"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/store"
)

// Priority score bands below the threshold.
const (
	highPriorityBelow   = 60.0
	normalPriorityBelow = 70.0
)

// RoutingDecision is the outcome of routing one report by accuracy.
type RoutingDecision struct {
	AutoApprove bool                    `json:"autoApprove"`
	ReviewItem  *models.ReviewQueueItem `json:"reviewItem,omitempty"`
}

// Router classifies a report as auto-acceptable or review-bound. It holds
// the single injected accuracy threshold shared with the validator caller
// and the statistics aggregator.
type Router struct {
	store     store.Store
	notifier  notify.Notifier
	threshold float64
	slaWindow time.Duration
	now       func() time.Time
}

func NewRouter(st store.Store, notifier notify.Notifier, threshold float64, slaWindow time.Duration) *Router {
	return &Router{
		store:     st,
		notifier:  notifier,
		threshold: threshold,
		slaWindow: slaWindow,
		now:       time.Now,
	}
}

// Threshold exposes the injected threshold so collaborators never carry a
// second copy of the value.
func (r *Router) Threshold() float64 { return r.threshold }

// Route decides auto-submit vs. review-bound for a report with a computed
// accuracy score, persists the status change, and creates at most one open
// queue item per report. The drafted to routed transition is a conditional
// write: when two processes race to route the same draft, exactly one wins
// and only the winner may create a queue item; the loser gets
// ConcurrentModificationError and must re-read.
func (r *Router) Route(ctx context.Context, report *models.ReportDraft, accuracyScore float64) (RoutingDecision, error) {
	now := r.now().UTC()
	report.AccuracyScore = &accuracyScore
	report.UpdatedAt = now

	if accuracyScore >= r.threshold {
		report.Status = models.ReportStatusSubmitted
		if err := r.store.UpdateReportConditional(ctx, report, models.ReportStatusDrafted); err != nil {
			return RoutingDecision{}, fmt.Errorf("update report: %w", err)
		}
		return RoutingDecision{AutoApprove: true}, nil
	}

	report.Status = models.ReportStatusPendingReview
	if err := r.store.UpdateReportConditional(ctx, report, models.ReportStatusDrafted); err != nil {
		return RoutingDecision{}, fmt.Errorf("update report: %w", err)
	}

	// At most one open item per report.
	existing, err := r.store.FindOpenQueueItem(ctx, report.ID)
	if err != nil {
		return RoutingDecision{}, fmt.Errorf("find open queue item: %w", err)
	}
	if existing != nil {
		return RoutingDecision{AutoApprove: false, ReviewItem: existing}, nil
	}

	item := &models.ReviewQueueItem{
		ID:            uuid.NewString(),
		OrgID:         report.OrgID,
		ReportID:      report.ID,
		AccuracyScore: accuracyScore,
		Status:        models.QueueStatusPending,
		Priority:      r.priorityFor(accuracyScore),
		DueDate:       now.Add(r.slaWindow),
		CreatedAt:     now,
	}
	if err := r.store.CreateQueueItem(ctx, item); err != nil {
		return RoutingDecision{}, fmt.Errorf("create queue item: %w", err)
	}

	// Counter drift here is tolerated: the reconciliation path recomputes
	// from the queue-item collection.
	if err := r.store.IncrementOrgCounters(ctx, report.OrgID, 0, 1); err != nil {
		log.Printf("Warning: low-accuracy counter increment failed for org %s: %v", report.OrgID, err)
	}

	r.notifier.Publish(ctx, notify.Event{
		Type:          notify.EventLowAccuracyDetected,
		OrgID:         report.OrgID,
		ReportID:      report.ID,
		QueueItemID:   item.ID,
		AccuracyScore: accuracyScore,
		At:            now,
	})

	return RoutingDecision{AutoApprove: false, ReviewItem: item}, nil
}

func (r *Router) priorityFor(score float64) string {
	switch {
	case score < highPriorityBelow:
		return models.PriorityHigh
	case score < normalPriorityBelow:
		return models.PriorityNormal
	default:
		return models.PriorityLow
	}
}
